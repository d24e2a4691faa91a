package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Stage applicability: which conversation types a stage is shown for.
const (
	StageTypePrivate = "private"
	StageTypeGroup   = "group"
	StageTypeAll     = "all"
)

// Stage is a named classification of a conversation's position in the
// operational workflow. Transitions between stages are unconstrained.
type Stage struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Label    string             `bson:"label" json:"label"`
	Default  bool               `bson:"default" json:"default"`
	Color    string             `bson:"color" json:"color"`
	Value    string             `bson:"value" json:"value"`
	Type     string             `bson:"type" json:"type"`
	Position int                `bson:"position" json:"position"`
}

// DefaultStages are seeded at bootstrap when the stages collection is empty.
var DefaultStages = []Stage{
	{Label: "Free chats", Default: true, Color: "white", Value: "ready", Type: StageTypeAll, Position: 0},
	{Label: "Unprocessed", Default: true, Color: "dodgerblue", Value: "raw", Type: StageTypeAll, Position: 1},
	{Label: "In progress", Default: true, Color: "gold", Value: "work", Type: StageTypeAll, Position: 2},
	{Label: "Activated", Default: true, Color: "limegreen", Value: "active", Type: StageTypeAll, Position: 3},
	{Label: "Has task", Default: true, Color: "brown", Value: "task", Type: StageTypeAll, Position: 4},
}
