package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StageHistory records one stage transition of a conversation at a point in
// time, including the initial stage assignment. Records are append-only and
// serve solely as analytics input; the authoritative current stage always
// lives on the Conversation document.
type StageHistory struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Stage        primitive.ObjectID `bson:"stage" json:"stage"`
	Conversation primitive.ObjectID `bson:"conversation" json:"conversation"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
