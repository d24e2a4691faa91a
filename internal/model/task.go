package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Task struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Text         string              `bson:"text" json:"text"`
	Result       string              `bson:"result,omitempty" json:"result,omitempty"`
	Conversation primitive.ObjectID  `bson:"conversation" json:"conversation"`
	Type         *primitive.ObjectID `bson:"type,omitempty" json:"type,omitempty"`
	Done         bool                `bson:"done" json:"done"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	EndAt        time.Time           `bson:"endAt" json:"endAt"`
}

type TaskType struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title string             `bson:"title" json:"title"`
}

// TaskView is a task with its type resolved, as embedded in message views.
type TaskView struct {
	Task
	TypeRef *TaskType `json:"typeRef,omitempty"`
}
