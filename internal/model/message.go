package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one inbound or outbound chat message.
type Message struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	MessageID int64               `bson:"message_id" json:"message_id"`
	Unread    bool                `bson:"unread" json:"unread"`
	From      MessageSender       `bson:"from" json:"from"`
	ChatID    int64               `bson:"chat_id" json:"chat_id"`
	Text      string              `bson:"text,omitempty" json:"text,omitempty"`
	Type      string              `bson:"type" json:"type"`
	Task      *primitive.ObjectID `bson:"task,omitempty" json:"task,omitempty"`
	Date      time.Time           `bson:"date" json:"date"`
}

type MessageSender struct {
	ID        string `bson:"id" json:"id"`
	FirstName string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	Username  string `bson:"username,omitempty" json:"username,omitempty"`
	IsBot     bool   `bson:"is_bot" json:"is_bot"`
}

// MessageView is a message with its task and task type resolved.
type MessageView struct {
	Message
	TaskRef *TaskView `json:"taskRef,omitempty"`
}
