package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation types as reported by the messaging platform.
const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

// Conversation is the stored aggregate for one chat thread.
type Conversation struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	ChatID      int64                `bson:"chat_id" json:"chat_id"`
	Type        string               `bson:"type" json:"type"`
	UnreadCount int                  `bson:"unreadCount" json:"unreadCount"`
	Stage       primitive.ObjectID   `bson:"stage,omitempty" json:"stage"`
	User        *primitive.ObjectID  `bson:"user,omitempty" json:"user,omitempty"`
	Messages    []primitive.ObjectID `bson:"messages" json:"messages"`
	Tasks       []primitive.ObjectID `bson:"tasks" json:"tasks"`
	Tags        []primitive.ObjectID `bson:"tags" json:"tags"`
	Members     []ChatMember         `bson:"members" json:"members"`
	Link        string               `bson:"link,omitempty" json:"link,omitempty"`
	// WorkAt marks entry into the active workflow. Set once, immutable after.
	WorkAt    *time.Time `bson:"workAt,omitempty" json:"workAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// IsGroup reports whether the conversation is a group of either platform kind.
func (c *Conversation) IsGroup() bool {
	return c.Type == ChatTypeGroup || c.Type == ChatTypeSupergroup
}

type ChatMember struct {
	UserID    int64  `bson:"user_id" json:"user_id"`
	Username  string `bson:"username,omitempty" json:"username,omitempty"`
	FirstName string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	IsBot     bool   `bson:"is_bot" json:"is_bot"`
}

// ConversationView is the denormalized, joined, deduplicated representation
// of a conversation assembled by the view materializer. Never persisted.
type ConversationView struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	ChatID      int64              `json:"chat_id"`
	Type        string             `json:"type"`
	UnreadCount int                `json:"unreadCount"`
	Stage       StageRef           `json:"stage"`
	User        *User              `json:"user,omitempty"`
	Tags        []Tag              `json:"tags"`
	Tasks       []Task             `json:"tasks"`
	LastMessage *MessageView       `json:"lastMessage,omitempty"`
	Link        string             `json:"link,omitempty"`
	WorkAt      *time.Time         `json:"workAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// StageRef is the stage projection embedded in a materialized view.
type StageRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Value string             `json:"value"`
	Label string             `json:"label"`
	Color string             `json:"color"`
}
