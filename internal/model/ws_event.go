package model

import "encoding/json"

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Websocket event types pushed to dashboard clients.
const (
	WSConversationUpdate = "conversation:update"
	WSConversationsSet   = "conversations:set"
	WSTagsSet            = "tags:set"
	WSStagesSet          = "stages:set"
)
