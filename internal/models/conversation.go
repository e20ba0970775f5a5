package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultConversationTitle is the placeholder title of an untitled transcript.
const DefaultConversationTitle = "New Conversation"

// ChatMessage is a single role-tagged message within a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a persisted chat transcript. Messages are append-only
// and chronological; only the chat service appends.
type Conversation struct {
	ID        surrealmodels.RecordID `json:"id"`
	Title     string                 `json:"title"`
	Messages  []ChatMessage          `json:"messages"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ConversationSummary is the list-view shape of a conversation.
type ConversationSummary struct {
	ID      surrealmodels.RecordID `json:"id"`
	Title   string                 `json:"title"`
	Date    time.Time              `json:"date"`
	Preview string                 `json:"preview"`
}
