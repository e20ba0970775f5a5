package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/avaldes/marsight/internal/models"
)

// CreateConversation persists a new transcript with its opening messages.
func (c *Client) CreateConversation(ctx context.Context, title string, messages []models.ChatMessage) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		CREATE conversation CONTENT {
			title: $title,
			messages: $messages
		}
	`, map[string]any{
		"title":    title,
		"messages": messages,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create conversation: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetConversation retrieves a transcript by ID. Returns ErrNotFound if absent.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// AppendMessages appends a message pair to a transcript. Messages are
// append-only; this is the only mutation of the message list.
func (c *Client) AppendMessages(ctx context.Context, id string, messages []models.ChatMessage) error {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		UPDATE type::record("conversation", $id) SET
			messages += $messages,
			updated_at = time::now()
	`, map[string]any{
		"id":       id,
		"messages": messages,
	})
	if err != nil {
		return fmt.Errorf("append messages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateConversationTitle overwrites a transcript's title.
func (c *Client) UpdateConversationTitle(ctx context.Context, id string, title string) error {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		UPDATE type::record("conversation", $id) SET
			title = $title,
			updated_at = time::now()
	`, map[string]any{
		"id":    id,
		"title": title,
	})
	if err != nil {
		return fmt.Errorf("update conversation title: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// ListConversations returns transcript summaries, most recently updated
// first. The preview is the tail of the last message, truncated store-side.
func (c *Client) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	results, err := surrealdb.Query[[]models.ConversationSummary](ctx, c.db, `
		SELECT id, title, updated_at AS date,
			string::slice(messages[array::len(messages) - 1].content ?? "", 0, 50) AS preview
		FROM conversation
		ORDER BY updated_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.ConversationSummary{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteConversation removes a transcript by ID.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete conversation: %w", wrapQueryError(err))
	}
	return nil
}
