package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avaldes/marsight/internal/llm"
	"github.com/avaldes/marsight/internal/models"
)

// historyWindow is the hard cap on prior messages included in a prompt.
// Older history is dropped, never summarized.
const historyWindow = 10

// titleTruncateLen is the fallback title length in runes.
const titleTruncateLen = 30

// chatSystemPrompt grounds the assistant in the exploration suit persona.
const chatSystemPrompt = "Eres una IA avanzada integrada en el traje de exploración 'Mars-Sight AR'. " +
	"Tu misión es asistir al explorador con información científica, técnica y de supervivencia. " +
	"Respuestas concisas, útiles y en español. " +
	"Si te preguntan por datos del traje, inventa valores realistas dentro de parámetros seguros."

// chatApology is the fixed user-facing reply for a failed model call.
const chatApology = "Error de conexión con el módulo de IA."

// ErrEmptyMessage indicates a chat request without message text.
var ErrEmptyMessage = errors.New("message is required")

// ConversationStore is the persistence surface the chat service needs.
type ConversationStore interface {
	CreateConversation(ctx context.Context, title string, messages []models.ChatMessage) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	AppendMessages(ctx context.Context, id string, messages []models.ChatMessage) error
	UpdateConversationTitle(ctx context.Context, id string, title string) error
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
	DeleteConversation(ctx context.Context, id string) error
}

// ChatRequest is one chat turn from the caller.
type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
	ChatID  string `json:"chat_id,omitempty"`
}

// ChatResponse is the assistant reply plus the transcript it belongs to.
type ChatResponse struct {
	Response string `json:"response"`
	ChatID   string `json:"chat_id"`
}

// ChatService manages conversation transcripts: bounded-window prompt
// assembly, persistence and auto-titling.
type ChatService struct {
	store    ConversationStore
	model    llm.Completer
	enricher *llm.Enricher
}

// NewChatService creates the service. model may be nil when no LLM is
// configured; turns then degrade to the apology reply.
func NewChatService(store ConversationStore, model llm.Completer, enricher *llm.Enricher) *ChatService {
	return &ChatService{store: store, model: model, enricher: enricher}
}

// Send runs one chat turn: load history, assemble the windowed prompt,
// call the model, persist both messages, auto-title new transcripts.
// A model failure yields the fixed apology with the caller's chat id
// unchanged so the client can retry against the same transcript.
func (s *ChatService) Send(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.Message == "" {
		return ChatResponse{}, ErrEmptyMessage
	}

	// Load the existing transcript if an id was given. A missing or
	// unreadable transcript is treated as starting a new one.
	var existing *models.Conversation
	if req.ChatID != "" {
		conv, err := s.store.GetConversation(ctx, req.ChatID)
		if err != nil {
			slog.Warn("failed to load conversation, starting new", "chat_id", req.ChatID, "error", err)
		} else {
			existing = conv
		}
	}

	prompt := buildPrompt(existing, req)

	reply, err := s.chat(ctx, prompt)
	if err != nil {
		slog.Warn("chat model call failed", "chat_id", req.ChatID, "error", err)
		return ChatResponse{Response: chatApology, ChatID: req.ChatID}, nil
	}

	newMessages := []models.ChatMessage{
		{Role: models.RoleUser, Content: req.Message},
		{Role: models.RoleAssistant, Content: reply},
	}

	chatID := s.persistTurn(ctx, existing, req, newMessages)
	return ChatResponse{Response: reply, ChatID: chatID}, nil
}

func (s *ChatService) chat(ctx context.Context, prompt []models.ChatMessage) (string, error) {
	if s.model == nil {
		return "", fmt.Errorf("LLM model not configured")
	}
	return s.model.Chat(ctx, prompt)
}

// buildPrompt assembles [system, last 10 prior messages, optional context
// injection, user message]. The window is a hard cap.
func buildPrompt(existing *models.Conversation, req ChatRequest) []models.ChatMessage {
	prompt := []models.ChatMessage{{Role: models.RoleSystem, Content: chatSystemPrompt}}

	if existing != nil {
		history := existing.Messages
		if len(history) > historyWindow {
			history = history[len(history)-historyWindow:]
		}
		prompt = append(prompt, history...)
	}

	if req.Context != "" {
		prompt = append(prompt, models.ChatMessage{
			Role:    models.RoleSystem,
			Content: "Contexto actual del sistema: " + req.Context,
		})
	}

	return append(prompt, models.ChatMessage{Role: models.RoleUser, Content: req.Message})
}

// persistTurn appends the message pair, handling titles: new transcripts
// get a model-generated title with a truncation fallback, existing ones
// with the placeholder title get the truncation directly. Persistence is
// fully ordered before the response returns; a failed write is logged and
// the caller's chat id preserved.
func (s *ChatService) persistTurn(ctx context.Context, existing *models.Conversation, req ChatRequest, newMessages []models.ChatMessage) string {
	if existing != nil {
		id, err := models.RecordIDString(existing.ID)
		if err != nil {
			slog.Warn("conversation id unreadable, turn not persisted", "error", err)
			return req.ChatID
		}

		if err := s.store.AppendMessages(ctx, id, newMessages); err != nil {
			slog.Warn("failed to persist chat turn", "chat_id", id, "error", err)
			return req.ChatID
		}

		if existing.Title == models.DefaultConversationTitle {
			if err := s.store.UpdateConversationTitle(ctx, id, truncateTitle(req.Message)); err != nil {
				slog.Warn("failed to update conversation title", "chat_id", id, "error", err)
			}
		}
		return id
	}

	title, err := s.generateTitle(ctx, req.Message)
	if err != nil {
		slog.Warn("title generation failed, using truncation", "error", err)
		title = truncateTitle(req.Message)
	}

	conv, err := s.store.CreateConversation(ctx, title, newMessages)
	if err != nil {
		slog.Warn("failed to persist new conversation", "error", err)
		return req.ChatID
	}

	id, err := models.RecordIDString(conv.ID)
	if err != nil {
		slog.Warn("created conversation id unreadable", "error", err)
		return req.ChatID
	}
	return id
}

func (s *ChatService) generateTitle(ctx context.Context, message string) (string, error) {
	if s.enricher == nil {
		return "", fmt.Errorf("enricher not configured")
	}
	return s.enricher.GenerateTitle(ctx, message)
}

// truncateTitle is the deterministic title fallback: the first 30 runes
// of the user message plus an ellipsis.
func truncateTitle(message string) string {
	runes := []rune(message)
	if len(runes) > titleTruncateLen {
		runes = runes[:titleTruncateLen]
	}
	return string(runes) + "..."
}

// History lists transcript summaries, most recently updated first.
func (s *ChatService) History(ctx context.Context) ([]models.ConversationSummary, error) {
	return s.store.ListConversations(ctx)
}

// Transcript loads one conversation by id.
func (s *ChatService) Transcript(ctx context.Context, id string) (*models.Conversation, error) {
	return s.store.GetConversation(ctx, id)
}

// Rename overwrites a transcript title.
func (s *ChatService) Rename(ctx context.Context, id, title string) error {
	return s.store.UpdateConversationTitle(ctx, id, title)
}

// Delete removes a transcript.
func (s *ChatService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteConversation(ctx, id)
}
