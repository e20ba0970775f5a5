// Package llm provides the text model boundary using langchaingo.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/avaldes/marsight/internal/config"
	"github.com/avaldes/marsight/internal/models"
)

// Model wraps a langchaingo LLM for text generation. A nil *Model is a
// valid "service unavailable" state; every operation degrades to its
// documented fallback instead of dereferencing.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Generate generates text from a single user prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("LLM model not configured")
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// Chat generates a completion for an ordered list of role-tagged messages.
// One synchronous call, single completion, no retries.
func (m *Model) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if m == nil {
		return "", fmt.Errorf("LLM model not configured")
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(roleToMessageType(msg.Role), msg.Content))
	}

	response, err := m.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return response.Choices[0].Content, nil
}

// ModelName returns the configured model name.
func (m *Model) ModelName() string {
	if m == nil {
		return ""
	}
	return m.modelName
}

func roleToMessageType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
