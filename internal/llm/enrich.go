package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avaldes/marsight/internal/models"
)

// Completer is the surface of Model that enrichment needs. It exists so
// tests can substitute a stub without a live backend.
type Completer interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Fallback strings for failed or unavailable enrichment calls.
const (
	enrichEmptyDescription  = "No data."
	enrichFailedDescription = "AI Analysis Failed"
)

// Enricher generates descriptive text for detections. Every operation is
// best-effort: a failed model call yields a deterministic fallback, never
// an error. Construct with a nil completer to represent an unavailable
// service.
type Enricher struct {
	model Completer
}

// NewEnricher creates an enricher backed by the given completer, which may
// be nil when no LLM is configured.
func NewEnricher(model Completer) *Enricher {
	return &Enricher{model: model}
}

func (e *Enricher) available() bool {
	if e == nil || e.model == nil {
		return false
	}
	// A nil *Model boxed into the interface is still "not configured".
	if m, ok := e.model.(*Model); ok && m == nil {
		return false
	}
	return true
}

// EnrichLabel produces a short Spanish description and a category for a
// detection label. An empty label short-circuits without a model call.
func (e *Enricher) EnrichLabel(ctx context.Context, label string) models.EnrichmentResult {
	if label == "" {
		return models.EnrichmentResult{
			Description: enrichEmptyDescription,
			Category:    models.CategoryCommon,
		}
	}

	if !e.available() {
		return models.EnrichmentResult{
			Description: enrichFailedDescription,
			Category:    models.CategoryUnknown,
		}
	}

	prompt := fmt.Sprintf(
		"Analyze '%s'. "+
			"1. Provide a natural description in Spanish (español), concise (2 sentences). "+
			"2. Classify it strictly into one of these categories: [tech, common, plant, animal, person, place, water, hazard]. "+
			`Return ONLY a valid JSON object like this: { "description": "...", "category": "..." }`,
		label,
	)

	raw, err := e.model.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("label enrichment failed", "label", label, "error", err)
		return models.EnrichmentResult{
			Description: enrichFailedDescription,
			Category:    models.CategoryUnknown,
		}
	}

	return parseEnrichment(raw)
}

// parseEnrichment extracts the first {...} JSON object from a raw model
// response. Anything unparseable falls back to the raw text with the
// common category.
func parseEnrichment(raw string) models.EnrichmentResult {
	fallback := models.EnrichmentResult{
		Description: raw,
		Category:    models.CategoryCommon,
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return fallback
	}

	var result models.EnrichmentResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return fallback
	}
	if result.Category == "" {
		result.Category = models.CategoryCommon
	}
	return result
}

// ContextRequest carries the optional taxonomy context for a contextual
// description. Absent fields are simply left out of the prompt.
type ContextRequest struct {
	ObjectName      string
	Category        string
	Subcategory     string
	Tags            []string
	LocationContext string
}

// ContextualDescription generates a 2-3 sentence Spanish description for a
// detected object, enriched with whatever taxonomy context is present.
// On model error it falls back to "<name> - objeto registrado en el
// sistema."; when no model is configured at all, to "<name> detectado
// automáticamente.".
func (e *Enricher) ContextualDescription(ctx context.Context, req ContextRequest) string {
	if !e.available() {
		return fmt.Sprintf("%s detectado automáticamente.", req.ObjectName)
	}

	var contextParts []string
	if req.Category != "" {
		contextParts = append(contextParts, "Categoría: "+req.Category)
	}
	if req.Subcategory != "" {
		contextParts = append(contextParts, "Subcategoría: "+req.Subcategory)
	}
	if len(req.Tags) > 0 {
		contextParts = append(contextParts, "Etiquetas: "+strings.Join(req.Tags, ", "))
	}
	if req.LocationContext != "" {
		contextParts = append(contextParts, "Contexto de ubicación: "+req.LocationContext)
	}

	contextStr := "Sin contexto adicional"
	if len(contextParts) > 0 {
		contextStr = strings.Join(contextParts, "\n")
	}

	prompt := fmt.Sprintf(`Genera una descripción útil y concisa para el siguiente objeto detectado.

Nombre del objeto: %s
%s

Instrucciones:
- La descripción debe ser en español
- Máximo 2-3 oraciones
- Debe ser informativa para futuras búsquedas
- Si hay contexto de categoría/etiquetas, úsalo para enriquecer la descripción
- NO incluyas el nombre de la categoría literalmente, solo usa el contexto para mejorar la descripción

Responde SOLO con la descripción, sin explicaciones adicionales.`,
		req.ObjectName, contextStr)

	raw, err := e.model.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("contextual description failed", "object", req.ObjectName, "error", err)
		return fmt.Sprintf("%s - objeto registrado en el sistema.", req.ObjectName)
	}

	return stripSurroundingQuotes(strings.TrimSpace(raw))
}

// GenerateTitle produces a short (at most 4 words) conversation title for
// the opening user message.
func (e *Enricher) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	if !e.available() {
		return "", fmt.Errorf("LLM model not configured")
	}

	prompt := fmt.Sprintf(
		"Genera un título muy corto (máximo 4 palabras) para esta conversación que empieza con: '%s'. Solo el título, sin comillas ni prefijos.",
		firstMessage,
	)

	raw, err := e.model.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}

	return strings.Trim(strings.TrimSpace(raw), `"`), nil
}

// stripSurroundingQuotes removes a single pair of wrapping quotes.
func stripSurroundingQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
