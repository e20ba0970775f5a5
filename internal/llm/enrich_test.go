package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/avaldes/marsight/internal/models"
)

// fakeCompleter returns canned responses and counts calls.
type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeCompleter) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestEnrichLabelEmptyLabelSkipsModel(t *testing.T) {
	fake := &fakeCompleter{response: "should not be used"}
	e := NewEnricher(fake)

	got := e.EnrichLabel(context.Background(), "")

	want := models.EnrichmentResult{Description: "No data.", Category: models.CategoryCommon}
	if got != want {
		t.Errorf("EnrichLabel(\"\") = %+v, want %+v", got, want)
	}
	if fake.calls != 0 {
		t.Errorf("EnrichLabel(\"\") made %d model calls, want 0", fake.calls)
	}
}

func TestEnrichLabel(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     models.EnrichmentResult
	}{
		{
			name:     "clean json response",
			response: `{"description": "Una roca volcánica.", "category": "common"}`,
			want:     models.EnrichmentResult{Description: "Una roca volcánica.", Category: models.CategoryCommon},
		},
		{
			name:     "json wrapped in prose",
			response: "Here you go:\n{\"description\": \"Un dron de reconocimiento.\", \"category\": \"tech\"}\nHope that helps!",
			want:     models.EnrichmentResult{Description: "Un dron de reconocimiento.", Category: models.CategoryTech},
		},
		{
			name:     "no braces at all",
			response: "Una antena de comunicaciones de largo alcance.",
			want:     models.EnrichmentResult{Description: "Una antena de comunicaciones de largo alcance.", Category: models.CategoryCommon},
		},
		{
			name:     "malformed json between braces",
			response: "{description: broken}",
			want:     models.EnrichmentResult{Description: "{description: broken}", Category: models.CategoryCommon},
		},
		{
			name:     "json missing category",
			response: `{"description": "Algo."}`,
			want:     models.EnrichmentResult{Description: "Algo.", Category: models.CategoryCommon},
		},
		{
			name: "model error",
			err:  errors.New("connection refused"),
			want: models.EnrichmentResult{Description: "AI Analysis Failed", Category: models.CategoryUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEnricher(&fakeCompleter{response: tt.response, err: tt.err})
			got := e.EnrichLabel(context.Background(), "rover")
			if got != tt.want {
				t.Errorf("EnrichLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEnrichLabelNoModel(t *testing.T) {
	e := NewEnricher(nil)
	got := e.EnrichLabel(context.Background(), "rover")
	want := models.EnrichmentResult{Description: "AI Analysis Failed", Category: models.CategoryUnknown}
	if got != want {
		t.Errorf("EnrichLabel() without model = %+v, want %+v", got, want)
	}
}

func TestEnricherNilModelPointer(t *testing.T) {
	// A failed NewModel leaves a nil *Model; constructing the enricher
	// from it must behave like the unconfigured case, not the error case.
	var m *Model
	e := NewEnricher(m)

	got := e.ContextualDescription(context.Background(), ContextRequest{ObjectName: "antena"})
	if want := "antena detectado automáticamente."; got != want {
		t.Errorf("ContextualDescription() = %q, want %q", got, want)
	}

	res := e.EnrichLabel(context.Background(), "rover")
	want := models.EnrichmentResult{Description: "AI Analysis Failed", Category: models.CategoryUnknown}
	if res != want {
		t.Errorf("EnrichLabel() = %+v, want %+v", res, want)
	}
}

func TestContextualDescription(t *testing.T) {
	t.Run("strips one pair of quotes", func(t *testing.T) {
		e := NewEnricher(&fakeCompleter{response: "\"Estructura metálica junto al cráter.\""})
		got := e.ContextualDescription(context.Background(), ContextRequest{ObjectName: "antena"})
		if got != "Estructura metálica junto al cráter." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("inner quotes preserved", func(t *testing.T) {
		e := NewEnricher(&fakeCompleter{response: `Se conoce como "la torre".`})
		got := e.ContextualDescription(context.Background(), ContextRequest{ObjectName: "torre"})
		if got != `Se conoce como "la torre".` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("model error fallback", func(t *testing.T) {
		e := NewEnricher(&fakeCompleter{err: errors.New("timeout")})
		got := e.ContextualDescription(context.Background(), ContextRequest{ObjectName: "antena"})
		if got != "antena - objeto registrado en el sistema." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unavailable service fallback", func(t *testing.T) {
		e := NewEnricher(nil)
		got := e.ContextualDescription(context.Background(), ContextRequest{ObjectName: "antena"})
		if got != "antena detectado automáticamente." {
			t.Errorf("got %q", got)
		}
	})
}

func TestGenerateTitle(t *testing.T) {
	t.Run("trims whitespace and quotes", func(t *testing.T) {
		e := NewEnricher(&fakeCompleter{response: "\n\"Exploración del cráter\"\n"})
		got, err := e.GenerateTitle(context.Background(), "qué hay en el cráter?")
		if err != nil {
			t.Fatalf("GenerateTitle() error: %v", err)
		}
		if got != "Exploración del cráter" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("propagates model error", func(t *testing.T) {
		e := NewEnricher(&fakeCompleter{err: errors.New("boom")})
		if _, err := e.GenerateTitle(context.Background(), "hola"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestParseEnrichmentNestedBraces(t *testing.T) {
	raw := `{"description": "Objeto con {corchetes} internos.", "category": "hazard"}`
	got := parseEnrichment(raw)
	if got.Category != models.CategoryHazard {
		t.Errorf("category = %q, want hazard", got.Category)
	}
}
