package vision

import (
	"context"
	"errors"
	"testing"
)

func TestNewOllamaEncoderDefaults(t *testing.T) {
	enc, err := NewOllamaEncoder("http://localhost:11434", "", 0)
	if err != nil {
		t.Fatalf("NewOllamaEncoder() error = %v", err)
	}
	if enc.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", enc.Model(), DefaultModel)
	}
	if enc.Dimension() != DefaultDimension {
		t.Errorf("Dimension() = %d, want %d", enc.Dimension(), DefaultDimension)
	}
}

func TestNewOllamaEncoderBadHost(t *testing.T) {
	_, err := NewOllamaEncoder("://not-a-url", "", 0)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("error = %v, want ErrModelUnavailable", err)
	}
}

func TestEncodeRejectsInvalidBase64(t *testing.T) {
	enc, err := NewOllamaEncoder("http://localhost:11434", "", 0)
	if err != nil {
		t.Fatalf("NewOllamaEncoder() error = %v", err)
	}

	// Rejected before any network call is attempted.
	for name, payload := range map[string]string{
		"plain":    "not base64!!!",
		"data uri": "data:image/jpeg;base64,@@@@",
	} {
		if _, err := enc.Encode(context.Background(), payload); !errors.Is(err, ErrEncoding) {
			t.Errorf("%s: error = %v, want ErrEncoding", name, err)
		}
	}
}
