package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/avaldes/marsight/internal/imaging"
)

const (
	// DefaultModel is the multimodal embedding model served by Ollama.
	DefaultModel = "clip-vit-b-32"

	// DefaultDimension is the output dimension of CLIP ViT-B/32.
	// CRITICAL: must match the HNSW index dimension in the store schema.
	DefaultDimension = 512
)

// OllamaEncoder implements Encoder against a local Ollama server.
type OllamaEncoder struct {
	client    *api.Client
	model     string
	dimension int
}

// Compile-time check that OllamaEncoder implements Encoder.
var _ Encoder = (*OllamaEncoder)(nil)

// NewOllamaEncoder creates an embedding client for the given Ollama host.
// Empty model or zero dimension fall back to the CLIP ViT-B/32 defaults.
// The returned encoder holds no per-call state and is initialized once at
// startup.
func NewOllamaEncoder(host, model string, dimension int) (*OllamaEncoder, error) {
	if model == "" {
		model = DefaultModel
	}
	if dimension == 0 {
		dimension = DefaultDimension
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("%w: parse ollama host: %v", ErrModelUnavailable, err)
	}

	return &OllamaEncoder{
		client:    api.NewClient(base, http.DefaultClient),
		model:     model,
		dimension: dimension,
	}, nil
}

// Model returns the configured embedding model name.
func (e *OllamaEncoder) Model() string {
	return e.model
}

// Dimension returns the expected embedding dimension.
func (e *OllamaEncoder) Dimension() int {
	return e.dimension
}

// Encode generates an embedding for a single image. The data-URI prefix is
// stripped and the payload validated as base64 before the inference call;
// a single synchronous request is sent, no batching and no retries.
func (e *OllamaEncoder) Encode(ctx context.Context, imageB64 string) ([]float32, error) {
	payload := imaging.StripDataURI(imageB64)
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embedding := resp.Embeddings[0]
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(embedding), e.dimension, e.model)
	}

	return embedding, nil
}
