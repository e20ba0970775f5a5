// Package vision generates visual embeddings from captured images.
package vision

import (
	"context"
	"errors"
)

// Sentinel errors for embedding generation. Check with errors.Is.
var (
	// ErrModelUnavailable indicates the backing vision model is not
	// configured or failed to initialize.
	ErrModelUnavailable = errors.New("vision model unavailable")

	// ErrEncoding indicates the image payload could not be decoded.
	ErrEncoding = errors.New("image encoding error")
)

// Encoder produces a fixed-length visual embedding from a base64 image.
// Implementations must be safe for concurrent use; inference is stateless
// per call. Callers treat generation as best-effort during ingestion but
// required for similarity search.
type Encoder interface {
	// Encode generates an embedding vector for a single image, passed as
	// base64 with or without a data-URI prefix.
	Encode(ctx context.Context, imageB64 string) ([]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension. Must match the
	// HNSW index dimension in the store schema.
	Dimension() int
}
