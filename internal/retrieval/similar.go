package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avaldes/marsight/internal/db"
	"github.com/avaldes/marsight/internal/vision"
)

// Similarity search parameters.
const (
	// SimilarityThreshold is the minimum cosine similarity for a match.
	SimilarityThreshold = 0.75
	// SimilarityLimit is the maximum number of matches returned.
	SimilarityLimit = 3
)

// SimilarResult is a resolved similarity query. QueryError annotates a
// store-level failure that produced an empty match list.
type SimilarResult struct {
	Matches    []db.RetrievedObject `json:"matches"`
	QueryError string               `json:"error,omitempty"`
}

// SimilarResolver resolves similar-by-image queries: embed the image, then
// ask the store for nearest neighbors.
type SimilarResolver struct {
	store   Store
	encoder vision.Encoder
}

// NewSimilarResolver creates a resolver. encoder may be nil when no vision
// model is configured; resolution then fails with ErrModelUnavailable.
func NewSimilarResolver(store Store, encoder vision.Encoder) *SimilarResolver {
	return &SimilarResolver{store: store, encoder: encoder}
}

// Resolve embeds the image and queries for neighbors. An embedding failure
// surfaces as an error: similarity search without a vector would silently
// mislead the caller into "no similar object exists". A store query
// failure instead degrades to an empty, error-annotated match list.
func (r *SimilarResolver) Resolve(ctx context.Context, imageB64 string) (SimilarResult, error) {
	if r.encoder == nil {
		return SimilarResult{}, vision.ErrModelUnavailable
	}

	embedding, err := r.encoder.Encode(ctx, imageB64)
	if err != nil {
		return SimilarResult{}, fmt.Errorf("embed query image: %w", err)
	}

	matches, err := r.store.QueryVectorNeighbors(ctx, embedding, SimilarityThreshold, SimilarityLimit)
	if err != nil {
		slog.Warn("vector neighbor query failed", "error", err)
		return SimilarResult{Matches: []db.RetrievedObject{}, QueryError: err.Error()}, nil
	}

	return SimilarResult{Matches: matches}, nil
}
