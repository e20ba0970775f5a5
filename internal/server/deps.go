package server

import (
	"context"

	"github.com/avaldes/marsight/internal/llm"
	"github.com/avaldes/marsight/internal/models"
	"github.com/avaldes/marsight/internal/retrieval"
	"github.com/avaldes/marsight/internal/service"
)

// Consumer-side views of the service layer, kept narrow so handler tests can
// run against small fakes.

type ObjectIngester interface {
	Ingest(ctx context.Context, input models.CapturedObjectInput) (*models.CapturedObject, error)
	Get(ctx context.Context, id string) (*models.CapturedObject, error)
	Update(ctx context.Context, id string, upd models.CapturedObjectUpdate) error
	Delete(ctx context.Context, id string) error
}

type MissionManager interface {
	Start(ctx context.Context, input models.MissionInput) (*models.Mission, error)
	End(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Mission, error)
	Objects(ctx context.Context, missionID string) ([]models.CapturedObject, error)
	Orphaned(ctx context.Context) ([]models.CapturedObject, error)
	Delete(ctx context.Context, id string) error
}

type ChatSender interface {
	Send(ctx context.Context, req service.ChatRequest) (service.ChatResponse, error)
	History(ctx context.Context) ([]models.ConversationSummary, error)
	Transcript(ctx context.Context, id string) (*models.Conversation, error)
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type NearbyResolver interface {
	Resolve(ctx context.Context, q retrieval.NearbyQuery) retrieval.NearbyResult
}

type SimilarResolver interface {
	Resolve(ctx context.Context, imageB64 string) (retrieval.SimilarResult, error)
}

type TextEnricher interface {
	EnrichLabel(ctx context.Context, label string) models.EnrichmentResult
	ContextualDescription(ctx context.Context, req llm.ContextRequest) string
}

type ImageEncoder interface {
	Encode(ctx context.Context, imageB64 string) ([]float32, error)
	Model() string
	Dimension() int
}
