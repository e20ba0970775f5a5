package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxRequestBodySize = 20 << 20 // 20MB, image payloads arrive base64-encoded

// Deps carries everything the HTTP layer needs. Optional AI components
// (Encoder, Enricher) may be nil; the matching endpoints then degrade the
// way the underlying services do.
type Deps struct {
	Objects  ObjectIngester
	Missions MissionManager
	Chat     ChatSender
	Nearby   NearbyResolver
	Similar  SimilarResolver
	Enricher TextEnricher
	Encoder  ImageEncoder
	Token    string
	Logger   *slog.Logger
}

// NewHandler builds the REST router. When token is empty the API is open;
// otherwise every /api route requires a matching bearer token.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Post("/objects/create", handleCreateObject(deps))
		r.Get("/objects/nearby", handleNearbyObjects(deps))
		r.Get("/objects/{id}", handleGetObject(deps))
		r.Put("/objects/{id}", handleUpdateObject(deps))
		r.Delete("/objects/{id}", handleDeleteObject(deps))

		r.Post("/search-similar", handleSearchSimilar(deps))
		r.Post("/enrich-data", handleEnrichData(deps))
		r.Post("/contextual-description", handleContextualDescription(deps))
		r.Post("/generate-embedding", handleGenerateEmbedding(deps))

		r.Post("/chat", handleChat(deps))
		r.Get("/chat/history", handleListConversations(deps))
		r.Get("/chat/history/{id}", handleGetConversation(deps))
		r.Patch("/chat/history/{id}", handleRenameConversation(deps))
		r.Delete("/chat/history/{id}", handleDeleteConversation(deps))

		r.Post("/missions/start", handleStartMission(deps))
		r.Post("/missions/end", handleEndMission(deps))
		r.Get("/missions/list", handleListMissions(deps))
		r.Get("/missions/orphaned/objects", handleOrphanedObjects(deps))
		r.Get("/missions/{id}/objects", handleMissionObjects(deps))
		r.Delete("/missions/delete/{id}", handleDeleteMission(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the logging
// middleware, or "" outside of one.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
				"request_id", id,
			)
		})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
