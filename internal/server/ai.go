package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avaldes/marsight/internal/llm"
	"github.com/avaldes/marsight/internal/vision"
)

type imageRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type enrichRequest struct {
	Label string `json:"label"`
}

type contextRequest struct {
	ObjectName      string   `json:"object_name"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Tags            []string `json:"tags"`
	LocationContext string   `json:"location_context"`
}

func handleSearchSimilar(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ImageBase64 == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "image_base64 is required")
			return
		}

		result, err := deps.Similar.Resolve(r.Context(), req.ImageBase64)
		if err != nil {
			if errors.Is(err, vision.ErrModelUnavailable) {
				httpError(w, http.StatusServiceUnavailable, "api_error", "embedding model unavailable")
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to embed query image: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleEnrichData(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result := deps.Enricher.EnrichLabel(r.Context(), req.Label)
		writeJSON(w, http.StatusOK, result)
	}
}

func handleContextualDescription(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req contextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ObjectName == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "object_name is required")
			return
		}

		description := deps.Enricher.ContextualDescription(r.Context(), llm.ContextRequest{
			ObjectName:      req.ObjectName,
			Category:        req.Category,
			Subcategory:     req.Subcategory,
			Tags:            req.Tags,
			LocationContext: req.LocationContext,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"description": description,
			"success":     true,
		})
	}
}

func handleGenerateEmbedding(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ImageBase64 == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "image_base64 is required")
			return
		}
		if deps.Encoder == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "embedding model unavailable")
			return
		}

		embedding, err := deps.Encoder.Encode(r.Context(), req.ImageBase64)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to generate embedding: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"embedding": embedding,
			"model":     deps.Encoder.Model(),
			"dimension": deps.Encoder.Dimension(),
		})
	}
}
