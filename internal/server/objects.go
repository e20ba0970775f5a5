package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avaldes/marsight/internal/db"
	"github.com/avaldes/marsight/internal/models"
	"github.com/avaldes/marsight/internal/retrieval"
)

const defaultNearbyRadius = 500.0 // meters

func handleCreateObject(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var input models.CapturedObjectInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if input.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		obj, err := deps.Objects.Ingest(r.Context(), input)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to store object: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    obj,
		})
	}
}

func handleNearbyObjects(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
		if latErr != nil || lngErr != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "lat and lng query parameters are required")
			return
		}

		radius := defaultNearbyRadius
		if raw := r.URL.Query().Get("radius"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "radius must be a positive number")
				return
			}
			radius = parsed
		}

		result := deps.Nearby.Resolve(r.Context(), retrieval.NearbyQuery{
			Lat:          lat,
			Lng:          lng,
			RadiusMeters: radius,
		})
		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetObject(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		obj, err := deps.Objects.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "object %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to load object: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, obj)
	}
}

func handleUpdateObject(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var upd models.CapturedObjectUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		id := chi.URLParam(r, "id")
		if err := deps.Objects.Update(r.Context(), id, upd); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "object %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to update object: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func handleDeleteObject(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Objects.Delete(r.Context(), id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "object %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to delete object: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func handleOrphanedObjects(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objects, err := deps.Missions.Orphaned(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to list orphaned objects: %v", err)
			return
		}
		if objects == nil {
			objects = []models.CapturedObject{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"objects": objects})
	}
}
