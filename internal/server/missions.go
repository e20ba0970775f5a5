package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avaldes/marsight/internal/db"
	"github.com/avaldes/marsight/internal/models"
)

type endMissionRequest struct {
	MissionID string `json:"mission_id"`
}

func handleStartMission(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var input models.MissionInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if input.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}

		mission, err := deps.Missions.Start(r.Context(), input)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to start mission: %v", err)
			return
		}

		id, err := models.RecordIDString(mission.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "invalid mission record id: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":    true,
			"mission_id": id,
			"code":       mission.Code,
		})
	}
}

func handleEndMission(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req endMissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.MissionID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "mission_id is required")
			return
		}

		if err := deps.Missions.End(r.Context(), req.MissionID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "no active mission %s", req.MissionID)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to end mission: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func handleListMissions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		missions, err := deps.Missions.List(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to list missions: %v", err)
			return
		}
		if missions == nil {
			missions = []models.Mission{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"missions": missions})
	}
}

func handleMissionObjects(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		objects, err := deps.Missions.Objects(r.Context(), id)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to list mission objects: %v", err)
			return
		}
		if objects == nil {
			objects = []models.CapturedObject{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"objects": objects})
	}
}

func handleDeleteMission(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Missions.Delete(r.Context(), id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "mission %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to delete mission: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
