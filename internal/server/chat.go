package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avaldes/marsight/internal/db"
	"github.com/avaldes/marsight/internal/models"
	"github.com/avaldes/marsight/internal/service"
)

type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
	ChatID  string `json:"chat_id"`
}

type renameRequest struct {
	Title string `json:"title"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		resp, err := deps.Chat.Send(r.Context(), service.ChatRequest{
			Message: req.Message,
			Context: req.Context,
			ChatID:  req.ChatID,
		})
		if err != nil {
			if errors.Is(err, service.ErrEmptyMessage) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "chat failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleListConversations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := deps.Chat.History(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to list conversations: %v", err)
			return
		}
		if summaries == nil {
			summaries = []models.ConversationSummary{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
	}
}

func handleGetConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		conv, err := deps.Chat.Transcript(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "conversation %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to load conversation: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleRenameConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req renameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}

		id := chi.URLParam(r, "id")
		if err := deps.Chat.Rename(r.Context(), id, req.Title); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "conversation %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to rename conversation: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func handleDeleteConversation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Chat.Delete(r.Context(), id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "conversation %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "failed to delete conversation: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
