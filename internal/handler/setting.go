package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/middleware"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
)

type SettingHandler struct {
	settings *repository.ChatSettingRepository
	users    *repository.UserRepository
}

func NewSettingHandler(settings *repository.ChatSettingRepository, users *repository.UserRepository) *SettingHandler {
	return &SettingHandler{settings: settings, users: users}
}

// Get returns the chat setting for a stream. A missing row reads as enabled.
func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	stream := chi.URLParam(r, "stream")
	s, err := h.settings.GetChatSetting(r.Context(), stream)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"stream": stream, "is_enabled": true})
			return
		}
		logger.Errorf("get chat setting stream=%s: %v", stream, err)
		writeError(w, http.StatusInternalServerError, "failed to load setting")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type updateSettingRequest struct {
	IsEnabled bool `json:"is_enabled"`
}

// Update toggles the per-stream chat gate, admin only.
func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Errorf("setting admin check user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to verify permissions")
		return
	}
	if !u.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}
	stream := chi.URLParam(r, "stream")
	var req updateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.settings.SetChatEnabled(r.Context(), stream, req.IsEnabled); err != nil {
		logger.Errorf("set chat setting stream=%s: %v", stream, err)
		writeError(w, http.StatusInternalServerError, "failed to update setting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stream": stream, "is_enabled": req.IsEnabled})
}
