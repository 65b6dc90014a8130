package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/middleware"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
)

type AnnouncementHandler struct {
	announcements *repository.AnnouncementRepository
	users         *repository.UserRepository
}

func NewAnnouncementHandler(announcements *repository.AnnouncementRepository, users *repository.UserRepository) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, users: users}
}

// List returns announcements, newest first, optionally filtered by
// ?stream= and ?class=.
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	stream := r.URL.Query().Get("stream")
	class := r.URL.Query().Get("class")
	items, err := h.announcements.List(r.Context(), stream, class)
	if err != nil {
		logger.Errorf("list announcements: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load announcements")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcements": items})
}

type createAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Stream  string `json:"stream"`
	Class   string `json:"class"`
}

// Create posts an announcement, admin only.
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Errorf("announcement admin check user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to verify permissions")
		return
	}
	if !u.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}
	var req createAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	a := &model.Announcement{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Content:   req.Content,
		Stream:    req.Stream,
		Class:     req.Class,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.announcements.Create(r.Context(), a); err != nil {
		logger.Errorf("create announcement: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create announcement")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
