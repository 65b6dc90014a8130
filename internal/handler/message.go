package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/chat"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/middleware"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
)

type MessageHandler struct {
	messages *repository.MessageRepository
	groups   *repository.GroupRepository
	users    *repository.UserRepository
	gateway  *chat.Gateway
}

func NewMessageHandler(
	messages *repository.MessageRepository,
	groups *repository.GroupRepository,
	users *repository.UserRepository,
	gateway *chat.Gateway,
) *MessageHandler {
	return &MessageHandler{messages: messages, groups: groups, users: users, gateway: gateway}
}

// CommunityHistory returns the full community stream history, oldest first.
func (h *MessageHandler) CommunityHistory(w http.ResponseWriter, r *http.Request) {
	stream := chi.URLParam(r, "stream")
	if stream == "" {
		writeError(w, http.StatusBadRequest, "stream is required")
		return
	}
	messages, err := h.messages.GetRoomMessages(r.Context(), "", stream)
	if err != nil {
		logger.Errorf("community history stream=%s: %v", stream, err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// GroupHistory returns a group's history; accepted members only.
func (h *MessageHandler) GroupHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupId")
	members, err := h.groups.GetGroupMembers(r.Context(), groupID)
	if err != nil {
		logger.Errorf("group history members group=%s: %v", groupID, err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	accepted := false
	for _, m := range members {
		if m.UserID == userID && m.Status == model.MemberStatusAccepted {
			accepted = true
			break
		}
	}
	if !accepted {
		writeError(w, http.StatusForbidden, "not a member of this group")
		return
	}
	messages, err := h.messages.GetRoomMessages(r.Context(), groupID, "")
	if err != nil {
		logger.Errorf("group history group=%s: %v", groupID, err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type pinRequest struct {
	IsPinned bool `json:"is_pinned"`
}

// Pin sets a message's pinned flag, admin only. Persists and broadcasts
// through the gateway, same contract as the socket event.
func (h *MessageHandler) Pin(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	messageID := chi.URLParam(r, "id")
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.gateway.SetPinned(r.Context(), messageID, req.IsPinned)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		logger.Errorf("pin message=%s: %v", messageID, err)
		writeError(w, http.StatusInternalServerError, "failed to pin message")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Delete acknowledges an admin delete request without removing the row.
// Messages stay in history for audit; clients hide them locally.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	messageID := chi.URLParam(r, "id")
	if _, err := h.messages.GetMessageByID(r.Context(), messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		logger.Errorf("delete message=%s: %v", messageID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

func (h *MessageHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID := middleware.GetUserID(r.Context())
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Errorf("admin check user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to verify permissions")
		return false
	}
	if !u.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
