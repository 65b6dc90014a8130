package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/middleware"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
)

type GroupHandler struct {
	groups *repository.GroupRepository
}

func NewGroupHandler(groups *repository.GroupRepository) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type createGroupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Create makes a new private group; the creator becomes an accepted member.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Name == "" || req.Username == "" {
		writeError(w, http.StatusBadRequest, "name and username are required")
		return
	}
	if _, err := h.groups.GetByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "group username already taken")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("group username check: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}
	g := &model.Group{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Username:  req.Username,
		CreatorID: userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.groups.Create(r.Context(), g); err != nil {
		logger.Errorf("create group: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// MyGroups lists the groups where the user is an accepted member.
func (h *GroupHandler) MyGroups(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groups, err := h.groups.GetByUser(r.Context(), userID)
	if err != nil {
		logger.Errorf("my groups user=%s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load groups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// RequestJoin records a pending join request. Repeats are idempotent: the
// membership uniqueness constraint keeps the existing row, whatever its
// status.
func (h *GroupHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupId")
	if _, err := h.groups.GetByID(r.Context(), groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		logger.Errorf("join group=%s lookup: %v", groupID, err)
		writeError(w, http.StatusInternalServerError, "failed to request join")
		return
	}
	m := &model.GroupMember{
		ID:       uuid.New().String(),
		GroupID:  groupID,
		UserID:   userID,
		Status:   model.MemberStatusPending,
		JoinedAt: time.Now().UTC(),
	}
	if err := h.groups.CreateMember(r.Context(), m); err != nil {
		logger.Errorf("join group=%s user=%s: %v", groupID, userID, err)
		writeError(w, http.StatusInternalServerError, "failed to request join")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// JoinRequests lists pending members of a group, creator only.
func (h *GroupHandler) JoinRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupId")
	g, err := h.groups.GetByID(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		logger.Errorf("join requests group=%s: %v", groupID, err)
		writeError(w, http.StatusInternalServerError, "failed to load join requests")
		return
	}
	if g.CreatorID != userID {
		writeError(w, http.StatusForbidden, "only the group creator can view join requests")
		return
	}
	members, err := h.groups.GetGroupMembers(r.Context(), groupID)
	if err != nil {
		logger.Errorf("join requests members group=%s: %v", groupID, err)
		writeError(w, http.StatusInternalServerError, "failed to load join requests")
		return
	}
	pending := make([]model.GroupMember, 0, len(members))
	for _, m := range members {
		if m.Status == model.MemberStatusPending {
			pending = append(pending, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": pending})
}

type updateMemberRequest struct {
	Status model.MemberStatus `json:"status"`
}

// UpdateMember accepts a pending join request, creator only. The accepted
// member's open connection is not resubscribed; their client rejoins.
func (h *GroupHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	memberID := chi.URLParam(r, "id")
	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != model.MemberStatusAccepted {
		writeError(w, http.StatusBadRequest, "status must be accepted")
		return
	}
	m, err := h.groups.GetMemberByID(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "join request not found")
			return
		}
		logger.Errorf("update member=%s: %v", memberID, err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	g, err := h.groups.GetByID(r.Context(), m.GroupID)
	if err != nil {
		logger.Errorf("update member=%s group: %v", memberID, err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if g.CreatorID != userID {
		writeError(w, http.StatusForbidden, "only the group creator can accept members")
		return
	}
	if err := h.groups.UpdateMemberStatus(r.Context(), memberID, req.Status); err != nil {
		logger.Errorf("update member=%s status: %v", memberID, err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	m.Status = req.Status
	writeJSON(w, http.StatusOK, m)
}
