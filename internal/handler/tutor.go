package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/tutor"
)

type TutorHandler struct {
	client *tutor.Client
}

func NewTutorHandler(client *tutor.Client) *TutorHandler {
	return &TutorHandler{client: client}
}

type tutorRequest struct {
	Question string `json:"question"`
}

// Ask proxies a student question to the AI tutor.
func (h *TutorHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.client == nil || !h.client.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "AI tutor is not configured")
		return
	}
	var req tutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	answer, err := h.client.Ask(r.Context(), req.Question)
	if err != nil {
		logger.Errorf("tutor ask: %v", err)
		writeError(w, http.StatusBadGateway, "AI tutor request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
