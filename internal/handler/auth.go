package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/middleware"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/storage"
)

type AuthHandler struct {
	users                 *repository.UserRepository
	store                 storage.SessionStore
	teacherAccessPassword string
}

func NewAuthHandler(users *repository.UserRepository, store storage.SessionStore, teacherAccessPassword string) *AuthHandler {
	return &AuthHandler{users: users, store: store, teacherAccessPassword: teacherAccessPassword}
}

type registerRequest struct {
	Name           string `json:"name"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Gender         string `json:"gender"`
	Stream         string `json:"stream"`
	Class          string `json:"class"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Language       string `json:"language"`
	UserType       string `json:"user_type"`
	AccessPassword string `json:"access_password"`
}

type sessionResponse struct {
	SessionID     string      `json:"session_id"`
	SessionSecret string      `json:"session_secret"`
	User          *model.User `json:"user"`
}

// Register creates a user. Teacher registration requires the shared access
// password and grants admin rights over the declared class.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Name == "" || req.Username == "" || req.Password == "" || req.Stream == "" || req.Class == "" {
		writeError(w, http.StatusBadRequest, "name, username, password, stream and class are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	userType := model.UserTypeStudent
	isAdmin := false
	adminClass := ""
	if req.UserType == string(model.UserTypeTeacher) {
		if h.teacherAccessPassword == "" || req.AccessPassword != h.teacherAccessPassword {
			writeError(w, http.StatusForbidden, "invalid teacher access password")
			return
		}
		userType = model.UserTypeTeacher
		isAdmin = true
		adminClass = req.Class
	}

	if _, err := h.users.GetByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "username already taken")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("register username check: %v", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Errorf("register hash: %v", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if req.Language == "" {
		req.Language = "english"
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		Stream:       req.Stream,
		Class:        req.Class,
		Phone:        req.Phone,
		Email:        req.Email,
		Language:     req.Language,
		UserType:     userType,
		IsAdmin:      isAdmin,
		AdminClass:   adminClass,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		logger.Errorf("register create: %v", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	resp, err := h.issueSession(r, u)
	if err != nil {
		logger.Errorf("register session: %v", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies the password and issues a session id plus a fresh signing
// secret. Attempts are rate limited per username.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	allowed, err := h.store.CheckLoginRateLimit(r.Context(), req.Username)
	if err != nil {
		logger.Errorf("login rate limit: %v", err)
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	u, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		logger.Errorf("login lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	resp, err := h.issueSession(r, u)
	if err != nil {
		logger.Errorf("login session: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout removes the current session; the signing secret stops working.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.store.DeleteSession(r.Context(), sessionID); err != nil {
		logger.Errorf("logout session_id=%s: %v", middleware.MaskSessionID(sessionID), err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) issueSession(r *http.Request, u *model.User) (*sessionResponse, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	secretB64 := base64.StdEncoding.EncodeToString(secret)
	sessionID := uuid.New().String()
	if err := h.store.SetSession(r.Context(), sessionID, u.ID, secretB64); err != nil {
		return nil, err
	}
	return &sessionResponse{SessionID: sessionID, SessionSecret: secretB64, User: u}, nil
}
