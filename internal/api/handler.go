package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/RichardoC/bankchat/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie carries the id of the client's session.
const SessionCookie = "bankchat_session"

type Handler struct {
	deps   session.Deps
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func NewHandler(deps session.Deps, logger *zap.Logger) *Handler {
	deps.Logger = logger
	return &Handler{
		deps:     deps,
		logger:   logger,
		sessions: make(map[string]*session.Session),
	}
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", h.Register)
	mux.HandleFunc("/api/login", h.Login)
	mux.HandleFunc("/api/logout", h.Logout)
	mux.HandleFunc("/api/state", h.State)
	mux.HandleFunc("/api/view", h.SelectView)
	mux.HandleFunc("/api/screen", h.Screen)
	mux.HandleFunc("/api/message", h.HandleMessage)
	mux.HandleFunc("/api/conversations", h.Conversations)
	mux.HandleFunc("/api/conversations/load", h.LoadConversation)
	mux.HandleFunc("/api/conversations/delete", h.DeleteConversation)
	mux.HandleFunc("/api/conversations/update", h.UpdateConversation)
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

type ViewRequest struct {
	View string `json:"view"`
}

type MessageRequest struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	Message   models.Message `json:"message"`
	SessionID int64          `json:"session_id"`
	Topic     string         `json:"topic"`
}

type UpdateConversationRequest struct {
	Topic string `json:"topic"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s := h.lookupOrCreate(w, r)
	id, err := s.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, RegisterResponse{UserID: id})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s := h.lookupOrCreate(w, r)
	if err := s.Login(r.Context(), req.Username, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s.State())
}

// Logout forgets the session and expires the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c, err := r.Cookie(SessionCookie); err == nil {
		h.mu.Lock()
		s, ok := h.sessions[c.Value]
		delete(h.sessions, c.Value)
		h.mu.Unlock()
		if ok {
			s.Logout()
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := h.lookup(r)
	if s == nil {
		h.writeJSON(w, http.StatusOK, session.State{Messages: []models.Message{}})
		return
	}
	h.writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) SelectView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	view, err := session.ParseView(req.View)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := s.SelectView(view); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	screen, err := s.Screen(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, screen)
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	reply, err := s.SendMessage(r.Context(), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	st := s.State()
	h.writeJSON(w, http.StatusOK, MessageResponse{
		Message:   reply,
		SessionID: st.ActiveSessionID,
		Topic:     st.Topic,
	})
}

// Conversations lists saved conversations on GET and starts a new one on
// POST.
func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s, ok := h.requireSession(w, r)
		if !ok {
			return
		}
		sessions, err := s.Sessions(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		h.logger.Debug("Retrieved conversations",
			zap.Int("count", len(sessions)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		h.writeJSON(w, http.StatusOK, sessions)

	case http.MethodPost:
		s, ok := h.requireSession(w, r)
		if !ok {
			return
		}
		if err := s.NewChat(r.Context()); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, s.State())

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) LoadConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.LoadSession(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.DeleteSession(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.RenameSession(r.Context(), id, req.Topic); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func conversationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("conversation_id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid conversation ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) lookup(r *http.Request) *session.Session {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[c.Value]
}

// lookupOrCreate returns the caller's session, starting a new one and setting
// its cookie when the request carries none.
func (h *Handler) lookupOrCreate(w http.ResponseWriter, r *http.Request) *session.Session {
	if s := h.lookup(r); s != nil {
		return s
	}

	id := uuid.NewString()
	s := session.New(h.deps)
	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := h.lookup(r)
	if s == nil {
		h.writeError(w, r, session.ErrNotLoggedIn)
		return nil, false
	}
	return s, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrDuplicateUsername),
		errors.Is(err, session.ErrAlreadyLoggedIn):
		return http.StatusConflict
	case errors.Is(err, models.ErrAuthFailure),
		errors.Is(err, session.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, session.ErrUnknownView),
		errors.Is(err, session.ErrWrongView),
		errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrEmptyTopic):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
