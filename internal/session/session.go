// Package session implements the per-connection chat and account state
// machine. A Session is created for every client and is driven by the
// presentation layer, one action at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/RichardoC/bankchat/internal/llm"
	"github.com/RichardoC/bankchat/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Credentials registers and authenticates users. *auth.Service satisfies it.
type Credentials interface {
	Register(ctx context.Context, username, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// Ledger is read-only account data. *db.Database satisfies it.
type Ledger interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	GetLoanStatus(ctx context.Context, userID int64) (string, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error)
}

// ChatStore persists conversations. *db.Database satisfies it.
type ChatStore interface {
	ListChatSessions(ctx context.Context, userID int64) ([]models.ChatSessionSummary, error)
	GetChatSession(ctx context.Context, userID, sessionID int64) (*models.ChatSession, error)
	SaveChatSession(ctx context.Context, userID, sessionID int64, topic string, messages []models.Message) (int64, error)
	RenameChatSession(ctx context.Context, userID, sessionID int64, topic string) error
	DeleteChatSession(ctx context.Context, userID, sessionID int64) error
}

// Deps are the collaborators shared by every Session.
type Deps struct {
	Credentials       Credentials
	Ledger            Ledger
	Chats             ChatStore
	Oracle            llm.Responder
	Branch            models.BranchInfo
	TransactionsShown int
	Logger            *zap.Logger
}

// State is a snapshot of a session. ActiveSessionID is 0 while the current
// conversation has not been saved yet.
type State struct {
	LoggedIn        bool             `json:"logged_in"`
	UserID          int64            `json:"user_id,omitempty"`
	Username        string           `json:"username,omitempty"`
	View            View             `json:"view,omitempty"`
	ActiveSessionID int64            `json:"active_session_id,omitempty"`
	Topic           string           `json:"topic,omitempty"`
	Messages        []models.Message `json:"messages"`
}

func (st State) clone() State {
	st.Messages = models.CloneMessages(st.Messages)
	return st
}

// withFreshChat returns st with an empty, unsaved conversation in the chatbot
// view.
func (st State) withFreshChat() State {
	st.View = ViewChatbot
	st.ActiveSessionID = 0
	st.Topic = DefaultTopic
	st.Messages = []models.Message{}
	return st
}

func loggedOut() State {
	return State{Messages: []models.Message{}}
}

// Session holds the ephemeral state of one client. All methods are safe for
// concurrent use; actions are applied one at a time. A failed action leaves
// the state as it was.
type Session struct {
	mu     sync.Mutex
	deps   Deps
	state  State
	logger *zap.Logger
}

func New(deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Oracle == nil {
		deps.Oracle = llm.Keyword{}
	}
	if deps.TransactionsShown <= 0 {
		deps.TransactionsShown = 10
	}
	return &Session{deps: deps, state: loggedOut(), logger: logger}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Register creates an account. The session stays logged out.
func (s *Session) Register(ctx context.Context, username, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.LoggedIn {
		return 0, ErrAlreadyLoggedIn
	}
	id, err := s.deps.Credentials.Register(ctx, username, password)
	if err != nil {
		return 0, err
	}
	s.logger.Info("user registered", zap.Int64("userID", id))
	return id, nil
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.LoggedIn {
		return ErrAlreadyLoggedIn
	}
	id, err := s.deps.Credentials.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}

	next := loggedOut().withFreshChat()
	next.LoggedIn = true
	next.UserID = id
	next.Username = strings.TrimSpace(username)
	s.state = next
	s.logger.Info("user logged in", zap.Int64("userID", id))
	return nil
}

// Logout discards all ephemeral state, including an unsaved conversation.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.LoggedIn {
		s.logger.Info("user logged out", zap.Int64("userID", s.state.UserID))
	}
	s.state = loggedOut()
}

func (s *Session) SelectView(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return ErrNotLoggedIn
	}
	if _, err := ParseView(string(v)); err != nil {
		return err
	}
	s.state.View = v
	return nil
}

// NewChat saves the current conversation, if any, and starts an empty one.
func (s *Session) NewChat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return ErrNotLoggedIn
	}
	if len(s.state.Messages) > 0 {
		if _, err := s.deps.Chats.SaveChatSession(ctx, s.state.UserID, s.state.ActiveSessionID, s.state.Topic, s.state.Messages); err != nil {
			return fmt.Errorf("failed to save current chat: %w", err)
		}
	}
	s.state = s.state.withFreshChat()
	return nil
}

// Sessions lists the user's saved conversations, newest first.
func (s *Session) Sessions(ctx context.Context) ([]models.ChatSessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return nil, ErrNotLoggedIn
	}
	return s.deps.Chats.ListChatSessions(ctx, s.state.UserID)
}

// LoadSession makes a saved conversation the active one. The current
// conversation is not saved; it has been saved after every reply.
func (s *Session) LoadSession(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return ErrNotLoggedIn
	}
	chat, err := s.deps.Chats.GetChatSession(ctx, s.state.UserID, id)
	if err != nil {
		return err
	}

	next := s.state
	next.View = ViewChatbot
	next.ActiveSessionID = chat.ID
	next.Topic = chat.Topic
	next.Messages = models.CloneMessages(chat.Messages)
	s.state = next
	return nil
}

// DeleteSession removes a saved conversation. Deleting the active one also
// clears the transcript on screen.
func (s *Session) DeleteSession(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return ErrNotLoggedIn
	}
	if err := s.deps.Chats.DeleteChatSession(ctx, s.state.UserID, id); err != nil {
		return err
	}
	if id == s.state.ActiveSessionID {
		view := s.state.View
		s.state = s.state.withFreshChat()
		s.state.View = view
	}
	return nil
}

func (s *Session) RenameSession(ctx context.Context, id int64, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return ErrNotLoggedIn
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrEmptyTopic
	}
	if err := s.deps.Chats.RenameChatSession(ctx, s.state.UserID, id, topic); err != nil {
		return err
	}
	if id == s.state.ActiveSessionID {
		s.state.Topic = topic
	}
	return nil
}

// SendMessage appends text and the oracle's reply to the conversation and
// saves it. The first save of a conversation assigns its session id.
func (s *Session) SendMessage(ctx context.Context, text string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return models.Message{}, ErrNotLoggedIn
	}
	if s.state.View != ViewChatbot {
		return models.Message{}, ErrWrongView
	}
	if strings.TrimSpace(text) == "" {
		return models.Message{}, ErrEmptyMessage
	}

	next := s.state.clone()
	if next.Topic == DefaultTopic {
		next.Topic = TopicFromMessage(text)
	}

	history := models.CloneMessages(next.Messages)
	next.Messages = append(next.Messages, models.Message{Role: models.RoleUser, Content: text})
	reply := models.Message{
		Role:    models.RoleAssistant,
		Content: s.deps.Oracle.Respond(ctx, text, history),
	}
	next.Messages = append(next.Messages, reply)

	id, err := s.deps.Chats.SaveChatSession(ctx, next.UserID, next.ActiveSessionID, next.Topic, next.Messages)
	if err != nil {
		s.logger.Error("failed to save chat session",
			zap.Error(err),
			zap.Int64("userID", next.UserID),
			zap.Int64("sessionID", next.ActiveSessionID))
		return models.Message{}, fmt.Errorf("failed to save chat: %w", err)
	}
	next.ActiveSessionID = id
	s.state = next
	return reply, nil
}

// Screen is what the active view shows. Only the fields of that view are
// set.
type Screen struct {
	View         View                 `json:"view"`
	Topic        string               `json:"topic,omitempty"`
	Messages     []models.Message     `json:"messages,omitempty"`
	Balance      *decimal.Decimal     `json:"balance,omitempty"`
	LoanStatus   string               `json:"loan_status,omitempty"`
	Branch       *models.BranchInfo   `json:"branch,omitempty"`
	Transactions []models.Transaction `json:"transactions,omitempty"`
}

// Screen loads the data for the active view. It does not change the state.
func (s *Session) Screen(ctx context.Context) (*Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.LoggedIn {
		return nil, ErrNotLoggedIn
	}

	userID := s.state.UserID
	screen := &Screen{View: s.state.View}
	switch s.state.View {
	case ViewBalance:
		balance, err := s.deps.Ledger.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		screen.Balance = &balance

	case ViewLoanInfo:
		status, err := s.deps.Ledger.GetLoanStatus(ctx, userID)
		if err != nil {
			return nil, err
		}
		screen.LoanStatus = status

	case ViewAtmInfo:
		branch := s.deps.Branch
		screen.Branch = &branch

	case ViewTransactions:
		txns, err := s.deps.Ledger.ListTransactions(ctx, userID, s.deps.TransactionsShown)
		if err != nil {
			return nil, err
		}
		screen.Transactions = txns

	default:
		screen.Topic = s.state.Topic
		screen.Messages = models.CloneMessages(s.state.Messages)
	}
	return screen, nil
}

// IsStorageFailure reports whether err is an unexpected persistence error
// rather than one of the expected outcomes of an action.
func IsStorageFailure(err error) bool {
	if err == nil {
		return false
	}
	for _, expected := range []error{
		models.ErrNotFound,
		models.ErrDuplicateUsername,
		models.ErrAuthFailure,
		models.ErrInvalidCredentials,
		ErrNotLoggedIn,
		ErrAlreadyLoggedIn,
		ErrUnknownView,
		ErrWrongView,
		ErrEmptyMessage,
		ErrEmptyTopic,
	} {
		if errors.Is(err, expected) {
			return false
		}
	}
	return true
}
