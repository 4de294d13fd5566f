package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RichardoC/bankchat/internal/db"
	"github.com/RichardoC/bankchat/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*Service, *db.Database) {
	t.Helper()
	database, err := db.New(context.Background(), filepath.Join(t.TempDir(), "bank.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	s := NewService(database, decimal.RequireFromString("1500.75"))
	s.cost = bcrypt.MinCost
	return s, database
}

func TestRegister_ThenAuthenticate(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	id, err := s.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	got, err := s.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "one")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice", "two")
	require.ErrorIs(t, err, models.ErrDuplicateUsername)

	// the original password still works
	_, err = s.Authenticate(ctx, "alice", "one")
	require.NoError(t, err)
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	s, database := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	user, err := database.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotContains(t, string(user.PasswordHash), "s3cret")
	require.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("s3cret")))
}

func TestRegister_OpensAccountWithStartingBalance(t *testing.T) {
	s, database := newService(t)
	ctx := context.Background()

	id, err := s.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	account, err := database.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1500.75", account.Balance.StringFixed(2))
	assert.Equal(t, models.DefaultLoanStatus, account.LoanStatus)
}

func TestRegister_InvalidInput(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"blank username", "   ", "pw"},
		{"empty password", "alice", ""},
		{"password too long", "alice", strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.username, tt.password)
			require.ErrorIs(t, err, models.ErrInvalidCredentials)
		})
	}
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, wrongPassword := s.Authenticate(ctx, "alice", "wrong")
	_, unknownUser := s.Authenticate(ctx, "bob", "s3cret")

	require.ErrorIs(t, wrongPassword, models.ErrAuthFailure)
	require.ErrorIs(t, unknownUser, models.ErrAuthFailure)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

type failingRepo struct{ err error }

func (r failingRepo) CreateUser(context.Context, string, []byte, decimal.Decimal, string) (int64, error) {
	return 0, r.err
}

func (r failingRepo) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, r.err
}

func TestStorageFailuresAreSurfaced(t *testing.T) {
	boom := errors.New("disk I/O error")
	s := NewService(failingRepo{err: boom}, decimal.Zero)
	s.cost = bcrypt.MinCost
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "pw")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, models.ErrDuplicateUsername)

	_, err = s.Authenticate(ctx, "alice", "pw")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, models.ErrAuthFailure)
}
