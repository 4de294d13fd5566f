// Package auth registers users and verifies their passwords against bcrypt
// hashes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the storage needed by Service. *db.Database satisfies it.
type UserRepository interface {
	CreateUser(ctx context.Context, username string, passwordHash []byte, balance decimal.Decimal, loanStatus string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type Service struct {
	repo            UserRepository
	startingBalance decimal.Decimal
	cost            int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService returns a Service that opens every new account with
// startingBalance.
func NewService(repo UserRepository, startingBalance decimal.Decimal) *Service {
	return &Service{
		repo:            repo,
		startingBalance: startingBalance,
		cost:            bcrypt.DefaultCost,
	}
}

// Register creates the user and its account. It returns
// models.ErrDuplicateUsername when the name is taken.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, models.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, fmt.Errorf("%w: password is longer than 72 bytes", models.ErrInvalidCredentials)
		}
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, username, hash, s.startingBalance, models.DefaultLoanStatus)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			return 0, models.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to register user: %w", err)
	}
	return id, nil
}

// Authenticate returns the user's id. Unknown users and wrong passwords both
// yield models.ErrAuthFailure.
func (s *Service) Authenticate(ctx context.Context, username, password string) (int64, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// burn the same bcrypt work as a real comparison
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return 0, models.ErrAuthFailure
		}
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return 0, models.ErrAuthFailure
	}
	return user.ID, nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bankchat-dummy-password"), s.cost)
	})
	return s.dummyHash
}
