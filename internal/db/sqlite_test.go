package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(context.Background(), filepath.Join(t.TempDir(), "bank.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// fixedClock returns a clock that advances by one second on every call.
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func createUser(t *testing.T, d *Database, username string) int64 {
	t.Helper()
	id, err := d.CreateUser(context.Background(), username, []byte("hash"), decimal.RequireFromString("1500.75"), models.DefaultLoanStatus)
	require.NoError(t, err)
	return id
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.db")
	ctx := context.Background()

	d, err := New(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = New(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestCreateUser_WritesUserAccountAndOpeningTransaction(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()

	id, err := d.CreateUser(ctx, "alice", []byte("hash"), decimal.RequireFromString("1500.75"), models.DefaultLoanStatus)
	require.NoError(t, err)
	assert.Positive(t, id)

	user, err := d.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, []byte("hash"), user.PasswordHash)

	account, err := d.GetAccount(ctx, id)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1500.75").Equal(account.Balance))
	assert.Equal(t, "None", account.LoanStatus)

	txns, err := d.ListTransactions(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Opening balance", txns[0].Description)
	assert.True(t, decimal.RequireFromString("1500.75").Equal(txns[0].Amount))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()

	createUser(t, d, "alice")
	_, err := d.CreateUser(ctx, "alice", []byte("other"), decimal.Zero, models.DefaultLoanStatus)
	require.ErrorIs(t, err, models.ErrDuplicateUsername)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	d := setupDB(t)

	_, err := d.GetUserByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetBalanceAndLoanStatus(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()
	id := createUser(t, d, "alice")

	balance, err := d.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1500.75", balance.StringFixed(2))

	status, err := d.GetLoanStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "None", status)

	_, err = d.GetBalance(ctx, id+100)
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = d.GetLoanStatus(ctx, id+100)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetBalance_NegativeBalanceIsPreserved(t *testing.T) {
	d := setupDB(t)
	ctx := context.Background()

	id, err := d.CreateUser(ctx, "bob", []byte("hash"), decimal.RequireFromString("-20.10"), "Active")
	require.NoError(t, err)

	balance, err := d.GetBalance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "-20.1", balance.String())
}
