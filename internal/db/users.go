package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const openingDescription = "Opening balance"

// CreateUser inserts the user together with its account row and the opening
// balance transaction. All three rows are written in one transaction.
func (d *Database) CreateUser(ctx context.Context, username string, passwordHash []byte, balance decimal.Decimal, loanStatus string) (int64, error) {
	var userID int64
	err := d.withTx(ctx, func(tx dbtx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (username, password_hash)
			VALUES (?, ?)
			RETURNING id`, username, passwordHash).Scan(&userID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (user_id, balance, loan_status)
			VALUES (?, ?, ?)`, userID, balance, loanStatus); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, description, amount, created_at)
			VALUES (?, ?, ?, ?)`, userID, openingDescription, balance, d.now().UTC())
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := d.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash
		FROM users
		WHERE username = ?`, username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
