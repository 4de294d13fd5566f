package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/shopspring/decimal"
)

func (d *Database) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	account := &models.Account{UserID: userID}
	err := d.db.QueryRowContext(ctx, `
		SELECT balance, loan_status
		FROM accounts
		WHERE user_id = ?`, userID).Scan(&account.Balance, &account.LoanStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (d *Database) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	account, err := d.GetAccount(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (d *Database) GetLoanStatus(ctx context.Context, userID int64) (string, error) {
	account, err := d.GetAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	return account.LoanStatus, nil
}

// ListTransactions returns the most recent transactions for the user, newest
// first.
func (d *Database) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, description, amount, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
