package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLoanStatus is written for every newly opened account.
const DefaultLoanStatus = "None"

type Account struct {
	UserID     int64           `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	LoanStatus string          `json:"loan_status"`
}

// Transaction is a posted ledger line. Positive amounts are credits.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BranchInfo is the static ATM and branch information shown to every user.
type BranchInfo struct {
	ATMLocation   string          `json:"atm_location"`
	Branch        string          `json:"branch"`
	DailyATMLimit decimal.Decimal `json:"daily_atm_limit"`
}
