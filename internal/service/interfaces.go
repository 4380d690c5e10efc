// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"io"
	"time"

	"github.com/ynabtools/fid2ynab/internal/model"
)

// LedgerClient is the contract for the remote budgeting ledger (YNAB).
type LedgerClient interface {
	// GetBudgets lists the budgets visible to the configured token.
	GetBudgets(ctx context.Context) ([]Budget, error)
	// GetAccounts lists the accounts within a budget.
	GetAccounts(ctx context.Context, budgetID string) ([]Account, error)
	// GetTransactionsSince fetches account transactions on or after sinceDate
	// (ISO YYYY-MM-DD).
	GetTransactionsSince(ctx context.Context, budgetID, accountID, sinceDate string) ([]model.LedgerTransaction, error)
	// GetScheduledTransactions fetches the budget's scheduled transactions.
	GetScheduledTransactions(ctx context.Context, budgetID string) ([]model.ScheduledTransaction, error)
	// CreateTransactions bulk-creates transactions and returns the created
	// records.
	CreateTransactions(ctx context.Context, budgetID string, txns []NewLedgerTransaction) ([]model.LedgerTransaction, error)
	// UpdateTransaction applies a partial update to one transaction.
	UpdateTransaction(ctx context.Context, budgetID, transactionID string, updates TransactionUpdate) (*model.LedgerTransaction, error)
}

// Budget identifies a remote budget.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account identifies an account within a budget.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Closed bool   `json:"closed"`
}

// NewLedgerTransaction is the payload for creating a ledger transaction.
type NewLedgerTransaction struct {
	Memo      *string             `json:"memo"`
	AccountID string              `json:"account_id"`
	Date      string              `json:"date"`
	PayeeName string              `json:"payee_name"`
	Cleared   model.ClearedStatus `json:"cleared"`
	Amount    int64               `json:"amount"`
	Approved  bool                `json:"approved"`
}

// TransactionUpdate is a partial update to an existing ledger transaction.
// Nil fields are left untouched.
type TransactionUpdate struct {
	Cleared *model.ClearedStatus `json:"cleared,omitempty"`
	Date    *string              `json:"date,omitempty"`
	Memo    *string              `json:"memo,omitempty"`
}

// SourceReader parses a scraped activity feed into source transactions,
// newest first.
type SourceReader interface {
	Read(ctx context.Context, r io.Reader) ([]model.SourceTransaction, error)
}

// SettingsStore is a key/value persistence capability for user settings.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
