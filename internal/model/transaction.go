// Package model defines the core data types shared across the application.
package model

import (
	"math"
	"strconv"
)

// SourceTransaction is a single row scraped from the Fidelity activity feed.
// It is immutable once scraped; the feed lists newest transactions first and
// that ordering is load-bearing for watermark resolution.
type SourceTransaction struct {
	Date        string  `json:"date"`        // Source format, e.g. "Jan-12-2026"
	Description string  `json:"description"` // Raw activity description
	Amount      string  `json:"amount"`      // Display amount as scraped, e.g. "-$25.00"
	Status      string  `json:"status,omitempty"`
	Type        string  `json:"type"` // "credit" or "debit"
	CashBalance string  `json:"cashBalance,omitempty"`
	AmountValue float64 `json:"amountValue"` // Signed decimal currency units
}

// AmountMilliunits converts the source amount to the ledger's fixed-point
// integer representation (amount * 1000).
func (t *SourceTransaction) AmountMilliunits() int64 {
	return int64(math.Round(t.AmountValue * 1000))
}

// AmountString renders the amount in its shortest decimal form, so that
// -25.00 and -25 produce the same string. Fingerprints depend on this.
func (t *SourceTransaction) AmountString() string {
	return strconv.FormatFloat(t.AmountValue, 'f', -1, 64)
}

// MatchState classifies a source transaction after a reconciliation pass.
type MatchState string

// Reconciliation states, in classification priority order.
const (
	// StateBeforeWatermark marks transactions at or below the watermark;
	// they were imported in a previous pass and are frozen.
	StateBeforeWatermark MatchState = "before-watermark"
	// StateCleared means the ledger counterpart is already cleared.
	StateCleared MatchState = "cleared"
	// StateMatched means an uncleared ledger counterpart exists and should
	// be cleared on import.
	StateMatched MatchState = "matched"
	// StatePending means a ledger counterpart exists but the source side has
	// not settled yet.
	StatePending MatchState = "pending"
	// StateScheduled means no ledger match, but an unclaimed scheduled entry
	// with the same amount covers this still-processing transaction.
	StateScheduled MatchState = "scheduled"
	// StateNew means the transaction is absent from the ledger.
	StateNew MatchState = "new"
)

// ReconciledTransaction is the per-source-transaction output of a
// reconciliation pass. It is recomputed fresh on every run and never
// persisted.
type ReconciledTransaction struct {
	Ledger      *LedgerTransaction
	Scheduled   *ScheduledTransaction
	State       MatchState
	Source      SourceTransaction
	Suggestions []LedgerTransaction
	Index       int
	Processing  bool
}
