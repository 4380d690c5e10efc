package model

// ClearedStatus is the ledger's clearing state for a transaction.
type ClearedStatus string

// Ledger clearing states as reported by the YNAB API.
const (
	ClearedStatusCleared    ClearedStatus = "cleared"
	ClearedStatusUncleared  ClearedStatus = "uncleared"
	ClearedStatusReconciled ClearedStatus = "reconciled"
)

// LedgerTransaction is a transaction owned by the remote budgeting ledger.
// This application only reads it and proposes updates; amounts are in
// milliunits (currency * 1000).
type LedgerTransaction struct {
	TransferAccountID *string       `json:"transfer_account_id"`
	ID                string        `json:"id"`
	Date              string        `json:"date"` // ISO YYYY-MM-DD
	PayeeName         string        `json:"payee_name,omitempty"`
	Memo              string        `json:"memo,omitempty"`
	Cleared           ClearedStatus `json:"cleared"`
	AccountID         string        `json:"account_id,omitempty"`
	Amount            int64         `json:"amount"`
	Approved          bool          `json:"approved"`
}

// IsTransfer reports whether the transaction moves money between two ledger
// accounts. Transfer dates belong to the ledger and must not be overwritten.
func (t *LedgerTransaction) IsTransfer() bool {
	return t.TransferAccountID != nil
}

// IsCleared reports whether the ledger already considers this transaction
// settled.
func (t *LedgerTransaction) IsCleared() bool {
	return t.Cleared == ClearedStatusCleared
}

// ScheduledTransaction is a future-dated ledger entry that has not posted
// yet.
type ScheduledTransaction struct {
	ID        string `json:"id"`
	Date      string `json:"date_first,omitempty"`
	DateNext  string `json:"date_next,omitempty"`
	PayeeName string `json:"payee_name,omitempty"`
	Amount    int64  `json:"amount"`
}
