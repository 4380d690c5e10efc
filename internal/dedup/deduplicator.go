// Package dedup implements tolerance-based matching between a scraped source
// feed and a ledger snapshot, classifying each source transaction for import.
package dedup

import (
	"log/slog"
	"math"
	"time"

	"github.com/ynabtools/fid2ynab/internal/fidelity"
	"github.com/ynabtools/fid2ynab/internal/model"
)

const isoDate = "2006-01-02"

// Config holds configuration options for the deduplicator.
type Config struct {
	// ToleranceDays is how far apart (inclusive) a source and ledger date may
	// be and still match, applied only to uncleared or transfer ledger
	// entries. Cleared non-transfer entries require exact date equality.
	ToleranceDays int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{ToleranceDays: 5}
}

// Deduplicator matches source transactions against ledger transactions.
// Each call owns its own claim state, so a single instance is safe to reuse
// across passes.
type Deduplicator struct {
	tolerance int
}

// New creates a deduplicator with the default tolerance window.
func New() *Deduplicator {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a deduplicator with a custom configuration.
func NewWithConfig(config Config) *Deduplicator {
	if config.ToleranceDays < 0 {
		config.ToleranceDays = 0
	}
	return &Deduplicator{tolerance: config.ToleranceDays}
}

// MatchPair associates one source transaction with the ledger transaction it
// claimed for this pass.
type MatchPair struct {
	Ledger      *model.LedgerTransaction
	Source      model.SourceTransaction
	SourceIndex int
}

// ImportCandidate is a source transaction absent from the ledger, along with
// same-amount suggestions a human can pick from instead of creating a
// duplicate.
type ImportCandidate struct {
	Source      model.SourceTransaction
	Suggestions []model.LedgerTransaction
	SourceIndex int
}

// FailedTransaction is a source transaction whose date could not be
// normalized. These are segregated, never fatal.
type FailedTransaction struct {
	Err         error
	Source      model.SourceTransaction
	SourceIndex int
}

// Result is the full output of one deduplication pass. Indexes refer to
// positions in the input source slice.
type Result struct {
	// ToImport holds sources with no ledger counterpart.
	ToImport []ImportCandidate
	// ToUpdate holds pairs whose ledger side should be cleared and
	// date-realigned.
	ToUpdate []MatchPair
	// Pending holds pairs whose source side has not settled; do not clear yet.
	Pending []MatchPair
	// Matched holds pairs whose ledger side is already cleared.
	Matched []MatchPair
	// UnmatchedLedger holds unclaimed ledger transactions inside the
	// reconciliation window that the feed does not explain.
	UnmatchedLedger []model.LedgerTransaction
	// Failed holds sources with unparseable dates.
	Failed []FailedTransaction
}

// FindTransactionsToImport matches each source transaction, in feed order,
// against the first unclaimed ledger transaction that agrees on amount
// exactly and date within policy. The linear scan in ledger-list order is a
// deliberate tie-break: when several ledger entries share an amount, the
// earliest-listed one is claimed first, and claim order follows feed order.
func (d *Deduplicator) FindTransactionsToImport(sourceTxns []model.SourceTransaction, ledgerTxns []model.LedgerTransaction) Result {
	var result Result

	// Normalize dates up front; failures are excluded from all matching.
	type validSource struct {
		txn   model.SourceTransaction
		iso   string
		index int
	}
	valid := make([]validSource, 0, len(sourceTxns))
	earliest := ""
	for i, txn := range sourceTxns {
		iso, err := fidelity.ParseDate(txn.Date)
		if err != nil {
			slog.Warn("Skipping source transaction with unparseable date",
				"date", txn.Date,
				"description", txn.Description,
				"error", err)
			result.Failed = append(result.Failed, FailedTransaction{
				Source:      txn,
				SourceIndex: i,
				Err:         err,
			})
			continue
		}
		valid = append(valid, validSource{txn: txn, iso: iso, index: i})
		if earliest == "" || iso < earliest {
			earliest = iso
		}
	}

	if len(valid) == 0 {
		return result
	}

	claimed := make(map[string]bool, len(ledgerTxns))

	for _, src := range valid {
		var match *model.LedgerTransaction
		for j := range ledgerTxns {
			if claimed[ledgerTxns[j].ID] {
				continue
			}
			if d.isMatch(src.txn, src.iso, &ledgerTxns[j]) {
				match = &ledgerTxns[j]
				break
			}
		}

		if match == nil {
			result.ToImport = append(result.ToImport, ImportCandidate{
				Source:      src.txn,
				SourceIndex: src.index,
			})
			continue
		}

		claimed[match.ID] = true
		pair := MatchPair{Source: src.txn, SourceIndex: src.index, Ledger: match}

		switch {
		case match.IsCleared():
			result.Matched = append(result.Matched, pair)
		case fidelity.IsProcessing(src.txn):
			result.Pending = append(result.Pending, pair)
		default:
			result.ToUpdate = append(result.ToUpdate, pair)
		}
	}

	// Suggestions: still-unclaimed ledger transactions with the exact same
	// amount, regardless of date, so a human can disambiguate.
	for i := range result.ToImport {
		amount := result.ToImport[i].Source.AmountMilliunits()
		for j := range ledgerTxns {
			if claimed[ledgerTxns[j].ID] {
				continue
			}
			if ledgerTxns[j].Amount == amount {
				result.ToImport[i].Suggestions = append(result.ToImport[i].Suggestions, ledgerTxns[j])
			}
		}
	}

	// Anything unclaimed on or after the warning cutoff exists in the ledger
	// but is unexplained by the feed.
	cutoff := addDays(earliest, d.tolerance)
	for j := range ledgerTxns {
		if claimed[ledgerTxns[j].ID] {
			continue
		}
		if ledgerTxns[j].Date >= cutoff {
			result.UnmatchedLedger = append(result.UnmatchedLedger, ledgerTxns[j])
		}
	}

	slog.Debug("Deduplication pass complete",
		"to_import", len(result.ToImport),
		"to_update", len(result.ToUpdate),
		"pending", len(result.Pending),
		"matched", len(result.Matched),
		"unmatched_ledger", len(result.UnmatchedLedger),
		"failed", len(result.Failed))

	return result
}

// isMatch reports whether a source transaction and a ledger transaction refer
// to the same real-world transaction. Amounts must agree exactly; dates must
// agree exactly for cleared non-transfer ledger entries, and within the
// tolerance window otherwise.
func (d *Deduplicator) isMatch(src model.SourceTransaction, srcISO string, ledger *model.LedgerTransaction) bool {
	if src.AmountMilliunits() != ledger.Amount {
		return false
	}

	if ledger.IsCleared() && !ledger.IsTransfer() {
		return srcISO == ledger.Date
	}
	return d.datesWithinTolerance(srcISO, ledger.Date)
}

func (d *Deduplicator) datesWithinTolerance(a, b string) bool {
	dateA, errA := time.Parse(isoDate, a)
	dateB, errB := time.Parse(isoDate, b)
	if errA != nil || errB != nil {
		return false
	}
	days := int(math.Abs(dateA.Sub(dateB).Hours()) / 24)
	return days <= d.tolerance
}

func addDays(iso string, days int) string {
	date, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return date.AddDate(0, 0, days).Format(isoDate)
}
