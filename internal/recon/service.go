// Package recon combines watermark filtering with deduplication to assign a
// final state to every source transaction and to build the import plan.
package recon

import (
	"log/slog"

	"github.com/ynabtools/fid2ynab/internal/dedup"
	"github.com/ynabtools/fid2ynab/internal/fidelity"
	"github.com/ynabtools/fid2ynab/internal/model"
	"github.com/ynabtools/fid2ynab/internal/watermark"
)

// Service runs reconciliation passes. It holds no per-pass state; Analyze is
// a pure function of its inputs and is safe to call repeatedly against a
// fresh ledger snapshot.
type Service struct {
	dedup *dedup.Deduplicator
}

// New creates a reconciliation service with the default tolerance window.
func New() *Service {
	return NewWithConfig(dedup.DefaultConfig())
}

// NewWithConfig creates a reconciliation service with a custom matching
// configuration.
func NewWithConfig(config dedup.Config) *Service {
	return &Service{dedup: dedup.NewWithConfig(config)}
}

// Analysis is the output of one reconciliation pass.
type Analysis struct {
	// Watermark is the located watermark, if any.
	Watermark *watermark.Location
	// Transactions carries one entry per source transaction, in feed order,
	// each with exactly one state.
	Transactions []model.ReconciledTransaction
	// UnmatchedLedger holds ledger transactions inside the reconciliation
	// window that the feed does not explain.
	UnmatchedLedger []model.LedgerTransaction
	// Failed holds source transactions whose dates could not be normalized.
	Failed []dedup.FailedTransaction
	// WatermarkIndex is the source index of the watermark, or -1.
	WatermarkIndex int
}

// Analyze classifies every source transaction against the ledger snapshot.
// States are assigned in priority order: before-watermark, cleared, matched,
// pending, scheduled, new. Source order is preserved exactly; claim order for
// ambiguous same-amount matches depends on it.
func (s *Service) Analyze(sourceTxns []model.SourceTransaction, ledgerTxns []model.LedgerTransaction, scheduledTxns []model.ScheduledTransaction) Analysis {
	analysis := Analysis{WatermarkIndex: -1}
	if len(sourceTxns) == 0 {
		return analysis
	}

	// The feed is newest-first, so the lowest matching index is the most
	// recently imported transaction.
	if loc := watermark.Locate(ledgerTxns, sourceTxns); loc != nil {
		analysis.Watermark = loc
		analysis.WatermarkIndex = loc.SourceIndex
	}

	analysis.Transactions = make([]model.ReconciledTransaction, len(sourceTxns))
	for i, txn := range sourceTxns {
		analysis.Transactions[i] = model.ReconciledTransaction{
			Source:     txn,
			Index:      i,
			State:      model.StateNew,
			Processing: fidelity.IsProcessing(txn),
		}
	}

	if analysis.WatermarkIndex >= 0 {
		for i := analysis.WatermarkIndex; i < len(analysis.Transactions); i++ {
			analysis.Transactions[i].State = model.StateBeforeWatermark
		}
	}

	// Deduplicate only the active prefix; frozen history never matches.
	var active []model.SourceTransaction
	var activeIndex []int
	for i := range analysis.Transactions {
		if analysis.Transactions[i].State == model.StateBeforeWatermark {
			continue
		}
		active = append(active, analysis.Transactions[i].Source)
		activeIndex = append(activeIndex, i)
	}
	if len(active) == 0 {
		return analysis
	}

	result := s.dedup.FindTransactionsToImport(active, ledgerTxns)
	analysis.UnmatchedLedger = result.UnmatchedLedger

	for _, failed := range result.Failed {
		failed.SourceIndex = activeIndex[failed.SourceIndex]
		analysis.Failed = append(analysis.Failed, failed)
	}

	for _, pair := range result.Matched {
		txn := &analysis.Transactions[activeIndex[pair.SourceIndex]]
		txn.State = model.StateCleared
		txn.Ledger = pair.Ledger
	}
	for _, pair := range result.ToUpdate {
		txn := &analysis.Transactions[activeIndex[pair.SourceIndex]]
		txn.State = model.StateMatched
		txn.Ledger = pair.Ledger
	}
	for _, pair := range result.Pending {
		txn := &analysis.Transactions[activeIndex[pair.SourceIndex]]
		txn.State = model.StatePending
		txn.Ledger = pair.Ledger
	}
	for _, candidate := range result.ToImport {
		txn := &analysis.Transactions[activeIndex[candidate.SourceIndex]]
		txn.Suggestions = candidate.Suggestions
	}

	// A still-processing transaction with no ledger match may already exist
	// as a scheduled entry with the same amount. Each scheduled entry can
	// cover at most one source transaction per pass.
	usedScheduled := make(map[string]bool, len(scheduledTxns))
	for i := range analysis.Transactions {
		txn := &analysis.Transactions[i]
		if txn.State != model.StateNew || !txn.Processing {
			continue
		}
		amount := txn.Source.AmountMilliunits()
		for j := range scheduledTxns {
			if usedScheduled[scheduledTxns[j].ID] || scheduledTxns[j].Amount != amount {
				continue
			}
			usedScheduled[scheduledTxns[j].ID] = true
			txn.State = model.StateScheduled
			txn.Scheduled = &scheduledTxns[j]
			break
		}
	}

	slog.Debug("Reconciliation pass complete",
		"source_count", len(sourceTxns),
		"watermark_index", analysis.WatermarkIndex,
		"unmatched_ledger", len(analysis.UnmatchedLedger),
		"failed", len(analysis.Failed))

	return analysis
}
