package recon

import (
	"sort"

	"github.com/ynabtools/fid2ynab/internal/fidelity"
	"github.com/ynabtools/fid2ynab/internal/model"
)

// PlanEntry is one source transaction slated for an import action, with its
// normalized ISO date.
type PlanEntry struct {
	Date   string
	Source model.SourceTransaction
	Index  int
}

// ClearEntry pairs a plan entry with the uncleared ledger transaction it
// should clear.
type ClearEntry struct {
	Ledger *model.LedgerTransaction
	Entry  PlanEntry
}

// Plan is the ordered set of actions one import pass should apply. Each list
// is sorted ascending by date, so an interrupted import leaves the
// chronologically earliest prefix applied and resumption is predictable.
type Plan struct {
	// Create holds settled transactions absent from the ledger.
	Create []PlanEntry
	// Schedule holds still-processing transactions absent from the ledger;
	// they are created uncleared.
	Schedule []PlanEntry
	// Clear holds matched pairs whose ledger side should be marked cleared
	// (and date-realigned unless the ledger side is a transfer).
	Clear []ClearEntry
}

// IsEmpty reports whether the plan has no actions.
func (p *Plan) IsEmpty() bool {
	return p.TotalActions() == 0
}

// TotalActions returns the number of ledger operations the plan implies.
func (p *Plan) TotalActions() int {
	return len(p.Create) + len(p.Schedule) + len(p.Clear)
}

// PrepareImport filters a pass's transactions down to actionable entries and
// partitions them. Before-watermark, cleared, scheduled, and user-skipped
// entries are dropped; entries whose date cannot be normalized never reach
// the plan (they are already reported in the failed bucket).
func (s *Service) PrepareImport(analysis Analysis, skipped map[int]bool) Plan {
	var plan Plan

	for _, txn := range analysis.Transactions {
		switch txn.State {
		case model.StateBeforeWatermark, model.StateCleared, model.StateScheduled:
			continue
		case model.StateNew, model.StateMatched, model.StatePending:
		}
		if skipped[txn.Index] {
			continue
		}

		date, err := fidelity.ParseDate(txn.Source.Date)
		if err != nil {
			continue
		}
		entry := PlanEntry{Source: txn.Source, Index: txn.Index, Date: date}

		switch txn.State {
		case model.StateNew:
			if txn.Processing {
				plan.Schedule = append(plan.Schedule, entry)
			} else {
				plan.Create = append(plan.Create, entry)
			}
		case model.StateMatched, model.StatePending:
			if txn.Ledger != nil && !txn.Ledger.IsCleared() {
				plan.Clear = append(plan.Clear, ClearEntry{Entry: entry, Ledger: txn.Ledger})
			}
		case model.StateBeforeWatermark, model.StateCleared, model.StateScheduled:
		}
	}

	sortEntries(plan.Create)
	sortEntries(plan.Schedule)
	sort.SliceStable(plan.Clear, func(i, j int) bool {
		return plan.Clear[i].Entry.Date < plan.Clear[j].Entry.Date
	})

	return plan
}

func sortEntries(entries []PlanEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
}

// Stats summarizes a pass for display.
type Stats struct {
	ToCreate        int
	ToMatch         int
	ToSkip          int
	BeforeWatermark int
	Cleared         int
	Scheduled       int
}

// ComputeStats counts transactions by pending action, honoring the skip set.
func (s *Service) ComputeStats(analysis Analysis, skipped map[int]bool) Stats {
	var stats Stats
	stats.ToSkip = len(skipped)

	for _, txn := range analysis.Transactions {
		switch txn.State {
		case model.StateBeforeWatermark:
			stats.BeforeWatermark++
		case model.StateCleared:
			stats.Cleared++
		case model.StateScheduled:
			stats.Scheduled++
		case model.StateNew:
			if !skipped[txn.Index] {
				stats.ToCreate++
			}
		case model.StateMatched, model.StatePending:
			if !skipped[txn.Index] {
				stats.ToMatch++
			}
		}
	}

	return stats
}

// WatermarkTransaction returns the most recently imported source transaction
// (the first before-watermark entry), or nil.
func (s *Service) WatermarkTransaction(analysis Analysis) *model.SourceTransaction {
	for i := range analysis.Transactions {
		if analysis.Transactions[i].State == model.StateBeforeWatermark {
			return &analysis.Transactions[i].Source
		}
	}
	return nil
}

// HasImportableTransactions reports whether an import pass would do anything.
func (s *Service) HasImportableTransactions(analysis Analysis, skipped map[int]bool) bool {
	plan := s.PrepareImport(analysis, skipped)
	return !plan.IsEmpty()
}
