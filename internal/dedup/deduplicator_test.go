package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynabtools/fid2ynab/internal/model"
)

func source(date, description string, amount float64) model.SourceTransaction {
	return model.SourceTransaction{Date: date, Description: description, AmountValue: amount}
}

func processing(date, description string, amount float64) model.SourceTransaction {
	txn := source(date, description, amount)
	txn.Status = "Processing"
	return txn
}

func ledger(id, date string, amount int64, cleared model.ClearedStatus) model.LedgerTransaction {
	return model.LedgerTransaction{ID: id, Date: date, Amount: amount, Cleared: cleared}
}

func transfer(id, date string, amount int64, cleared model.ClearedStatus) model.LedgerTransaction {
	txn := ledger(id, date, amount, cleared)
	other := "other-account"
	txn.TransferAccountID = &other
	return txn
}

func TestExactAmountRequired(t *testing.T) {
	d := New()

	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{ledger("a", "2026-01-12", -6760, model.ClearedStatusUncleared)},
	)

	require.Len(t, result.ToImport, 1)
	assert.Empty(t, result.ToUpdate)
}

func TestMatchWithinTolerance(t *testing.T) {
	d := New()

	// Uncleared ledger entry five days away: inside the inclusive window.
	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{ledger("a", "2026-01-07", -6750, model.ClearedStatusUncleared)},
	)

	require.Len(t, result.ToUpdate, 1)
	assert.Equal(t, "a", result.ToUpdate[0].Ledger.ID)
	assert.Empty(t, result.ToImport)
}

func TestNoMatchBeyondTolerance(t *testing.T) {
	d := New()

	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{ledger("a", "2026-01-06", -6750, model.ClearedStatusUncleared)},
	)

	require.Len(t, result.ToImport, 1)
	assert.Empty(t, result.ToUpdate)
	// Same amount, so the unclaimed entry still shows up as a suggestion.
	require.Len(t, result.ToImport[0].Suggestions, 1)
	assert.Equal(t, "a", result.ToImport[0].Suggestions[0].ID)
}

func TestCustomTolerance(t *testing.T) {
	d := NewWithConfig(Config{ToleranceDays: 1})

	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{ledger("a", "2026-01-10", -6750, model.ClearedStatusUncleared)},
	)

	assert.Len(t, result.ToImport, 1)
	assert.Empty(t, result.ToUpdate)
}

func TestClearedRequiresExactDate(t *testing.T) {
	d := New()

	sources := []model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)}

	offByOne := d.FindTransactionsToImport(sources,
		[]model.LedgerTransaction{ledger("a", "2026-01-11", -6750, model.ClearedStatusCleared)})
	assert.Len(t, offByOne.ToImport, 1, "cleared entry one day off must not match")

	exact := d.FindTransactionsToImport(sources,
		[]model.LedgerTransaction{ledger("a", "2026-01-12", -6750, model.ClearedStatusCleared)})
	require.Len(t, exact.Matched, 1)
	assert.Equal(t, "a", exact.Matched[0].Ledger.ID)
}

func TestClearedTransferGetsTolerance(t *testing.T) {
	d := New()

	// A cleared transfer keeps the tolerance window: transfer dates belong
	// to the ledger side and routinely differ from the feed by a few days.
	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "TRANSFER OUT", -500)},
		[]model.LedgerTransaction{transfer("t", "2026-01-09", -500000, model.ClearedStatusCleared)},
	)

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "t", result.Matched[0].Ledger.ID)
}

func TestProcessingMatchIsPending(t *testing.T) {
	d := New()

	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{processing("Jan-12-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{ledger("a", "2026-01-12", -6750, model.ClearedStatusUncleared)},
	)

	require.Len(t, result.Pending, 1)
	assert.Empty(t, result.ToUpdate)
	assert.Empty(t, result.ToImport)
}

func TestEachLedgerTransactionClaimedOnce(t *testing.T) {
	d := New()

	// Two identical source charges, one ledger entry: the first (newest)
	// claims it, the second becomes an import candidate with a suggestion
	// pointing nowhere since the entry is claimed.
	sources := []model.SourceTransaction{
		source("Jan-12-2026", "COFFEE", -6.75),
		source("Jan-11-2026", "COFFEE", -6.75),
	}
	result := d.FindTransactionsToImport(sources,
		[]model.LedgerTransaction{ledger("a", "2026-01-12", -6750, model.ClearedStatusUncleared)})

	require.Len(t, result.ToUpdate, 1)
	assert.Equal(t, 0, result.ToUpdate[0].SourceIndex)
	require.Len(t, result.ToImport, 1)
	assert.Equal(t, 1, result.ToImport[0].SourceIndex)
	assert.Empty(t, result.ToImport[0].Suggestions)
}

func TestClaimOrderFollowsLedgerListOrder(t *testing.T) {
	d := New()

	// Two ledger entries with the same amount inside the window: the
	// earlier-listed one is claimed first.
	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{
			ledger("first", "2026-01-10", -6750, model.ClearedStatusUncleared),
			ledger("second", "2026-01-12", -6750, model.ClearedStatusUncleared),
		},
	)

	require.Len(t, result.ToUpdate, 1)
	assert.Equal(t, "first", result.ToUpdate[0].Ledger.ID)
}

func TestUnmatchedLedgerWarning(t *testing.T) {
	d := New()

	// Earliest source date Jan-10; cutoff is Jan-15. The unclaimed entry on
	// Jan-20 is inside the active window and unexplained; the one on Jan-01
	// predates the feed and is ignored.
	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-10-2026", "COFFEE", -6.75)},
		[]model.LedgerTransaction{
			ledger("recent", "2026-01-20", -99000, model.ClearedStatusUncleared),
			ledger("ancient", "2026-01-01", -42000, model.ClearedStatusUncleared),
		},
	)

	require.Len(t, result.UnmatchedLedger, 1)
	assert.Equal(t, "recent", result.UnmatchedLedger[0].ID)
}

func TestUnparseableDateFails(t *testing.T) {
	d := New()

	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{
			source("garbage", "BROKEN ROW", -10),
			source("Jan-12-2026", "COFFEE", -6.75),
		},
		[]model.LedgerTransaction{ledger("a", "2026-01-12", -6750, model.ClearedStatusUncleared)},
	)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, 0, result.Failed[0].SourceIndex)
	assert.Error(t, result.Failed[0].Err)
	// The valid row still matches normally.
	require.Len(t, result.ToUpdate, 1)
	assert.Equal(t, 1, result.ToUpdate[0].SourceIndex)
}

func TestAllDatesUnparseable(t *testing.T) {
	d := New()

	result := d.FindTransactionsToImport(
		[]model.SourceTransaction{source("nope", "BROKEN", -10)},
		[]model.LedgerTransaction{ledger("a", "2026-01-12", -6750, model.ClearedStatusUncleared)},
	)

	assert.Len(t, result.Failed, 1)
	assert.Empty(t, result.ToImport)
	assert.Empty(t, result.UnmatchedLedger)
}

func TestEmptyInputs(t *testing.T) {
	d := New()

	result := d.FindTransactionsToImport(nil, nil)
	assert.Empty(t, result.ToImport)
	assert.Empty(t, result.Failed)

	result = d.FindTransactionsToImport(
		[]model.SourceTransaction{source("Jan-12-2026", "COFFEE", -6.75)}, nil)
	require.Len(t, result.ToImport, 1)
	assert.Empty(t, result.ToImport[0].Suggestions)
}

func TestDeterministic(t *testing.T) {
	d := New()

	sources := []model.SourceTransaction{
		source("Jan-12-2026", "COFFEE", -6.75),
		processing("Jan-11-2026", "GROCERIES", -120.50),
		source("Jan-10-2026", "PAYROLL", 2500),
	}
	ledgerTxns := []model.LedgerTransaction{
		ledger("a", "2026-01-12", -6750, model.ClearedStatusCleared),
		ledger("b", "2026-01-11", -120500, model.ClearedStatusUncleared),
		ledger("c", "2026-01-09", -55000, model.ClearedStatusUncleared),
	}

	first := d.FindTransactionsToImport(sources, ledgerTxns)
	second := d.FindTransactionsToImport(sources, ledgerTxns)

	assert.Equal(t, first, second)
}
