package watermark

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynabtools/fid2ynab/internal/model"
)

func source(date, description string, amount float64) model.SourceTransaction {
	return model.SourceTransaction{Date: date, Description: description, AmountValue: amount}
}

func TestFingerprintDeterministic(t *testing.T) {
	txn := source("Jan-12-2026", "STARBUCKS COFFEE", -6.75)

	first := Fingerprint(txn)
	second := Fingerprint(txn)

	assert.Equal(t, first, second)
	assert.Len(t, first, 12)
}

func TestFingerprintNormalizesTrailingZeros(t *testing.T) {
	// -25.00 and -25 are the same value and must fingerprint identically,
	// regardless of how the feed happened to render them.
	a := source("Jan-12-2026", "ACME POWER", -25.00)
	b := source("Jan-12-2026", "ACME POWER", -25)

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestLocateDistinguishesSameDayTransactions(t *testing.T) {
	// Several transactions on one day are routine. The marker must resolve
	// to the transaction actually imported, not a same-day neighbor, or the
	// neighbors above it would be frozen without ever being imported.
	sources := []model.SourceTransaction{
		source("Jan-12-2026", "ACME WATER", -30),
		source("Jan-12-2026", "ACME POWER", -25),
		source("Jan-12-2026", "STARBUCKS COFFEE", -6.75),
	}

	ledger := []model.LedgerTransaction{
		{ID: "power", Memo: EmbedMemo(sources[1], "")},
	}

	loc := Locate(ledger, sources)
	require.NotNil(t, loc)
	assert.Equal(t, 1, loc.SourceIndex)
}

func TestFingerprintDistinguishesFields(t *testing.T) {
	base := source("Jan-12-2026", "ACME POWER", -25)

	differentDate := source("Jan-13-2026", "ACME POWER", -25)
	differentDesc := source("Jan-12-2026", "ACME WATER", -25)
	differentAmount := source("Jan-12-2026", "ACME POWER", -25.01)

	assert.NotEqual(t, Fingerprint(base), Fingerprint(differentDate))
	assert.NotEqual(t, Fingerprint(base), Fingerprint(differentDesc))
	assert.NotEqual(t, Fingerprint(base), Fingerprint(differentAmount))
}

func TestEmbedMemo(t *testing.T) {
	txn := source("Jan-12-2026", "STARBUCKS COFFEE", -6.75)

	memo := EmbedMemo(txn, "morning coffee")

	require.True(t, strings.HasPrefix(memo, Prefix))
	assert.True(t, strings.HasSuffix(memo, "morning coffee"))
	assert.Equal(t, Fingerprint(txn), ExtractFingerprint(memo))
}

func TestEmbedMemoEmptyExisting(t *testing.T) {
	txn := source("Jan-12-2026", "STARBUCKS COFFEE", -6.75)

	memo := EmbedMemo(txn, "")

	// No trailing space when there was no prior memo text.
	assert.Equal(t, strings.TrimSpace(memo), memo)
	assert.Equal(t, Fingerprint(txn), ExtractFingerprint(memo))
}

func TestEmbedMemoReplacesOldMarker(t *testing.T) {
	older := source("Jan-05-2026", "ACME POWER", -80)
	newer := source("Jan-12-2026", "STARBUCKS COFFEE", -6.75)

	memo := EmbedMemo(older, "utilities")
	memo = EmbedMemo(newer, memo)

	assert.Equal(t, Fingerprint(newer), ExtractFingerprint(memo))
	assert.Equal(t, 1, strings.Count(memo, Prefix))
	assert.True(t, strings.HasSuffix(memo, "utilities"))
}

func TestExtractFingerprintAbsent(t *testing.T) {
	assert.Empty(t, ExtractFingerprint("just a regular memo"))
	assert.Empty(t, ExtractFingerprint(""))
}

func TestLocate(t *testing.T) {
	sources := []model.SourceTransaction{
		source("Jan-12-2026", "STARBUCKS COFFEE", -6.75),
		source("Jan-10-2026", "ACME POWER", -80),
		source("Jan-08-2026", "PAYROLL CO", 2500),
	}

	ledger := []model.LedgerTransaction{
		{ID: "a", Memo: "no marker here"},
		{ID: "b", Memo: EmbedMemo(sources[1], "utilities")},
	}

	loc := Locate(ledger, sources)
	require.NotNil(t, loc)
	assert.Equal(t, 1, loc.SourceIndex)
	assert.Equal(t, "b", loc.Ledger.ID)
}

func TestLocateNotFound(t *testing.T) {
	sources := []model.SourceTransaction{
		source("Jan-12-2026", "STARBUCKS COFFEE", -6.75),
	}
	ledger := []model.LedgerTransaction{
		{ID: "a", Memo: "plain memo"},
		{ID: "b", Memo: "[F2Y:AAAAAAAAAAAA] stale marker for a rotated-out transaction"},
	}

	assert.Nil(t, Locate(ledger, sources))
}

func TestLocatePrefersLowestSourceIndex(t *testing.T) {
	// Markers from several past imports can coexist in the ledger. The feed
	// is newest first, so the lowest matching index is the true watermark;
	// anything else would reprocess already-imported history.
	sources := []model.SourceTransaction{
		source("Jan-12-2026", "STARBUCKS COFFEE", -6.75),
		source("Jan-10-2026", "ACME POWER", -80),
		source("Jan-08-2026", "PAYROLL CO", 2500),
	}

	ledger := []model.LedgerTransaction{
		{ID: "old", Memo: EmbedMemo(sources[2], "")},
		{ID: "new", Memo: EmbedMemo(sources[0], "")},
		{ID: "mid", Memo: EmbedMemo(sources[1], "")},
	}

	loc := Locate(ledger, sources)
	require.NotNil(t, loc)
	assert.Equal(t, 0, loc.SourceIndex)
	assert.Equal(t, "new", loc.Ledger.ID)
}
