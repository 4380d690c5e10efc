package ynab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynabtools/fid2ynab/internal/common"
	"github.com/ynabtools/fid2ynab/internal/model"
)

func TestNewTransactionFromSource(t *testing.T) {
	payload, err := NewTransactionFromSource(model.SourceTransaction{
		Date:        "Jan-12-2026",
		Description: "DIRECT DEBIT ACME POWER",
		AmountValue: -80.25,
	}, "acct-1")
	require.NoError(t, err)

	assert.Equal(t, "acct-1", payload.AccountID)
	assert.Equal(t, "2026-01-12", payload.Date)
	assert.Equal(t, int64(-80250), payload.Amount)
	assert.Equal(t, "Acme Power", payload.PayeeName)
	assert.Equal(t, model.ClearedStatusCleared, payload.Cleared)
	assert.Nil(t, payload.Memo)
	assert.False(t, payload.Approved)
}

func TestNewTransactionFromSourceProcessing(t *testing.T) {
	payload, err := NewTransactionFromSource(model.SourceTransaction{
		Date:        "Jan-12-2026",
		Description: "STARBUCKS COFFEE",
		Status:      "Processing",
		AmountValue: -6.75,
	}, "acct-1")
	require.NoError(t, err)

	assert.Equal(t, model.ClearedStatusUncleared, payload.Cleared)
	require.NotNil(t, payload.Memo)
	assert.Equal(t, "Processing", *payload.Memo)
}

func TestNewTransactionFromSourceInvariants(t *testing.T) {
	tests := []struct {
		name string
		txn  model.SourceTransaction
	}{
		{
			name: "missing date",
			txn:  model.SourceTransaction{Description: "COFFEE", AmountValue: -6.75},
		},
		{
			name: "missing description",
			txn:  model.SourceTransaction{Date: "Jan-12-2026", AmountValue: -6.75},
		},
		{
			name: "unknown status",
			txn: model.SourceTransaction{
				Date: "Jan-12-2026", Description: "COFFEE",
				Status: "Settled?", AmountValue: -6.75,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransactionFromSource(tt.txn, "acct-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvariant)
		})
	}
}

func TestNewTransactionFromSourceBadDate(t *testing.T) {
	_, err := NewTransactionFromSource(model.SourceTransaction{
		Date:        "13-01-2026",
		Description: "COFFEE",
		AmountValue: -6.75,
	}, "acct-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvariant)
}
