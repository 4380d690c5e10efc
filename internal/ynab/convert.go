package ynab

import (
	"fmt"

	"github.com/ynabtools/fid2ynab/internal/common"
	"github.com/ynabtools/fid2ynab/internal/fidelity"
	"github.com/ynabtools/fid2ynab/internal/model"
	"github.com/ynabtools/fid2ynab/internal/service"
)

// statusProcessing is the only non-empty source status the feed produces.
const statusProcessing = "Processing"

// NewTransactionFromSource builds a create payload from a source transaction.
// A missing date or description, or an unrecognized status, violates the
// scraper contract and fails with an invariant error.
func NewTransactionFromSource(txn model.SourceTransaction, accountID string) (service.NewLedgerTransaction, error) {
	var payload service.NewLedgerTransaction

	if txn.Date == "" {
		return payload, fmt.Errorf("%w: source transaction missing date", common.ErrInvariant)
	}
	if txn.Description == "" {
		return payload, fmt.Errorf("%w: source transaction missing description", common.ErrInvariant)
	}

	date, err := fidelity.ParseDate(txn.Date)
	if err != nil {
		return payload, err
	}

	var cleared model.ClearedStatus
	switch txn.Status {
	case statusProcessing:
		cleared = model.ClearedStatusUncleared
	case "":
		cleared = model.ClearedStatusCleared
	default:
		return payload, fmt.Errorf("%w: unknown transaction status %q", common.ErrInvariant, txn.Status)
	}

	var memo *string
	if txn.Status != "" {
		status := txn.Status
		memo = &status
	}

	return service.NewLedgerTransaction{
		AccountID: accountID,
		Date:      date,
		Amount:    txn.AmountMilliunits(),
		PayeeName: fidelity.FormatPayee(txn.Description),
		Memo:      memo,
		Cleared:   cleared,
		Approved:  false,
	}, nil
}
