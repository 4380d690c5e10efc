// Package importer applies a reconciliation plan against the remote ledger
// and writes the new watermark annotation.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ynabtools/fid2ynab/internal/common"
	"github.com/ynabtools/fid2ynab/internal/model"
	"github.com/ynabtools/fid2ynab/internal/recon"
	"github.com/ynabtools/fid2ynab/internal/service"
	"github.com/ynabtools/fid2ynab/internal/watermark"
	"github.com/ynabtools/fid2ynab/internal/ynab"
)

// Importer executes import plans. Creates are applied first (bulk), then
// clears; each partition is already sorted chronologically, so an interrupted
// run leaves the earliest prefix applied.
type Importer struct {
	client    service.LedgerClient
	writer    io.Writer
	budgetID  string
	accountID string
	retryOpts service.RetryOptions
}

// New creates an importer bound to one budget account. Progress output goes
// to writer; pass nil to disable it.
func New(client service.LedgerClient, budgetID, accountID string, writer io.Writer) *Importer {
	return &Importer{
		client:    client,
		writer:    writer,
		budgetID:  budgetID,
		accountID: accountID,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Summary reports what an import pass applied.
type Summary struct {
	WatermarkLedgerID string
	Created           int
	Scheduled         int
	Cleared           int
}

// Apply executes the plan: new transactions are bulk-created (still-processing
// ones uncleared), matched ledger transactions are cleared with their dates
// realigned to the source date unless they are transfers. The chronologically
// last transaction touched receives the watermark memo, carrying the
// fingerprint of the newest (lowest-index) source transaction applied, so the
// next pass freezes everything from that point down.
func (im *Importer) Apply(ctx context.Context, plan recon.Plan) (*Summary, error) {
	summary := &Summary{}
	if plan.IsEmpty() {
		slog.Info("Nothing to import")
		return summary, nil
	}

	wmSource, carrier := watermarkTargets(plan)

	bar := im.newProgressBar(plan.TotalActions())

	payloads := make([]service.NewLedgerTransaction, 0, len(plan.Create)+len(plan.Schedule))
	carried := -1
	for _, entry := range append(append([]recon.PlanEntry{}, plan.Create...), plan.Schedule...) {
		payload, err := ynab.NewTransactionFromSource(entry.Source, im.accountID)
		if err != nil {
			return summary, fmt.Errorf("failed to build create payload for %q: %w", entry.Source.Description, err)
		}
		if carrier != nil && carrier.kind != carrierClear && carrier.index == entry.Index {
			memo := ""
			if payload.Memo != nil {
				memo = *payload.Memo
			}
			embedded := watermark.EmbedMemo(*wmSource, memo)
			payload.Memo = &embedded
			carried = len(payloads)
		}
		payloads = append(payloads, payload)
	}

	if len(payloads) > 0 {
		var created []model.LedgerTransaction
		err := common.WithRetry(ctx, func() error {
			var createErr error
			created, createErr = im.client.CreateTransactions(ctx, im.budgetID, payloads)
			return createErr
		}, im.retryOpts)
		if err != nil {
			return summary, fmt.Errorf("failed to create transactions: %w", err)
		}
		summary.Created = len(plan.Create)
		summary.Scheduled = len(plan.Schedule)
		if carried >= 0 && carried < len(created) {
			summary.WatermarkLedgerID = created[carried].ID
		}
		im.advance(bar, len(payloads))
		slog.Info("Created ledger transactions",
			"created", summary.Created,
			"scheduled", summary.Scheduled)
	}

	for _, clear := range plan.Clear {
		cleared := model.ClearedStatusCleared
		updates := service.TransactionUpdate{Cleared: &cleared}

		// Transfer dates belong to the ledger; never overwrite them.
		if !clear.Ledger.IsTransfer() {
			date := clear.Entry.Date
			updates.Date = &date
		}
		if carrier != nil && carrier.kind == carrierClear && carrier.index == clear.Entry.Index {
			memo := watermark.EmbedMemo(*wmSource, clear.Ledger.Memo)
			updates.Memo = &memo
		}

		err := common.WithRetry(ctx, func() error {
			_, updateErr := im.client.UpdateTransaction(ctx, im.budgetID, clear.Ledger.ID, updates)
			return updateErr
		}, im.retryOpts)
		if err != nil {
			return summary, fmt.Errorf("failed to clear transaction %s: %w", clear.Ledger.ID, err)
		}
		summary.Cleared++
		if updates.Memo != nil {
			summary.WatermarkLedgerID = clear.Ledger.ID
		}
		im.advance(bar, 1)
	}

	slog.Info("Import pass complete",
		"created", summary.Created,
		"scheduled", summary.Scheduled,
		"cleared", summary.Cleared,
		"watermark_ledger_id", summary.WatermarkLedgerID)

	return summary, nil
}

type carrierKind int

const (
	carrierCreate carrierKind = iota
	carrierClear
)

type carrierRef struct {
	date  string
	index int
	kind  carrierKind
}

// watermarkTargets picks the fingerprint source (newest applied source
// transaction, i.e. lowest feed index) and the carrier (chronologically last
// transaction touched) for the pass.
func watermarkTargets(plan recon.Plan) (*model.SourceTransaction, *carrierRef) {
	var source *model.SourceTransaction
	lowestIndex := -1
	var carrier *carrierRef

	consider := func(entry recon.PlanEntry, kind carrierKind) {
		if lowestIndex < 0 || entry.Index < lowestIndex {
			lowestIndex = entry.Index
			txn := entry.Source
			source = &txn
		}
		if carrier == nil || entry.Date >= carrier.date {
			carrier = &carrierRef{date: entry.Date, index: entry.Index, kind: kind}
		}
	}

	for _, entry := range plan.Create {
		consider(entry, carrierCreate)
	}
	for _, entry := range plan.Schedule {
		consider(entry, carrierCreate)
	}
	for _, clear := range plan.Clear {
		consider(clear.Entry, carrierClear)
	}

	return source, carrier
}

func (im *Importer) newProgressBar(total int) *progressbar.ProgressBar {
	if im.writer == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(im.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(im.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func (im *Importer) advance(bar *progressbar.ProgressBar, n int) {
	if bar == nil {
		return
	}
	if err := bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
