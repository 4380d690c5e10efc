package fidelity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/ynabtools/fid2ynab/internal/model"
)

// Reader parses a scraped activity feed saved as JSON. The scraper emits
// transactions newest first; that order is preserved.
type Reader struct {
	// SkipCoreFunds drops core fund buy/redemption rows, which duplicate the
	// cash side of real transactions.
	SkipCoreFunds bool
}

// NewReader creates a feed reader with core fund filtering enabled.
func NewReader() *Reader {
	return &Reader{SkipCoreFunds: true}
}

// Read decodes a scraped feed. The file may be either a bare array of
// transactions or an object with a "transactions" field, matching the two
// shapes the scraper has produced.
func (r *Reader) Read(ctx context.Context, src io.Reader) ([]model.SourceTransaction, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	var txns []model.SourceTransaction
	if err := json.Unmarshal(data, &txns); err != nil {
		var envelope struct {
			Transactions []model.SourceTransaction `json:"transactions"`
		}
		if envErr := json.Unmarshal(data, &envelope); envErr != nil {
			return nil, fmt.Errorf("failed to decode feed: %w", err)
		}
		txns = envelope.Transactions
	}

	if !r.SkipCoreFunds {
		return txns, nil
	}

	filtered := make([]model.SourceTransaction, 0, len(txns))
	skipped := 0
	for _, txn := range txns {
		if IsCoreFund(txn.Description) {
			skipped++
			continue
		}
		filtered = append(filtered, txn)
	}

	if skipped > 0 {
		slog.Debug("Filtered core fund transactions", "skipped", skipped, "kept", len(filtered))
	}

	return filtered, nil
}
