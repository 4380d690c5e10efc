package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ynabtools/fid2ynab/internal/common"
	"github.com/ynabtools/fid2ynab/internal/dedup"
	"github.com/ynabtools/fid2ynab/internal/fidelity"
	"github.com/ynabtools/fid2ynab/internal/model"
	"github.com/ynabtools/fid2ynab/internal/ofx"
	"github.com/ynabtools/fid2ynab/internal/service"
	"github.com/ynabtools/fid2ynab/internal/storage"
	"github.com/ynabtools/fid2ynab/internal/ynab"
)

func newLedgerClient() (*ynab.Client, error) {
	return ynab.NewClient(viper.GetString("ynab.token"))
}

func openSettings() (*storage.SettingsStore, error) {
	dbPath := viper.GetString("settings.db_path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "fid2ynab", "settings.db")
	}
	return storage.NewSettingsStore(dbPath)
}

// budgetAndAccount resolves the target budget/account from flags, config, or
// saved settings, in that order.
func budgetAndAccount(ctx context.Context, settings *storage.SettingsStore) (string, string, error) {
	budgetID := viper.GetString("ynab.budget_id")
	accountID := viper.GetString("ynab.account_id")

	if budgetID == "" && settings != nil {
		if saved, err := settings.Get(ctx, storage.KeyBudgetID); err == nil {
			budgetID = saved
		}
	}
	if accountID == "" && settings != nil {
		if saved, err := settings.Get(ctx, storage.KeyAccountID); err == nil {
			accountID = saved
		}
	}

	if budgetID == "" || accountID == "" {
		return "", "", common.NewUserError(
			"budget and account must be configured; run 'fid2ynab accounts' to list them",
			common.ErrMissingConfig)
	}
	return budgetID, accountID, nil
}

// matchConfig resolves the tolerance window from config, then saved
// settings, then the built-in default.
func matchConfig(ctx context.Context, settings *storage.SettingsStore) dedup.Config {
	config := dedup.DefaultConfig()
	if viper.IsSet("tolerance_days") {
		config.ToleranceDays = viper.GetInt("tolerance_days")
		return config
	}
	if settings != nil {
		if saved, err := settings.Get(ctx, storage.KeyDateTolerance); err == nil {
			if days, convErr := strconv.Atoi(saved); convErr == nil {
				config.ToleranceDays = days
			}
		}
	}
	return config
}

// skipCoreFunds resolves the core-fund filter the same way: config first,
// saved settings second, on by default.
func skipCoreFunds(ctx context.Context, settings *storage.SettingsStore) bool {
	if viper.IsSet("skip_core_funds") {
		return viper.GetBool("skip_core_funds")
	}
	if settings != nil {
		if saved, err := settings.Get(ctx, storage.KeySkipCoreFunds); err == nil {
			if skip, convErr := strconv.ParseBool(saved); convErr == nil {
				return skip
			}
		}
	}
	return true
}

// loadFeed reads a scraped activity feed from path. Format is "json" (the
// scraper's output) or "ofx" for bank exports.
func loadFeed(ctx context.Context, path, format string, settings *storage.SettingsStore) ([]model.SourceTransaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var reader service.SourceReader
	switch format {
	case "json":
		jsonReader := fidelity.NewReader()
		jsonReader.SkipCoreFunds = skipCoreFunds(ctx, settings)
		reader = jsonReader
	case "ofx":
		reader = ofx.NewParser()
	default:
		return nil, fmt.Errorf("unknown feed format %q (expected json or ofx)", format)
	}

	return reader.Read(ctx, file)
}

// fetchSnapshot pulls the ledger transactions covering the feed's window:
// everything since the earliest parseable source date minus the tolerance.
func fetchSnapshot(ctx context.Context, client *ynab.Client, budgetID, accountID string, sourceTxns []model.SourceTransaction, toleranceDays int) ([]model.LedgerTransaction, []model.ScheduledTransaction, error) {
	earliest := ""
	for _, txn := range sourceTxns {
		iso, err := fidelity.ParseDate(txn.Date)
		if err != nil {
			continue
		}
		if earliest == "" || iso < earliest {
			earliest = iso
		}
	}
	if earliest == "" {
		return nil, nil, fmt.Errorf("%w: no source transaction has a parseable date", common.ErrNoTransactions)
	}

	since, err := time.Parse("2006-01-02", earliest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse earliest date: %w", err)
	}
	sinceDate := since.AddDate(0, 0, -toleranceDays).Format("2006-01-02")

	ledgerTxns, err := client.GetTransactionsSince(ctx, budgetID, accountID, sinceDate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch ledger transactions: %w", err)
	}

	scheduledTxns, err := client.GetScheduledTransactions(ctx, budgetID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch scheduled transactions: %w", err)
	}

	return ledgerTxns, scheduledTxns, nil
}

// parseSkipList parses a comma-separated list of feed indices to skip.
func parseSkipList(raw string) (map[int]bool, error) {
	skipped := make(map[int]bool)
	if strings.TrimSpace(raw) == "" {
		return skipped, nil
	}
	for _, part := range strings.Split(raw, ",") {
		index, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid skip index %q: %w", part, err)
		}
		skipped[index] = true
	}
	return skipped, nil
}
