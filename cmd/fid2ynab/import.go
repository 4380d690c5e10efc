package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ynabtools/fid2ynab/internal/cli"
	"github.com/ynabtools/fid2ynab/internal/common"
	"github.com/ynabtools/fid2ynab/internal/importer"
	"github.com/ynabtools/fid2ynab/internal/recon"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <feed-file>",
		Short: "Reconcile a scraped feed and apply the import plan",
		Long: `Reconcile a scraped activity feed against the configured YNAB account and
apply the resulting plan: create new transactions, create still-processing
ones as uncleared, and clear matched ones. The chronologically last
transaction touched receives the watermark memo so the next run skips
everything already imported.

Examples:
  # Preview without writing
  fid2ynab import --dry-run ~/Downloads/activity.json

  # Apply, skipping feed indices 3 and 7
  fid2ynab import --skip 3,7 ~/Downloads/activity.json`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "json", "feed format (json, ofx)")
	cmd.Flags().String("skip", "", "comma-separated feed indices to skip")
	cmd.Flags().BoolP("dry-run", "d", false, "show the plan without applying it")
	cmd.Flags().Bool("force", false, "proceed even when unmatched ledger transactions exist")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	skipRaw, _ := cmd.Flags().GetString("skip")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	skipped, err := parseSkipList(skipRaw)
	if err != nil {
		return err
	}

	settings, err := openSettings()
	if err != nil {
		return err
	}
	defer func() {
		_ = settings.Close()
	}()

	sourceTxns, err := loadFeed(ctx, args[0], format, settings)
	if err != nil {
		return err
	}
	if len(sourceTxns) == 0 {
		fmt.Println(cli.FormatWarning("Feed contains no transactions"))
		return nil
	}

	client, err := newLedgerClient()
	if err != nil {
		return err
	}

	budgetID, accountID, err := budgetAndAccount(ctx, settings)
	if err != nil {
		return err
	}

	config := matchConfig(ctx, settings)
	ledgerTxns, scheduledTxns, err := fetchSnapshot(ctx, client, budgetID, accountID, sourceTxns, config.ToleranceDays)
	if err != nil {
		return err
	}

	svc := recon.NewWithConfig(config)
	analysis := svc.Analyze(sourceTxns, ledgerTxns, scheduledTxns)
	plan := svc.PrepareImport(analysis, skipped)

	if plan.IsEmpty() {
		fmt.Println(cli.FormatSuccess("All up to date"))
		return nil
	}

	// Transactions with same-amount suggestions need a human decision; refuse
	// to guess.
	ambiguous := 0
	for _, txn := range analysis.Transactions {
		if len(txn.Suggestions) > 0 && !skipped[txn.Index] {
			ambiguous++
		}
	}
	if ambiguous > 0 && !force {
		return fmt.Errorf("%d transaction(s) have same-amount ledger suggestions; resolve them (or pass --force to create anyway)", ambiguous)
	}

	if len(analysis.UnmatchedLedger) > 0 && !force {
		fmt.Print(cli.RenderAnalysis(analysis, svc.ComputeStats(analysis, skipped)))
		return fmt.Errorf("%d unmatched ledger transaction(s) in the reconciliation window; review them or pass --force", len(analysis.UnmatchedLedger))
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Applying %d action(s): %d create, %d schedule, %d clear",
		plan.TotalActions(), len(plan.Create), len(plan.Schedule), len(plan.Clear))))

	if dryRun {
		for _, entry := range plan.Create {
			fmt.Printf("  create   %s  %s\n", entry.Date, entry.Source.Description)
		}
		for _, entry := range plan.Schedule {
			fmt.Printf("  schedule %s  %s\n", entry.Date, entry.Source.Description)
		}
		for _, clear := range plan.Clear {
			fmt.Printf("  clear    %s  %s → %s\n", clear.Entry.Date, clear.Entry.Source.Description, clear.Ledger.ID)
		}
		fmt.Println(cli.FormatWarning("Dry run: nothing was written"))
		return nil
	}

	im := importer.New(client, budgetID, accountID, os.Stderr)
	summary, err := im.Apply(ctx, plan)
	if err != nil {
		if common.IsRetryable(err) {
			fmt.Println(cli.FormatWarning("Transient ledger error; re-running the import is safe"))
		}
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported: %d created, %d scheduled, %d cleared",
		summary.Created, summary.Scheduled, summary.Cleared)))
	return nil
}
