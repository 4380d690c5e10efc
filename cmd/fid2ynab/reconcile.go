package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynabtools/fid2ynab/internal/cli"
	"github.com/ynabtools/fid2ynab/internal/recon"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <feed-file>",
		Short: "Analyze a scraped feed against the YNAB account",
		Long: `Analyze a scraped activity feed against the configured YNAB account and
show what an import would do, without changing anything.

Examples:
  # Reconcile a scraped JSON feed
  fid2ynab reconcile ~/Downloads/activity.json

  # Reconcile an OFX export instead
  fid2ynab reconcile --format ofx ~/Downloads/history.qfx`,
		Args: cobra.ExactArgs(1),
		RunE: runReconcile,
	}

	cmd.Flags().String("format", "json", "feed format (json, ofx)")
	cmd.Flags().String("skip", "", "comma-separated feed indices to skip")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	skipRaw, _ := cmd.Flags().GetString("skip")

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
	stats := svc.ComputeStats(analysis, skipped)

	fmt.Print(cli.RenderAnalysis(analysis, stats))

	if wm := svc.WatermarkTransaction(analysis); wm != nil {
		fmt.Println(cli.RenderBox("Watermark",
			fmt.Sprintf("%s %s  %s  %s", cli.WatermarkIcon, wm.Date, wm.Description, wm.Amount)))
	}

	return nil
}
