package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynabtools/fid2ynab/internal/cli"
	"github.com/ynabtools/fid2ynab/internal/storage"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List budgets and accounts, optionally saving the default target",
		RunE:  runAccounts,
	}

	cmd.Flags().String("save-budget", "", "save this budget ID as the default")
	cmd.Flags().String("save-account", "", "save this account ID as the default")

	return cmd
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	saveBudget, _ := cmd.Flags().GetString("save-budget")
	saveAccount, _ := cmd.Flags().GetString("save-account")

	client, err := newLedgerClient()
	if err != nil {
		return err
	}

	if saveBudget != "" || saveAccount != "" {
		settings, err := openSettings()
		if err != nil {
			return err
		}
		defer func() {
			_ = settings.Close()
		}()

		if saveBudget != "" {
			if err := settings.Set(ctx, storage.KeyBudgetID, saveBudget); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Saved default budget " + saveBudget))
		}
		if saveAccount != "" {
			if err := settings.Set(ctx, storage.KeyAccountID, saveAccount); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Saved default account " + saveAccount))
		}
		return nil
	}

	budgets, err := client.GetBudgets(ctx)
	if err != nil {
		return err
	}

	for _, budget := range budgets {
		fmt.Println(cli.FormatTitle(fmt.Sprintf("%s  (%s)", budget.Name, budget.ID)))

		accounts, err := client.GetAccounts(ctx, budget.ID)
		if err != nil {
			return err
		}
		for _, account := range accounts {
			status := ""
			if account.Closed {
				status = cli.SubtleStyle.Render("  (closed)")
			}
			fmt.Printf("  %-30s %-12s %s%s\n", account.Name, account.Type, account.ID, status)
		}
		fmt.Println()
	}

	return nil
}
