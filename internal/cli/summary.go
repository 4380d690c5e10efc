package cli

import (
	"fmt"
	"strings"

	"github.com/ynabtools/fid2ynab/internal/model"
	"github.com/ynabtools/fid2ynab/internal/recon"
)

var stateStyles = map[model.MatchState]func(string) string{
	model.StateNew:             func(s string) string { return SuccessStyle.Render(s) },
	model.StateMatched:         func(s string) string { return BoldStyle.Render(s) },
	model.StatePending:         func(s string) string { return WarningStyle.Render(s) },
	model.StateCleared:         func(s string) string { return SubtleStyle.Render(s) },
	model.StateScheduled:       func(s string) string { return WarningStyle.Render(s) },
	model.StateBeforeWatermark: func(s string) string { return SubtleStyle.Render(s) },
}

// RenderAnalysis renders a full reconciliation pass for the terminal.
func RenderAnalysis(analysis recon.Analysis, stats recon.Stats) string {
	var b strings.Builder

	b.WriteString(FormatTitle("Reconciliation"))
	b.WriteString("\n")

	for _, txn := range analysis.Transactions {
		b.WriteString(renderTransaction(txn, analysis.WatermarkIndex))
		b.WriteString("\n")
	}

	if len(analysis.Failed) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatError(fmt.Sprintf("%d transaction(s) with unparseable dates:", len(analysis.Failed))))
		b.WriteString("\n")
		for _, failed := range analysis.Failed {
			b.WriteString(fmt.Sprintf("  %s  %s\n", failed.Source.Date, failed.Source.Description))
		}
	}

	if len(analysis.UnmatchedLedger) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatWarning(fmt.Sprintf("%d ledger transaction(s) not explained by the feed:", len(analysis.UnmatchedLedger))))
		b.WriteString("\n")
		for _, ledger := range analysis.UnmatchedLedger {
			b.WriteString(fmt.Sprintf("  %s  %-30s %10s  (%s)\n",
				ledger.Date, payeeOrUnknown(ledger.PayeeName), formatMilliunits(ledger.Amount), ledger.Cleared))
		}
	}

	b.WriteString("\n")
	b.WriteString(RenderSummaryLine(stats))
	b.WriteString("\n")

	return b.String()
}

func renderTransaction(txn model.ReconciledTransaction, watermarkIndex int) string {
	style, ok := stateStyles[txn.State]
	if !ok {
		style = func(s string) string { return s }
	}

	marker := " "
	if watermarkIndex >= 0 && txn.Index == watermarkIndex {
		marker = WatermarkIcon
	}

	line := fmt.Sprintf("%s %-16s %-11s %-40s %10s",
		marker, style(string(txn.State)), txn.Source.Date, truncate(txn.Source.Description, 40), txn.Source.Amount)

	if txn.Ledger != nil {
		line += SubtleStyle.Render(fmt.Sprintf("  → %s %s", txn.Ledger.Date, payeeOrUnknown(txn.Ledger.PayeeName)))
	}
	if txn.Scheduled != nil {
		line += SubtleStyle.Render(fmt.Sprintf("  → scheduled %s %s", txn.Scheduled.DateNext, payeeOrUnknown(txn.Scheduled.PayeeName)))
	}
	if txn.State == model.StateNew && len(txn.Suggestions) > 0 {
		line += WarningStyle.Render(fmt.Sprintf("  (%d same-amount suggestion(s))", len(txn.Suggestions)))
	}

	return line
}

// RenderSummaryLine renders the one-line pass summary.
func RenderSummaryLine(stats recon.Stats) string {
	parts := []string{}
	if stats.ToCreate > 0 {
		parts = append(parts, SuccessStyle.Render(fmt.Sprintf("%d new", stats.ToCreate)))
	}
	if stats.ToMatch > 0 {
		parts = append(parts, BoldStyle.Render(fmt.Sprintf("%d matched", stats.ToMatch)))
	}
	if stats.Scheduled > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d scheduled", stats.Scheduled)))
	}
	if stats.Cleared > 0 {
		parts = append(parts, SubtleStyle.Render(fmt.Sprintf("%d cleared", stats.Cleared)))
	}
	if stats.ToSkip > 0 {
		parts = append(parts, SubtleStyle.Render(fmt.Sprintf("%d skipped", stats.ToSkip)))
	}
	if stats.BeforeWatermark > 0 {
		parts = append(parts, SubtleStyle.Render(fmt.Sprintf("%d previously imported", stats.BeforeWatermark)))
	}

	if len(parts) == 0 {
		return FormatSuccess("All up to date")
	}
	return strings.Join(parts, " • ")
}

func payeeOrUnknown(payee string) string {
	if payee == "" {
		return "Unknown"
	}
	return payee
}

func formatMilliunits(amount int64) string {
	return fmt.Sprintf("$%.2f", float64(amount)/1000)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
