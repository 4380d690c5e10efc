package fidelity

import (
	"regexp"
	"strings"

	"github.com/ynabtools/fid2ynab/internal/model"
)

var (
	directPrefixRegex = regexp.MustCompile(`(?i)^DIRECT (DEBIT|DEPOSIT)\s*`)
	cashSuffixRegex   = regexp.MustCompile(`(?i)\s*\(CASH\)\s*$`)
)

// IsProcessing reports whether the source side considers the transaction
// unsettled. The feed marks these with a "Processing" status; anything else
// is a settled row.
func IsProcessing(txn model.SourceTransaction) bool {
	return strings.Contains(strings.ToLower(txn.Status), "processing")
}

// IsCoreFund reports whether a description is a money-market core fund sweep.
// These mirror the cash movements of real transactions and would otherwise
// double-count them.
func IsCoreFund(description string) bool {
	trimmed := strings.TrimSpace(description)
	if !strings.HasSuffix(trimmed, "(Cash)") {
		return false
	}
	return strings.HasPrefix(trimmed, "REDEMPTION FROM") || strings.HasPrefix(trimmed, "YOU BOUGHT")
}

// FormatPayee cleans a raw feed description into a ledger payee name:
// strips DIRECT DEBIT/DEPOSIT prefixes and a trailing "(Cash)" marker, then
// title-cases the remainder.
func FormatPayee(description string) string {
	if description == "" {
		return ""
	}

	formatted := directPrefixRegex.ReplaceAllString(description, "")
	formatted = cashSuffixRegex.ReplaceAllString(formatted, "")

	words := strings.Split(strings.ToLower(formatted), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}
