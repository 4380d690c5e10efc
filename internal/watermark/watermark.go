// Package watermark tracks the most recently imported source transaction by
// embedding a fingerprint marker in a ledger transaction's memo field.
package watermark

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/ynabtools/fid2ynab/internal/model"
)

// Prefix is the literal marker tag prefix embedded in ledger memos.
const Prefix = "[F2Y:"

// fingerprintLength truncates the hashed fingerprint; 12 hex characters is
// plenty for a convenience identifier over one account's recent activity.
const fingerprintLength = 12

var markerRegex = regexp.MustCompile(`\[F2Y:([^\]]+)\]\s*`)

// Fingerprint computes a short deterministic identifier for a source
// transaction by hashing its date, description, and amount. The amount is
// rendered in shortest decimal form so equal values always fingerprint
// identically.
func Fingerprint(txn model.SourceTransaction) string {
	data := fmt.Sprintf("%s|%s|%s", txn.Date, txn.Description, txn.AmountString())
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)[:fingerprintLength]
}

// EmbedMemo returns a memo carrying txn's fingerprint marker. Any prior
// markers in existingMemo are stripped first, so re-embedding is idempotent.
func EmbedMemo(txn model.SourceTransaction, existingMemo string) string {
	clean := markerRegex.ReplaceAllString(existingMemo, "")
	return strings.TrimSpace(fmt.Sprintf("%s%s] %s", Prefix, Fingerprint(txn), clean))
}

// ExtractFingerprint returns the fingerprint embedded in a memo, or "" if no
// marker is present.
func ExtractFingerprint(memo string) string {
	match := markerRegex.FindStringSubmatch(memo)
	if match == nil {
		return ""
	}
	return match[1]
}

// Location identifies the watermark found during a reconciliation pass.
type Location struct {
	// Ledger is the ledger transaction carrying the matching marker.
	Ledger *model.LedgerTransaction
	// SourceIndex is the position of the fingerprinted transaction in the
	// newest-first source feed.
	SourceIndex int
}

// Locate scans ledger memos for fingerprints matching a source transaction.
// When several ledger transactions carry valid markers, the match with the
// LOWEST source index wins: the feed is newest-first, so the lowest index is
// the most recently imported transaction. Picking the highest index instead
// would silently reprocess already-imported history.
func Locate(ledgerTxns []model.LedgerTransaction, sourceTxns []model.SourceTransaction) *Location {
	fingerprints := make([]string, len(sourceTxns))
	for i, txn := range sourceTxns {
		fingerprints[i] = Fingerprint(txn)
	}

	var best *Location
	for i := range ledgerTxns {
		hash := ExtractFingerprint(ledgerTxns[i].Memo)
		if hash == "" {
			continue
		}
		for idx, fp := range fingerprints {
			if fp != hash {
				continue
			}
			if best == nil || idx < best.SourceIndex {
				best = &Location{Ledger: &ledgerTxns[i], SourceIndex: idx}
			}
			break
		}
	}
	return best
}
