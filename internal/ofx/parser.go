// Package ofx reads OFX/QFX exports as an alternative source feed.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/ynabtools/fid2ynab/internal/model"
)

// sourceDateLayout renders OFX posting dates in the activity-feed format the
// reconciliation core expects.
const sourceDateLayout = "Jan-02-2006"

// Parser implements OFX/QFX file parsing into source transactions.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ToUpper(match)
	})

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Read parses an OFX/QFX export and returns source transactions, newest
// first, matching the ordering contract of the scraped feed.
func (p *Parser) Read(ctx context.Context, reader io.Reader) ([]model.SourceTransaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	type dated struct {
		txn  model.SourceTransaction
		sort string
	}
	var all []dated
	var bankStmts, ccStmts int

	collect := func(list *ofxgo.TransactionList) {
		if list == nil {
			return
		}
		for _, ofxTx := range list.Transactions {
			all = append(all, dated{
				txn:  p.convertTransaction(ofxTx),
				sort: ofxTx.DtPosted.Time.Format("2006-01-02"),
			})
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			collect(stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			collect(stmt.BankTranList)
		}
	}

	// Newest first; the watermark tie-break depends on it.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].sort > all[j].sort
	})

	transactions := make([]model.SourceTransaction, len(all))
	for i, d := range all {
		transactions[i] = d.txn
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// convertTransaction converts an OFX transaction to a source transaction.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) model.SourceTransaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	txnType := "debit"
	if amount > 0 {
		txnType = "credit"
	}

	description := strings.TrimSpace(string(ofxTx.Name))
	if ofxTx.Memo != "" && description == "" {
		description = strings.TrimSpace(string(ofxTx.Memo))
	}

	return model.SourceTransaction{
		Date:        ofxTx.DtPosted.Time.Format(sourceDateLayout),
		Description: description,
		Amount:      fmt.Sprintf("%+.2f", amount),
		AmountValue: amount,
		Type:        txnType,
	}
}
