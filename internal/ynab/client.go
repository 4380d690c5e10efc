// Package ynab implements a client for the YNAB REST API.
// API documentation: https://api.ynab.com/v1
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ynabtools/fid2ynab/internal/common"
	"github.com/ynabtools/fid2ynab/internal/model"
	"github.com/ynabtools/fid2ynab/internal/service"
)

const defaultBaseURL = "https://api.ynab.com/v1"

// Client talks to the YNAB API using a personal access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a YNAB API client.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: YNAB access token is required", common.ErrMissingConfig)
	}
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// apiError is the error envelope YNAB returns on non-2xx responses.
type apiError struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}

// do performs an authenticated request and decodes the "data" envelope into
// out.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrLedgerConnection, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: YNAB API returned 429", common.ErrRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := resp.Status
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Detail != "" {
			detail = apiErr.Error.Detail
		}
		reqErr := fmt.Errorf("%w (%d): %s", common.ErrLedgerAPI, resp.StatusCode, detail)
		// Client errors won't resolve themselves; don't let retry loops spin
		// on them.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return &common.RetryableError{Err: reqErr, Retryable: false}
		}
		return reqErr
	}

	if out == nil {
		return nil
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// GetBudgets lists the budgets visible to the configured token.
func (c *Client) GetBudgets(ctx context.Context) ([]service.Budget, error) {
	var out struct {
		Budgets []service.Budget `json:"budgets"`
	}
	if err := c.do(ctx, http.MethodGet, "/budgets", nil, &out); err != nil {
		return nil, err
	}
	return out.Budgets, nil
}

// GetAccounts lists the accounts within a budget.
func (c *Client) GetAccounts(ctx context.Context, budgetID string) ([]service.Account, error) {
	var out struct {
		Accounts []service.Account `json:"accounts"`
	}
	endpoint := fmt.Sprintf("/budgets/%s/accounts", url.PathEscape(budgetID))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// GetTransactionsSince fetches account transactions on or after sinceDate
// (ISO YYYY-MM-DD).
func (c *Client) GetTransactionsSince(ctx context.Context, budgetID, accountID, sinceDate string) ([]model.LedgerTransaction, error) {
	var out struct {
		Transactions []model.LedgerTransaction `json:"transactions"`
	}
	endpoint := fmt.Sprintf("/budgets/%s/accounts/%s/transactions?since_date=%s",
		url.PathEscape(budgetID), url.PathEscape(accountID), url.QueryEscape(sinceDate))

	slog.Debug("Fetching ledger transactions",
		"budget_id", budgetID,
		"account_id", accountID,
		"since_date", sinceDate)

	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// GetScheduledTransactions fetches the budget's scheduled transactions.
func (c *Client) GetScheduledTransactions(ctx context.Context, budgetID string) ([]model.ScheduledTransaction, error) {
	var out struct {
		ScheduledTransactions []model.ScheduledTransaction `json:"scheduled_transactions"`
	}
	endpoint := fmt.Sprintf("/budgets/%s/scheduled_transactions", url.PathEscape(budgetID))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.ScheduledTransactions, nil
}

// CreateTransactions bulk-creates transactions and returns the created
// records.
func (c *Client) CreateTransactions(ctx context.Context, budgetID string, txns []service.NewLedgerTransaction) ([]model.LedgerTransaction, error) {
	body := struct {
		Transactions []service.NewLedgerTransaction `json:"transactions"`
	}{Transactions: txns}

	var out struct {
		Transactions []model.LedgerTransaction `json:"transactions"`
	}
	endpoint := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(budgetID))
	if err := c.do(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// UpdateTransaction applies a partial update to one transaction.
func (c *Client) UpdateTransaction(ctx context.Context, budgetID, transactionID string, updates service.TransactionUpdate) (*model.LedgerTransaction, error) {
	body := struct {
		Transaction service.TransactionUpdate `json:"transaction"`
	}{Transaction: updates}

	var out struct {
		Transaction model.LedgerTransaction `json:"transaction"`
	}
	endpoint := fmt.Sprintf("/budgets/%s/transactions/%s",
		url.PathEscape(budgetID), url.PathEscape(transactionID))
	if err := c.do(ctx, http.MethodPut, endpoint, body, &out); err != nil {
		return nil, err
	}
	return &out.Transaction, nil
}
