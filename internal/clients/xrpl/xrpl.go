package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/settlenet/settlement-api-service/internal/config"
	"github.com/settlenet/settlement-api-service/internal/observability/metrics"
	"github.com/settlenet/settlement-api-service/internal/rail"
	"github.com/settlenet/settlement-api-service/internal/settlement"
	"github.com/settlenet/settlement-api-service/internal/utils"
)

// Client talks to a rippled node over its JSON-RPC API and implements the
// rail.Client port. Payments are signed by the node (sign-and-submit), so no
// key material is handled here beyond the configured account secret.
type Client struct {
	config     *config.RailConfig
	httpClient *http.Client
}

func NewClient(cfg *config.RailConfig) *Client {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

func (c *Client) Kind() settlement.RailKind {
	return settlement.RailXRPL
}

func call[R any](ctx context.Context, c *Client, method string, params interface{}) (*R, error) {
	timer := metrics.StartRailRequestDurationTimer(method)

	body, err := json.Marshal(rpcRequest{Method: method, Params: []interface{}{params}})
	if err != nil {
		timer(metrics.Error)
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.NodeURL, bytes.NewBuffer(body))
	if err != nil {
		timer(metrics.Error)
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timer(metrics.Error)
		return nil, fmt.Errorf("failed to perform %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		timer(metrics.Error)
		return nil, fmt.Errorf("rail node returned status %d for %s", resp.StatusCode, method)
	}

	var out rpcResponse[R]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		timer(metrics.Error)
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	timer(metrics.Success)
	return &out.Result, nil
}

// NextOrderingToken returns the account's current sequence number, the
// ordering token every XRPL payment must carry exactly once.
func (c *Client) NextOrderingToken(ctx context.Context, account string) (rail.Token, error) {
	result, err := call[accountInfoResult](ctx, c, "account_info", accountInfoParams{
		Account:     account,
		LedgerIndex: validatedLedgers,
	})
	if err != nil {
		return 0, err
	}
	if result.Status != resultStatusOK {
		return 0, fmt.Errorf("account_info failed for %s: %s", account, result.ErrorCode)
	}
	return rail.Token(result.AccountData.Sequence), nil
}

func (c *Client) AccountBalance(ctx context.Context, account string) (int64, error) {
	result, err := call[accountInfoResult](ctx, c, "account_info", accountInfoParams{
		Account:     account,
		LedgerIndex: validatedLedgers,
	})
	if err != nil {
		return 0, err
	}
	if result.Status != resultStatusOK {
		return 0, fmt.Errorf("account_info failed for %s: %s", account, result.ErrorCode)
	}
	balance, err := strconv.ParseInt(result.AccountData.Balance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse account balance %q: %w", result.AccountData.Balance, err)
	}
	return balance, nil
}

func (c *Client) Submit(ctx context.Context, payment rail.Payment) (*rail.Ack, error) {
	result, err := call[submitResult](ctx, c, "submit", submitParams{
		Secret: c.config.Secret,
		TxJSON: paymentTx{
			TransactionType: "Payment",
			Account:         payment.Source,
			Destination:     payment.Destination,
			Amount:          strconv.FormatInt(payment.Amount, 10),
			Fee:             strconv.FormatInt(payment.Fee, 10),
			Sequence:        uint32(payment.Token),
			InvoiceID:       payment.InvoiceID,
		},
	})
	if err != nil {
		return nil, err
	}
	if result.Status != resultStatusOK {
		return nil, fmt.Errorf("submit failed: %s", result.ErrorCode)
	}

	if utils.Contains(acceptedEngineResults, result.EngineResult) {
		return &rail.Ack{Reference: result.TxJSON.Hash}, nil
	}
	switch result.EngineResult {
	case enginePastSeq:
		return nil, &rail.AlreadySubmittedError{
			Token:   payment.Token,
			Message: fmt.Sprintf("sequence %d already consumed: %s", payment.Token, result.EngineResultMessage),
		}
	case enginePreSeq:
		return nil, &rail.OrderingConflictError{
			Token:   payment.Token,
			Message: fmt.Sprintf("sequence %d conflicts with a concurrent submission: %s", payment.Token, result.EngineResultMessage),
		}
	default:
		return nil, fmt.Errorf("submit rejected: %s (%s)", result.EngineResult, result.EngineResultMessage)
	}
}

func (c *Client) PaymentStatus(ctx context.Context, reference string) (rail.PaymentState, error) {
	result, err := call[txResult](ctx, c, "tx", txParams{Transaction: reference})
	if err != nil {
		return "", err
	}
	if result.ErrorCode == errorTxNotFound {
		return rail.PaymentNotFound, nil
	}
	if result.Status != resultStatusOK {
		return "", fmt.Errorf("tx lookup failed for %s: %s", reference, result.ErrorCode)
	}
	if result.Validated && result.Meta.TransactionResult == engineSuccess {
		return rail.PaymentConfirmed, nil
	}
	return rail.PaymentPending, nil
}

// FindPaymentByToken scans the account's transaction history for a payment
// carrying the given sequence number.
func (c *Client) FindPaymentByToken(ctx context.Context, account string, token rail.Token) (string, error) {
	result, err := call[accountTxResult](ctx, c, "account_tx", accountTxParams{
		Account:        account,
		LedgerIndexMin: -1,
		LedgerIndexMax: -1,
	})
	if err != nil {
		return "", err
	}
	if result.Status != resultStatusOK {
		return "", fmt.Errorf("account_tx failed for %s: %s", account, result.ErrorCode)
	}
	for _, tx := range result.Transactions {
		if tx.Tx.Sequence == uint32(token) {
			return tx.Tx.Hash, nil
		}
	}
	return "", &rail.PaymentNotFoundError{
		Message: fmt.Sprintf("no payment found for account %s with sequence %d", account, token),
	}
}
