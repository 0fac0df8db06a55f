package wallet_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/models"
)

// Client talks to the wallet gateway that custodies the escrow
// addresses. It implements the ledger and verifier used by the escrow
// state machine.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	base := os.Getenv("WALLET_SERVICE_URL")
	if base == "" {
		base = "http://localhost:9010"
	}

	return &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("wallet_service: %s returned %d", path, resp.StatusCode)
	}

	return nil
}

// Hold locks the buyer's payment on the escrow address.
func (c *Client) Hold(ctx context.Context, escrow *models.Escrow) error {
	return c.post(ctx, "/escrow/hold", map[string]interface{}{
		"address":   escrow.EscrowAddress,
		"amount":    escrow.Amount,
		"currency":  escrow.Currency,
		"member_id": escrow.BuyerID,
	})
}

// Transfer moves the held amount to the beneficiary.
func (c *Client) Transfer(ctx context.Context, escrow *models.Escrow, toMemberID int64) error {
	return c.post(ctx, "/escrow/transfer", map[string]interface{}{
		"address":   escrow.EscrowAddress,
		"amount":    escrow.Amount,
		"currency":  escrow.Currency,
		"member_id": toMemberID,
	})
}

// VerifyTransaction confirms the funding transaction landed on chain
// with the expected amount.
func (c *Client) VerifyTransaction(ctx context.Context, txHash, address string, amount decimal.Decimal) error {
	return c.post(ctx, "/transactions/verify", map[string]interface{}{
		"tx_hash": txHash,
		"address": address,
		"amount":  amount,
	})
}
