package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// TronScanClient reads TRC-20 token transfers from the TronScan API
type TronScanClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewTronScanClient creates a TronScan client
func NewTronScanClient(cfg config.ExplorerConfig, log *logger.Logger) *TronScanClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://apilist.tronscanapi.com"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &TronScanClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// TokenType reports the chain family this client serves
func (c *TronScanClient) TokenType() entities.TokenType {
	return entities.TokenTypeTrc20
}

type tronscanTransfer struct {
	TransactionID string `json:"transaction_id"`
	FromAddress   string `json:"from_address"`
	ToAddress     string `json:"to_address"`
	Quant         string `json:"quant"`
	Confirmed     bool   `json:"confirmed"`
	BlockTS       int64  `json:"block_ts"`
	TokenInfo     struct {
		TokenDecimal int32 `json:"tokenDecimal"`
	} `json:"tokenInfo"`
}

type tronscanResponse struct {
	TokenTransfers []tronscanTransfer `json:"token_transfers"`
}

// tronConfirmedDepth is reported for transfers TronScan marks confirmed; the
// API exposes a boolean rather than a depth, and solidified Tron blocks are
// at least 19 blocks deep.
const tronConfirmedDepth = 19

// AccountTransactions fetches the most recent TRC-20 transfers for an address
func (c *TronScanClient) AccountTransactions(ctx context.Context, address string) ([]ChainTransaction, error) {
	params := url.Values{}
	params.Set("relatedAddress", address)
	params.Set("start", "0")
	params.Set("limit", strconv.Itoa(maxPageSize))
	params.Set("sort", "-timestamp")

	fullURL := c.baseURL + "/api/token_trc20/transfers?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Explorer request failed",
			"explorer", "tronscan",
			"address", address,
			"error", err)
		return nil, fmt.Errorf("tronscan request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read explorer response",
			"explorer", "tronscan",
			"address", address,
			"error", err)
		return nil, fmt.Errorf("failed to read tronscan response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Explorer returned non-200 status",
			"explorer", "tronscan",
			"address", address,
			"status_code", resp.StatusCode,
			"body", string(respBody))
		return nil, fmt.Errorf("tronscan returned status %d", resp.StatusCode)
	}

	var envelope tronscanResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		c.logger.Error("Failed to decode explorer response",
			"explorer", "tronscan",
			"address", address,
			"body", string(respBody),
			"error", err)
		return nil, fmt.Errorf("failed to decode tronscan response: %w", err)
	}

	txs := make([]ChainTransaction, 0, len(envelope.TokenTransfers))
	for _, raw := range envelope.TokenTransfers {
		quant, err := decimal.NewFromString(raw.Quant)
		if err != nil {
			c.logger.Warn("Skipping malformed explorer transaction",
				"explorer", "tronscan",
				"hash", raw.TransactionID,
				"error", err)
			continue
		}

		var confirmations int64
		if raw.Confirmed {
			confirmations = tronConfirmedDepth
		}

		txs = append(txs, ChainTransaction{
			Hash:          raw.TransactionID,
			From:          raw.FromAddress,
			To:            raw.ToAddress,
			Amount:        quant.Shift(-raw.TokenInfo.TokenDecimal),
			Confirmations: confirmations,
			Timestamp:     time.UnixMilli(raw.BlockTS),
		})
	}

	return txs, nil
}
