package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// BtcScanClient reads Bitcoin transactions from an Esplora-compatible API
// (blockstream.info and friends). Confirmations are derived from the current
// tip height, fetched alongside the transaction list.
type BtcScanClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewBtcScanClient creates a Bitcoin explorer client
func NewBtcScanClient(cfg config.ExplorerConfig, log *logger.Logger) *BtcScanClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://blockstream.info/api"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &BtcScanClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// TokenType reports the chain family this client serves
func (c *BtcScanClient) TokenType() entities.TokenType {
	return entities.TokenTypeBitcoin
}

type esploraTx struct {
	TxID string `json:"txid"`
	Vin  []struct {
		Prevout struct {
			ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
		BlockTime   int64 `json:"block_time"`
	} `json:"status"`
}

// AccountTransactions fetches the most recent transactions for an address and
// normalizes the output paid to that address
func (c *BtcScanClient) AccountTransactions(ctx context.Context, address string) ([]ChainTransaction, error) {
	tipHeight, err := c.tipHeight(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, "/address/"+address+"/txs")
	if err != nil {
		return nil, err
	}

	var rawTxs []esploraTx
	if err := json.Unmarshal(body, &rawTxs); err != nil {
		c.logger.Error("Failed to decode explorer response",
			"explorer", "btcscan",
			"address", address,
			"body", string(body),
			"error", err)
		return nil, fmt.Errorf("failed to decode btcscan response: %w", err)
	}

	txs := make([]ChainTransaction, 0, len(rawTxs))
	for _, raw := range rawTxs {
		// Sum the outputs paid to the watched address
		var valueSats int64
		for _, vout := range raw.Vout {
			if vout.ScriptPubKeyAddress == address {
				valueSats += vout.Value
			}
		}
		if valueSats == 0 {
			continue
		}

		var from string
		if len(raw.Vin) > 0 {
			from = raw.Vin[0].Prevout.ScriptPubKeyAddress
		}

		var confirmations int64
		var timestamp time.Time
		if raw.Status.Confirmed {
			confirmations = tipHeight - raw.Status.BlockHeight + 1
			timestamp = time.Unix(raw.Status.BlockTime, 0)
		}

		txs = append(txs, ChainTransaction{
			Hash: raw.TxID,
			From: from,
			To:   address,
			// Esplora values are satoshi
			Amount:        decimal.New(valueSats, -8),
			Confirmations: confirmations,
			Timestamp:     timestamp,
		})
	}

	return txs, nil
}

// tipHeight fetches the current chain tip height
func (c *BtcScanClient) tipHeight(ctx context.Context) (int64, error) {
	body, err := c.get(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(string(body), 10, 64)
	if err != nil {
		c.logger.Error("Failed to parse chain tip height",
			"explorer", "btcscan",
			"body", string(body),
			"error", err)
		return 0, fmt.Errorf("failed to parse btcscan tip height: %w", err)
	}

	return height, nil
}

func (c *BtcScanClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Explorer request failed",
			"explorer", "btcscan",
			"endpoint", endpoint,
			"error", err)
		return nil, fmt.Errorf("btcscan request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read explorer response",
			"explorer", "btcscan",
			"endpoint", endpoint,
			"error", err)
		return nil, fmt.Errorf("failed to read btcscan response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Explorer returned non-200 status",
			"explorer", "btcscan",
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"body", string(respBody))
		return nil, fmt.Errorf("btcscan returned status %d", resp.StatusCode)
	}

	return respBody, nil
}
