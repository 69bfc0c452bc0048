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

// EtherScanClient reads ERC-20 token transfers from the EtherScan API
type EtherScanClient struct {
	api *etherscanAPI
}

// NewEtherScanClient creates an EtherScan client
func NewEtherScanClient(cfg config.ExplorerConfig, log *logger.Logger) *EtherScanClient {
	return &EtherScanClient{
		api: newEtherscanAPI("etherscan", "https://api.etherscan.io", cfg, log),
	}
}

// TokenType reports the chain family this client serves
func (c *EtherScanClient) TokenType() entities.TokenType {
	return entities.TokenTypeErc20
}

// AccountTransactions fetches the most recent token transfers for an address
func (c *EtherScanClient) AccountTransactions(ctx context.Context, address string) ([]ChainTransaction, error) {
	return c.api.tokenTransfers(ctx, address)
}

// etherscanAPI implements the EtherScan-compatible account API shared by the
// EtherScan and BscScan clients; both speak the same protocol with different
// hosts and keys.
type etherscanAPI struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

func newEtherscanAPI(name, defaultBaseURL string, cfg config.ExplorerConfig, log *logger.Logger) *etherscanAPI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &etherscanAPI{
		name:       name,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

type etherscanTokenTx struct {
	Hash          string `json:"hash"`
	From          string `json:"from"`
	To            string `json:"to"`
	Value         string `json:"value"`
	TokenDecimal  string `json:"tokenDecimal"`
	Confirmations string `json:"confirmations"`
	TimeStamp     string `json:"timeStamp"`
}

type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// tokenTransfers reads one page of token transfer events for the address,
// newest first.
func (a *etherscanAPI) tokenTransfers(ctx context.Context, address string) ([]ChainTransaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokentx")
	params.Set("address", address)
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(maxPageSize))
	params.Set("sort", "desc")
	params.Set("apikey", a.apiKey)

	fullURL := a.baseURL + "/api?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("Explorer request failed",
			"explorer", a.name,
			"address", address,
			"error", err)
		return nil, fmt.Errorf("%s request failed: %w", a.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		a.logger.Error("Failed to read explorer response",
			"explorer", a.name,
			"address", address,
			"error", err)
		return nil, fmt.Errorf("failed to read %s response: %w", a.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Explorer returned non-200 status",
			"explorer", a.name,
			"address", address,
			"status_code", resp.StatusCode,
			"body", string(respBody))
		return nil, fmt.Errorf("%s returned status %d", a.name, resp.StatusCode)
	}

	var envelope etherscanResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		a.logger.Error("Failed to decode explorer response",
			"explorer", a.name,
			"address", address,
			"body", string(respBody),
			"error", err)
		return nil, fmt.Errorf("failed to decode %s response: %w", a.name, err)
	}

	// Status "0" with "No transactions found" is an empty result, not an error
	if envelope.Status != "1" {
		if envelope.Message == "No transactions found" {
			return nil, nil
		}
		a.logger.Error("Explorer returned API error",
			"explorer", a.name,
			"address", address,
			"message", envelope.Message,
			"body", string(respBody))
		return nil, fmt.Errorf("%s API error: %s", a.name, envelope.Message)
	}

	var rawTxs []etherscanTokenTx
	if err := json.Unmarshal(envelope.Result, &rawTxs); err != nil {
		a.logger.Error("Failed to decode explorer result",
			"explorer", a.name,
			"address", address,
			"error", err)
		return nil, fmt.Errorf("failed to decode %s result: %w", a.name, err)
	}

	txs := make([]ChainTransaction, 0, len(rawTxs))
	for _, raw := range rawTxs {
		tx, err := raw.normalize()
		if err != nil {
			a.logger.Warn("Skipping malformed explorer transaction",
				"explorer", a.name,
				"hash", raw.Hash,
				"error", err)
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func (t etherscanTokenTx) normalize() (ChainTransaction, error) {
	value, err := decimal.NewFromString(t.Value)
	if err != nil {
		return ChainTransaction{}, fmt.Errorf("invalid value %q: %w", t.Value, err)
	}
	tokenDecimal, err := strconv.ParseInt(t.TokenDecimal, 10, 32)
	if err != nil {
		return ChainTransaction{}, fmt.Errorf("invalid tokenDecimal %q: %w", t.TokenDecimal, err)
	}
	confirmations, err := strconv.ParseInt(t.Confirmations, 10, 64)
	if err != nil {
		return ChainTransaction{}, fmt.Errorf("invalid confirmations %q: %w", t.Confirmations, err)
	}
	unix, err := strconv.ParseInt(t.TimeStamp, 10, 64)
	if err != nil {
		return ChainTransaction{}, fmt.Errorf("invalid timestamp %q: %w", t.TimeStamp, err)
	}

	return ChainTransaction{
		Hash: t.Hash,
		From: t.From,
		To:   t.To,
		// Values come back in the token's smallest unit
		Amount:        value.Shift(int32(-tokenDecimal)),
		Confirmations: confirmations,
		Timestamp:     time.Unix(unix, 0),
	}, nil
}
