package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

func testConfig(baseURL string) config.ExplorerConfig {
	return config.ExplorerConfig{BaseURL: baseURL, APIKey: "test-key", Timeout: 5}
}

func TestEtherscanTokenTransfers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "account", r.URL.Query().Get("module"))
		assert.Equal(t, "tokentx", r.URL.Query().Get("action"))
		assert.Equal(t, "0xDeposit", r.URL.Query().Get("address"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Write([]byte(`{
			"status": "1",
			"message": "OK",
			"result": [
				{
					"hash": "0xAAA",
					"from": "0xSender",
					"to": "0xDeposit",
					"value": "1500000",
					"tokenDecimal": "6",
					"confirmations": "42",
					"timeStamp": "1700000000"
				},
				{
					"hash": "0xBBB",
					"from": "0xSender",
					"to": "0xDeposit",
					"value": "not-a-number",
					"tokenDecimal": "6",
					"confirmations": "1",
					"timeStamp": "1700000000"
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewEtherScanClient(testConfig(server.URL), logger.New("error", "test"))
	txs, err := client.AccountTransactions(context.Background(), "0xDeposit")
	require.NoError(t, err)

	// The malformed second entry is skipped, not fatal
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "0xAAA", tx.Hash)
	assert.Equal(t, "0xSender", tx.From)
	assert.Equal(t, "0xDeposit", tx.To)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1.5")), tx.Amount.String())
	assert.Equal(t, int64(42), tx.Confirmations)
	assert.Equal(t, time.Unix(1700000000, 0), tx.Timestamp)
}

func TestEtherscanNoTransactionsFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}))
	defer server.Close()

	client := NewEtherScanClient(testConfig(server.URL), logger.New("error", "test"))
	txs, err := client.AccountTransactions(context.Background(), "0xDeposit")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestEtherscanAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer server.Close()

	client := NewEtherScanClient(testConfig(server.URL), logger.New("error", "test"))
	_, err := client.AccountTransactions(context.Background(), "0xDeposit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTOK")
}

func TestEtherscanServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewEtherScanClient(testConfig(server.URL), logger.New("error", "test"))
	_, err := client.AccountTransactions(context.Background(), "0xDeposit")
	require.Error(t, err)
}

func TestBtcScanConfirmationsFromTip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blocks/tip/height":
			w.Write([]byte("800010"))
		case "/address/bc1qdeposit/txs":
			w.Write([]byte(`[
				{
					"txid": "btc-hash-1",
					"vin": [{"prevout": {"scriptpubkey_address": "bc1qsender"}}],
					"vout": [
						{"scriptpubkey_address": "bc1qdeposit", "value": 150000000},
						{"scriptpubkey_address": "bc1qchange", "value": 5000}
					],
					"status": {"confirmed": true, "block_height": 800001, "block_time": 1700000000}
				},
				{
					"txid": "btc-hash-2",
					"vin": [{"prevout": {"scriptpubkey_address": "bc1qsender"}}],
					"vout": [{"scriptpubkey_address": "bc1qdeposit", "value": 1000}],
					"status": {"confirmed": false}
				},
				{
					"txid": "btc-hash-3",
					"vin": [],
					"vout": [{"scriptpubkey_address": "bc1qother", "value": 9999}],
					"status": {"confirmed": true, "block_height": 800002, "block_time": 1700000100}
				}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewBtcScanClient(testConfig(server.URL), logger.New("error", "test"))
	txs, err := client.AccountTransactions(context.Background(), "bc1qdeposit")
	require.NoError(t, err)

	// The third entry pays a different address and is dropped
	require.Len(t, txs, 2)

	confirmed := txs[0]
	assert.Equal(t, "btc-hash-1", confirmed.Hash)
	assert.Equal(t, "bc1qsender", confirmed.From)
	assert.Equal(t, "bc1qdeposit", confirmed.To)
	// 1.5 BTC from satoshi, change output excluded
	assert.True(t, confirmed.Amount.Equal(decimal.RequireFromString("1.5")), confirmed.Amount.String())
	assert.Equal(t, int64(10), confirmed.Confirmations)

	mempool := txs[1]
	assert.Equal(t, int64(0), mempool.Confirmations)
	assert.True(t, mempool.Timestamp.IsZero())
}

func TestBtcScanTipUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewBtcScanClient(testConfig(server.URL), logger.New("error", "test"))
	_, err := client.AccountTransactions(context.Background(), "bc1qdeposit")
	require.Error(t, err)
}

func TestFindByHash(t *testing.T) {
	txs := []ChainTransaction{
		{Hash: "0xAAA"},
		{Hash: "0xBBB"},
	}

	found := FindByHash(txs, "0xbbb")
	require.NotNil(t, found)
	assert.Equal(t, "0xBBB", found.Hash)

	assert.Nil(t, FindByHash(txs, "0xCCC"))
}
