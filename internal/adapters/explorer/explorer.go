// Package explorer provides read-only clients for the blockchain explorers
// the deposit scan pipeline polls. Each client fetches the most recent
// transactions for an address (single page, up to 1000 entries) so the scan
// worker can match an expected deposit by hash or by amount and recency.
//
// Clients never retry; a failed lookup is logged and surfaces as an error the
// worker treats the same as "no transaction found this cycle". Retry happens
// through the scheduler re-enqueueing the transfer.
package explorer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
)

// ChainTransaction is a normalized on-chain transaction
type ChainTransaction struct {
	Hash          string
	From          string
	To            string
	Amount        decimal.Decimal
	Confirmations int64
	Timestamp     time.Time
}

// Client is a read-only explorer client for one chain
type Client interface {
	// TokenType reports which chain family the client serves
	TokenType() entities.TokenType
	// AccountTransactions fetches the most recent transactions touching the
	// address, newest first
	AccountTransactions(ctx context.Context, address string) ([]ChainTransaction, error)
}

// maxPageSize is the page size requested from every explorer
const maxPageSize = 1000

// FindByHash locates the transaction with the given hash, or nil
func FindByHash(txs []ChainTransaction, hash string) *ChainTransaction {
	for i := range txs {
		if strings.EqualFold(txs[i].Hash, hash) {
			return &txs[i]
		}
	}
	return nil
}
