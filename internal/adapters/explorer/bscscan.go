package explorer

import (
	"context"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// BscScanClient reads BEP-20 token transfers from the BscScan API, which is
// protocol-compatible with EtherScan.
type BscScanClient struct {
	api *etherscanAPI
}

// NewBscScanClient creates a BscScan client
func NewBscScanClient(cfg config.ExplorerConfig, log *logger.Logger) *BscScanClient {
	return &BscScanClient{
		api: newEtherscanAPI("bscscan", "https://api.bscscan.com", cfg, log),
	}
}

// TokenType reports the chain family this client serves
func (c *BscScanClient) TokenType() entities.TokenType {
	return entities.TokenTypeBep20
}

// AccountTransactions fetches the most recent token transfers for an address
func (c *BscScanClient) AccountTransactions(ctx context.Context, address string) ([]ChainTransaction, error) {
	return c.api.tokenTransfers(ctx, address)
}
