package transferscan

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/adapters/explorer"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/metrics"
)

// TransferStore is the persistence surface the scanner needs
type TransferStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Transfer, error)
	SetTxID(ctx context.Context, id uuid.UUID, txID string) (bool, error)
	ExistsByTxID(ctx context.Context, txID string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.TransferStatus) error
}

// NetworkStore resolves the network a transfer is matched against
type NetworkStore interface {
	FindOneOrFail(ctx context.Context, id uuid.UUID) (*entities.Network, error)
}

// Scanner reconciles one chain's deposits against its explorer. A deposit is
// matched either by its known hash or by an incoming transaction to the
// platform deposit address with the exact expected amount; it is promoted to
// processed once the chain's confirmation threshold is reached.
type Scanner struct {
	transfers     TransferStore
	networks      NetworkStore
	client        explorer.Client
	confirmations int64
	logger        *logger.Logger
}

// NewScanner creates a scanner bound to one explorer client
func NewScanner(transfers TransferStore, networks NetworkStore, client explorer.Client, confirmations int64, log *logger.Logger) *Scanner {
	return &Scanner{
		transfers:     transfers,
		networks:      networks,
		client:        client,
		confirmations: confirmations,
		logger:        log,
	}
}

// Handle reconciles a single scan job
func (s *Scanner) Handle(ctx context.Context, job ScanJob) error {
	chain := string(s.client.TokenType())

	transfer, err := s.transfers.GetByID(ctx, job.TransferID)
	if err != nil {
		if domainerrors.IsNotFound(err) {
			// Deleted between selection and processing; nothing to do
			metrics.ScanJobsTotal.WithLabelValues(chain, "skipped").Inc()
			return nil
		}
		return err
	}

	// The transfer may have been confirmed or canceled while queued
	if transfer.Type != entities.TransferTypeDeposit || transfer.Status.IsTerminal() || transfer.IsSettled() {
		metrics.ScanJobsTotal.WithLabelValues(chain, "skipped").Inc()
		return nil
	}

	network, err := s.networks.FindOneOrFail(ctx, transfer.NetworkID)
	if err != nil {
		return err
	}

	txs, err := s.client.AccountTransactions(ctx, network.DepositAddress)
	if err != nil {
		// The client already logged the response; treat as not found this cycle
		return err
	}

	match, err := s.match(ctx, transfer, network, txs)
	if err != nil {
		return err
	}
	if match == nil {
		metrics.ScanJobsTotal.WithLabelValues(chain, "no_match").Inc()
		return nil
	}

	if match.Confirmations < s.confirmations {
		s.logger.Info("Deposit transaction found but not yet confirmed",
			"transfer_id", transfer.ID,
			"tx_id", match.Hash,
			"confirmations", match.Confirmations,
			"required", s.confirmations)
		metrics.ScanJobsTotal.WithLabelValues(chain, "unconfirmed").Inc()
		return nil
	}

	if transfer.TxID == nil {
		ok, err := s.transfers.SetTxID(ctx, transfer.ID, match.Hash)
		if err != nil {
			return err
		}
		if !ok {
			// An operator or a concurrent job recorded a hash first
			metrics.ScanJobsTotal.WithLabelValues(chain, "skipped").Inc()
			return nil
		}
	}

	if transfer.Status == entities.TransferStatusPending {
		if err := s.transfers.UpdateStatus(ctx, transfer.ID, entities.TransferStatusProcessed); err != nil {
			return err
		}
	}

	s.logger.Info("Deposit matched on chain",
		"transfer_id", transfer.ID,
		"chain", chain,
		"tx_id", match.Hash,
		"confirmations", match.Confirmations)
	metrics.ScanJobsTotal.WithLabelValues(chain, "matched").Inc()
	return nil
}

// match locates the on-chain transaction for the transfer. When the hash is
// already known it is looked up directly; otherwise candidates are matched by
// destination address, exact currency amount and recency, with the declared
// sender address as an extra filter when present. A hash already claimed by
// another transfer is never matched twice.
func (s *Scanner) match(ctx context.Context, transfer *entities.Transfer, network *entities.Network, txs []explorer.ChainTransaction) (*explorer.ChainTransaction, error) {
	if transfer.TxID != nil {
		return explorer.FindByHash(txs, *transfer.TxID), nil
	}

	for i := range txs {
		tx := &txs[i]
		if !strings.EqualFold(tx.To, network.DepositAddress) {
			continue
		}
		if !tx.Amount.Equal(transfer.CurrencyAmount) {
			continue
		}
		if tx.Timestamp.Before(transfer.CreatedAt) {
			continue
		}
		if transfer.FromAddress != nil && !strings.EqualFold(tx.From, *transfer.FromAddress) {
			continue
		}

		claimed, err := s.transfers.ExistsByTxID(ctx, tx.Hash)
		if err != nil {
			return nil, err
		}
		if claimed {
			continue
		}
		return tx, nil
	}

	return nil, nil
}
