package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
)

// NetworkRepository reads network and currency registry data. The transfer
// pipeline treats this data as read-only; the only write is the guarded
// deposit-address update.
type NetworkRepository struct {
	db *sqlx.DB
}

// NewNetworkRepository creates a new network repository
func NewNetworkRepository(db *sqlx.DB) *NetworkRepository {
	return &NetworkRepository{db: db}
}

// FindOneOrFail retrieves a network by ID
func (r *NetworkRepository) FindOneOrFail(ctx context.Context, id uuid.UUID) (*entities.Network, error) {
	var network entities.Network
	err := r.db.GetContext(ctx, &network,
		`SELECT id, currency_id, name, token_type, deposit_address, created_at, updated_at
		 FROM networks WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.NotFoundError("NETWORK")
		}
		return nil, fmt.Errorf("failed to get network: %w", err)
	}
	return &network, nil
}

// UpdateDepositAddress changes a network's deposit address. The change is
// rejected while pending or processed transfers still reference the network,
// since those deposits are matched against the old address.
func (r *NetworkRepository) UpdateDepositAddress(ctx context.Context, id uuid.UUID, depositAddress string) error {
	var inUse bool
	err := r.db.GetContext(ctx, &inUse, `
		SELECT EXISTS (
			SELECT 1 FROM transfers
			WHERE network_id = $1 AND status IN ($2, $3)
		)`,
		id, entities.TransferStatusPending, entities.TransferStatusProcessed)
	if err != nil {
		return fmt.Errorf("failed to check network usage: %w", err)
	}
	if inUse {
		return domainerrors.DepositAddressInUseError()
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE networks SET deposit_address = $2, updated_at = NOW() WHERE id = $1`,
		id, depositAddress)
	if err != nil {
		return fmt.Errorf("failed to update network deposit address: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domainerrors.NotFoundError("NETWORK")
	}

	return nil
}

// CurrencyRepository reads currency registry data
type CurrencyRepository struct {
	db *sqlx.DB
}

// NewCurrencyRepository creates a new currency repository
func NewCurrencyRepository(db *sqlx.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// FindOneOrFail retrieves a currency by ID
func (r *CurrencyRepository) FindOneOrFail(ctx context.Context, id uuid.UUID) (*entities.Currency, error) {
	var currency entities.Currency
	err := r.db.GetContext(ctx, &currency,
		`SELECT id, symbol, name, max_decimal_places, is_sender_address_required, created_at
		 FROM currencies WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.NotFoundError("CURRENCY")
		}
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return &currency, nil
}
