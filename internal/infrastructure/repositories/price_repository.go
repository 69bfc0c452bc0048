package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
)

// PriceRepository reads the market price feed fixed rates are derived from.
// Prices are written by an external feed process; this side only ever reads
// the newest row per currency.
type PriceRepository struct {
	db *sqlx.DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// CurrentRate returns the latest USD price for a currency
func (r *PriceRepository) CurrentRate(ctx context.Context, currencyID uuid.UUID) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.db.GetContext(ctx, &price, `
		SELECT price
		FROM currency_prices
		WHERE currency_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, currencyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, domainerrors.NotFoundError("CURRENCY_PRICE")
		}
		return decimal.Zero, fmt.Errorf("failed to get currency price: %w", err)
	}
	return price, nil
}
