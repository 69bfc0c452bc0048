package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
)

// RateRepository persists fixed currency rate snapshots
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository creates a new rate repository
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Create inserts a rate snapshot
func (r *RateRepository) Create(ctx context.Context, rate *entities.FixedCurrencyRate) error {
	query := `
		INSERT INTO fixed_currency_rates (id, network_id, rate, created_at, ended_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		rate.ID,
		rate.NetworkID,
		rate.Rate,
		rate.CreatedAt,
		rate.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create fixed currency rate: %w", err)
	}

	return nil
}

// GetByID retrieves a rate snapshot by ID
func (r *RateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.FixedCurrencyRate, error) {
	var rate entities.FixedCurrencyRate
	err := r.db.GetContext(ctx, &rate,
		`SELECT id, network_id, rate, created_at, ended_at FROM fixed_currency_rates WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.NotFoundError("RATE")
		}
		return nil, fmt.Errorf("failed to get fixed currency rate: %w", err)
	}
	return &rate, nil
}

// DeleteExpired deletes all rates created before the cutoff. Returns how many
// rows were removed.
func (r *RateRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM fixed_currency_rates WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rates: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return deleted, nil
}
