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

// TransferInfoRepository persists per-transfer scan attempt counters
type TransferInfoRepository struct {
	db *sqlx.DB
}

// NewTransferInfoRepository creates a new transfer info repository
func NewTransferInfoRepository(db *sqlx.DB) *TransferInfoRepository {
	return &TransferInfoRepository{db: db}
}

// GetByTransferID retrieves the attempt counter for a transfer
func (r *TransferInfoRepository) GetByTransferID(ctx context.Context, transferID uuid.UUID) (*entities.TransferInfo, error) {
	var info entities.TransferInfo
	err := r.db.GetContext(ctx, &info,
		`SELECT transfer_id, attempts FROM transfer_info WHERE transfer_id = $1`, transferID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.NotFoundError("TRANSFER_INFO")
		}
		return nil, fmt.Errorf("failed to get transfer info: %w", err)
	}
	return &info, nil
}

// ForceAttempts sets the counter directly. Internal-only privileged write used
// to retire transfers the pipeline cannot process (unknown token type); the
// counter never goes below its current value.
func (r *TransferInfoRepository) ForceAttempts(ctx context.Context, transferID uuid.UUID, attempts int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transfer_info SET attempts = GREATEST(attempts, $2) WHERE transfer_id = $1`,
		transferID, attempts)
	if err != nil {
		return fmt.Errorf("failed to force transfer attempts: %w", err)
	}
	return nil
}
