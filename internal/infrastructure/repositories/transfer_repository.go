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
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/database"
)

const transferColumns = `
	id, user_id, type, status, network_id, amount, currency_amount,
	from_address, withdrawal_address, tx_id, note, transaction_id,
	created_at, updated_at, ended_at
`

// TransferRepository implements transfer persistence over Postgres
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a transfer together with its zeroed attempt counter row.
// Both rows are written in one transaction so a transfer can never exist
// without its counter.
func (r *TransferRepository) Create(ctx context.Context, transfer *entities.Transfer) error {
	query := `
		INSERT INTO transfers (
			id, user_id, type, status, network_id, amount, currency_amount,
			from_address, withdrawal_address, tx_id, note, transaction_id,
			created_at, updated_at, ended_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			transfer.ID,
			transfer.UserID,
			transfer.Type,
			transfer.Status,
			transfer.NetworkID,
			transfer.Amount,
			transfer.CurrencyAmount,
			transfer.FromAddress,
			transfer.WithdrawalAddress,
			transfer.TxID,
			transfer.Note,
			transfer.TransactionID,
			transfer.CreatedAt,
			transfer.UpdatedAt,
			transfer.EndedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create transfer: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO transfer_info (transfer_id, attempts) VALUES ($1, 0)`,
			transfer.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to create transfer info: %w", err)
		}

		return nil
	})
}

// GetByID retrieves a transfer by ID
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	var transfer entities.Transfer
	err := r.db.GetContext(ctx, &transfer, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.NotFoundError("TRANSFER")
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	return &transfer, nil
}

// GetByIDForUser retrieves a transfer owned by the given user
func (r *TransferRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 AND user_id = $2`

	var transfer entities.Transfer
	err := r.db.GetContext(ctx, &transfer, query, id, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.NotFoundError("TRANSFER")
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	return &transfer, nil
}

// UpdateStatus updates the status of a transfer; the caller validates the
// transition against the state machine first
func (r *TransferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.TransferStatus) error {
	query := `UPDATE transfers SET status = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	return nil
}

// Cancel sets a transfer to canceled with an optional note. The record is
// kept for the audit trail.
func (r *TransferRepository) Cancel(ctx context.Context, id uuid.UUID, note *string) error {
	query := `
		UPDATE transfers
		SET status = $2, note = COALESCE($3, note), updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, entities.TransferStatusCanceled, note)
	if err != nil {
		return fmt.Errorf("failed to cancel transfer: %w", err)
	}

	return nil
}

// SetNote annotates a transfer without touching its status
func (r *TransferRepository) SetNote(ctx context.Context, id uuid.UUID, note string) error {
	query := `UPDATE transfers SET note = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, note)
	if err != nil {
		return fmt.Errorf("failed to set transfer note: %w", err)
	}

	return nil
}

// SetTxID records the blockchain hash for a transfer. The update only
// applies while tx_id is still null, making the assignment single-shot.
// Returns false when the transfer already carries a hash.
func (r *TransferRepository) SetTxID(ctx context.Context, id uuid.UUID, txID string) (bool, error) {
	query := `
		UPDATE transfers
		SET tx_id = $2, updated_at = NOW()
		WHERE id = $1 AND tx_id IS NULL
	`

	res, err := r.db.ExecContext(ctx, query, id, txID)
	if err != nil {
		return false, fmt.Errorf("failed to set transfer tx id: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}

// ExistsByTxID reports whether any transfer already references the hash
func (r *TransferRepository) ExistsByTxID(ctx context.Context, txID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM transfers WHERE tx_id = $1)`, txID)
	if err != nil {
		return false, fmt.Errorf("failed to check tx id existence: %w", err)
	}
	return exists, nil
}

// LinkTransaction links a transfer to its internal settlement transaction
func (r *TransferRepository) LinkTransaction(ctx context.Context, id, transactionID uuid.UUID) error {
	query := `UPDATE transfers SET transaction_id = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, transactionID)
	if err != nil {
		return fmt.Errorf("failed to link transfer transaction: %w", err)
	}

	return nil
}

// CancelExpiredDeposits bulk-cancels pending deposits whose lifespan elapsed
// with no discovered on-chain transaction. Returns the canceled ids.
func (r *TransferRepository) CancelExpiredDeposits(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE transfers
		SET status = $1, updated_at = NOW()
		WHERE type = $2
		  AND status = $3
		  AND ended_at IS NOT NULL
		  AND ended_at < $4
		  AND tx_id IS NULL
		RETURNING id
	`

	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query,
		entities.TransferStatusCanceled,
		entities.TransferTypeDeposit,
		entities.TransferStatusPending,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel expired deposits: %w", err)
	}

	return ids, nil
}

// RegisterScanAttempt records one scan attempt in a single transaction: the
// attempt counter is incremented and the transfer is moved from pending to
// processed, refreshing updated_at either way. Selection staleness is
// measured against updated_at, so each attempt restarts the wait for the
// next, wider band. Returns the new attempt count.
func (r *TransferRepository) RegisterScanAttempt(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &attempts,
			`UPDATE transfer_info SET attempts = attempts + 1 WHERE transfer_id = $1 RETURNING attempts`,
			id)
		if err != nil {
			if err == sql.ErrNoRows {
				return domainerrors.NotFoundError("TRANSFER_INFO")
			}
			return fmt.Errorf("failed to increment transfer attempts: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transfers
			SET status = CASE WHEN status = $2 THEN $3 ELSE status END,
			    updated_at = NOW()
			WHERE id = $1`,
			id,
			entities.TransferStatusPending,
			entities.TransferStatusProcessed,
		)
		if err != nil {
			return fmt.Errorf("failed to mark transfer processed: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return attempts, nil
}

// SelectProcessable selects deposits eligible for a scan attempt: pending or
// processed, below the attempt ceiling, not yet settled, and untouched for at
// least (attempts+1) * bandMinutes since the last attempt. Attempts past the
// fifth band are never re-selected regardless of the configured ceiling.
func (r *TransferRepository) SelectProcessable(ctx context.Context, now time.Time, maxAttempts, bandMinutes, limit int) ([]*entities.ProcessableTransfer, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.status, t.network_id, t.amount,
		       t.currency_amount, t.from_address, t.withdrawal_address, t.tx_id,
		       t.note, t.transaction_id, t.created_at, t.updated_at, t.ended_at,
		       i.attempts, n.token_type
		FROM transfers t
		JOIN transfer_info i ON i.transfer_id = t.id
		JOIN networks n ON n.id = t.network_id
		WHERE t.type = $1
		  AND t.status IN ($2, $3)
		  AND t.transaction_id IS NULL
		  AND i.attempts < $4
		  AND i.attempts < 5
		  AND t.updated_at <= $5::timestamptz - make_interval(mins => (i.attempts + 1) * $6)
		ORDER BY t.updated_at ASC
		LIMIT $7
	`

	var transfers []*entities.ProcessableTransfer
	err := r.db.SelectContext(ctx, &transfers, query,
		entities.TransferTypeDeposit,
		entities.TransferStatusPending,
		entities.TransferStatusProcessed,
		maxAttempts,
		now,
		bandMinutes,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select processable transfers: %w", err)
	}

	return transfers, nil
}

// ListByUser retrieves transfers of a user with pagination
func (r *TransferRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*entities.PagedTransfers, error) {
	query := `SELECT ` + transferColumns + `
		FROM transfers
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var transfers []*entities.Transfer
	err := r.db.SelectContext(ctx, &transfers, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}

	var total int64
	err = r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM transfers WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transfers: %w", err)
	}

	return &entities.PagedTransfers{
		Items:  transfers,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// ListAll retrieves transfers across all users with pagination, optionally
// filtered by status. Used by the admin listing.
func (r *TransferRepository) ListAll(ctx context.Context, status *entities.TransferStatus, limit, offset int) (*entities.PagedTransfers, error) {
	query := `SELECT ` + transferColumns + `
		FROM transfers
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var transfers []*entities.Transfer
	err := r.db.SelectContext(ctx, &transfers, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}

	var total int64
	err = r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM transfers WHERE ($1::text IS NULL OR status = $1)`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to count transfers: %w", err)
	}

	return &entities.PagedTransfers{
		Items:  transfers,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}
