package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
)

// AccountStatementRepository persists internal ledger entries
type AccountStatementRepository struct {
	db *sqlx.DB
}

// NewAccountStatementRepository creates a new account statement repository
func NewAccountStatementRepository(db *sqlx.DB) *AccountStatementRepository {
	return &AccountStatementRepository{db: db}
}

// Credit writes a ledger entry for a confirmed transfer and returns it.
// Amount is integer cents; withdrawals settle with a negative amount.
func (r *AccountStatementRepository) Credit(ctx context.Context, userID, transferID uuid.UUID, amount int64) (*entities.AccountStatement, error) {
	statement := &entities.AccountStatement{
		ID:         uuid.New(),
		UserID:     userID,
		TransferID: &transferID,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO account_statements (id, user_id, transfer_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		statement.ID,
		statement.UserID,
		statement.TransferID,
		statement.Amount,
		statement.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account statement: %w", err)
	}

	return statement, nil
}
