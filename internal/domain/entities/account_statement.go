package entities

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatement is a ledger entry credited to a user's internal balance
// when an administrator confirms a transfer. Amount is integer cents;
// negative for withdrawals.
type AccountStatement struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"userId"`
	TransferID *uuid.UUID `db:"transfer_id" json:"transferId,omitempty"`
	Amount     int64      `db:"amount" json:"amount"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}
