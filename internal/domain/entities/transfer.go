package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferType distinguishes incoming deposits from outgoing withdrawals
type TransferType string

const (
	TransferTypeDeposit    TransferType = "deposit"
	TransferTypeWithdrawal TransferType = "withdrawal"
)

// IsValid checks if the transfer type is known
func (t TransferType) IsValid() bool {
	return t == TransferTypeDeposit || t == TransferTypeWithdrawal
}

// Transfer represents a deposit or withdrawal of network currency.
// Amount is USD-denominated integer cents; CurrencyAmount is the equivalent
// in the network currency priced by the fixed rate used at creation.
type Transfer struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	UserID            uuid.UUID       `db:"user_id" json:"userId"`
	Type              TransferType    `db:"type" json:"type"`
	Status            TransferStatus  `db:"status" json:"status"`
	NetworkID         uuid.UUID       `db:"network_id" json:"networkId"`
	Amount            int64           `db:"amount" json:"amount"`
	CurrencyAmount    decimal.Decimal `db:"currency_amount" json:"currencyAmount"`
	FromAddress       *string         `db:"from_address" json:"fromAddress,omitempty"`
	WithdrawalAddress *string         `db:"withdrawal_address" json:"withdrawalAddress,omitempty"`
	TxID              *string         `db:"tx_id" json:"txId,omitempty"`
	Note              *string         `db:"note" json:"note,omitempty"`
	TransactionID     *uuid.UUID      `db:"transaction_id" json:"transactionId,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
	EndedAt           *time.Time      `db:"ended_at" json:"endedAt,omitempty"`
}

// IsSettled returns true once the transfer is linked to an internal transaction
func (t *Transfer) IsSettled() bool {
	return t.TransactionID != nil
}

// TransferInfo tracks how many times a transfer has been enqueued for scanning.
// Attempts only ever grows; the scheduler stops selecting a transfer once
// attempts reaches the configured ceiling.
type TransferInfo struct {
	TransferID uuid.UUID `db:"transfer_id" json:"transferId"`
	Attempts   int       `db:"attempts" json:"attempts"`
}

// ProcessableTransfer is a transfer selected for scanning joined with its
// attempt counter and network routing data.
type ProcessableTransfer struct {
	Transfer
	Attempts  int       `db:"attempts" json:"attempts"`
	TokenType TokenType `db:"token_type" json:"tokenType"`
}
