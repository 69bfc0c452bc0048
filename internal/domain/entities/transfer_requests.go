package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateAmountRequest prices a transfer against a fixed rate. Exactly one
// of Amount (USD cents) or CurrencyAmount must be supplied; the other side is
// derived from the rate.
type CalculateAmountRequest struct {
	FixedCurrencyRateID uuid.UUID        `json:"fixedCurrencyRateId" validate:"required"`
	Amount              *int64           `json:"amount,omitempty" validate:"omitempty,gt=0"`
	CurrencyAmount      *decimal.Decimal `json:"currencyAmount,omitempty"`
}

// CalculateAmountResponse carries both sides of the conversion
type CalculateAmountResponse struct {
	Amount         int64           `json:"amount"`
	CurrencyAmount decimal.Decimal `json:"currencyAmount"`
	Rate           decimal.Decimal `json:"rate"`
}

// CreateDepositRequest initiates a deposit priced against a fixed rate
type CreateDepositRequest struct {
	FixedCurrencyRateID uuid.UUID        `json:"fixedCurrencyRateId" validate:"required"`
	Amount              *int64           `json:"amount,omitempty" validate:"omitempty,gt=0"`
	CurrencyAmount      *decimal.Decimal `json:"currencyAmount,omitempty"`
	FromAddress         *string          `json:"fromAddress,omitempty"`
}

// CreateWithdrawalRequest initiates a withdrawal. Code is the one-time code
// previously delivered to the user's email.
type CreateWithdrawalRequest struct {
	FixedCurrencyRateID uuid.UUID        `json:"fixedCurrencyRateId" validate:"required"`
	Amount              *int64           `json:"amount,omitempty" validate:"omitempty,gt=0"`
	CurrencyAmount      *decimal.Decimal `json:"currencyAmount,omitempty"`
	WithdrawalAddress   string           `json:"withdrawalAddress" validate:"required"`
	Code                string           `json:"code" validate:"required"`
}

// UpdateTxIDRequest records the blockchain transaction hash for a transfer.
// A transfer has exactly one canonical hash, so this is single-assignment.
type UpdateTxIDRequest struct {
	TransferID uuid.UUID `json:"transferId" validate:"required"`
	TxID       string    `json:"txId" validate:"required"`
}

// CancelTransferRequest cancels a non-terminal transfer with an optional note
type CancelTransferRequest struct {
	TransferID uuid.UUID `json:"transferId" validate:"required"`
	Note       *string   `json:"note,omitempty"`
}

// ConfirmTransferRequest completes a processed transfer and settles it into
// the user's internal ledger
type ConfirmTransferRequest struct {
	TransferID uuid.UUID `json:"transferId" validate:"required"`
}

// ProcessTransferRequest marks a transfer processed directly, bypassing the
// automated scan pipeline
type ProcessTransferRequest struct {
	TransferID uuid.UUID `json:"transferId" validate:"required"`
	UserID     uuid.UUID `json:"userId" validate:"required"`
}

// CreateRateRequest requests a fixed conversion rate for a network
type CreateRateRequest struct {
	NetworkID uuid.UUID `json:"networkId" validate:"required"`
}
