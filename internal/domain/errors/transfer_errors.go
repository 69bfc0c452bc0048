package errors

import "fmt"

// Transfer pipeline error constructors. These map onto the HTTP layer as
// 400/404/409 equivalents; background workers never surface them to users.

// RateExpiredError indicates a fixed currency rate was consumed past its lifespan
func RateExpiredError() *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "RATE_EXPIRED",
		Message: "rate expired",
	}
}

// AmountAmbiguousError indicates both or neither of amount and currencyAmount were supplied
func AmountAmbiguousError() *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "AMOUNT_AMBIGUOUS",
		Message: "exactly one of amount or currencyAmount must be provided",
	}
}

// SenderAddressRequiredError indicates the currency requires the sending address
func SenderAddressRequiredError(symbol string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "SENDER_ADDRESS_REQUIRED",
		Message: fmt.Sprintf("fromAddress is required for %s deposits", symbol),
		Details: map[string]interface{}{
			"field": "fromAddress",
		},
	}
}

// TransferTerminalError indicates the transfer already reached a terminal status
func TransferTerminalError(status string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "TRANSFER_TERMINAL",
		Message: fmt.Sprintf("transfer is already %s", status),
	}
}

// InvalidTransitionError indicates a disallowed status transition was requested
func InvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "INVALID_STATUS_TRANSITION",
		Message: fmt.Sprintf("cannot transition transfer from %s to %s", from, to),
	}
}

// TxIDAlreadySetError indicates a second hash was submitted for a transfer
func TxIDAlreadySetError() *DomainError {
	return &DomainError{
		Err:     ErrConflict,
		Code:    "TXID_ALREADY_SET",
		Message: "transfer already has a transaction hash",
	}
}

// CodeMismatchError indicates the submitted withdrawal code does not match
func CodeMismatchError() *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "CODE_MISMATCH",
		Message: "withdrawal code does not match",
		Details: map[string]interface{}{
			"field": "code",
		},
	}
}

// CodeExpiredError indicates no unexpired withdrawal code exists for the user
func CodeExpiredError() *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "CODE_EXPIRED",
		Message: "withdrawal code expired or was never requested",
		Details: map[string]interface{}{
			"field": "code",
		},
	}
}

// CodeCooldownError indicates a withdrawal code was requested too soon after the last one
func CodeCooldownError() *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "CODE_COOLDOWN",
		Message: "withdrawal code was requested recently, try again later",
	}
}

// DepositAddressInUseError rejects deposit-address changes while transfers reference the network
func DepositAddressInUseError() *DomainError {
	return &DomainError{
		Err:     ErrConflict,
		Code:    "DEPOSIT_ADDRESS_IN_USE",
		Message: "deposit address cannot be changed while pending or processed transfers reference it",
	}
}
