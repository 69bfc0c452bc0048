package entities

import "fmt"

// TransferStatus represents the status of a transfer
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusProcessed TransferStatus = "processed"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCanceled  TransferStatus = "canceled"
)

// ValidTransferStatuses contains all valid transfer statuses
var ValidTransferStatuses = map[TransferStatus]bool{
	TransferStatusPending:   true,
	TransferStatusProcessed: true,
	TransferStatusCompleted: true,
	TransferStatusCanceled:  true,
}

// ValidTransferTransitions defines allowed status transitions
var ValidTransferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending:   {TransferStatusProcessed, TransferStatusCanceled},
	TransferStatusProcessed: {TransferStatusCompleted, TransferStatusCanceled},
	TransferStatusCompleted: {}, // Terminal state
	TransferStatusCanceled:  {}, // Terminal state
}

// IsValid checks if the status is a valid transfer status
func (s TransferStatus) IsValid() bool {
	return ValidTransferStatuses[s]
}

// CanTransitionTo checks if transition to new status is allowed
func (s TransferStatus) CanTransitionTo(newStatus TransferStatus) bool {
	allowed, exists := ValidTransferTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusCanceled
}

// ValidateTransition validates and returns error if transition is invalid
func (s TransferStatus) ValidateTransition(newStatus TransferStatus) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("invalid transfer status: %s", newStatus)
	}
	if !s.CanTransitionTo(newStatus) {
		return fmt.Errorf("invalid status transition from %s to %s", s, newStatus)
	}
	return nil
}
