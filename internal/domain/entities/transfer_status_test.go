package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    TransferStatus
		to      TransferStatus
		allowed bool
	}{
		{"pending to processed", TransferStatusPending, TransferStatusProcessed, true},
		{"pending to canceled", TransferStatusPending, TransferStatusCanceled, true},
		{"pending to completed", TransferStatusPending, TransferStatusCompleted, false},
		{"processed to completed", TransferStatusProcessed, TransferStatusCompleted, true},
		{"processed to canceled", TransferStatusProcessed, TransferStatusCanceled, true},
		{"processed to pending", TransferStatusProcessed, TransferStatusPending, false},
		{"completed is terminal", TransferStatusCompleted, TransferStatusCanceled, false},
		{"canceled is terminal", TransferStatusCanceled, TransferStatusPending, false},
		{"canceled cannot complete", TransferStatusCanceled, TransferStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
			err := tt.from.ValidateTransition(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTransferStatusIsTerminal(t *testing.T) {
	assert.False(t, TransferStatusPending.IsTerminal())
	assert.False(t, TransferStatusProcessed.IsTerminal())
	assert.True(t, TransferStatusCompleted.IsTerminal())
	assert.True(t, TransferStatusCanceled.IsTerminal())
}

func TestTransferStatusIsValid(t *testing.T) {
	require.True(t, TransferStatusPending.IsValid())
	require.True(t, TransferStatusProcessed.IsValid())
	require.True(t, TransferStatusCompleted.IsValid())
	require.True(t, TransferStatusCanceled.IsValid())
	require.False(t, TransferStatus("refunded").IsValid())
	require.False(t, TransferStatus("").IsValid())
}

func TestTokenTypeIsValid(t *testing.T) {
	for _, tokenType := range []TokenType{TokenTypeBep20, TokenTypeErc20, TokenTypeTrc20, TokenTypeBitcoin} {
		assert.True(t, tokenType.IsValid())
	}
	assert.False(t, TokenType("solana").IsValid())
}
