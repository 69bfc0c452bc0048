package entities

import (
	"time"

	"github.com/google/uuid"
)

// TokenType is the blockchain family a network belongs to. It selects which
// explorer client and confirmation rule a transfer is routed to.
type TokenType string

const (
	TokenTypeBep20   TokenType = "bep20"
	TokenTypeErc20   TokenType = "erc20"
	TokenTypeTrc20   TokenType = "trc20"
	TokenTypeBitcoin TokenType = "bitcoin"
)

// ValidTokenTypes contains all token types the scan pipeline can process
var ValidTokenTypes = map[TokenType]bool{
	TokenTypeBep20:   true,
	TokenTypeErc20:   true,
	TokenTypeTrc20:   true,
	TokenTypeBitcoin: true,
}

// IsValid checks if the token type is recognized
func (t TokenType) IsValid() bool {
	return ValidTokenTypes[t]
}

// Network is a blockchain network a currency can be transferred over.
// DepositAddress is the platform-controlled address incoming deposits are
// matched against; it is frozen while pending or processed transfers
// reference the network.
type Network struct {
	ID             uuid.UUID `db:"id" json:"id"`
	CurrencyID     uuid.UUID `db:"currency_id" json:"currencyId"`
	Name           string    `db:"name" json:"name"`
	TokenType      TokenType `db:"token_type" json:"tokenType"`
	DepositAddress string    `db:"deposit_address" json:"depositAddress"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Currency is a cryptocurrency the platform accepts.
// IsSenderAddressRequired marks currencies whose deposits can only be matched
// when the user declares the sending address up front.
type Currency struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	Symbol                  string    `db:"symbol" json:"symbol"`
	Name                    string    `db:"name" json:"name"`
	MaxDecimalPlaces        int32     `db:"max_decimal_places" json:"maxDecimalPlaces"`
	IsSenderAddressRequired bool      `db:"is_sender_address_required" json:"isSenderAddressRequired"`
	CreatedAt               time.Time `db:"created_at" json:"createdAt"`
}
