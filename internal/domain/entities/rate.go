package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FixedCurrencyRate is a short-lived snapshot of a currency conversion rate
// used to price a transfer deterministically. Rate is USD per one unit of the
// network currency. A rate is never mutated; expired rates are swept by a
// periodic job.
type FixedCurrencyRate struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	NetworkID uuid.UUID       `db:"network_id" json:"networkId"`
	Rate      decimal.Decimal `db:"rate" json:"rate"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	EndedAt   time.Time       `db:"ended_at" json:"endedAt"`
}

// ValidAt reports whether the rate may still be used at the given instant.
// Validity is re-checked at consumption time, not just at creation.
func (r *FixedCurrencyRate) ValidAt(now time.Time) bool {
	return now.Before(r.EndedAt)
}
