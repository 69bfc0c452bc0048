// Package rates issues and validates fixed currency rate snapshots used to
// price transfers deterministically within a bounded window.
package rates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// Repository persists rate snapshots
type Repository interface {
	Create(ctx context.Context, rate *entities.FixedCurrencyRate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.FixedCurrencyRate, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// NetworkRegistry resolves networks to their currency
type NetworkRegistry interface {
	FindOneOrFail(ctx context.Context, id uuid.UUID) (*entities.Network, error)
}

// RateSource is the external price feed collaborator
type RateSource interface {
	CurrentRate(ctx context.Context, currencyID uuid.UUID) (decimal.Decimal, error)
}

// Service issues time-limited rate snapshots
type Service struct {
	repo     Repository
	networks NetworkRegistry
	source   RateSource
	lifespan time.Duration
	logger   *logger.Logger
}

// NewService creates a rates service
func NewService(repo Repository, networks NetworkRegistry, source RateSource, lifespanSeconds int, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		networks: networks,
		source:   source,
		lifespan: time.Duration(lifespanSeconds) * time.Second,
		logger:   log,
	}
}

// Create fixes the current exchange rate for the network's currency and
// stores it with an expiry window
func (s *Service) Create(ctx context.Context, networkID uuid.UUID) (*entities.FixedCurrencyRate, error) {
	network, err := s.networks.FindOneOrFail(ctx, networkID)
	if err != nil {
		return nil, err
	}

	current, err := s.source.CurrentRate(ctx, network.CurrencyID)
	if err != nil {
		return nil, domainerrors.Wrap(err, "failed to fetch current exchange rate")
	}
	if !current.IsPositive() {
		return nil, domainerrors.InternalError("rate source returned a non-positive rate", nil)
	}

	now := time.Now()
	rate := &entities.FixedCurrencyRate{
		ID:        uuid.New(),
		NetworkID: networkID,
		Rate:      current,
		CreatedAt: now,
		EndedAt:   now.Add(s.lifespan),
	}

	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, err
	}

	return rate, nil
}

// Validate loads a rate and checks it is still usable. Callers must run this
// at the moment an amount is calculated or a transfer is created; a rate
// fetched minutes earlier may have expired since.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (*entities.FixedCurrencyRate, error) {
	rate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rate.ValidAt(time.Now()) {
		return nil, domainerrors.RateExpiredError()
	}

	return rate, nil
}

// DeleteExpired sweeps rates past their lifespan. Best-effort housekeeping:
// failures are logged, never returned.
func (s *Service) DeleteExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.lifespan)

	deleted, err := s.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to delete expired rates", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("Deleted expired rates", "count", deleted)
	}
}
