package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

type fakeRateRepo struct {
	rates   map[uuid.UUID]*entities.FixedCurrencyRate
	deleted int64
	failAll bool
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{rates: make(map[uuid.UUID]*entities.FixedCurrencyRate)}
}

func (f *fakeRateRepo) Create(_ context.Context, rate *entities.FixedCurrencyRate) error {
	if f.failAll {
		return errors.New("db down")
	}
	f.rates[rate.ID] = rate
	return nil
}

func (f *fakeRateRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.FixedCurrencyRate, error) {
	rate, ok := f.rates[id]
	if !ok {
		return nil, domainerrors.NotFoundError("FIXED_CURRENCY_RATE")
	}
	return rate, nil
}

func (f *fakeRateRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	if f.failAll {
		return 0, errors.New("db down")
	}
	return f.deleted, nil
}

type fakeNetworks struct {
	network *entities.Network
}

func (f *fakeNetworks) FindOneOrFail(_ context.Context, id uuid.UUID) (*entities.Network, error) {
	if f.network == nil || f.network.ID != id {
		return nil, domainerrors.NotFoundError("NETWORK")
	}
	return f.network, nil
}

type fakeSource struct {
	rate decimal.Decimal
	err  error
}

func (f *fakeSource) CurrentRate(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return f.rate, f.err
}

func testNetwork() *entities.Network {
	return &entities.Network{
		ID:         uuid.New(),
		CurrencyID: uuid.New(),
		Name:       "BSC",
		TokenType:  entities.TokenTypeBep20,
	}
}

func TestCreateFixesCurrentRate(t *testing.T) {
	repo := newFakeRateRepo()
	network := testNetwork()
	source := &fakeSource{rate: decimal.RequireFromString("311.5")}
	svc := NewService(repo, &fakeNetworks{network: network}, source, 30, logger.New("error", "test"))

	rate, err := svc.Create(context.Background(), network.ID)
	require.NoError(t, err)

	assert.Equal(t, network.ID, rate.NetworkID)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("311.5")))
	assert.WithinDuration(t, time.Now().Add(30*time.Second), rate.EndedAt, 2*time.Second)
	assert.Contains(t, repo.rates, rate.ID)
}

func TestCreateRejectsNonPositiveRate(t *testing.T) {
	network := testNetwork()
	source := &fakeSource{rate: decimal.Zero}
	svc := NewService(newFakeRateRepo(), &fakeNetworks{network: network}, source, 30, logger.New("error", "test"))

	_, err := svc.Create(context.Background(), network.ID)
	assert.Error(t, err)
}

func TestCreateUnknownNetwork(t *testing.T) {
	svc := NewService(newFakeRateRepo(), &fakeNetworks{}, &fakeSource{rate: decimal.New(1, 0)}, 30, logger.New("error", "test"))

	_, err := svc.Create(context.Background(), uuid.New())
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestValidateWithinLifespan(t *testing.T) {
	repo := newFakeRateRepo()
	svc := NewService(repo, &fakeNetworks{}, &fakeSource{}, 30, logger.New("error", "test"))

	rate := &entities.FixedCurrencyRate{
		ID:        uuid.New(),
		NetworkID: uuid.New(),
		Rate:      decimal.New(100, 0),
		CreatedAt: time.Now().Add(-29 * time.Second),
		EndedAt:   time.Now().Add(time.Second),
	}
	repo.rates[rate.ID] = rate

	got, err := svc.Validate(context.Background(), rate.ID)
	require.NoError(t, err)
	assert.Equal(t, rate.ID, got.ID)
}

func TestValidateExpiredRate(t *testing.T) {
	repo := newFakeRateRepo()
	svc := NewService(repo, &fakeNetworks{}, &fakeSource{}, 30, logger.New("error", "test"))

	rate := &entities.FixedCurrencyRate{
		ID:        uuid.New(),
		NetworkID: uuid.New(),
		Rate:      decimal.New(100, 0),
		CreatedAt: time.Now().Add(-31 * time.Second),
		EndedAt:   time.Now().Add(-time.Second),
	}
	repo.rates[rate.ID] = rate

	_, err := svc.Validate(context.Background(), rate.ID)
	require.Error(t, err)
	assert.Equal(t, "RATE_EXPIRED", domainerrors.GetErrorCode(err))
}

func TestValidateMissingRate(t *testing.T) {
	svc := NewService(newFakeRateRepo(), &fakeNetworks{}, &fakeSource{}, 30, logger.New("error", "test"))

	_, err := svc.Validate(context.Background(), uuid.New())
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestDeleteExpiredSwallowsErrors(t *testing.T) {
	repo := newFakeRateRepo()
	repo.failAll = true
	svc := NewService(repo, &fakeNetworks{}, &fakeSource{}, 30, logger.New("error", "test"))

	// Housekeeping never propagates failures
	svc.DeleteExpired(context.Background())
}
