package transfers

import (
	"context"
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

type fakeTransferRepo struct {
	transfers map[uuid.UUID]*entities.Transfer
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{transfers: make(map[uuid.UUID]*entities.Transfer)}
}

func (f *fakeTransferRepo) Create(_ context.Context, transfer *entities.Transfer) error {
	clone := *transfer
	f.transfers[transfer.ID] = &clone
	return nil
}

func (f *fakeTransferRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Transfer, error) {
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, domainerrors.NotFoundError("TRANSFER")
	}
	clone := *transfer
	return &clone, nil
}

func (f *fakeTransferRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Transfer, error) {
	transfer, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.UserID != userID {
		return nil, domainerrors.NotFoundError("TRANSFER")
	}
	return transfer, nil
}

func (f *fakeTransferRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entities.TransferStatus) error {
	f.transfers[id].Status = status
	return nil
}

func (f *fakeTransferRepo) Cancel(_ context.Context, id uuid.UUID, note *string) error {
	f.transfers[id].Status = entities.TransferStatusCanceled
	if note != nil {
		f.transfers[id].Note = note
	}
	return nil
}

func (f *fakeTransferRepo) SetNote(_ context.Context, id uuid.UUID, note string) error {
	f.transfers[id].Note = &note
	return nil
}

func (f *fakeTransferRepo) SetTxID(_ context.Context, id uuid.UUID, txID string) (bool, error) {
	if f.transfers[id].TxID != nil {
		return false, nil
	}
	f.transfers[id].TxID = &txID
	return true, nil
}

func (f *fakeTransferRepo) LinkTransaction(_ context.Context, id, transactionID uuid.UUID) error {
	f.transfers[id].TransactionID = &transactionID
	return nil
}

func (f *fakeTransferRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) (*entities.PagedTransfers, error) {
	var items []*entities.Transfer
	for _, transfer := range f.transfers {
		if transfer.UserID == userID {
			items = append(items, transfer)
		}
	}
	return &entities.PagedTransfers{Items: items, Total: int64(len(items)), Limit: limit, Offset: offset}, nil
}

func (f *fakeTransferRepo) ListAll(_ context.Context, status *entities.TransferStatus, limit, offset int) (*entities.PagedTransfers, error) {
	var items []*entities.Transfer
	for _, transfer := range f.transfers {
		if status == nil || transfer.Status == *status {
			items = append(items, transfer)
		}
	}
	return &entities.PagedTransfers{Items: items, Total: int64(len(items)), Limit: limit, Offset: offset}, nil
}

type fakeRates struct {
	rate *entities.FixedCurrencyRate
	err  error
}

func (f *fakeRates) Validate(_ context.Context, id uuid.UUID) (*entities.FixedCurrencyRate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rate == nil || f.rate.ID != id {
		return nil, domainerrors.NotFoundError("FIXED_CURRENCY_RATE")
	}
	return f.rate, nil
}

type fakeNetworks struct {
	network *entities.Network
}

func (f *fakeNetworks) FindOneOrFail(_ context.Context, _ uuid.UUID) (*entities.Network, error) {
	return f.network, nil
}

type fakeCurrencies struct {
	currency *entities.Currency
}

func (f *fakeCurrencies) FindOneOrFail(_ context.Context, _ uuid.UUID) (*entities.Currency, error) {
	return f.currency, nil
}

type fakeCodes struct {
	issued    string
	verifyErr error
}

func (f *fakeCodes) Issue(_ context.Context, _ uuid.UUID) (string, error) {
	return f.issued, nil
}

func (f *fakeCodes) Verify(_ context.Context, _ uuid.UUID, _ string) error {
	return f.verifyErr
}

type fakeNotifier struct {
	sentTo   string
	sentCode string
}

func (f *fakeNotifier) TransferCode(_ context.Context, toEmail, code string) error {
	f.sentTo = toEmail
	f.sentCode = code
	return nil
}

type fakeStatements struct {
	credited []entities.AccountStatement
}

func (f *fakeStatements) Credit(_ context.Context, userID, transferID uuid.UUID, amount int64) (*entities.AccountStatement, error) {
	statement := entities.AccountStatement{
		ID:         uuid.New(),
		UserID:     userID,
		TransferID: &transferID,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}
	f.credited = append(f.credited, statement)
	return &statement, nil
}

type fixture struct {
	svc        *Service
	repo       *fakeTransferRepo
	rate       *entities.FixedCurrencyRate
	currency   *entities.Currency
	notifier   *fakeNotifier
	codes      *fakeCodes
	statements *fakeStatements
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	networkID := uuid.New()
	rate := &entities.FixedCurrencyRate{
		ID:        uuid.New(),
		NetworkID: networkID,
		Rate:      decimal.RequireFromString("250"), // 250 USD per unit
		CreatedAt: time.Now(),
		EndedAt:   time.Now().Add(time.Minute),
	}
	currency := &entities.Currency{
		ID:               uuid.New(),
		Symbol:           "BNB",
		MaxDecimalPlaces: 8,
	}
	network := &entities.Network{
		ID:         networkID,
		CurrencyID: currency.ID,
		TokenType:  entities.TokenTypeBep20,
	}

	f := &fixture{
		repo:       newFakeTransferRepo(),
		rate:       rate,
		currency:   currency,
		notifier:   &fakeNotifier{},
		codes:      &fakeCodes{issued: "123456"},
		statements: &fakeStatements{},
	}
	f.svc = NewService(
		f.repo,
		&fakeRates{rate: rate},
		&fakeNetworks{network: network},
		&fakeCurrencies{currency: currency},
		f.codes,
		f.notifier,
		f.statements,
		Config{LifespanDays: 1},
		logger.New("error", "test"),
	)
	return f
}

func int64Ptr(v int64) *int64 { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCalculateAmountFromCents(t *testing.T) {
	f := newFixture(t)

	// 500.00 USD at 250 USD/unit = 2 units
	resp, err := f.svc.CalculateAmount(context.Background(), &entities.CalculateAmountRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), resp.Amount)
	assert.True(t, resp.CurrencyAmount.Equal(decimal.RequireFromString("2")), resp.CurrencyAmount.String())
}

func TestCalculateAmountFromCurrency(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CalculateAmount(context.Background(), &entities.CalculateAmountRequest{
		FixedCurrencyRateID: f.rate.ID,
		CurrencyAmount:      decPtr("0.5"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(12500), resp.Amount)
}

func TestCalculateAmountRoundsToCurrencyPrecision(t *testing.T) {
	f := newFixture(t)
	f.currency.MaxDecimalPlaces = 2

	// 100.00 USD / 250 = 0.4 exactly, but 1.00 USD / 3 would need rounding;
	// use an awkward rate instead
	f.rate.Rate = decimal.RequireFromString("3")

	resp, err := f.svc.CalculateAmount(context.Background(), &entities.CalculateAmountRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(100),
	})
	require.NoError(t, err)

	// 1.00 / 3 = 0.333... rounds to 0.33 at two decimals
	assert.True(t, resp.CurrencyAmount.Equal(decimal.RequireFromString("0.33")), resp.CurrencyAmount.String())
}

func TestCalculateAmountRequiresExactlyOneSide(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CalculateAmount(context.Background(), &entities.CalculateAmountRequest{
		FixedCurrencyRateID: f.rate.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "AMOUNT_AMBIGUOUS", domainerrors.GetErrorCode(err))

	_, err = f.svc.CalculateAmount(context.Background(), &entities.CalculateAmountRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
		CurrencyAmount:      decPtr("2"),
	})
	require.Error(t, err)
	assert.Equal(t, "AMOUNT_AMBIGUOUS", domainerrors.GetErrorCode(err))
}

func TestCreateDepositStripsOptionalSenderAddress(t *testing.T) {
	f := newFixture(t)
	f.currency.IsSenderAddressRequired = false
	from := "0xabc"

	transfer, err := f.svc.CreateDeposit(context.Background(), uuid.New(), &entities.CreateDepositRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
		FromAddress:         &from,
	})
	require.NoError(t, err)

	assert.Nil(t, transfer.FromAddress)
	assert.Equal(t, entities.TransferStatusPending, transfer.Status)
	require.NotNil(t, transfer.EndedAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *transfer.EndedAt, 5*time.Second)
}

func TestCreateDepositRequiresSenderAddress(t *testing.T) {
	f := newFixture(t)
	f.currency.IsSenderAddressRequired = true

	_, err := f.svc.CreateDeposit(context.Background(), uuid.New(), &entities.CreateDepositRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
	})
	require.Error(t, err)
	assert.Equal(t, "SENDER_ADDRESS_REQUIRED", domainerrors.GetErrorCode(err))
}

func TestCreateDepositExpiredRate(t *testing.T) {
	f := newFixture(t)
	f.svc.rates = &fakeRates{err: domainerrors.RateExpiredError()}

	_, err := f.svc.CreateDeposit(context.Background(), uuid.New(), &entities.CreateDepositRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
	})
	require.Error(t, err)
	assert.Equal(t, "RATE_EXPIRED", domainerrors.GetErrorCode(err))
}

func TestSendWithdrawalCode(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SendWithdrawalCode(context.Background(), uuid.New(), "user@example.com")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", f.notifier.sentTo)
	assert.Equal(t, "123456", f.notifier.sentCode)
}

func TestCreateWithdrawalVerifiesCode(t *testing.T) {
	f := newFixture(t)
	f.codes.verifyErr = domainerrors.CodeMismatchError()

	_, err := f.svc.CreateWithdrawal(context.Background(), uuid.New(), &entities.CreateWithdrawalRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
		WithdrawalAddress:   "0xdead",
		Code:                "000000",
	})
	require.Error(t, err)
	assert.Equal(t, "CODE_MISMATCH", domainerrors.GetErrorCode(err))
	assert.Empty(t, f.repo.transfers)
}

func TestCreateWithdrawalHasNoExpiry(t *testing.T) {
	f := newFixture(t)

	transfer, err := f.svc.CreateWithdrawal(context.Background(), uuid.New(), &entities.CreateWithdrawalRequest{
		FixedCurrencyRateID: f.rate.ID,
		Amount:              int64Ptr(50000),
		WithdrawalAddress:   "0xdead",
		Code:                "123456",
	})
	require.NoError(t, err)

	assert.Equal(t, entities.TransferTypeWithdrawal, transfer.Type)
	assert.Nil(t, transfer.EndedAt)
	require.NotNil(t, transfer.WithdrawalAddress)
	assert.Equal(t, "0xdead", *transfer.WithdrawalAddress)
}

func seedTransfer(f *fixture, transferType entities.TransferType, status entities.TransferStatus) *entities.Transfer {
	transfer := &entities.Transfer{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Type:           transferType,
		Status:         status,
		NetworkID:      f.rate.NetworkID,
		Amount:         50000,
		CurrencyAmount: decimal.RequireFromString("2"),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.repo.transfers[transfer.ID] = transfer
	return transfer
}

func TestUpdateTxIDSingleAssignment(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeWithdrawal, entities.TransferStatusPending)

	updated, err := f.svc.UpdateTxID(context.Background(), transfer.UserID, false, &entities.UpdateTxIDRequest{
		TransferID: transfer.ID,
		TxID:       "0xhash1",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.TxID)
	assert.Equal(t, "0xhash1", *updated.TxID)

	_, err = f.svc.UpdateTxID(context.Background(), transfer.UserID, false, &entities.UpdateTxIDRequest{
		TransferID: transfer.ID,
		TxID:       "0xhash2",
	})
	require.Error(t, err)
	assert.Equal(t, "TXID_ALREADY_SET", domainerrors.GetErrorCode(err))
	assert.Equal(t, "0xhash1", *f.repo.transfers[transfer.ID].TxID)
}

func TestUpdateTxIDTerminalTransfer(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusCanceled)

	_, err := f.svc.UpdateTxID(context.Background(), transfer.UserID, false, &entities.UpdateTxIDRequest{
		TransferID: transfer.ID,
		TxID:       "0xhash",
	})
	require.Error(t, err)
	assert.Equal(t, "TRANSFER_TERMINAL", domainerrors.GetErrorCode(err))
}

func TestUpdateTxIDScopedToOwner(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusPending)

	_, err := f.svc.UpdateTxID(context.Background(), uuid.New(), false, &entities.UpdateTxIDRequest{
		TransferID: transfer.ID,
		TxID:       "0xhash",
	})
	assert.True(t, domainerrors.IsNotFound(err))

	// Admin may set it on any transfer
	_, err = f.svc.UpdateTxID(context.Background(), uuid.New(), true, &entities.UpdateTxIDRequest{
		TransferID: transfer.ID,
		TxID:       "0xhash",
	})
	assert.NoError(t, err)
}

func TestCancelDeposit(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusPending)
	note := "user request"

	canceled, err := f.svc.CancelDeposit(context.Background(), &entities.CancelTransferRequest{
		TransferID: transfer.ID,
		Note:       &note,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.TransferStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.Note)
	assert.Equal(t, "user request", *canceled.Note)
}

func TestCancelRejectsTerminal(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusCompleted)

	_, err := f.svc.CancelDeposit(context.Background(), &entities.CancelTransferRequest{TransferID: transfer.ID})
	require.Error(t, err)
	assert.Equal(t, "TRANSFER_TERMINAL", domainerrors.GetErrorCode(err))
}

func TestCancelRejectsTypeMismatch(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeWithdrawal, entities.TransferStatusPending)

	_, err := f.svc.CancelDeposit(context.Background(), &entities.CancelTransferRequest{TransferID: transfer.ID})
	assert.True(t, domainerrors.IsInvalidInput(err))
}

func TestConfirmDepositSettlesLedger(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusProcessed)
	txID := "0xhash"
	transfer.TxID = &txID

	confirmed, err := f.svc.ConfirmDeposit(context.Background(), &entities.ConfirmTransferRequest{TransferID: transfer.ID})
	require.NoError(t, err)

	assert.Equal(t, entities.TransferStatusCompleted, confirmed.Status)
	require.NotNil(t, confirmed.TransactionID)
	require.Len(t, f.statements.credited, 1)
	assert.Equal(t, int64(50000), f.statements.credited[0].Amount)
	assert.Equal(t, transfer.UserID, f.statements.credited[0].UserID)
}

func TestConfirmDepositRequiresTxID(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusProcessed)

	_, err := f.svc.ConfirmDeposit(context.Background(), &entities.ConfirmTransferRequest{TransferID: transfer.ID})
	require.Error(t, err)
	assert.Empty(t, f.statements.credited)
}

func TestConfirmWithdrawalDebitsLedger(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeWithdrawal, entities.TransferStatusProcessed)

	confirmed, err := f.svc.ConfirmWithdrawal(context.Background(), &entities.ConfirmTransferRequest{TransferID: transfer.ID})
	require.NoError(t, err)

	assert.Equal(t, entities.TransferStatusCompleted, confirmed.Status)
	require.Len(t, f.statements.credited, 1)
	assert.Equal(t, int64(-50000), f.statements.credited[0].Amount)
}

func TestConfirmRejectsPending(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusPending)
	txID := "0xhash"
	transfer.TxID = &txID

	_, err := f.svc.ConfirmDeposit(context.Background(), &entities.ConfirmTransferRequest{TransferID: transfer.ID})
	require.Error(t, err)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", domainerrors.GetErrorCode(err))
}

func TestProcessMarksProcessed(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeWithdrawal, entities.TransferStatusPending)

	processed, err := f.svc.Process(context.Background(), &entities.ProcessTransferRequest{
		TransferID: transfer.ID,
		UserID:     transfer.UserID,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusProcessed, processed.Status)
}

func TestProcessDepositRequiresTxID(t *testing.T) {
	f := newFixture(t)
	transfer := seedTransfer(f, entities.TransferTypeDeposit, entities.TransferStatusPending)

	_, err := f.svc.Process(context.Background(), &entities.ProcessTransferRequest{
		TransferID: transfer.ID,
		UserID:     transfer.UserID,
	})
	require.Error(t, err)
	assert.Equal(t, entities.TransferStatusPending, f.repo.transfers[transfer.ID].Status)
}
