// Package transfers orchestrates deposit and withdrawal lifecycles: pricing
// against fixed rates, creation with per-currency validation, one-time
// withdrawal codes, admin confirmation and cancellation, and settlement into
// the internal ledger.
package transfers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	domainerrors "github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/errors"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// TransferRepository persists transfers
type TransferRepository interface {
	Create(ctx context.Context, transfer *entities.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Transfer, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Transfer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.TransferStatus) error
	Cancel(ctx context.Context, id uuid.UUID, note *string) error
	SetNote(ctx context.Context, id uuid.UUID, note string) error
	SetTxID(ctx context.Context, id uuid.UUID, txID string) (bool, error)
	LinkTransaction(ctx context.Context, id, transactionID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*entities.PagedTransfers, error)
	ListAll(ctx context.Context, status *entities.TransferStatus, limit, offset int) (*entities.PagedTransfers, error)
}

// RateValidator loads a fixed rate and fails when it expired
type RateValidator interface {
	Validate(ctx context.Context, id uuid.UUID) (*entities.FixedCurrencyRate, error)
}

// NetworkRegistry resolves networks
type NetworkRegistry interface {
	FindOneOrFail(ctx context.Context, id uuid.UUID) (*entities.Network, error)
}

// CurrencyRegistry resolves currencies
type CurrencyRegistry interface {
	FindOneOrFail(ctx context.Context, id uuid.UUID) (*entities.Currency, error)
}

// Codes issues and verifies one-time withdrawal codes
type Codes interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Verify(ctx context.Context, userID uuid.UUID, code string) error
}

// Notifier delivers transfer-related notifications
type Notifier interface {
	TransferCode(ctx context.Context, toEmail, code string) error
}

// AccountStatements settles confirmed transfers into the internal ledger
type AccountStatements interface {
	Credit(ctx context.Context, userID, transferID uuid.UUID, amount int64) (*entities.AccountStatement, error)
}

// Config holds transfer service settings
type Config struct {
	LifespanDays int
}

// Service orchestrates transfer operations
type Service struct {
	transfers  TransferRepository
	rates      RateValidator
	networks   NetworkRegistry
	currencies CurrencyRegistry
	codes      Codes
	notifier   Notifier
	statements AccountStatements
	lifespan   time.Duration
	logger     *logger.Logger
}

// NewService creates a transfer service
func NewService(
	transfers TransferRepository,
	rates RateValidator,
	networks NetworkRegistry,
	currencies CurrencyRegistry,
	codes Codes,
	notifier Notifier,
	statements AccountStatements,
	cfg Config,
	log *logger.Logger,
) *Service {
	return &Service{
		transfers:  transfers,
		rates:      rates,
		networks:   networks,
		currencies: currencies,
		codes:      codes,
		notifier:   notifier,
		statements: statements,
		lifespan:   time.Duration(cfg.LifespanDays) * 24 * time.Hour,
		logger:     log,
	}
}

const centsPerDollar = 100

// CalculateAmount derives the missing side of a conversion from a fixed rate.
// Exactly one of amount and currencyAmount must be supplied; the rate is
// re-validated here because it may have expired since it was issued.
func (s *Service) CalculateAmount(ctx context.Context, req *entities.CalculateAmountRequest) (*entities.CalculateAmountResponse, error) {
	rate, currency, err := s.resolvePricing(ctx, req.FixedCurrencyRateID)
	if err != nil {
		return nil, err
	}

	amount, currencyAmount, err := convertAmounts(req.Amount, req.CurrencyAmount, rate.Rate, currency.MaxDecimalPlaces)
	if err != nil {
		return nil, err
	}

	return &entities.CalculateAmountResponse{
		Amount:         amount,
		CurrencyAmount: currencyAmount,
		Rate:           rate.Rate,
	}, nil
}

// CreateDeposit creates a pending deposit priced against a fixed rate.
// The sender address is required or stripped based on the currency flag, and
// the deposit expires after the configured lifespan unless on-chain activity
// is discovered.
func (s *Service) CreateDeposit(ctx context.Context, userID uuid.UUID, req *entities.CreateDepositRequest) (*entities.Transfer, error) {
	rate, currency, err := s.resolvePricing(ctx, req.FixedCurrencyRateID)
	if err != nil {
		return nil, err
	}

	amount, currencyAmount, err := convertAmounts(req.Amount, req.CurrencyAmount, rate.Rate, currency.MaxDecimalPlaces)
	if err != nil {
		return nil, err
	}

	fromAddress := req.FromAddress
	if currency.IsSenderAddressRequired {
		if fromAddress == nil || *fromAddress == "" {
			return nil, domainerrors.SenderAddressRequiredError(currency.Symbol)
		}
	} else {
		// Not used for matching on this currency, so never persisted
		fromAddress = nil
	}

	now := time.Now()
	endedAt := now.Add(s.lifespan)
	transfer := &entities.Transfer{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           entities.TransferTypeDeposit,
		Status:         entities.TransferStatusPending,
		NetworkID:      rate.NetworkID,
		Amount:         amount,
		CurrencyAmount: currencyAmount,
		FromAddress:    fromAddress,
		CreatedAt:      now,
		UpdatedAt:      now,
		EndedAt:        &endedAt,
	}

	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, err
	}

	s.logger.Info("Deposit created",
		"transfer_id", transfer.ID,
		"user_id", userID,
		"network_id", transfer.NetworkID,
		"amount", amount)

	return transfer, nil
}

// SendWithdrawalCode issues a one-time code and emails it to the user
func (s *Service) SendWithdrawalCode(ctx context.Context, userID uuid.UUID, email string) error {
	code, err := s.codes.Issue(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.notifier.TransferCode(ctx, email, code); err != nil {
		return domainerrors.Wrap(err, "failed to deliver withdrawal code")
	}

	s.logger.Info("Withdrawal code sent", "user_id", userID)
	return nil
}

// CreateWithdrawal creates a pending withdrawal after verifying the one-time
// code. Withdrawals are not scanned; proof arrives via UpdateTxID.
func (s *Service) CreateWithdrawal(ctx context.Context, userID uuid.UUID, req *entities.CreateWithdrawalRequest) (*entities.Transfer, error) {
	if err := s.codes.Verify(ctx, userID, req.Code); err != nil {
		return nil, err
	}

	rate, currency, err := s.resolvePricing(ctx, req.FixedCurrencyRateID)
	if err != nil {
		return nil, err
	}

	amount, currencyAmount, err := convertAmounts(req.Amount, req.CurrencyAmount, rate.Rate, currency.MaxDecimalPlaces)
	if err != nil {
		return nil, err
	}

	withdrawalAddress := req.WithdrawalAddress
	now := time.Now()
	transfer := &entities.Transfer{
		ID:                uuid.New(),
		UserID:            userID,
		Type:              entities.TransferTypeWithdrawal,
		Status:            entities.TransferStatusPending,
		NetworkID:         rate.NetworkID,
		Amount:            amount,
		CurrencyAmount:    currencyAmount,
		WithdrawalAddress: &withdrawalAddress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal created",
		"transfer_id", transfer.ID,
		"user_id", userID,
		"network_id", transfer.NetworkID,
		"amount", amount)

	return transfer, nil
}

// UpdateTxID records the blockchain hash on a transfer. The hash is
// single-assignment: a transfer has exactly one canonical transaction, so a
// second submission is rejected. Admins may set the hash on any transfer;
// users only on their own.
func (s *Service) UpdateTxID(ctx context.Context, userID uuid.UUID, isAdmin bool, req *entities.UpdateTxIDRequest) (*entities.Transfer, error) {
	transfer, err := s.load(ctx, req.TransferID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	if transfer.Status.IsTerminal() {
		return nil, domainerrors.TransferTerminalError(string(transfer.Status))
	}
	if transfer.TxID != nil {
		return nil, domainerrors.TxIDAlreadySetError()
	}

	ok, err := s.transfers.SetTxID(ctx, transfer.ID, req.TxID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against the scan worker
		return nil, domainerrors.TxIDAlreadySetError()
	}

	return s.transfers.GetByID(ctx, transfer.ID)
}

// CancelDeposit cancels a non-terminal deposit with an optional admin note
func (s *Service) CancelDeposit(ctx context.Context, req *entities.CancelTransferRequest) (*entities.Transfer, error) {
	return s.cancel(ctx, req, entities.TransferTypeDeposit)
}

// CancelWithdrawal cancels a non-terminal withdrawal with an optional admin note
func (s *Service) CancelWithdrawal(ctx context.Context, req *entities.CancelTransferRequest) (*entities.Transfer, error) {
	return s.cancel(ctx, req, entities.TransferTypeWithdrawal)
}

func (s *Service) cancel(ctx context.Context, req *entities.CancelTransferRequest, transferType entities.TransferType) (*entities.Transfer, error) {
	transfer, err := s.loadTyped(ctx, req.TransferID, transferType)
	if err != nil {
		return nil, err
	}

	if !transfer.Status.CanTransitionTo(entities.TransferStatusCanceled) {
		return nil, domainerrors.TransferTerminalError(string(transfer.Status))
	}

	if err := s.transfers.Cancel(ctx, transfer.ID, req.Note); err != nil {
		return nil, err
	}

	s.logger.Info("Transfer canceled",
		"transfer_id", transfer.ID,
		"type", transfer.Type,
		"previous_status", transfer.Status)

	return s.transfers.GetByID(ctx, transfer.ID)
}

// ConfirmDeposit completes a processed deposit and credits the user's ledger
func (s *Service) ConfirmDeposit(ctx context.Context, req *entities.ConfirmTransferRequest) (*entities.Transfer, error) {
	return s.confirm(ctx, req, entities.TransferTypeDeposit)
}

// ConfirmWithdrawal completes a processed withdrawal and debits the user's ledger
func (s *Service) ConfirmWithdrawal(ctx context.Context, req *entities.ConfirmTransferRequest) (*entities.Transfer, error) {
	return s.confirm(ctx, req, entities.TransferTypeWithdrawal)
}

func (s *Service) confirm(ctx context.Context, req *entities.ConfirmTransferRequest, transferType entities.TransferType) (*entities.Transfer, error) {
	transfer, err := s.loadTyped(ctx, req.TransferID, transferType)
	if err != nil {
		return nil, err
	}

	if err := s.ensureTransition(transfer, entities.TransferStatusCompleted); err != nil {
		return nil, err
	}
	if transfer.Type == entities.TransferTypeDeposit && transfer.TxID == nil {
		return nil, domainerrors.ValidationError("txId", "deposit has no discovered transaction hash")
	}

	amount := transfer.Amount
	if transfer.Type == entities.TransferTypeWithdrawal {
		amount = -amount
	}

	statement, err := s.statements.Credit(ctx, transfer.UserID, transfer.ID, amount)
	if err != nil {
		return nil, domainerrors.Wrap(err, "failed to settle transfer")
	}

	if err := s.transfers.LinkTransaction(ctx, transfer.ID, statement.ID); err != nil {
		return nil, err
	}
	if err := s.transfers.UpdateStatus(ctx, transfer.ID, entities.TransferStatusCompleted); err != nil {
		return nil, err
	}

	s.logger.Info("Transfer confirmed",
		"transfer_id", transfer.ID,
		"type", transfer.Type,
		"statement_id", statement.ID)

	return s.transfers.GetByID(ctx, transfer.ID)
}

// Process marks a transfer processed directly, bypassing automated scanning.
// Deposits still need a recorded transaction hash first.
func (s *Service) Process(ctx context.Context, req *entities.ProcessTransferRequest) (*entities.Transfer, error) {
	transfer, err := s.transfers.GetByIDForUser(ctx, req.TransferID, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureTransition(transfer, entities.TransferStatusProcessed); err != nil {
		return nil, err
	}
	if transfer.Type == entities.TransferTypeDeposit && transfer.TxID == nil {
		return nil, domainerrors.ValidationError("txId", "deposit has no discovered transaction hash")
	}

	if err := s.transfers.UpdateStatus(ctx, transfer.ID, entities.TransferStatusProcessed); err != nil {
		return nil, err
	}

	s.logger.Info("Transfer processed manually",
		"transfer_id", transfer.ID,
		"user_id", req.UserID)

	return s.transfers.GetByID(ctx, transfer.ID)
}

// Annotate sets an admin note on a transfer. Allowed in any status; the note
// is the one field still editable after a terminal transition.
func (s *Service) Annotate(ctx context.Context, transferID uuid.UUID, note string) (*entities.Transfer, error) {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if err := s.transfers.SetNote(ctx, transfer.ID, note); err != nil {
		return nil, err
	}

	return s.transfers.GetByID(ctx, transfer.ID)
}

// Get retrieves one transfer, scoped to the owner unless called by an admin
func (s *Service) Get(ctx context.Context, transferID, userID uuid.UUID, isAdmin bool) (*entities.Transfer, error) {
	return s.load(ctx, transferID, userID, isAdmin)
}

// ListForUser retrieves the user's transfers with pagination
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) (*entities.PagedTransfers, error) {
	return s.transfers.ListByUser(ctx, userID, limit, offset)
}

// ListAdmin retrieves all transfers with pagination and optional status filter
func (s *Service) ListAdmin(ctx context.Context, status *entities.TransferStatus, limit, offset int) (*entities.PagedTransfers, error) {
	return s.transfers.ListAll(ctx, status, limit, offset)
}

func (s *Service) load(ctx context.Context, transferID, userID uuid.UUID, isAdmin bool) (*entities.Transfer, error) {
	if isAdmin {
		return s.transfers.GetByID(ctx, transferID)
	}
	return s.transfers.GetByIDForUser(ctx, transferID, userID)
}

func (s *Service) loadTyped(ctx context.Context, transferID uuid.UUID, transferType entities.TransferType) (*entities.Transfer, error) {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer.Type != transferType {
		return nil, domainerrors.ValidationError("transferId", "transfer type mismatch")
	}
	return transfer, nil
}

func (s *Service) ensureTransition(transfer *entities.Transfer, to entities.TransferStatus) error {
	if transfer.Status.IsTerminal() {
		return domainerrors.TransferTerminalError(string(transfer.Status))
	}
	if !transfer.Status.CanTransitionTo(to) {
		return domainerrors.InvalidTransitionError(string(transfer.Status), string(to))
	}
	return nil
}

func (s *Service) resolvePricing(ctx context.Context, rateID uuid.UUID) (*entities.FixedCurrencyRate, *entities.Currency, error) {
	rate, err := s.rates.Validate(ctx, rateID)
	if err != nil {
		return nil, nil, err
	}

	network, err := s.networks.FindOneOrFail(ctx, rate.NetworkID)
	if err != nil {
		return nil, nil, err
	}

	currency, err := s.currencies.FindOneOrFail(ctx, network.CurrencyID)
	if err != nil {
		return nil, nil, err
	}

	return rate, currency, nil
}

// convertAmounts derives the missing side of the USD-cents / network-currency
// pair. currencyAmount = amount / rate rounded to the currency's maximum
// decimal places; the reverse direction rounds to whole cents.
func convertAmounts(amount *int64, currencyAmount *decimal.Decimal, rate decimal.Decimal, maxDecimals int32) (int64, decimal.Decimal, error) {
	hasAmount := amount != nil
	hasCurrencyAmount := currencyAmount != nil
	if hasAmount == hasCurrencyAmount {
		return 0, decimal.Zero, domainerrors.AmountAmbiguousError()
	}

	if hasAmount {
		if *amount <= 0 {
			return 0, decimal.Zero, domainerrors.ValidationError("amount", "amount must be positive")
		}
		usd := decimal.New(*amount, -2)
		converted := usd.DivRound(rate, maxDecimals)
		return *amount, converted, nil
	}

	if !currencyAmount.IsPositive() {
		return 0, decimal.Zero, domainerrors.ValidationError("currencyAmount", "currencyAmount must be positive")
	}
	cents := currencyAmount.Mul(rate).Mul(decimal.NewFromInt(centsPerDollar)).Round(0).IntPart()
	if cents <= 0 {
		return 0, decimal.Zero, domainerrors.ValidationError("currencyAmount", "currencyAmount is below the minimum transferable value")
	}
	return cents, currencyAmount.Round(maxDecimals), nil
}
