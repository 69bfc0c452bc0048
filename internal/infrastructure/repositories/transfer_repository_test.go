package repositories

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
)

// setupDB connects to the database named by TEST_DATABASE_URL and applies
// migrations, or skips the test when the variable is unset. Tests seed their
// own rows and assert by id, so a shared database is fine.
func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Environment variable TEST_DATABASE_URL is required for repository tests")
	}

	_, file, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
	m, err := migrate.New("file://"+migrationsDir, url)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	m.Close()

	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedNetwork(t *testing.T, db *sqlx.DB, tokenType entities.TokenType) uuid.UUID {
	t.Helper()

	currencyID := uuid.New()
	_, err := db.Exec(
		`INSERT INTO currencies (id, symbol, name, max_decimal_places) VALUES ($1, $2, $3, 8)`,
		currencyID, "TST-"+currencyID.String()[:8], "Test Coin")
	require.NoError(t, err)

	networkID := uuid.New()
	_, err = db.Exec(
		`INSERT INTO networks (id, currency_id, name, token_type, deposit_address) VALUES ($1, $2, $3, $4, $5)`,
		networkID, currencyID, "Test Network", tokenType, "0xPlatformDeposit")
	require.NoError(t, err)

	return networkID
}

// seedDeposit creates a pending deposit whose updated_at is backdated by age
func seedDeposit(t *testing.T, repo *TransferRepository, networkID uuid.UUID, age time.Duration) *entities.Transfer {
	t.Helper()

	now := time.Now()
	transfer := &entities.Transfer{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Type:           entities.TransferTypeDeposit,
		Status:         entities.TransferStatusPending,
		NetworkID:      networkID,
		Amount:         50000,
		CurrencyAmount: decimal.RequireFromString("2"),
		CreatedAt:      now.Add(-age),
		UpdatedAt:      now.Add(-age),
	}
	require.NoError(t, repo.Create(context.Background(), transfer))
	return transfer
}

func setAttempts(t *testing.T, db *sqlx.DB, transferID uuid.UUID, attempts int) {
	t.Helper()
	_, err := db.Exec(`UPDATE transfer_info SET attempts = $2 WHERE transfer_id = $1`, transferID, attempts)
	require.NoError(t, err)
}

func selectedIDs(t *testing.T, repo *TransferRepository, now time.Time) map[uuid.UUID]int {
	t.Helper()
	selected, err := repo.SelectProcessable(context.Background(), now, 5, 5, 1000)
	require.NoError(t, err)
	ids := make(map[uuid.UUID]int, len(selected))
	for _, transfer := range selected {
		ids[transfer.ID] = transfer.Attempts
	}
	return ids
}

func TestSelectProcessableEscalatingBands(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepository(db)
	networkID := seedNetwork(t, db, entities.TokenTypeBep20)
	now := time.Now()

	// Band 0 opens 5 minutes after the last write
	fresh := seedDeposit(t, repo, networkID, 4*time.Minute)
	due := seedDeposit(t, repo, networkID, 6*time.Minute)

	// Band 1 opens after 10 minutes, so 6 minutes of staleness is not enough
	onceTried := seedDeposit(t, repo, networkID, 6*time.Minute)
	setAttempts(t, db, onceTried.ID, 1)
	onceTriedDue := seedDeposit(t, repo, networkID, 11*time.Minute)
	setAttempts(t, db, onceTriedDue.ID, 1)

	// The fifth band is the last; a transfer at the ceiling is never selected
	lastBand := seedDeposit(t, repo, networkID, 26*time.Minute)
	setAttempts(t, db, lastBand.ID, 4)
	retired := seedDeposit(t, repo, networkID, 24*time.Hour)
	setAttempts(t, db, retired.ID, 5)

	ids := selectedIDs(t, repo, now)
	assert.NotContains(t, ids, fresh.ID)
	assert.Contains(t, ids, due.ID)
	assert.NotContains(t, ids, onceTried.ID)
	assert.Contains(t, ids, onceTriedDue.ID)
	assert.Contains(t, ids, lastBand.ID)
	assert.NotContains(t, ids, retired.ID)

	assert.Equal(t, 0, ids[due.ID])
	assert.Equal(t, 1, ids[onceTriedDue.ID])
}

func TestSelectProcessableExcludesByAttemptLimit(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepository(db)
	networkID := seedNetwork(t, db, entities.TokenTypeBep20)

	transfer := seedDeposit(t, repo, networkID, time.Hour)
	setAttempts(t, db, transfer.ID, 2)

	selected, err := repo.SelectProcessable(context.Background(), time.Now(), 2, 5, 1000)
	require.NoError(t, err)
	for _, got := range selected {
		assert.NotEqual(t, transfer.ID, got.ID)
	}
}

func TestSelectProcessableExcludesSettledAndTerminal(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepository(db)
	statements := NewAccountStatementRepository(db)
	networkID := seedNetwork(t, db, entities.TokenTypeBep20)

	settled := seedDeposit(t, repo, networkID, time.Hour)
	statement, err := statements.Credit(context.Background(), settled.UserID, settled.ID, settled.Amount)
	require.NoError(t, err)
	require.NoError(t, repo.LinkTransaction(context.Background(), settled.ID, statement.ID))

	canceled := seedDeposit(t, repo, networkID, time.Hour)
	require.NoError(t, repo.UpdateStatus(context.Background(), canceled.ID, entities.TransferStatusCanceled))

	ids := selectedIDs(t, repo, time.Now())
	assert.NotContains(t, ids, settled.ID)
	assert.NotContains(t, ids, canceled.ID)
}

func TestRegisterScanAttemptRestartsBandClock(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepository(db)
	info := NewTransferInfoRepository(db)
	networkID := seedNetwork(t, db, entities.TokenTypeBep20)
	now := time.Now()

	transfer := seedDeposit(t, repo, networkID, 6*time.Minute)
	require.Contains(t, selectedIDs(t, repo, now), transfer.ID)

	attempts, err := repo.RegisterScanAttempt(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	// The attempt moves the deposit out of pending and refreshes updated_at,
	// so selection waits a full second band from this write, not from creation
	got, err := repo.GetByID(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusProcessed, got.Status)
	assert.WithinDuration(t, now, got.UpdatedAt, 10*time.Second)

	counter, err := info.GetByTransferID(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.Attempts)

	assert.NotContains(t, selectedIDs(t, repo, now), transfer.ID)

	attempts, err = repo.RegisterScanAttempt(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	got, err = repo.GetByID(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusProcessed, got.Status)
}

func TestCancelExpiredDepositsScope(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepository(db)
	networkID := seedNetwork(t, db, entities.TokenTypeBep20)
	now := time.Now()
	expiry := now.Add(-time.Hour)

	expired := seedDeposit(t, repo, networkID, 2*time.Hour)
	_, err := db.Exec(`UPDATE transfers SET ended_at = $2 WHERE id = $1`, expired.ID, expiry)
	require.NoError(t, err)

	// A deposit that has been scanned is processed and out of the sweep's reach
	scanned := seedDeposit(t, repo, networkID, 2*time.Hour)
	_, err = db.Exec(`UPDATE transfers SET ended_at = $2 WHERE id = $1`, scanned.ID, expiry)
	require.NoError(t, err)
	_, err = repo.RegisterScanAttempt(context.Background(), scanned.ID)
	require.NoError(t, err)

	// A known hash also shields a deposit from the sweep
	withHash := seedDeposit(t, repo, networkID, 2*time.Hour)
	_, err = db.Exec(`UPDATE transfers SET ended_at = $2 WHERE id = $1`, withHash.ID, expiry)
	require.NoError(t, err)
	ok, err := repo.SetTxID(context.Background(), withHash.ID, "0xhash-"+withHash.ID.String())
	require.NoError(t, err)
	require.True(t, ok)

	unexpired := seedDeposit(t, repo, networkID, time.Minute)
	_, err = db.Exec(`UPDATE transfers SET ended_at = $2 WHERE id = $1`, unexpired.ID, now.Add(time.Hour))
	require.NoError(t, err)

	canceledIDs, err := repo.CancelExpiredDeposits(context.Background(), now)
	require.NoError(t, err)
	assert.Contains(t, canceledIDs, expired.ID)
	assert.NotContains(t, canceledIDs, scanned.ID)
	assert.NotContains(t, canceledIDs, withHash.ID)
	assert.NotContains(t, canceledIDs, unexpired.ID)

	got, err := repo.GetByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusCanceled, got.Status)

	got, err = repo.GetByID(context.Background(), scanned.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusProcessed, got.Status)
}
