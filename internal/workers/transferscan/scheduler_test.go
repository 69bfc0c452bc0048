package transferscan

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// listRedis records RPush payloads per key; the other methods are stubs
type listRedis struct {
	lists map[string][]string
}

func newListRedis() *listRedis {
	return &listRedis{lists: make(map[string][]string)}
}

func (f *listRedis) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}

func (f *listRedis) SetNX(_ context.Context, _ string, _ interface{}, _ time.Duration) (bool, error) {
	return true, nil
}

func (f *listRedis) Get(_ context.Context, _ string, _ interface{}) error { return redis.Nil }

func (f *listRedis) GetString(_ context.Context, _ string) (string, error) { return "", redis.Nil }

func (f *listRedis) Del(_ context.Context, _ string) error { return nil }

func (f *listRedis) Exists(_ context.Context, _ string) (bool, error) { return false, nil }

func (f *listRedis) RPush(_ context.Context, key string, values ...interface{}) error {
	for _, value := range values {
		f.lists[key] = append(f.lists[key], string(value.([]byte)))
	}
	return nil
}

func (f *listRedis) BLPop(_ context.Context, _ time.Duration, key string) (string, error) {
	if len(f.lists[key]) == 0 {
		return "", redis.Nil
	}
	head := f.lists[key][0]
	f.lists[key] = f.lists[key][1:]
	return head, nil
}

func (f *listRedis) LLen(_ context.Context, key string) (int64, error) {
	return int64(len(f.lists[key])), nil
}

func (f *listRedis) Ping(_ context.Context) error { return nil }

func (f *listRedis) Close() error { return nil }

func (f *listRedis) Client() *redis.Client { return nil }

type fakeSource struct {
	candidates []*entities.ProcessableTransfer
	expired    []uuid.UUID
	attempts   map[uuid.UUID]int
	statuses   map[uuid.UUID]entities.TransferStatus
}

func newFakeSource(candidates ...*entities.ProcessableTransfer) *fakeSource {
	f := &fakeSource{
		candidates: candidates,
		attempts:   make(map[uuid.UUID]int),
		statuses:   make(map[uuid.UUID]entities.TransferStatus),
	}
	for _, candidate := range candidates {
		f.attempts[candidate.ID] = candidate.Attempts
		f.statuses[candidate.ID] = candidate.Status
	}
	return f
}

func (f *fakeSource) SelectProcessable(_ context.Context, _ time.Time, _, _, _ int) ([]*entities.ProcessableTransfer, error) {
	return f.candidates, nil
}

func (f *fakeSource) RegisterScanAttempt(_ context.Context, transferID uuid.UUID) (int, error) {
	f.attempts[transferID]++
	if f.statuses[transferID] == entities.TransferStatusPending {
		f.statuses[transferID] = entities.TransferStatusProcessed
	}
	return f.attempts[transferID], nil
}

func (f *fakeSource) CancelExpiredDeposits(_ context.Context, _ time.Time) ([]uuid.UUID, error) {
	return f.expired, nil
}

type fakeAttempts struct {
	forced map[uuid.UUID]int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{forced: make(map[uuid.UUID]int)}
}

func (f *fakeAttempts) ForceAttempts(_ context.Context, transferID uuid.UUID, attempts int) error {
	f.forced[transferID] = attempts
	return nil
}

type fakeSweeper struct {
	swept int
}

func (f *fakeSweeper) DeleteExpired(_ context.Context) { f.swept++ }

func candidate(tokenType entities.TokenType, attempts int) *entities.ProcessableTransfer {
	return &entities.ProcessableTransfer{
		Transfer: entities.Transfer{
			ID:     uuid.New(),
			Type:   entities.TransferTypeDeposit,
			Status: entities.TransferStatusPending,
		},
		Attempts:  attempts,
		TokenType: tokenType,
	}
}

func newTestScheduler(source *fakeSource, attempts *fakeAttempts, cache *listRedis) *Scheduler {
	log := logger.New("error", "test")
	queues := []*Queue{
		NewQueue(entities.TokenTypeBep20, cache, log),
		NewQueue(entities.TokenTypeBitcoin, cache, log),
	}
	cfg := config.TransfersConfig{MaxAttemptsLimit: 5, ScanBatchSize: 100}
	return NewScheduler(source, attempts, &fakeSweeper{}, queues, cfg, log)
}

func TestProcessingRunFansOutToChainQueues(t *testing.T) {
	bep := candidate(entities.TokenTypeBep20, 0)
	btc := candidate(entities.TokenTypeBitcoin, 2)
	source := newFakeSource(bep, btc)
	attempts := newFakeAttempts()
	cache := newListRedis()

	newTestScheduler(source, attempts, cache).depositTransfersProcessing()

	require.Len(t, cache.lists["queues:transfer_scan:bep20"], 1)
	require.Len(t, cache.lists["queues:transfer_scan:bitcoin"], 1)

	var job ScanJob
	require.NoError(t, json.Unmarshal([]byte(cache.lists["queues:transfer_scan:bep20"][0]), &job))
	assert.Equal(t, bep.ID, job.TransferID)
	// The attempt is registered before the job is enqueued
	assert.Equal(t, 1, job.Attempt)
	assert.Equal(t, 1, source.attempts[bep.ID])
	assert.Equal(t, 3, source.attempts[btc.ID])
}

func TestProcessingRunMarksPendingProcessed(t *testing.T) {
	pending := candidate(entities.TokenTypeBep20, 0)
	processed := candidate(entities.TokenTypeBitcoin, 1)
	processed.Status = entities.TransferStatusProcessed
	source := newFakeSource(pending, processed)

	newTestScheduler(source, newFakeAttempts(), newListRedis()).depositTransfersProcessing()

	// Every selected deposit leaves pending on its first scan attempt; the
	// band clock for the next attempt restarts from that write
	assert.Equal(t, entities.TransferStatusProcessed, source.statuses[pending.ID])
	assert.Equal(t, entities.TransferStatusProcessed, source.statuses[processed.ID])
}

func TestProcessingRunRetiresUnknownTokenType(t *testing.T) {
	orphan := candidate(entities.TokenType("solana"), 1)
	source := newFakeSource(orphan)
	attempts := newFakeAttempts()
	cache := newListRedis()

	newTestScheduler(source, attempts, cache).depositTransfersProcessing()

	assert.Empty(t, cache.lists)
	assert.Equal(t, 1, source.attempts[orphan.ID])
	assert.Equal(t, entities.TransferStatusPending, source.statuses[orphan.ID])
	assert.Equal(t, 5, attempts.forced[orphan.ID])
}

func TestProcessingRunEmptyBatch(t *testing.T) {
	attempts := newFakeAttempts()
	cache := newListRedis()

	newTestScheduler(newFakeSource(), attempts, cache).depositTransfersProcessing()

	assert.Empty(t, cache.lists)
	assert.Empty(t, attempts.forced)
}

func TestExpirySweep(t *testing.T) {
	source := newFakeSource()
	source.expired = []uuid.UUID{uuid.New(), uuid.New()}
	scheduler := newTestScheduler(source, newFakeAttempts(), newListRedis())

	// Must not panic and must tolerate repeated runs
	scheduler.cancelExpiredTransfers()
	scheduler.cancelExpiredTransfers()
}

func TestQueueRoundTrip(t *testing.T) {
	cache := newListRedis()
	queue := NewQueue(entities.TokenTypeErc20, cache, logger.New("error", "test"))

	job := ScanJob{TransferID: uuid.New(), Attempt: 3}
	require.NoError(t, queue.Enqueue(context.Background(), job))

	depth, err := queue.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	payload, err := cache.BLPop(context.Background(), time.Second, "queues:transfer_scan:erc20")
	require.NoError(t, err)

	var decoded ScanJob
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, job, decoded)
}
