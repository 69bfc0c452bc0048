// Package transferscan runs the automated deposit discovery pipeline: a cron
// scheduler selects stale transfers, fans them out to per-chain redis queues,
// and rate-limited consumers reconcile each transfer against its blockchain
// explorer.
package transferscan

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/cache"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/metrics"
)

const (
	queueKeyPrefix = "queues:transfer_scan:"
	popTimeout     = 5 * time.Second
)

// ScanJob is one unit of work on a chain queue
type ScanJob struct {
	TransferID uuid.UUID `json:"transferId"`
	Attempt    int       `json:"attempt"`
}

// JobHandler reconciles a single scan job. Errors are logged and the job is
// dropped; retry happens when the scheduler re-selects the transfer.
type JobHandler func(ctx context.Context, job ScanJob) error

// Queue is a redis-list backed work queue for one chain. A single consumer
// drains it at most one job per second to stay under explorer rate limits.
type Queue struct {
	cache     cache.RedisClient
	tokenType entities.TokenType
	key       string
	limiter   *rate.Limiter
	logger    *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewQueue creates a scan queue for the given chain
func NewQueue(tokenType entities.TokenType, redisClient cache.RedisClient, log *logger.Logger) *Queue {
	return &Queue{
		cache:     redisClient,
		tokenType: tokenType,
		key:       queueKeyPrefix + string(tokenType),
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		logger:    log,
		stopCh:    make(chan struct{}),
	}
}

// TokenType reports which chain the queue serves
func (q *Queue) TokenType() entities.TokenType {
	return q.tokenType
}

// Enqueue appends a job to the tail of the queue
func (q *Queue) Enqueue(ctx context.Context, job ScanJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.cache.RPush(ctx, q.key, payload); err != nil {
		return err
	}
	return nil
}

// Depth returns the number of pending jobs
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.cache.LLen(ctx, q.key)
}

// Start launches the consumer goroutine. Jobs are processed strictly one at a
// time; a failed job is logged and dropped, never requeued.
func (q *Queue) Start(ctx context.Context, handler JobHandler) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.logger.Info("Scan queue consumer started", "chain", q.tokenType)

		for {
			select {
			case <-q.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}

			if err := q.limiter.Wait(ctx); err != nil {
				return
			}

			payload, err := q.cache.BLPop(ctx, popTimeout, q.key)
			if err != nil {
				if err == redis.Nil || ctx.Err() != nil {
					continue
				}
				q.logger.Error("Failed to pop scan job",
					"chain", q.tokenType,
					"error", err)
				continue
			}

			var job ScanJob
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				q.logger.Error("Failed to decode scan job",
					"chain", q.tokenType,
					"payload", payload,
					"error", err)
				metrics.ScanJobsTotal.WithLabelValues(string(q.tokenType), "invalid").Inc()
				continue
			}

			if err := handler(ctx, job); err != nil {
				q.logger.Error("Scan job failed",
					"chain", q.tokenType,
					"transfer_id", job.TransferID,
					"attempt", job.Attempt,
					"error", err)
				metrics.ScanJobsTotal.WithLabelValues(string(q.tokenType), "error").Inc()
			}

			if depth, err := q.Depth(ctx); err == nil {
				metrics.ScanQueueDepth.WithLabelValues(string(q.tokenType)).Set(float64(depth))
			}
		}
	}()
}

// Stop signals the consumer to exit and waits for it
func (q *Queue) Stop() {
	close(q.stopCh)
	q.wg.Wait()
	q.logger.Info("Scan queue consumer stopped", "chain", q.tokenType)
}
