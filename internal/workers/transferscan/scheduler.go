package transferscan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/metrics"
)

const (
	// scanBandMinutes is the width of one scan delay band. A transfer with n
	// prior attempts is re-scanned once it has been untouched for (n+1) bands.
	scanBandMinutes = 5

	// attemptCeiling is the hard upper bound on scan attempts. Transfers at
	// the ceiling are never selected again and wait for operator action or
	// the expiry sweep.
	attemptCeiling = 5

	jobTimeout = 2 * time.Minute
)

// ProcessableSource selects transfers for the scheduler jobs and records
// scan attempts against them
type ProcessableSource interface {
	SelectProcessable(ctx context.Context, now time.Time, maxAttempts, bandMinutes, limit int) ([]*entities.ProcessableTransfer, error)
	RegisterScanAttempt(ctx context.Context, transferID uuid.UUID) (int, error)
	CancelExpiredDeposits(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// AttemptCounter retires transfers the pipeline cannot process
type AttemptCounter interface {
	ForceAttempts(ctx context.Context, transferID uuid.UUID, attempts int) error
}

// RateSweeper removes expired fixed rates
type RateSweeper interface {
	DeleteExpired(ctx context.Context)
}

// Scheduler drives the periodic pipeline jobs: expiring stale deposits,
// fanning eligible transfers out to the chain queues, and sweeping expired
// rates. An empty cron expression disables the corresponding job.
type Scheduler struct {
	transfers ProcessableSource
	attempts  AttemptCounter
	rates     RateSweeper
	queues    map[entities.TokenType]*Queue
	cfg       config.TransfersConfig
	logger    *logger.Logger
	cron      *cron.Cron
}

// NewScheduler creates the pipeline scheduler
func NewScheduler(
	transfers ProcessableSource,
	attempts AttemptCounter,
	rates RateSweeper,
	queues []*Queue,
	cfg config.TransfersConfig,
	log *logger.Logger,
) *Scheduler {
	byType := make(map[entities.TokenType]*Queue, len(queues))
	for _, q := range queues {
		byType[q.TokenType()] = q
	}
	return &Scheduler{
		transfers: transfers,
		attempts:  attempts,
		rates:     rates,
		queues:    byType,
		cfg:       cfg,
		logger:    log,
		cron:      cron.New(),
	}
}

// Start registers the configured jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if expr := s.cfg.ExpirySweepCron; expr != "" {
		if _, err := s.cron.AddFunc(expr, s.cancelExpiredTransfers); err != nil {
			return err
		}
	}
	if expr := s.cfg.ProcessingScanCron; expr != "" {
		if _, err := s.cron.AddFunc(expr, s.depositTransfersProcessing); err != nil {
			return err
		}
	}
	if expr := s.cfg.RateSweepCron; expr != "" {
		if _, err := s.cron.AddFunc(expr, s.sweepExpiredRates); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("Transfer scheduler started",
		"expiry_sweep", s.cfg.ExpirySweepCron,
		"processing_scan", s.cfg.ProcessingScanCron,
		"rate_sweep", s.cfg.RateSweepCron)
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Transfer scheduler stopped")
}

// cancelExpiredTransfers bulk-cancels pending deposits whose lifespan elapsed
// with no discovered transaction
func (s *Scheduler) cancelExpiredTransfers() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ids, err := s.transfers.CancelExpiredDeposits(ctx, time.Now())
	if err != nil {
		s.logger.Error("Expiry sweep failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	metrics.TransfersCanceledTotal.Add(float64(len(ids)))
	s.logger.Info("Expired deposits canceled", "count", len(ids))
}

// depositTransfersProcessing selects stale deposits, registers a scan attempt
// on each and fans them out to the chain queues. Registering happens before
// enqueueing so a crash between the two steps costs one attempt instead of
// producing a duplicate job; it also moves pending deposits to processed and
// refreshes updated_at, which restarts the band clock so attempt n waits
// (n+1) bands after attempt n-1 rather than after creation.
func (s *Scheduler) depositTransfersProcessing() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	candidates, err := s.transfers.SelectProcessable(ctx, time.Now(), s.cfg.MaxAttemptsLimit, scanBandMinutes, s.cfg.ScanBatchSize)
	if err != nil {
		s.logger.Error("Processable transfer selection failed", "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	enqueued := 0
	for _, candidate := range candidates {
		queue, ok := s.queues[candidate.TokenType]
		if !ok {
			// No pipeline can ever process this transfer; retire it so it is
			// not re-selected every run
			s.logger.Error("Transfer has unrecognized token type",
				"transfer_id", candidate.ID,
				"token_type", candidate.TokenType)
			if err := s.attempts.ForceAttempts(ctx, candidate.ID, attemptCeiling); err != nil {
				s.logger.Error("Failed to retire transfer",
					"transfer_id", candidate.ID,
					"error", err)
			}
			continue
		}

		attempt, err := s.transfers.RegisterScanAttempt(ctx, candidate.ID)
		if err != nil {
			s.logger.Error("Failed to register scan attempt",
				"transfer_id", candidate.ID,
				"error", err)
			continue
		}

		job := ScanJob{TransferID: candidate.ID, Attempt: attempt}
		if err := queue.Enqueue(ctx, job); err != nil {
			s.logger.Error("Failed to enqueue scan job",
				"transfer_id", candidate.ID,
				"chain", candidate.TokenType,
				"error", err)
			continue
		}
		enqueued++
	}

	s.logger.Info("Deposit scan batch enqueued",
		"selected", len(candidates),
		"enqueued", enqueued)
}

// sweepExpiredRates removes fixed rates past their lifespan
func (s *Scheduler) sweepExpiredRates() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.rates.DeleteExpired(ctx)
}
