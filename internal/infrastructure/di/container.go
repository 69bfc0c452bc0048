// Package di wires repositories, services, adapters and workers together.
package di

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/adapters/email"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/adapters/explorer"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/entities"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/services/rates"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/domain/services/transfers"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/cache"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/repositories"
	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/workers/transferscan"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// Container holds the application dependency graph
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *sqlx.DB
	Redis  cache.RedisClient

	// Repositories
	TransferRepo     *repositories.TransferRepository
	TransferInfoRepo *repositories.TransferInfoRepository
	RateRepo         *repositories.RateRepository
	NetworkRepo      *repositories.NetworkRepository
	CurrencyRepo     *repositories.CurrencyRepository
	StatementRepo    *repositories.AccountStatementRepository
	PriceRepo        *repositories.PriceRepository

	// Services
	RateService     *rates.Service
	TransferService *transfers.Service

	// Pipeline
	Queues    []*transferscan.Queue
	Scanners  map[entities.TokenType]*transferscan.Scanner
	Scheduler *transferscan.Scheduler
}

// NewContainer builds the dependency graph
func NewContainer(cfg *config.Config, log *logger.Logger, db *sqlx.DB, redisClient cache.RedisClient) *Container {
	c := &Container{
		Config: cfg,
		Logger: log,
		DB:     db,
		Redis:  redisClient,
	}

	c.TransferRepo = repositories.NewTransferRepository(db)
	c.TransferInfoRepo = repositories.NewTransferInfoRepository(db)
	c.RateRepo = repositories.NewRateRepository(db)
	c.NetworkRepo = repositories.NewNetworkRepository(db)
	c.CurrencyRepo = repositories.NewCurrencyRepository(db)
	c.StatementRepo = repositories.NewAccountStatementRepository(db)
	c.PriceRepo = repositories.NewPriceRepository(db)

	c.RateService = rates.NewService(
		c.RateRepo,
		c.NetworkRepo,
		c.PriceRepo,
		cfg.Transfers.RateLifespanSeconds,
		log,
	)

	codeStore := transfers.NewCodeStore(
		redisClient,
		cfg.Transfers.CodeLength,
		cfg.Transfers.CodeTTLMinutes,
		cfg.Transfers.CodeCooldownSeconds,
	)
	emailSender := email.NewSender(cfg.Email, log)

	c.TransferService = transfers.NewService(
		c.TransferRepo,
		c.RateService,
		c.NetworkRepo,
		c.CurrencyRepo,
		codeStore,
		emailSender,
		c.StatementRepo,
		transfers.Config{LifespanDays: cfg.Transfers.LifespanDays},
		log,
	)

	c.buildPipeline()

	return c
}

// buildPipeline constructs one queue and scanner per supported chain plus the
// cron scheduler that feeds them
func (c *Container) buildPipeline() {
	clients := map[entities.TokenType]explorer.Client{
		entities.TokenTypeBep20:   explorer.NewBscScanClient(c.Config.Explorers.BscScan, c.Logger),
		entities.TokenTypeErc20:   explorer.NewEtherScanClient(c.Config.Explorers.EtherScan, c.Logger),
		entities.TokenTypeTrc20:   explorer.NewTronScanClient(c.Config.Explorers.TronScan, c.Logger),
		entities.TokenTypeBitcoin: explorer.NewBtcScanClient(c.Config.Explorers.BtcScan, c.Logger),
	}
	confirmations := map[entities.TokenType]int64{
		entities.TokenTypeBep20:   c.Config.Transfers.Confirmations.Bep20,
		entities.TokenTypeErc20:   c.Config.Transfers.Confirmations.Erc20,
		entities.TokenTypeTrc20:   c.Config.Transfers.Confirmations.Trc20,
		entities.TokenTypeBitcoin: c.Config.Transfers.Confirmations.Bitcoin,
	}

	c.Scanners = make(map[entities.TokenType]*transferscan.Scanner, len(clients))
	for tokenType, client := range clients {
		queue := transferscan.NewQueue(tokenType, c.Redis, c.Logger)
		c.Queues = append(c.Queues, queue)
		c.Scanners[tokenType] = transferscan.NewScanner(
			c.TransferRepo,
			c.NetworkRepo,
			client,
			confirmations[tokenType],
			c.Logger,
		)
	}

	c.Scheduler = transferscan.NewScheduler(
		c.TransferRepo,
		c.TransferInfoRepo,
		c.RateService,
		c.Queues,
		c.Config.Transfers,
		c.Logger,
	)
}

// StartPipeline starts the queue consumers and the cron scheduler
func (c *Container) StartPipeline(ctx context.Context) error {
	for _, queue := range c.Queues {
		scanner := c.Scanners[queue.TokenType()]
		queue.Start(ctx, scanner.Handle)
	}
	return c.Scheduler.Start()
}

// StopPipeline stops the scheduler and drains the consumers
func (c *Container) StopPipeline() {
	c.Scheduler.Stop()
	for _, queue := range c.Queues {
		queue.Stop()
	}
}
