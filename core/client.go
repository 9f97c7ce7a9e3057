// Package core assembles the daemon: database, ledger, oracle registry and
// reconciler, local worker pool, trigger feed, query server, and retention
// cron.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/api"
	"github.com/skysurety/skysurety-node/config"
	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/cron"
	"github.com/skysurety/skysurety-node/db"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/feed"
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/oracle"
)

// Client owns the lifecycle of every daemon component.
type Client struct {
	cfg *config.Config
	log zerolog.Logger

	database   *db.DB
	ledger     *ledger.Ledger
	treasury   *ledger.BookTreasury
	registry   *oracle.Registry
	reconciler *oracle.Reconciler
	source     *feed.IntervalSource
	pool       *oracle.Pool
	server     *api.Server
	retention  *cron.RetentionJob
}

// NewClient wires the daemon from configuration. Nothing starts running
// until Start.
func NewClient(cfg *config.Config, log zerolog.Logger) (*Client, error) {
	log = logger.Component(log, "core")

	database, err := db.OpenFileDB(cfg.DatabaseDir(), constant.LedgerDBFileName, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ledger database")
	}

	treasury := ledger.NewBookTreasury(log)
	led, err := ledger.New(database, treasury, ledger.Params{
		Owner:           ledger.Identity(cfg.Owner),
		FirstAirline:    ledger.Identity(cfg.FirstAirline),
		MinAirlineStake: cfg.MinAirlineStake,
		OracleStake:     cfg.OracleStake,
	}, log)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to initialize ledger")
	}

	// The reconciler commits under its own identity, granted by the owner.
	oracleID := ledger.Identity(cfg.OracleServiceIdentity)
	if err := led.Authorize(ledger.Identity(cfg.Owner), oracleID); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to authorize oracle service")
	}

	registry, err := oracle.NewRegistry(led.Store(), cfg.OracleStake, log)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to build oracle registry")
	}
	reconciler := oracle.NewReconciler(registry, led, oracleID, log)

	workers, err := registerLocalWorkers(registry, cfg.OracleWorkerCount, led.OracleStake())
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to register local oracle workers")
	}

	source := feed.NewIntervalSource(led.Store(), time.Duration(cfg.TriggerIntervalSeconds)*time.Second, log)
	pool := oracle.NewPool(registry, reconciler, oracle.NewRandomQuoter(cfg.OracleWorkerSeed), workers, source, log)
	server := api.NewServer(led, cfg.QueryServerPort, log)
	retention := cron.NewRetentionJob(
		led.Store(),
		time.Duration(cfg.CleanupIntervalSeconds)*time.Second,
		time.Duration(cfg.RetentionPeriodSeconds)*time.Second,
		log,
	)

	return &Client{
		cfg:        cfg,
		log:        log,
		database:   database,
		ledger:     led,
		treasury:   treasury,
		registry:   registry,
		reconciler: reconciler,
		source:     source,
		pool:       pool,
		server:     server,
		retention:  retention,
	}, nil
}

// Ledger exposes the ledger for embedders and tests.
func (c *Client) Ledger() *ledger.Ledger {
	return c.ledger
}

// Reconciler exposes the oracle reconciler for embedders and tests.
func (c *Client) Reconciler() *oracle.Reconciler {
	return c.reconciler
}

// Start runs every component and blocks until the context is cancelled.
func (c *Client) Start(ctx context.Context) error {
	if err := c.server.Start(); err != nil {
		return errors.Wrap(err, "failed to start query server")
	}
	if err := c.retention.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start retention job")
	}
	c.source.Start(ctx)
	c.pool.Start(ctx)

	c.log.Info().
		Int("oracle_workers", c.cfg.OracleWorkerCount).
		Int("query_port", c.cfg.QueryServerPort).
		Msg("daemon started")

	<-ctx.Done()
	return c.Stop()
}

// Stop shuts components down in reverse start order.
func (c *Client) Stop() error {
	c.log.Info().Msg("shutting down")

	c.pool.Stop()
	c.source.Stop()
	c.retention.Stop()
	if err := c.server.Stop(); err != nil {
		c.log.Error().Err(err).Msg("failed to stop query server")
	}
	if err := c.database.Close(); err != nil {
		return errors.Wrap(err, "failed to close database")
	}

	c.log.Info().Msg("shutdown complete")
	return nil
}

// registerLocalWorkers admits count in-process workers, skipping identities
// that already registered on a previous run.
func registerLocalWorkers(registry *oracle.Registry, count int, stake int64) ([]ledger.Identity, error) {
	workers := make([]ledger.Identity, 0, count)
	for i := 0; i < count; i++ {
		id := ledger.Identity(fmt.Sprintf("oracle-worker-%03d", i))
		workers = append(workers, id)

		if registry.Get(id) != nil {
			continue
		}
		if _, err := registry.Register(id, stake); err != nil {
			return nil, err
		}
	}
	return workers, nil
}
