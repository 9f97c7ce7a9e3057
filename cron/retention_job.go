// Package cron runs periodic maintenance jobs for the daemon.
package cron

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/store"
)

// RetentionJob prunes settled payout audit rows older than the retention
// window. It touches only the audit log: open or finalized oracle requests
// are never expired, so a request short of quorum stays open forever.
type RetentionJob struct {
	store     *store.LedgerStore
	interval  time.Duration
	retention time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	forceCh chan struct{}
	wg      sync.WaitGroup
}

// NewRetentionJob creates a retention job with sane lower bounds.
func NewRetentionJob(ledgerStore *store.LedgerStore, interval, retention time.Duration, log zerolog.Logger) *RetentionJob {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RetentionJob{
		store:     ledgerStore,
		interval:  interval,
		retention: retention,
		log:       logger.Component(log, "retention_cron"),
	}
}

// Start launches the background loop and returns immediately (non-blocking).
// Safe to call multiple times; subsequent calls are no-ops.
func (j *RetentionJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}
	if j.store == nil {
		return errors.New("cron: store must be non-nil")
	}

	j.stopCh = make(chan struct{})
	j.forceCh = make(chan struct{}, 1) // buffered so ForceRun won't block
	j.running = true
	j.wg.Add(1)

	go j.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it to finish.
// Safe to call multiple times.
func (j *RetentionJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	j.running = false
	j.mu.Unlock()
	j.wg.Wait()
}

// ForceRun requests an immediate pruning pass without waiting for the tick.
func (j *RetentionJob) ForceRun() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		return
	}
	select {
	case j.forceCh <- struct{}{}:
	default:
	}
}

func (j *RetentionJob) run(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.prune()
		case <-j.forceCh:
			j.prune()
		}
	}
}

func (j *RetentionJob) prune() {
	cutoff := time.Now().Add(-j.retention)
	removed, err := j.store.PruneOldPayouts(cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("failed to prune payout records")
		return
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("pruned payout records")
	}
}
