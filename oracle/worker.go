package oracle

import (
	"context"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/feed"
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/logger"
)

// StatusQuoter decides which status a worker submits for a flight. How a
// real oracle computes the true status is outside this core; the interface
// keeps the source pluggable.
type StatusQuoter interface {
	Quote(airline ledger.Identity, flightCode string, timestamp int64) ledger.StatusCode
}

// RandomQuoter answers with a uniformly random status, matching the
// reference oracle simulator. Useful for local deployments and load tests.
type RandomQuoter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomQuoter creates a seeded random quoter.
func NewRandomQuoter(seed int64) *RandomQuoter {
	return &RandomQuoter{rnd: rand.New(rand.NewSource(seed))}
}

var quoteStatuses = []ledger.StatusCode{
	ledger.StatusOnTime,
	ledger.StatusLateAirline,
	ledger.StatusLateWeather,
	ledger.StatusLateTechnical,
	ledger.StatusLateOther,
}

// Quote implements StatusQuoter.
func (q *RandomQuoter) Quote(ledger.Identity, string, int64) ledger.StatusCode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return quoteStatuses[q.rnd.Intn(len(quoteStatuses))]
}

// FixedQuoter always answers the same status. Used by tests and demos that
// need deterministic outcomes.
type FixedQuoter struct {
	Status ledger.StatusCode
}

// Quote implements StatusQuoter.
func (q FixedQuoter) Quote(ledger.Identity, string, int64) ledger.StatusCode {
	return q.Status
}

// Pool runs a set of in-process oracle workers. Each worker consumes the
// trigger feed independently and submits a quote whenever its assigned index
// group contains the request index, mirroring how out-of-process workers
// would behave against the same reconciler.
type Pool struct {
	registry   *Registry
	reconciler *Reconciler
	quoter     StatusQuoter
	workers    []ledger.Identity
	source     feed.Source
	log        zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPool creates a worker pool over already registered worker identities.
func NewPool(registry *Registry, reconciler *Reconciler, quoter StatusQuoter, workers []ledger.Identity, source feed.Source, log zerolog.Logger) *Pool {
	return &Pool{
		registry:   registry,
		reconciler: reconciler,
		quoter:     quoter,
		workers:    workers,
		source:     source,
		log:        logger.Component(log, "oracle_pool"),
		stopCh:     make(chan struct{}),
	}
}

// Start begins consuming triggers.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
	p.log.Info().Int("workers", len(p.workers)).Msg("oracle worker pool started")
}

// Stop terminates the consume loop.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	p.log.Info().Msg("oracle worker pool stopped")
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case trigger, ok := <-p.source.Triggers():
			if !ok {
				return
			}
			p.handle(trigger)
		}
	}
}

// handle opens the request and submits a quote from every worker whose
// index group matches. Workers keep answering even after a request has
// finalized; the reconciler absorbs late submissions.
func (p *Pool) handle(t feed.Trigger) {
	if err := p.reconciler.Open(t); err != nil {
		if errors.IsCode(err, errors.ErrCodeAlreadyFinalized) {
			return
		}
		p.log.Error().Err(err).Msg("failed to open oracle request")
		return
	}

	airline := ledger.Identity(t.Airline)
	for _, worker := range p.workers {
		record := p.registry.Get(worker)
		if record == nil || !record.HasIndex(t.RequestIndex) {
			continue
		}

		status := p.quoter.Quote(airline, t.FlightCode, t.Timestamp)
		err := p.reconciler.Submit(worker, t.RequestIndex, airline, t.FlightCode, t.Timestamp, status)
		if err != nil {
			p.log.Debug().
				Err(err).
				Str("worker", string(worker)).
				Str("status", status.String()).
				Msg("submission not accepted")
		}
	}
}
