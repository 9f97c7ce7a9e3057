package feed

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/store"
)

// IntervalSource periodically emits a trigger for every registered flight
// whose status is still unknown, standing in for the external event feed in
// single-process deployments. The request index is derived from the flight
// key and an emission counter so runs are reproducible.
type IntervalSource struct {
	store    *store.LedgerStore
	interval time.Duration
	log      zerolog.Logger

	emissions uint64

	ch     chan Trigger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewIntervalSource creates a source polling the flight registry.
func NewIntervalSource(ledgerStore *store.LedgerStore, interval time.Duration, log zerolog.Logger) *IntervalSource {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &IntervalSource{
		store:    ledgerStore,
		interval: interval,
		log:      logger.Component(log, "trigger_feed"),
		ch:       make(chan Trigger, 64),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the polling loop.
func (s *IntervalSource) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
	s.log.Info().Dur("interval", s.interval).Msg("trigger feed started")
}

// Triggers implements Source.
func (s *IntervalSource) Triggers() <-chan Trigger {
	return s.ch
}

// Stop terminates the loop and closes the stream.
func (s *IntervalSource) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		close(s.ch)
	})
}

func (s *IntervalSource) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.emit(ctx)
		}
	}
}

func (s *IntervalSource) emit(ctx context.Context) {
	flights, err := s.store.ListFlights(256)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list flights")
		return
	}

	for _, flight := range flights {
		if flight.StatusCode != 0 {
			continue
		}

		s.emissions++
		trigger := Trigger{
			RequestIndex: deriveIndex(flight.Key, s.emissions),
			Airline:      flight.Airline,
			FlightCode:   flight.Code,
			Timestamp:    flight.Timestamp,
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		select {
		case s.ch <- trigger:
			s.log.Debug().
				Uint8("index", trigger.RequestIndex).
				Str("flight_key", flight.Key).
				Msg("trigger emitted")
		default:
			// Consumers are behind; drop rather than block the loop.
			s.log.Warn().Str("flight_key", flight.Key).Msg("trigger dropped, channel full")
		}
	}
}

// deriveIndex maps a flight key and emission counter into the oracle index
// range deterministically.
func deriveIndex(flightKey string, emission uint64) uint8 {
	h := sha256.New()
	h.Write([]byte(flightKey))
	h.Write([]byte{
		byte(emission >> 56), byte(emission >> 48), byte(emission >> 40), byte(emission >> 32),
		byte(emission >> 24), byte(emission >> 16), byte(emission >> 8), byte(emission),
	})
	sum := h.Sum(nil)
	return sum[0] % constant.OracleIndexRange
}
