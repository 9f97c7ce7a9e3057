package oracle

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/feed"
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/metrics"
)

// Committer is the slice of the ledger the reconciler commits through.
type Committer interface {
	UpdateFlightStatus(caller ledger.Identity, flightKey string, statusCode ledger.StatusCode, timestamp int64) error
	CreditInsurees(caller ledger.Identity, flightKey string) error
}

// Reconciler correlates asynchronous oracle submissions to logical requests
// and decides when enough independent responses have arrived. Quorum is by
// agreement, not raw response count: a status finalizes only once three
// distinct responders submit that same status. Counting responses sent
// instead would credit on a false quorum formed by disagreeing oracles.
//
// There are no request timeouts: a request with fewer than three agreeing
// responses simply never finalizes. Accepted limitation.
type Reconciler struct {
	registry *Registry
	ledger   Committer

	// identity is the authorized caller the reconciler commits as.
	identity ledger.Identity

	mu       sync.Mutex
	requests map[string]*request

	log zerolog.Logger
}

// request is the state of one logical oracle request. Grouping by the full
// tuple is the sole synchronization point; finalization is latched so the
// commit executes exactly once even when several submissions cross the
// threshold concurrently.
type request struct {
	mu sync.Mutex

	trigger   feed.Trigger
	responses map[ledger.StatusCode]map[ledger.Identity]struct{}
	finalized bool
	final     ledger.StatusCode
}

// NewReconciler creates a reconciler committing through the given ledger
// slice under the given authorized identity.
func NewReconciler(registry *Registry, committer Committer, identity ledger.Identity, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		registry: registry,
		ledger:   committer,
		identity: identity,
		requests: make(map[string]*request),
		log:      logger.Component(log, "reconciler"),
	}
}

// requestKey identifies one logical request.
func requestKey(index uint8, airline ledger.Identity, flightCode string, timestamp int64) string {
	return fmt.Sprintf("%d|%s|%s|%d", index, airline, flightCode, timestamp)
}

// Open registers a triggering event as an outstanding request. Re-opening an
// already open request is a no-op; re-opening a finalized one reports
// AlreadyFinalized, which callers treat as informational.
func (r *Reconciler) Open(t feed.Trigger) error {
	key := requestKey(t.RequestIndex, ledger.Identity(t.Airline), t.FlightCode, t.Timestamp)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.requests[key]; ok {
		existing.mu.Lock()
		finalized := existing.finalized
		existing.mu.Unlock()
		if finalized {
			return errors.NewAlreadyFinalizedError("request is already finalized")
		}
		return nil
	}

	r.requests[key] = &request{
		trigger:   t,
		responses: make(map[ledger.StatusCode]map[ledger.Identity]struct{}),
	}
	r.log.Debug().
		Uint8("index", t.RequestIndex).
		Str("airline", t.Airline).
		Str("code", t.FlightCode).
		Int64("timestamp", t.Timestamp).
		Msg("oracle request opened")
	return nil
}

// Submit records one worker's status response. Submissions on an index not
// assigned to the worker fail with InvalidIndex. Responses arriving after
// finalization are accepted but produce no further state change.
func (r *Reconciler) Submit(worker ledger.Identity, index uint8, airline ledger.Identity, flightCode string, timestamp int64, status ledger.StatusCode) error {
	record := r.registry.Get(worker)
	if record == nil {
		metrics.OracleSubmissions.WithLabelValues("rejected").Inc()
		return errors.NewUnauthorizedError("worker is not registered")
	}
	if !record.HasIndex(index) {
		metrics.OracleSubmissions.WithLabelValues("invalid_index").Inc()
		return errors.NewInvalidIndexError("index is not assigned to this worker")
	}
	if !status.Valid() || status == ledger.StatusUnknown {
		metrics.OracleSubmissions.WithLabelValues("rejected").Inc()
		return errors.NewValidationError("status code is not a valid oracle answer")
	}

	key := requestKey(index, airline, flightCode, timestamp)
	r.mu.Lock()
	req, ok := r.requests[key]
	r.mu.Unlock()
	if !ok {
		metrics.OracleSubmissions.WithLabelValues("rejected").Inc()
		return errors.NewValidationError("no open request matches the submission")
	}

	req.mu.Lock()
	defer req.mu.Unlock()

	if req.finalized {
		// Latched: accepted, no further effect.
		metrics.OracleSubmissions.WithLabelValues("late").Inc()
		r.log.Debug().
			Str("worker", string(worker)).
			Str("status", status.String()).
			Msg("late submission after finalization")
		return nil
	}

	group, ok := req.responses[status]
	if !ok {
		group = make(map[ledger.Identity]struct{})
		req.responses[status] = group
	}
	group[worker] = struct{}{}
	metrics.OracleSubmissions.WithLabelValues("accepted").Inc()

	r.log.Debug().
		Str("worker", string(worker)).
		Str("status", status.String()).
		Int("agreeing", len(group)).
		Msg("oracle response recorded")

	if len(group) < constant.MinOracleResponses {
		return nil
	}
	return r.finalize(req, status, timestamp)
}

// finalize commits the agreed status into the flight registry and, for a
// qualifying delay, credits the flight's insurees exactly once. The caller
// holds req.mu, so the latch check and set are atomic with the commit.
func (r *Reconciler) finalize(req *request, status ledger.StatusCode, timestamp int64) error {
	flightKey := ledger.DeriveFlightKey(ledger.Identity(req.trigger.Airline), req.trigger.FlightCode, req.trigger.Timestamp)

	if err := r.ledger.UpdateFlightStatus(r.identity, flightKey, status, timestamp); err != nil {
		// Leave the latch open: a later quorum-crossing submission retries
		// the commit once the ledger accepts writes again.
		return errors.Wrap(err, "failed to commit finalized status")
	}

	req.finalized = true
	req.final = status
	metrics.Finalizations.Inc()

	r.log.Info().
		Str("flight_key", flightKey).
		Str("status", status.String()).
		Msg("oracle request finalized")

	if status.QualifiesForPayout() {
		if err := r.ledger.CreditInsurees(r.identity, flightKey); err != nil {
			// Status is committed and the latch is set; crediting must not
			// run twice, so the failure is surfaced rather than retried.
			r.log.Error().Err(err).Str("flight_key", flightKey).Msg("failed to credit insurees")
			return errors.Wrap(err, "status committed but crediting failed")
		}
	}
	return nil
}

// Finalized reports whether a request has finalized and with which status.
func (r *Reconciler) Finalized(index uint8, airline ledger.Identity, flightCode string, timestamp int64) (ledger.StatusCode, bool) {
	r.mu.Lock()
	req, ok := r.requests[requestKey(index, airline, flightCode, timestamp)]
	r.mu.Unlock()
	if !ok {
		return ledger.StatusUnknown, false
	}

	req.mu.Lock()
	defer req.mu.Unlock()
	return req.final, req.finalized
}

// OpenRequests returns the number of requests not yet finalized.
func (r *Reconciler) OpenRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	open := 0
	for _, req := range r.requests {
		req.mu.Lock()
		if !req.finalized {
			open++
		}
		req.mu.Unlock()
	}
	return open
}
