// Package oracle implements the off-ledger consensus mechanism: worker
// registration against pseudo-random index groups, correlation of
// asynchronous status submissions to logical requests, and agreement-based
// quorum finalization into the flight registry.
package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/metrics"
	"github.com/skysurety/skysurety-node/store"
)

// Registry tracks oracle worker identities and their fixed index groups.
// Registrations persist; the in-memory cache is rebuilt from the database at
// construction so restarts keep the same assignments.
type Registry struct {
	mu sync.RWMutex

	store         *store.LedgerStore
	requiredStake int64
	workers       map[ledger.Identity]*store.OracleWorker
	log           zerolog.Logger
}

// NewRegistry loads registered workers from the store.
func NewRegistry(ledgerStore *store.LedgerStore, requiredStake int64, log zerolog.Logger) (*Registry, error) {
	if requiredStake <= 0 {
		requiredStake = constant.OracleStake
	}

	r := &Registry{
		store:         ledgerStore,
		requiredStake: requiredStake,
		workers:       make(map[ledger.Identity]*store.OracleWorker),
		log:           logger.Component(log, "oracle_registry"),
	}

	existing, err := ledgerStore.ListOracleWorkers()
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load oracle workers", err)
	}
	for i := range existing {
		w := existing[i]
		r.workers[ledger.Identity(w.Address)] = &w
	}
	metrics.OracleWorkers.Set(float64(len(r.workers)))

	return r, nil
}

// Register admits a worker identity. The stake is required once; the three
// assigned indices are fixed at registration and never change. Workers are
// never deregistered.
func (r *Registry) Register(worker ledger.Identity, stake int64) ([3]uint8, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if worker == "" {
		return [3]uint8{}, errors.NewValidationError("worker identity is required")
	}
	if existing, ok := r.workers[worker]; ok {
		return existing.Indices(), errors.NewValidationError("worker is already registered")
	}
	if stake < r.requiredStake {
		return [3]uint8{}, errors.NewValidationError("stake is below the oracle registration fee")
	}

	nonce, err := r.store.NextOracleNonce()
	if err != nil {
		return [3]uint8{}, errors.NewDatabaseError("failed to advance oracle nonce", err)
	}

	indices := AssignIndices(worker, nonce)
	record := &store.OracleWorker{
		Address: string(worker),
		Index0:  indices[0],
		Index1:  indices[1],
		Index2:  indices[2],
		Stake:   stake,
	}
	if err := r.store.CreateOracleWorker(record); err != nil {
		return [3]uint8{}, errors.NewDatabaseError("failed to persist oracle worker", err)
	}

	r.workers[worker] = record
	metrics.OracleWorkers.Set(float64(len(r.workers)))
	r.log.Info().
		Str("worker", string(worker)).
		Uints8("indices", indices[:]).
		Msg("oracle worker registered")
	return indices, nil
}

// Get returns the registered worker record, or nil when unknown.
func (r *Registry) Get(worker ledger.Identity) *store.OracleWorker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workers[worker]
}

// Workers returns the identities of all registered workers.
func (r *Registry) Workers() []ledger.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ledger.Identity, 0, len(r.workers))
	for id := range r.workers {
		out = append(out, id)
	}
	return out
}

// AssignIndices derives a worker's three index-group slots from its identity
// and the ledger-visible registration nonce. The derivation is a hash, not a
// random draw, so tests can predict membership. Indices are distinct within
// a worker; across workers they are free to collide.
func AssignIndices(worker ledger.Identity, nonce uint64) [3]uint8 {
	var out [3]uint8
	seen := [constant.OracleIndexRange]bool{}

	var counter uint64
	for slot := 0; slot < constant.OracleIndexCount; {
		h := sha256.New()
		h.Write([]byte(worker))

		var buf [16]byte
		binary.BigEndian.PutUint64(buf[:8], nonce)
		binary.BigEndian.PutUint64(buf[8:], counter)
		h.Write(buf[:])
		counter++

		idx := h.Sum(nil)[0] % constant.OracleIndexRange
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out[slot] = idx
		slot++
	}
	return out
}
