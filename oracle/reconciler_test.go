package oracle

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/feed"
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/logger"
)

// fakeCommitter records commit calls so tests can assert the finalization
// path ran exactly once.
type fakeCommitter struct {
	mu sync.Mutex

	statusCalls []ledger.StatusCode
	creditCalls []string
	statusErr   error
}

func (f *fakeCommitter) UpdateFlightStatus(_ ledger.Identity, _ string, statusCode ledger.StatusCode, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, statusCode)
	return nil
}

func (f *fakeCommitter) CreditInsurees(_ ledger.Identity, flightKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creditCalls = append(f.creditCalls, flightKey)
	return nil
}

func (f *fakeCommitter) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusCalls), len(f.creditCalls)
}

// newTestReconciler registers enough workers that every index group has at
// least the quorum size of members, then returns the reconciler plus the
// workers holding one such index.
func newTestReconciler(t *testing.T, committer Committer) (*Reconciler, uint8, []ledger.Identity) {
	t.Helper()

	s := newTestStore(t)
	registry, err := NewRegistry(s, constant.OracleStake, logger.Nop())
	require.NoError(t, err)

	// 14 workers spread 42 index slots over 10 values, so the busiest
	// index is guaranteed at least 5 holders.
	byIndex := make(map[uint8][]ledger.Identity)
	for w := 0; w < 14; w++ {
		id := ledger.Identity(fmt.Sprintf("worker-%02d", w))
		indices, err := registry.Register(id, constant.OracleStake)
		require.NoError(t, err)
		for _, idx := range indices {
			byIndex[idx] = append(byIndex[idx], id)
		}
	}

	var best uint8
	for idx, holders := range byIndex {
		if len(holders) > len(byIndex[best]) {
			best = idx
		}
	}
	require.GreaterOrEqual(t, len(byIndex[best]), constant.MinOracleResponses)
	return NewReconciler(registry, committer, "oracle-service", logger.Nop()), best, byIndex[best]
}

func openTrigger(t *testing.T, r *Reconciler, index uint8) feed.Trigger {
	t.Helper()
	trigger := feed.Trigger{
		RequestIndex: index,
		Airline:      "AIR-1",
		FlightCode:   "SK100",
		Timestamp:    1700000000,
	}
	require.NoError(t, r.Open(trigger))
	return trigger
}

func TestSubmitQuorum(t *testing.T) {
	committer := &fakeCommitter{}
	r, index, holders := newTestReconciler(t, committer)
	trigger := openTrigger(t, r, index)

	submit := func(worker ledger.Identity, status ledger.StatusCode) error {
		return r.Submit(worker, index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, status)
	}

	// Two agreeing plus one disagreeing response: no quorum on any status.
	require.NoError(t, submit(holders[0], ledger.StatusLateAirline))
	require.NoError(t, submit(holders[1], ledger.StatusLateAirline))
	if len(holders) > 3 {
		require.NoError(t, submit(holders[3], ledger.StatusOnTime))
	}

	statuses, credits := committer.counts()
	assert.Zero(t, statuses)
	assert.Zero(t, credits)
	_, done := r.Finalized(index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp)
	assert.False(t, done)

	// Third agreement crosses the threshold and commits.
	require.NoError(t, submit(holders[2], ledger.StatusLateAirline))

	statuses, credits = committer.counts()
	assert.Equal(t, 1, statuses)
	assert.Equal(t, 1, credits)

	final, done := r.Finalized(index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp)
	assert.True(t, done)
	assert.Equal(t, ledger.StatusLateAirline, final)
	assert.Zero(t, r.OpenRequests())

	// Late submissions are accepted and change nothing.
	require.NoError(t, submit(holders[0], ledger.StatusOnTime))
	statuses, credits = committer.counts()
	assert.Equal(t, 1, statuses)
	assert.Equal(t, 1, credits)
}

func TestSubmitNonQualifyingStatus(t *testing.T) {
	committer := &fakeCommitter{}
	r, index, holders := newTestReconciler(t, committer)
	trigger := openTrigger(t, r, index)

	for _, worker := range holders[:constant.MinOracleResponses] {
		require.NoError(t, r.Submit(worker, index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusOnTime))
	}

	statuses, credits := committer.counts()
	assert.Equal(t, 1, statuses)
	assert.Zero(t, credits, "on-time flights never credit insurees")
}

func TestSubmitValidation(t *testing.T) {
	committer := &fakeCommitter{}
	r, index, holders := newTestReconciler(t, committer)
	trigger := openTrigger(t, r, index)

	t.Run("unregistered worker", func(t *testing.T) {
		err := r.Submit("stranger", index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusOnTime)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
	})

	t.Run("unassigned index", func(t *testing.T) {
		worker := holders[0]
		record := r.registry.Get(worker)
		require.NotNil(t, record)

		var unassigned uint8
		for idx := uint8(0); idx < constant.OracleIndexRange; idx++ {
			if !record.HasIndex(idx) {
				unassigned = idx
				break
			}
		}

		err := r.Submit(worker, unassigned, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusOnTime)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidIndex))
	})

	t.Run("unknown status is not an answer", func(t *testing.T) {
		err := r.Submit(holders[0], index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusUnknown)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

		err = r.Submit(holders[0], index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusCode(7))
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	})

	t.Run("no matching open request", func(t *testing.T) {
		err := r.Submit(holders[0], index, "AIR-9", "SK999", 1700000000, ledger.StatusOnTime)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	})
}

func TestOpen(t *testing.T) {
	committer := &fakeCommitter{}
	r, index, holders := newTestReconciler(t, committer)
	trigger := openTrigger(t, r, index)

	t.Run("reopening an open request is a no-op", func(t *testing.T) {
		require.NoError(t, r.Open(trigger))
		assert.Equal(t, 1, r.OpenRequests())
	})

	t.Run("reopening a finalized request is reported", func(t *testing.T) {
		for _, worker := range holders[:constant.MinOracleResponses] {
			require.NoError(t, r.Submit(worker, index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusOnTime))
		}

		err := r.Open(trigger)
		assert.True(t, errors.IsCode(err, errors.ErrCodeAlreadyFinalized))
	})
}

func TestFinalizeRetriesAfterCommitFailure(t *testing.T) {
	committer := &fakeCommitter{statusErr: fmt.Errorf("ledger halted")}
	r, index, holders := newTestReconciler(t, committer)
	require.GreaterOrEqual(t, len(holders), 4, "need a fourth agreeing worker")
	trigger := openTrigger(t, r, index)

	submit := func(worker ledger.Identity) error {
		return r.Submit(worker, index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusLateAirline)
	}

	require.NoError(t, submit(holders[0]))
	require.NoError(t, submit(holders[1]))

	// Quorum reached but the ledger rejects the commit; the latch stays
	// open so a later agreement can retry.
	err := submit(holders[2])
	require.Error(t, err)
	_, done := r.Finalized(index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp)
	assert.False(t, done)

	committer.mu.Lock()
	committer.statusErr = nil
	committer.mu.Unlock()

	require.NoError(t, submit(holders[3]))
	statuses, credits := committer.counts()
	assert.Equal(t, 1, statuses)
	assert.Equal(t, 1, credits)
	_, done = r.Finalized(index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp)
	assert.True(t, done)
}

func TestConcurrentSubmissionsFinalizeOnce(t *testing.T) {
	committer := &fakeCommitter{}
	r, index, holders := newTestReconciler(t, committer)
	trigger := openTrigger(t, r, index)

	var wg sync.WaitGroup
	for _, worker := range holders {
		wg.Add(1)
		go func(w ledger.Identity) {
			defer wg.Done()
			_ = r.Submit(w, index, ledger.Identity(trigger.Airline), trigger.FlightCode, trigger.Timestamp, ledger.StatusLateAirline)
		}(worker)
	}
	wg.Wait()

	statuses, credits := committer.counts()
	assert.Equal(t, 1, statuses)
	assert.Equal(t, 1, credits)
}
