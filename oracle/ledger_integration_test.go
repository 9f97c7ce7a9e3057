package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/db"
	"github.com/skysurety/skysurety-node/feed"
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/logger"
)

// Exercises the full path: registered flight, purchased policy, agreeing
// oracle submissions, committed status, credited passenger.
func TestReconcilerAgainstLedger(t *testing.T) {
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	l, err := ledger.New(database, ledger.NewBookTreasury(logger.Nop()), ledger.Params{
		Owner:        "owner",
		FirstAirline: "AIR-1",
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, l.Authorize("owner", "oracle-service"))

	require.NoError(t, l.Fund("AIR-1", l.MinAirlineStake()))
	key, err := l.RegisterFlight("AIR-1", "AIR-1", "SK100", 1700000000)
	require.NoError(t, err)
	require.NoError(t, l.Buy("AIR-1", key, "pax-1", 10))

	registry, err := NewRegistry(l.Store(), constant.OracleStake, logger.Nop())
	require.NoError(t, err)

	byIndex := make(map[uint8][]ledger.Identity)
	for _, id := range []ledger.Identity{"w-1", "w-2", "w-3", "w-4", "w-5", "w-6", "w-7", "w-8", "w-9", "w-10", "w-11", "w-12", "w-13", "w-14"} {
		indices, err := registry.Register(id, constant.OracleStake)
		require.NoError(t, err)
		for _, idx := range indices {
			byIndex[idx] = append(byIndex[idx], id)
		}
	}
	var index uint8
	for idx, holders := range byIndex {
		if len(holders) > len(byIndex[index]) {
			index = idx
		}
	}
	holders := byIndex[index]
	require.GreaterOrEqual(t, len(holders), constant.MinOracleResponses+1)

	r := NewReconciler(registry, l, "oracle-service", logger.Nop())
	require.NoError(t, r.Open(feed.Trigger{
		RequestIndex: index,
		Airline:      "AIR-1",
		FlightCode:   "SK100",
		Timestamp:    1700000000,
	}))

	for _, worker := range holders[:constant.MinOracleResponses] {
		require.NoError(t, r.Submit(worker, index, "AIR-1", "SK100", 1700000000, ledger.StatusLateAirline))
	}

	flight, err := l.Flight(key)
	require.NoError(t, err)
	assert.Equal(t, uint8(ledger.StatusLateAirline), flight.StatusCode)

	credit, err := l.Credit("pax-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), credit)

	// A straggler after finalization must not re-credit.
	require.NoError(t, r.Submit(holders[constant.MinOracleResponses], index, "AIR-1", "SK100", 1700000000, ledger.StatusLateAirline))
	credit, err = l.Credit("pax-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), credit)
}
