package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/db"
	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/store"
)

func newFeedStore(t *testing.T) *store.LedgerStore {
	t.Helper()

	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return store.NewLedgerStore(database.Client())
}

func TestIntervalSourceEmitsUnknownFlights(t *testing.T) {
	s := newFeedStore(t)

	require.NoError(t, s.CreateFlight(&store.Flight{
		Key: "key-pending", Airline: "AIR-1", Code: "SK100", Timestamp: 1700000000,
	}))
	require.NoError(t, s.CreateFlight(&store.Flight{
		Key: "key-settled", Airline: "AIR-1", Code: "SK200", Timestamp: 1700000000, StatusCode: 10,
	}))

	source := NewIntervalSource(s, 10*time.Millisecond, logger.Nop())
	source.Start(context.Background())
	defer source.Stop()

	select {
	case trigger := <-source.Triggers():
		assert.Equal(t, "SK100", trigger.FlightCode)
		assert.Equal(t, "AIR-1", trigger.Airline)
		assert.Equal(t, int64(1700000000), trigger.Timestamp)
		assert.Less(t, trigger.RequestIndex, uint8(constant.OracleIndexRange))
	case <-time.After(2 * time.Second):
		t.Fatal("no trigger emitted for the pending flight")
	}
}

func TestIntervalSourceStopClosesStream(t *testing.T) {
	s := newFeedStore(t)

	source := NewIntervalSource(s, time.Hour, logger.Nop())
	source.Start(context.Background())
	source.Stop()
	source.Stop() // repeated stop is safe

	_, open := <-source.Triggers()
	assert.False(t, open)
}

func TestDeriveIndex(t *testing.T) {
	assert.Equal(t, deriveIndex("key", 1), deriveIndex("key", 1))
	for emission := uint64(0); emission < 64; emission++ {
		assert.Less(t, deriveIndex("key", emission), uint8(constant.OracleIndexRange))
	}
}

func TestChanSource(t *testing.T) {
	source := NewChanSource(1)
	source.Emit(Trigger{RequestIndex: 3, FlightCode: "SK100"})

	trigger := <-source.Triggers()
	assert.Equal(t, uint8(3), trigger.RequestIndex)

	source.Stop()
	_, open := <-source.Triggers()
	assert.False(t, open)
}
