package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurety/skysurety-node/db"
	"github.com/skysurety/skysurety-node/logger"
)

const (
	testOwner        Identity = "owner"
	testFirstAirline Identity = "AIR-1"
)

func newTestLedger(t *testing.T) (*Ledger, *BookTreasury) {
	t.Helper()

	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	treasury := NewBookTreasury(logger.Nop())
	l, err := New(database, treasury, Params{
		Owner:        testOwner,
		FirstAirline: testFirstAirline,
	}, logger.Nop())
	require.NoError(t, err)
	return l, treasury
}

// fundAirline authorizes and fully funds an airline in one step.
func fundAirline(t *testing.T, l *Ledger, airline Identity) {
	t.Helper()
	require.NoError(t, l.Authorize(testOwner, airline))
	require.NoError(t, l.Fund(airline, l.MinAirlineStake()))
}

func TestNew(t *testing.T) {
	t.Run("bootstraps state and first airline", func(t *testing.T) {
		l, _ := newTestLedger(t)

		operational, err := l.IsOperational()
		require.NoError(t, err)
		assert.True(t, operational)

		first, err := l.Store().GetAirline(string(testFirstAirline))
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.True(t, first.Inited)
		assert.True(t, first.Registered)
		assert.False(t, first.Funded)

		state, err := l.Store().GetState()
		require.NoError(t, err)
		assert.Equal(t, 1, state.RegisteredAirlines)
	})

	t.Run("owner and first airline are authorized", func(t *testing.T) {
		l, _ := newTestLedger(t)

		for _, id := range []Identity{testOwner, testFirstAirline} {
			ok, err := l.IsAuthorized(id)
			require.NoError(t, err)
			assert.True(t, ok, "expected %s to be authorized", id)
		}
	})

	t.Run("rejects missing params", func(t *testing.T) {
		database, err := db.OpenInMemoryDB(true)
		require.NoError(t, err)
		defer database.Close()

		_, err = New(database, NewBookTreasury(logger.Nop()), Params{FirstAirline: "a"}, logger.Nop())
		require.Error(t, err)

		_, err = New(database, NewBookTreasury(logger.Nop()), Params{Owner: "o"}, logger.Nop())
		require.Error(t, err)

		_, err = New(nil, NewBookTreasury(logger.Nop()), Params{Owner: "o", FirstAirline: "a"}, logger.Nop())
		require.Error(t, err)
	})
}

func TestDeriveFlightKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := DeriveFlightKey("AIR-1", "SK100", 1700000000)
		b := DeriveFlightKey("AIR-1", "SK100", 1700000000)
		assert.Equal(t, a, b)
	})

	t.Run("distinct per input", func(t *testing.T) {
		base := DeriveFlightKey("AIR-1", "SK100", 1700000000)
		assert.NotEqual(t, base, DeriveFlightKey("AIR-2", "SK100", 1700000000))
		assert.NotEqual(t, base, DeriveFlightKey("AIR-1", "SK101", 1700000000))
		assert.NotEqual(t, base, DeriveFlightKey("AIR-1", "SK100", 1700000001))
	})

	t.Run("no separator ambiguity", func(t *testing.T) {
		a := DeriveFlightKey("AIR", "1SK100", 1700000000)
		b := DeriveFlightKey("AIR1", "SK100", 1700000000)
		assert.NotEqual(t, a, b)
	})
}
