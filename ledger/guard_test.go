package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysurety/skysurety-node/errors"
)

func TestSetOperational(t *testing.T) {
	t.Run("only owner may flip", func(t *testing.T) {
		l, _ := newTestLedger(t)

		err := l.SetOperational("stranger", false)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))

		operational, err := l.IsOperational()
		require.NoError(t, err)
		assert.True(t, operational)
	})

	t.Run("toggle stays available to owner while halted", func(t *testing.T) {
		l, _ := newTestLedger(t)

		require.NoError(t, l.SetOperational(testOwner, false))
		operational, err := l.IsOperational()
		require.NoError(t, err)
		assert.False(t, operational)

		// Halting never blocks unhalting by the same authority.
		require.NoError(t, l.SetOperational(testOwner, true))
		operational, err = l.IsOperational()
		require.NoError(t, err)
		assert.True(t, operational)
	})

	t.Run("same value is a no-op", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.SetOperational(testOwner, true))
	})
}

func TestAuthorize(t *testing.T) {
	t.Run("owner grants a caller", func(t *testing.T) {
		l, _ := newTestLedger(t)

		require.NoError(t, l.Authorize(testOwner, "gateway"))
		ok, err := l.IsAuthorized("gateway")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("repeated grant is a no-op", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.Authorize(testOwner, "gateway"))
		require.NoError(t, l.Authorize(testOwner, "gateway"))
	})

	t.Run("non-owner cannot grant", func(t *testing.T) {
		l, _ := newTestLedger(t)

		err := l.Authorize("stranger", "gateway")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
	})

	t.Run("rejected while non-operational", func(t *testing.T) {
		l, _ := newTestLedger(t)
		require.NoError(t, l.SetOperational(testOwner, false))

		err := l.Authorize(testOwner, "gateway")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})
}

func TestOperationalHaltBlocksMutations(t *testing.T) {
	l, _ := newTestLedger(t)
	fundAirline(t, l, testFirstAirline)

	key, err := l.RegisterFlight(testFirstAirline, testFirstAirline, "SK100", 1700000000)
	require.NoError(t, err)

	require.NoError(t, l.SetOperational(testOwner, false))

	t.Run("register blocked", func(t *testing.T) {
		err := l.RegisterAirline(testFirstAirline, "AIR-2")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})

	t.Run("fund blocked", func(t *testing.T) {
		err := l.Fund(testFirstAirline, 100)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})

	t.Run("buy blocked", func(t *testing.T) {
		err := l.Buy(testFirstAirline, key, "pax-1", 100)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})

	t.Run("status update blocked", func(t *testing.T) {
		err := l.UpdateFlightStatus(testOwner, key, StatusLateAirline, 1700000100)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})

	t.Run("credit blocked", func(t *testing.T) {
		err := l.CreditInsurees(testOwner, key)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})

	t.Run("pay blocked", func(t *testing.T) {
		_, err := l.Pay(testOwner, "pax-1")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotOperational))
	})

	t.Run("everything resumes after unhalt", func(t *testing.T) {
		require.NoError(t, l.SetOperational(testOwner, true))
		require.NoError(t, l.Buy(testFirstAirline, key, "pax-1", 100))
	})
}

func TestUnauthorizedCallerIsRejected(t *testing.T) {
	l, _ := newTestLedger(t)
	fundAirline(t, l, testFirstAirline)

	err := l.RegisterAirline("stranger", "AIR-2")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))

	err = l.Buy("stranger", "no-such-key", "pax-1", 100)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
}
