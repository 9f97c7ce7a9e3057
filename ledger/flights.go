package ledger

import (
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/store"
)

// RegisterFlight creates a flight record for a registered, funded airline.
// The derived composite key is returned; status starts Unknown and moves
// only through the consensus finalization path.
func (l *Ledger) RegisterFlight(caller, airline Identity, flightCode string, timestamp int64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if flightCode == "" {
		return "", errors.NewValidationError("flight code is required")
	}

	key := DeriveFlightKey(airline, flightCode, timestamp)

	err := l.store.WithTx(func(tx *store.LedgerStore) error {
		if err := l.requireGuards(tx, caller); err != nil {
			return err
		}
		if err := requireActiveAirline(tx, airline); err != nil {
			return err
		}

		existing, err := tx.GetFlight(key)
		if err != nil {
			return errors.NewDatabaseError("failed to query flight", err)
		}
		if existing != nil {
			return errors.NewValidationError("flight is already registered")
		}

		return tx.CreateFlight(&store.Flight{
			Key:        key,
			Airline:    string(airline),
			Code:       flightCode,
			Timestamp:  timestamp,
			StatusCode: uint8(StatusUnknown),
		})
	})
	if err != nil {
		return "", err
	}

	l.log.Info().
		Str("flight_key", key).
		Str("airline", string(airline)).
		Str("code", flightCode).
		Int64("timestamp", timestamp).
		Msg("flight registered")
	return key, nil
}

// UpdateFlightStatus unconditionally overwrites a flight's status and
// updated timestamp. This is the sole entry point the consensus reconciler
// uses to commit an oracle-determined outcome; re-applying the same status
// is safe.
func (l *Ledger) UpdateFlightStatus(caller Identity, flightKey string, statusCode StatusCode, timestamp int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !statusCode.Valid() {
		return errors.NewValidationError("unknown status code")
	}

	err := l.store.WithTx(func(tx *store.LedgerStore) error {
		if err := l.requireGuards(tx, caller); err != nil {
			return err
		}

		flight, err := tx.GetFlight(flightKey)
		if err != nil {
			return errors.NewDatabaseError("failed to query flight", err)
		}
		if flight == nil {
			return errors.NewFlightNotFoundError("no flight for key " + flightKey)
		}

		return tx.UpdateFlightStatus(flightKey, uint8(statusCode), timestamp)
	})
	if err != nil {
		return err
	}

	l.log.Info().
		Str("flight_key", flightKey).
		Str("status", statusCode.String()).
		Msg("flight status updated")
	return nil
}

// Flight returns the stored record for a derived key, or (nil, nil) when the
// flight is unknown.
func (l *Ledger) Flight(flightKey string) (*store.Flight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetFlight(flightKey)
}
