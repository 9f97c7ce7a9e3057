package ledger

import (
	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/metrics"
	"github.com/skysurety/skysurety-node/store"
)

// Buy appends an insurance policy entry for a passenger against a registered
// flight. The same passenger may buy any number of independent policies on
// the same flight; no dedup or cap is enforced at this layer. The premium is
// retained by the ledger toward future payouts.
func (l *Ledger) Buy(caller Identity, flightKey string, passenger Identity, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if passenger == "" {
		return errors.NewValidationError("passenger identity is required")
	}
	if amount <= 0 {
		return errors.NewValidationError("premium must be positive")
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

		if err := tx.CreatePolicy(&store.InsurancePolicy{
			FlightKey: flightKey,
			Passenger: string(passenger),
			Premium:   amount,
		}); err != nil {
			return errors.NewDatabaseError("failed to create policy", err)
		}

		state, err := tx.GetState()
		if err != nil {
			return errors.NewDatabaseError("failed to load ledger state", err)
		}
		state.RetainedBalance += amount
		if err := tx.SaveState(state); err != nil {
			return errors.NewDatabaseError("failed to save ledger state", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.PoliciesSold.Inc()
	l.log.Info().
		Str("flight_key", flightKey).
		Str("passenger", string(passenger)).
		Int64("premium", amount).
		Msg("insurance purchased")
	return nil
}

// CreditInsurees credits every policy entry of the flight at the payout
// multiplier: credit += premium * 3 / 2 with integer floor division, so
// odd-cent premiums lose the fractional unit. Accepted rounding-down policy.
//
// Idempotency is NOT enforced here: a repeated invocation re-credits every
// insuree again. The consensus finalization path is the only caller and
// invokes it exactly once per qualifying status transition.
func (l *Ledger) CreditInsurees(caller Identity, flightKey string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var credited int64
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

		policies, err := tx.GetPoliciesByFlight(flightKey)
		if err != nil {
			return errors.NewDatabaseError("failed to query policies", err)
		}

		for _, policy := range policies {
			payout := policy.Premium * constant.PayoutNumerator / constant.PayoutDenominator
			if err := tx.AddCredit(policy.Passenger, payout); err != nil {
				return errors.NewDatabaseError("failed to add credit", err)
			}
			credited += payout
		}

		return tx.MarkPoliciesCredited(flightKey)
	})
	if err != nil {
		return err
	}

	metrics.CreditsIssued.Add(float64(credited))
	l.log.Info().
		Str("flight_key", flightKey).
		Int64("total_credited", credited).
		Msg("insurees credited")
	return nil
}

// Credit returns a passenger's withdrawable balance.
func (l *Ledger) Credit(passenger Identity) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetCredit(string(passenger))
}
