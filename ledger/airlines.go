package ledger

import (
	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/metrics"
	"github.com/skysurety/skysurety-node/store"
)

// Airline admission is a two-state policy selected by a threshold constant:
// the first DirectRegistrationLimit airlines are admitted unconditionally,
// every later candidate needs votes from half the currently registered set.
// The 50% threshold is computed against the count at the time of the check,
// not the final count, so earlier-registered airlines carry
// disproportionate influence. Intentional.

// Fund accepts stake from an airline. Any positive amount accumulates toward
// the minimum stake; the portion above the minimum is forwarded to the owner
// account so the ledger's own balance stays reserved for insurance payouts.
// The funded flag flips once, irreversibly, when the retained stake reaches
// the minimum.
func (l *Ledger) Fund(caller Identity, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return errors.NewValidationError("funding amount must be positive")
	}

	var forward int64
	err := l.store.WithTx(func(tx *store.LedgerStore) error {
		if err := l.requireGuards(tx, caller); err != nil {
			return err
		}

		airline, err := tx.GetAirline(string(caller))
		if err != nil {
			return errors.NewDatabaseError("failed to query airline", err)
		}
		if airline == nil || !airline.Inited {
			return errors.NewAirlineNotEligibleError("caller is not a known airline")
		}

		retain := amount
		if airline.Stake+retain > l.minAirlineStake {
			retain = l.minAirlineStake - airline.Stake
			if retain < 0 {
				retain = 0
			}
		}
		forward = amount - retain

		airline.Stake += retain
		if airline.Stake >= l.minAirlineStake {
			airline.Funded = true
		}
		if err := tx.SaveAirline(airline); err != nil {
			return errors.NewDatabaseError("failed to save airline", err)
		}

		if retain > 0 {
			state, err := tx.GetState()
			if err != nil {
				return errors.NewDatabaseError("failed to load ledger state", err)
			}
			state.RetainedBalance += retain
			if err := tx.SaveState(state); err != nil {
				return errors.NewDatabaseError("failed to save ledger state", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if forward > 0 {
		if err := l.treasury.ForwardToOwner(forward); err != nil {
			// Bookkeeping already committed; the transfer boundary is
			// external and reports its own failures.
			l.log.Error().Err(err).Int64("amount", forward).Msg("owner forward failed")
		}
	}

	l.log.Info().
		Str("airline", string(caller)).
		Int64("amount", amount).
		Int64("forwarded", forward).
		Msg("airline funded")
	return nil
}

// RegisterAirline admits a candidate airline. The caller must be an
// authorized, registered, funded airline. Below the direct-registration
// limit the candidate is admitted immediately; from the fifth airline on,
// the call inits the candidate and counts as one vote from the caller.
func (l *Ledger) RegisterAirline(caller, candidate Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if candidate == "" {
		return errors.NewValidationError("candidate identity is required")
	}

	return l.store.WithTx(func(tx *store.LedgerStore) error {
		if err := l.requireGuards(tx, caller); err != nil {
			return err
		}
		if err := requireActiveAirline(tx, caller); err != nil {
			return err
		}

		existing, err := tx.GetAirline(string(candidate))
		if err != nil {
			return errors.NewDatabaseError("failed to query candidate", err)
		}
		if existing != nil && existing.Registered {
			return errors.NewValidationError("candidate is already registered")
		}

		state, err := tx.GetState()
		if err != nil {
			return errors.NewDatabaseError("failed to load ledger state", err)
		}

		if state.RegisteredAirlines < constant.DirectRegistrationLimit {
			return l.admitDirect(tx, state, candidate, existing)
		}
		return l.admitByVote(tx, state, caller, candidate, existing)
	})
}

// VoteAirline records an additional admission vote for a candidate. A
// repeated vote from the same voter is a no-op, not an error. The candidate
// flips to registered the moment its votes reach half the currently
// registered count.
func (l *Ledger) VoteAirline(caller, voter, candidate Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.WithTx(func(tx *store.LedgerStore) error {
		if err := l.requireGuards(tx, caller); err != nil {
			return err
		}
		if err := requireActiveAirline(tx, voter); err != nil {
			return err
		}

		cand, err := tx.GetAirline(string(candidate))
		if err != nil {
			return errors.NewDatabaseError("failed to query candidate", err)
		}
		if cand == nil || !cand.Inited {
			return errors.NewValidationError("candidate has not been put forward")
		}
		if cand.Registered {
			return nil
		}

		inserted, err := tx.InsertVoteIfNotExists(string(candidate), string(voter))
		if err != nil {
			return errors.NewDatabaseError("failed to record vote", err)
		}
		if !inserted {
			return nil
		}

		state, err := tx.GetState()
		if err != nil {
			return errors.NewDatabaseError("failed to load ledger state", err)
		}
		return l.promoteIfQuorum(tx, state, cand)
	})
}

// admitDirect registers a candidate unconditionally during bootstrap.
func (l *Ledger) admitDirect(tx *store.LedgerStore, state *store.LedgerState, candidate Identity, existing *store.Airline) error {
	if existing == nil {
		existing = &store.Airline{Address: string(candidate)}
		existing.Inited = true
		existing.Registered = true
		if err := tx.CreateAirline(existing); err != nil {
			return errors.NewDatabaseError("failed to create airline", err)
		}
	} else {
		existing.Inited = true
		existing.Registered = true
		if err := tx.SaveAirline(existing); err != nil {
			return errors.NewDatabaseError("failed to save airline", err)
		}
	}

	state.RegisteredAirlines++
	if err := tx.SaveState(state); err != nil {
		return errors.NewDatabaseError("failed to save ledger state", err)
	}

	metrics.AirlinesRegistered.Set(float64(state.RegisteredAirlines))
	l.log.Info().
		Str("airline", string(candidate)).
		Int("registered_count", state.RegisteredAirlines).
		Msg("airline registered directly")
	return nil
}

// admitByVote inits the candidate if needed and counts the caller's vote.
func (l *Ledger) admitByVote(tx *store.LedgerStore, state *store.LedgerState, caller, candidate Identity, existing *store.Airline) error {
	if existing == nil {
		existing = &store.Airline{Address: string(candidate), Inited: true}
		if err := tx.CreateAirline(existing); err != nil {
			return errors.NewDatabaseError("failed to create airline", err)
		}
	} else if !existing.Inited {
		existing.Inited = true
		if err := tx.SaveAirline(existing); err != nil {
			return errors.NewDatabaseError("failed to save airline", err)
		}
	}

	if _, err := tx.InsertVoteIfNotExists(string(candidate), string(caller)); err != nil {
		return errors.NewDatabaseError("failed to record registration vote", err)
	}
	return l.promoteIfQuorum(tx, state, existing)
}

// promoteIfQuorum flips the candidate to registered once votes*2 covers the
// currently registered count.
func (l *Ledger) promoteIfQuorum(tx *store.LedgerStore, state *store.LedgerState, cand *store.Airline) error {
	votes, err := tx.CountVotes(cand.Address)
	if err != nil {
		return errors.NewDatabaseError("failed to count votes", err)
	}
	if votes*2 < int64(state.RegisteredAirlines) {
		l.log.Debug().
			Str("candidate", cand.Address).
			Int64("votes", votes).
			Int("registered_count", state.RegisteredAirlines).
			Msg("candidate below admission quorum")
		return nil
	}

	cand.Registered = true
	if err := tx.SaveAirline(cand); err != nil {
		return errors.NewDatabaseError("failed to save airline", err)
	}
	state.RegisteredAirlines++
	if err := tx.SaveState(state); err != nil {
		return errors.NewDatabaseError("failed to save ledger state", err)
	}

	metrics.AirlinesRegistered.Set(float64(state.RegisteredAirlines))
	l.log.Info().
		Str("airline", cand.Address).
		Int64("votes", votes).
		Int("registered_count", state.RegisteredAirlines).
		Msg("airline registered by consensus")
	return nil
}

// requireActiveAirline fails with AirlineNotEligible unless the identity is
// a registered, funded airline.
func requireActiveAirline(tx *store.LedgerStore, id Identity) error {
	airline, err := tx.GetAirline(string(id))
	if err != nil {
		return errors.NewDatabaseError("failed to query airline", err)
	}
	if airline == nil || !airline.Registered || !airline.Funded {
		return errors.NewAirlineNotEligibleError("airline is not registered and funded")
	}
	return nil
}
