package ledger

import (
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/store"
)

// Access control guard: a process-wide operational flag plus a capability
// set of authorized caller identities. Every mutating operation consults it
// before touching state.

// IsOperational reports the current operational flag.
func (l *Ledger) IsOperational() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.store.GetState()
	if err != nil {
		return false, errors.NewDatabaseError("failed to load ledger state", err)
	}
	return state.Operational, nil
}

// SetOperational flips the operational kill-switch. Only the owner may flip
// it, and the toggle itself stays available while halted so the halt can
// never lock the owner out of unhalting.
func (l *Ledger) SetOperational(caller Identity, value bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return errors.NewUnauthorizedError("only the owner may set the operational flag")
	}

	state, err := l.store.GetState()
	if err != nil {
		return errors.NewDatabaseError("failed to load ledger state", err)
	}
	if state.Operational == value {
		return nil
	}

	state.Operational = value
	if err := l.store.SaveState(state); err != nil {
		return errors.NewDatabaseError("failed to save operational flag", err)
	}

	l.log.Warn().Bool("operational", value).Msg("operational flag changed")
	return nil
}

// Authorize grants a caller capability. Only the owner may grant, and grants
// are rejected while the ledger is halted. Authorization is never implicitly
// revoked.
func (l *Ledger) Authorize(caller, identity Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return errors.NewUnauthorizedError("only the owner may authorize callers")
	}
	if err := l.requireOperational(l.store); err != nil {
		return err
	}
	if identity == "" {
		return errors.NewValidationError("identity is required")
	}

	if err := l.store.AddAuthorizedCaller(string(identity)); err != nil {
		return errors.NewDatabaseError("failed to grant authorization", err)
	}

	l.log.Info().Str("identity", string(identity)).Msg("caller authorized")
	return nil
}

// IsAuthorized reports whether the identity holds a caller grant.
func (l *Ledger) IsAuthorized(identity Identity) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.IsAuthorized(string(identity))
}

// requireOperational fails with NotOperational while the halt is engaged.
// Callers must hold l.mu.
func (l *Ledger) requireOperational(s *store.LedgerStore) error {
	state, err := s.GetState()
	if err != nil {
		return errors.NewDatabaseError("failed to load ledger state", err)
	}
	if !state.Operational {
		return errors.NewNotOperationalError("ledger is not operational")
	}
	return nil
}

// requireAuthorized fails with Unauthorized unless the caller holds a grant.
// Callers must hold l.mu.
func (l *Ledger) requireAuthorized(s *store.LedgerStore, caller Identity) error {
	ok, err := s.IsAuthorized(string(caller))
	if err != nil {
		return errors.NewDatabaseError("failed to query authorization", err)
	}
	if !ok {
		return errors.NewUnauthorizedError("caller is not authorized")
	}
	return nil
}

// requireGuards combines the two preconditions shared by every mutating
// operation.
func (l *Ledger) requireGuards(s *store.LedgerStore, caller Identity) error {
	if err := l.requireOperational(s); err != nil {
		return err
	}
	return l.requireAuthorized(s, caller)
}
