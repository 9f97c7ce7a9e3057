// Package ledger implements the authoritative state store for the
// flight-delay insurance system: airline admission, flight registration,
// insurance accounting, and payout settlement. All mutating operations are
// gated behind the access control guard and serialize behind a single writer
// lock; validation precedes mutation, so no operation partially mutates
// state on failure.
package ledger

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/constant"
	"github.com/skysurety/skysurety-node/db"
	"github.com/skysurety/skysurety-node/errors"
	"github.com/skysurety/skysurety-node/logger"
	"github.com/skysurety/skysurety-node/store"
)

// Params configures a ledger at initialization.
type Params struct {
	// Owner is the designated identity allowed to flip the operational flag
	// and grant caller authorizations.
	Owner Identity

	// FirstAirline is pre-registered at initialization so a registrar exists
	// before any consensus quorum can form.
	FirstAirline Identity

	// MinAirlineStake overrides constant.MinAirlineStake when non-zero.
	MinAirlineStake int64

	// OracleStake overrides constant.OracleStake when non-zero.
	OracleStake int64
}

// Ledger is the owned aggregate for all ledger state. The state is small and
// operations are short, so one writer lock serializes every mutation.
type Ledger struct {
	mu sync.Mutex

	store    *store.LedgerStore
	treasury Treasury
	log      zerolog.Logger

	owner           Identity
	minAirlineStake int64
	oracleStake     int64
}

// New initializes the ledger over an opened database. The aggregate state
// row is created on first run with the operational flag set; the owner and
// the first airline receive caller grants and the first airline is
// registered directly.
func New(database *db.DB, treasury Treasury, params Params, log zerolog.Logger) (*Ledger, error) {
	if database == nil {
		return nil, errors.NewValidationError("database is nil")
	}
	if treasury == nil {
		return nil, errors.NewValidationError("treasury is nil")
	}
	if params.Owner == "" {
		return nil, errors.NewConfigError("owner identity is required")
	}
	if params.FirstAirline == "" {
		return nil, errors.NewConfigError("first airline identity is required")
	}

	l := &Ledger{
		store:           store.NewLedgerStore(database.Client()),
		treasury:        treasury,
		log:             logger.Component(log, "ledger"),
		owner:           params.Owner,
		minAirlineStake: params.MinAirlineStake,
		oracleStake:     params.OracleStake,
	}
	if l.minAirlineStake == 0 {
		l.minAirlineStake = constant.MinAirlineStake
	}
	if l.oracleStake == 0 {
		l.oracleStake = constant.OracleStake
	}

	if err := l.bootstrap(params); err != nil {
		return nil, err
	}
	return l, nil
}

// bootstrap creates the aggregate state row and the first airline on first
// run. Re-running against an existing database is a no-op.
func (l *Ledger) bootstrap(params Params) error {
	return l.store.WithTx(func(tx *store.LedgerStore) error {
		state, err := tx.EnsureState(string(params.Owner))
		if err != nil {
			return errors.NewDatabaseError("failed to initialize ledger state", err)
		}

		if err := tx.AddAuthorizedCaller(string(params.Owner)); err != nil {
			return errors.NewDatabaseError("failed to authorize owner", err)
		}
		if err := tx.AddAuthorizedCaller(string(params.FirstAirline)); err != nil {
			return errors.NewDatabaseError("failed to authorize first airline", err)
		}

		first, err := tx.GetAirline(string(params.FirstAirline))
		if err != nil {
			return errors.NewDatabaseError("failed to query first airline", err)
		}
		if first != nil {
			return nil
		}

		if err := tx.CreateAirline(&store.Airline{
			Address:    string(params.FirstAirline),
			Inited:     true,
			Registered: true,
		}); err != nil {
			return errors.NewDatabaseError("failed to register first airline", err)
		}
		state.RegisteredAirlines++
		if err := tx.SaveState(state); err != nil {
			return errors.NewDatabaseError("failed to save ledger state", err)
		}

		l.log.Info().
			Str("owner", string(params.Owner)).
			Str("first_airline", string(params.FirstAirline)).
			Msg("ledger initialized")
		return nil
	})
}

// Owner returns the designated owner identity.
func (l *Ledger) Owner() Identity {
	return l.owner
}

// MinAirlineStake returns the funding threshold for airline activation.
func (l *Ledger) MinAirlineStake() int64 {
	return l.minAirlineStake
}

// OracleStake returns the registration fee for oracle workers.
func (l *Ledger) OracleStake() int64 {
	return l.oracleStake
}

// Store exposes the read-only query layer to collaborators (API surface,
// oracle registry). Mutations stay behind the ledger's own methods.
func (l *Ledger) Store() *store.LedgerStore {
	return l.store
}

// RetainedBalance returns the balance the ledger holds for payouts.
func (l *Ledger) RetainedBalance() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.store.GetState()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to load ledger state", err)
	}
	return state.RetainedBalance, nil
}
