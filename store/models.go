// Package store contains the GORM-backed SQLite models for the insurance
// ledger. The ledger database is the authoritative state store for airlines,
// flights, and insurance accounting.
//
// Database structure (database file: ledger.db):
//
//	ledger_states        single-row aggregate state (operational flag, counters)
//	authorized_callers   grant-only capability set
//	airlines             admission state machine records
//	airline_votes        one row per (candidate, voter), unique pair
//	flights              per-(airline, code, timestamp) records, derived key
//	insurance_policies   per-flight (passenger, premium) entries
//	insuree_credits      withdrawable balance per passenger
//	oracle_workers       registered workers and their fixed index groups
//	payouts              settlement audit log, retention-pruned
package store

import (
	"gorm.io/gorm"
)

// LedgerState is the single-row aggregate state of the ledger.
type LedgerState struct {
	gorm.Model
	Owner              string `gorm:"not null"` // owner identity fixed at initialization
	Operational        bool   `gorm:"not null"` // kill-switch; false blocks all mutating ops
	RegisteredAirlines int    `gorm:"not null"` // count at the time quorum thresholds are checked
	RetainedBalance    int64  `gorm:"not null"` // stake retained for payouts, in cents
	OracleNonce        uint64 `gorm:"not null"` // ledger-visible nonce seeding index assignment
}

// AuthorizedCaller is a granted caller identity. Grants never expire and are
// never implicitly revoked.
type AuthorizedCaller struct {
	gorm.Model
	Address string `gorm:"uniqueIndex;not null"`
}

// Airline tracks the admission state machine for one airline.
type Airline struct {
	gorm.Model
	Address    string `gorm:"uniqueIndex;not null"`
	Inited     bool   `gorm:"not null"` // meaningful-fields guard; set on first registration call
	Registered bool   `gorm:"not null;index"`
	Funded     bool   `gorm:"not null"`
	Stake      int64  `gorm:"not null"` // cumulative funding retained toward the minimum stake
}

// AirlineVote records one admission vote. A voter may vote for a given
// candidate at most once; repeats are a no-op.
type AirlineVote struct {
	gorm.Model
	Candidate string `gorm:"uniqueIndex:idx_candidate_voter;not null"`
	Voter     string `gorm:"uniqueIndex:idx_candidate_voter;not null"`
}

// Flight is a registered flight. Key is the base58 rendering of
// sha256(airline | code | timestamp) and is immutable once created.
type Flight struct {
	gorm.Model
	Key        string `gorm:"uniqueIndex;not null"`
	Airline    string `gorm:"index;not null"`
	Code       string `gorm:"not null"`
	Timestamp  int64  `gorm:"not null"`
	StatusCode uint8  `gorm:"not null"` // ledger.StatusUnknown until updated via finalization
	UpdatedTs  int64  // timestamp carried by the last status update
}

// InsurancePolicy is one purchased policy entry. The same passenger may hold
// multiple entries on the same flight; no dedup at this layer.
type InsurancePolicy struct {
	gorm.Model
	FlightKey string `gorm:"index;not null"`
	Passenger string `gorm:"index;not null"`
	Premium   int64  `gorm:"not null"`
	Credited  bool   `gorm:"not null"`
}

// InsureeCredit is the accumulated withdrawable balance owed to a passenger.
// It only grows during crediting and is zeroed, never decremented, on payout.
type InsureeCredit struct {
	gorm.Model
	Passenger string `gorm:"uniqueIndex;not null"`
	Amount    int64  `gorm:"not null"`
}

// OracleWorker is a registered oracle identity with its fixed index group.
type OracleWorker struct {
	gorm.Model
	Address string `gorm:"uniqueIndex;not null"`
	Index0  uint8  `gorm:"not null"`
	Index1  uint8  `gorm:"not null"`
	Index2  uint8  `gorm:"not null"`
	Stake   int64  `gorm:"not null"`
}

// Indices returns the worker's assigned index group.
func (w *OracleWorker) Indices() [3]uint8 {
	return [3]uint8{w.Index0, w.Index1, w.Index2}
}

// HasIndex reports whether idx is among the worker's assigned indices.
func (w *OracleWorker) HasIndex(idx uint8) bool {
	return idx == w.Index0 || idx == w.Index1 || idx == w.Index2
}

// Payout is an audit record of one settlement. Pruned by the retention job.
type Payout struct {
	gorm.Model
	Passenger string `gorm:"index;not null"`
	Amount    int64  `gorm:"not null"`
}
