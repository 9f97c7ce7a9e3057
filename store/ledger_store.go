package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore provides database operations for the ledger aggregate. It is a
// thin query layer over *gorm.DB; business rules live in the ledger package.
type LedgerStore struct {
	client *gorm.DB
}

// NewLedgerStore creates a new ledger store over a gorm client.
func NewLedgerStore(client *gorm.DB) *LedgerStore {
	return &LedgerStore{client: client}
}

// WithTx runs fn against a store bound to a database transaction. The whole
// fn commits or rolls back as one unit.
func (s *LedgerStore) WithTx(fn func(tx *LedgerStore) error) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	return s.client.Transaction(func(tx *gorm.DB) error {
		return fn(NewLedgerStore(tx))
	})
}

// EnsureState loads the single aggregate state row, creating it with the
// given owner and operational=true if it does not exist yet.
func (s *LedgerStore) EnsureState(owner string) (*LedgerState, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}

	var state LedgerState
	result := s.client.First(&state)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			state = LedgerState{
				Owner:       owner,
				Operational: true,
			}
			if err := s.client.Create(&state).Error; err != nil {
				return nil, fmt.Errorf("failed to create ledger state: %w", err)
			}
			return &state, nil
		}
		return nil, fmt.Errorf("failed to load ledger state: %w", result.Error)
	}
	return &state, nil
}

// GetState returns the aggregate state row.
func (s *LedgerStore) GetState() (*LedgerState, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var state LedgerState
	if err := s.client.First(&state).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	return &state, nil
}

// SaveState persists the aggregate state row.
func (s *LedgerStore) SaveState(state *LedgerState) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Save(state).Error; err != nil {
		return fmt.Errorf("failed to save ledger state: %w", err)
	}
	return nil
}

// IsAuthorized reports whether the address holds a caller grant.
func (s *LedgerStore) IsAuthorized(address string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("database is nil")
	}
	var count int64
	if err := s.client.Model(&AuthorizedCaller{}).
		Where("address = ?", address).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to query authorized callers: %w", err)
	}
	return count > 0, nil
}

// AddAuthorizedCaller grants a caller capability. Granting twice is a no-op.
func (s *LedgerStore) AddAuthorizedCaller(address string) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	caller := AuthorizedCaller{Address: address}
	if err := s.client.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&caller).Error; err != nil {
		return fmt.Errorf("failed to add authorized caller: %w", err)
	}
	return nil
}

// GetAirline returns the airline record for the address, or (nil, nil) when
// no record exists.
func (s *LedgerStore) GetAirline(address string) (*Airline, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var airline Airline
	result := s.client.Where("address = ?", address).First(&airline)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query airline: %w", result.Error)
	}
	return &airline, nil
}

// CreateAirline inserts a new airline record.
func (s *LedgerStore) CreateAirline(airline *Airline) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Create(airline).Error; err != nil {
		return fmt.Errorf("failed to create airline: %w", err)
	}
	return nil
}

// SaveAirline persists changes to an airline record.
func (s *LedgerStore) SaveAirline(airline *Airline) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Save(airline).Error; err != nil {
		return fmt.Errorf("failed to save airline: %w", err)
	}
	return nil
}

// ListAirlines returns all airline records.
func (s *LedgerStore) ListAirlines() ([]Airline, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var airlines []Airline
	if err := s.client.Order("created_at ASC").Find(&airlines).Error; err != nil {
		return nil, fmt.Errorf("failed to list airlines: %w", err)
	}
	return airlines, nil
}

// InsertVoteIfNotExists records one admission vote and reports whether the
// row was inserted. A repeated (candidate, voter) pair inserts nothing.
func (s *LedgerStore) InsertVoteIfNotExists(candidate, voter string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("database is nil")
	}
	vote := AirlineVote{Candidate: candidate, Voter: voter}
	result := s.client.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&vote)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert vote: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountVotes returns the number of distinct voters recorded for a candidate.
func (s *LedgerStore) CountVotes(candidate string) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("database is nil")
	}
	var count int64
	if err := s.client.Model(&AirlineVote{}).
		Where("candidate = ?", candidate).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// GetFlight returns the flight for the derived key, or (nil, nil) when no
// record exists.
func (s *LedgerStore) GetFlight(key string) (*Flight, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var flight Flight
	result := s.client.Where("key = ?", key).First(&flight)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query flight: %w", result.Error)
	}
	return &flight, nil
}

// CreateFlight inserts a new flight record.
func (s *LedgerStore) CreateFlight(flight *Flight) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Create(flight).Error; err != nil {
		return fmt.Errorf("failed to create flight: %w", err)
	}
	return nil
}

// UpdateFlightStatus unconditionally overwrites a flight's status code and
// updated timestamp. Idempotent re-application is safe.
func (s *LedgerStore) UpdateFlightStatus(key string, statusCode uint8, updatedTs int64) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	result := s.client.Model(&Flight{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{
			"status_code": statusCode,
			"updated_ts":  updatedTs,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update flight status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("flight %s not found", key)
	}
	return nil
}

// ListFlights returns registered flights, newest first.
func (s *LedgerStore) ListFlights(limit int) ([]Flight, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var flights []Flight
	if err := s.client.Order("created_at DESC").Limit(limit).Find(&flights).Error; err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return flights, nil
}

// CreatePolicy appends one insurance policy entry.
func (s *LedgerStore) CreatePolicy(policy *InsurancePolicy) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Create(policy).Error; err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}
	return nil
}

// GetPoliciesByFlight returns all policy entries for a flight key in
// purchase order.
func (s *LedgerStore) GetPoliciesByFlight(key string) ([]InsurancePolicy, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var policies []InsurancePolicy
	if err := s.client.
		Where("flight_key = ?", key).
		Order("id ASC").
		Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	return policies, nil
}

// MarkPoliciesCredited flips the credited flag for all entries of a flight.
func (s *LedgerStore) MarkPoliciesCredited(key string) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Model(&InsurancePolicy{}).
		Where("flight_key = ?", key).
		Update("credited", true).Error; err != nil {
		return fmt.Errorf("failed to mark policies credited: %w", err)
	}
	return nil
}

// AddCredit increases a passenger's withdrawable balance, creating the row
// on first credit.
func (s *LedgerStore) AddCredit(passenger string, delta int64) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}

	var credit InsureeCredit
	result := s.client.Where("passenger = ?", passenger).First(&credit)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			credit = InsureeCredit{Passenger: passenger, Amount: delta}
			if err := s.client.Create(&credit).Error; err != nil {
				return fmt.Errorf("failed to create credit: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to query credit: %w", result.Error)
	}

	credit.Amount += delta
	if err := s.client.Save(&credit).Error; err != nil {
		return fmt.Errorf("failed to update credit: %w", err)
	}
	return nil
}

// GetCredit returns a passenger's balance; zero when no row exists.
func (s *LedgerStore) GetCredit(passenger string) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("database is nil")
	}
	var credit InsureeCredit
	result := s.client.Where("passenger = ?", passenger).First(&credit)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query credit: %w", result.Error)
	}
	return credit.Amount, nil
}

// ZeroCredit reads and zeroes a passenger's balance, returning the amount
// that was outstanding. Zero is returned when no row exists.
func (s *LedgerStore) ZeroCredit(passenger string) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("database is nil")
	}

	var credit InsureeCredit
	result := s.client.Where("passenger = ?", passenger).First(&credit)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query credit: %w", result.Error)
	}

	amount := credit.Amount
	credit.Amount = 0
	if err := s.client.Save(&credit).Error; err != nil {
		return 0, fmt.Errorf("failed to zero credit: %w", err)
	}
	return amount, nil
}

// NextOracleNonce increments and returns the ledger-visible nonce that
// seeds oracle index assignment.
func (s *LedgerStore) NextOracleNonce() (uint64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("database is nil")
	}
	var state LedgerState
	if err := s.client.First(&state).Error; err != nil {
		return 0, fmt.Errorf("failed to load ledger state: %w", err)
	}
	state.OracleNonce++
	if err := s.client.Save(&state).Error; err != nil {
		return 0, fmt.Errorf("failed to save oracle nonce: %w", err)
	}
	return state.OracleNonce, nil
}

// GetOracleWorker returns the worker for the address, or (nil, nil) when no
// record exists.
func (s *LedgerStore) GetOracleWorker(address string) (*OracleWorker, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var worker OracleWorker
	result := s.client.Where("address = ?", address).First(&worker)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query oracle worker: %w", result.Error)
	}
	return &worker, nil
}

// CreateOracleWorker inserts a new worker registration.
func (s *LedgerStore) CreateOracleWorker(worker *OracleWorker) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Create(worker).Error; err != nil {
		return fmt.Errorf("failed to create oracle worker: %w", err)
	}
	return nil
}

// ListOracleWorkers returns all registered workers in registration order.
func (s *LedgerStore) ListOracleWorkers() ([]OracleWorker, error) {
	if s.client == nil {
		return nil, fmt.Errorf("database is nil")
	}
	var workers []OracleWorker
	if err := s.client.Order("id ASC").Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("failed to list oracle workers: %w", err)
	}
	return workers, nil
}

// CreatePayout appends one settlement audit record.
func (s *LedgerStore) CreatePayout(payout *Payout) error {
	if s.client == nil {
		return fmt.Errorf("database is nil")
	}
	if err := s.client.Create(payout).Error; err != nil {
		return fmt.Errorf("failed to create payout record: %w", err)
	}
	return nil
}

// PruneOldPayouts hard-deletes settlement audit rows created before the
// cutoff and returns the number of rows removed.
func (s *LedgerStore) PruneOldPayouts(cutoff time.Time) (int64, error) {
	if s.client == nil {
		return 0, fmt.Errorf("database is nil")
	}
	result := s.client.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&Payout{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune payouts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
