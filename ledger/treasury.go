package ledger

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/skysurety/skysurety-node/logger"
)

// BookTreasury is a book-entry Treasury: transfers are recorded and logged
// rather than moved through a bank or chain integration. The daemon uses it
// as the default external-funds boundary; deployments with a real transfer
// mechanism supply their own Treasury.
type BookTreasury struct {
	mu sync.Mutex

	ownerBalance int64
	released     map[Identity]int64

	log zerolog.Logger
}

// NewBookTreasury creates an empty book-entry treasury.
func NewBookTreasury(log zerolog.Logger) *BookTreasury {
	return &BookTreasury{
		released: make(map[Identity]int64),
		log:      logger.Component(log, "treasury"),
	}
}

// ForwardToOwner records funds forwarded to the owner account.
func (t *BookTreasury) ForwardToOwner(amount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ownerBalance += amount
	t.log.Debug().Int64("amount", amount).Int64("owner_balance", t.ownerBalance).Msg("forwarded to owner")
	return nil
}

// ReleaseToPassenger records a settled payout released to a passenger.
func (t *BookTreasury) ReleaseToPassenger(passenger Identity, amount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.released[passenger] += amount
	t.log.Debug().Str("passenger", string(passenger)).Int64("amount", amount).Msg("released to passenger")
	return nil
}

// OwnerBalance returns the total forwarded to the owner.
func (t *BookTreasury) OwnerBalance() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ownerBalance
}

// Released returns the total released to a passenger.
func (t *BookTreasury) Released(passenger Identity) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released[passenger]
}
