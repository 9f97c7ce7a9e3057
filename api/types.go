package api

import (
	"github.com/skysurety/skysurety-node/ledger"
	"github.com/skysurety/skysurety-node/store"
)

// LedgerReader is the read-only slice of the ledger the query surface
// exposes. No mutating operation is reachable over HTTP.
type LedgerReader interface {
	IsOperational() (bool, error)
	RetainedBalance() (int64, error)
	Flight(flightKey string) (*store.Flight, error)
	Credit(passenger ledger.Identity) (int64, error)
	Store() *store.LedgerStore
}

// StatusResponse reports daemon liveness and the ledger's operational state.
type StatusResponse struct {
	Operational     bool  `json:"operational"`
	RetainedBalance int64 `json:"retained_balance"`
}

// FlightResponse is the public view of a flight record.
type FlightResponse struct {
	Key        string `json:"key"`
	Airline    string `json:"airline"`
	Code       string `json:"code"`
	Timestamp  int64  `json:"timestamp"`
	Status     string `json:"status"`
	StatusCode uint8  `json:"status_code"`
	UpdatedTs  int64  `json:"updated_ts,omitempty"`
}

// CreditResponse is the public view of a passenger's balance.
type CreditResponse struct {
	Passenger string `json:"passenger"`
	Amount    int64  `json:"amount"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
