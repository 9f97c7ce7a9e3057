package ledger

// Identity is an already-authenticated caller identity. How the identity is
// established (account keys, signatures) is upstream of this core.
type Identity string

// StatusCode is the oracle-determined flight status.
type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

func (s StatusCode) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	default:
		return "invalid"
	}
}

// Valid reports whether s is one of the defined status codes.
func (s StatusCode) Valid() bool {
	switch s {
	case StatusUnknown, StatusOnTime, StatusLateAirline,
		StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

// QualifiesForPayout reports whether a final status credits insurees.
// Only a delay attributable to the airline pays out.
func (s StatusCode) QualifiesForPayout() bool {
	return s == StatusLateAirline
}

// Treasury is the external funds-movement boundary. The ledger tracks the
// amounts owed; the transfer mechanism itself lives outside the core.
type Treasury interface {
	// ForwardToOwner moves funding in excess of the minimum stake to the
	// owner account, keeping the ledger's own balance reserved for payouts.
	ForwardToOwner(amount int64) error

	// ReleaseToPassenger pays out a settled credit balance.
	ReleaseToPassenger(passenger Identity, amount int64) error
}
