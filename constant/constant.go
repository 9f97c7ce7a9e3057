package constant

import "os"

// <NodeDir>/                    (e.g., /home/surety/.skysurety)
// └── config/
//	└── skysurety.yaml
// └── databases/
//	└── ledger.db

const (
	NodeDir = ".skysurety"

	ConfigSubdir   = "config"
	ConfigFileName = "skysurety.yaml"

	DatabasesSubdir = "databases"

	LedgerDBFileName = "ledger.db"
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir

// Amounts are fixed-point integers in the smallest currency unit (cents).
const (
	// MinAirlineStake is the funding an airline must accumulate before it may
	// register other airlines or flights. Excess over this amount is forwarded
	// to the owner account and never retained by the ledger.
	MinAirlineStake int64 = 10_000_00

	// OracleStake is the one-time registration fee for an oracle worker.
	OracleStake int64 = 1_000_00
)

const (
	// DirectRegistrationLimit is the number of airlines admitted without a
	// vote. The bootstrap avoids the deadlock where no quorum exists to admit
	// the airlines needed to form a quorum.
	DirectRegistrationLimit = 4

	// OracleIndexCount is the number of index-group slots assigned to each
	// registered worker.
	OracleIndexCount = 3

	// OracleIndexRange bounds assigned indices to [0, OracleIndexRange).
	OracleIndexRange = 10

	// MinOracleResponses is the number of distinct agreeing responders
	// required to finalize a flight status.
	MinOracleResponses = 3
)

const (
	// PayoutNumerator and PayoutDenominator encode the 1.5x payout
	// multiplier. Credits use integer floor division; odd-cent premiums lose
	// the fractional unit. Accepted rounding-down policy.
	PayoutNumerator   int64 = 3
	PayoutDenominator int64 = 2
)
