package ledger

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// DeriveFlightKey computes the composite key for a flight record:
// sha256 over (airline identity, flight code, scheduled timestamp), rendered
// base58 for use as a map/database key and in logs. The same inputs always
// derive the same key; every call site goes through here.
func DeriveFlightKey(airline Identity, flightCode string, timestamp int64) string {
	h := sha256.New()
	h.Write([]byte(airline))
	h.Write([]byte{0})
	h.Write([]byte(flightCode))
	h.Write([]byte{0})

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp))
	h.Write(ts[:])

	return base58.Encode(h.Sum(nil))
}
