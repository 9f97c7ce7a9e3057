// Package feed defines the trigger boundary: an external subscription
// delivers tuples saying "a status decision is needed" for a flight. The
// core only consumes this stream, it does not originate it.
package feed

// Trigger identifies one logical oracle request. Workers whose assigned
// index group contains RequestIndex are expected to answer.
type Trigger struct {
	RequestIndex uint8
	Airline      string
	FlightCode   string
	Timestamp    int64
}

// Source is a stream of triggers. Implementations own their goroutines;
// Stop closes the stream.
type Source interface {
	Triggers() <-chan Trigger
	Stop()
}

// ChanSource is a Source backed by a plain channel, used in tests and by
// embedders that already have a delivery mechanism.
type ChanSource struct {
	ch chan Trigger
}

// NewChanSource creates a buffered channel source.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan Trigger, buffer)}
}

// Emit delivers one trigger to consumers.
func (s *ChanSource) Emit(t Trigger) {
	s.ch <- t
}

// Triggers implements Source.
func (s *ChanSource) Triggers() <-chan Trigger {
	return s.ch
}

// Stop closes the stream.
func (s *ChanSource) Stop() {
	close(s.ch)
}
