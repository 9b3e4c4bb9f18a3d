// Package lifetime discards results that arrive after the state they were
// requested for has been torn down or superseded.
package lifetime

import (
	"errors"
	"sync/atomic"
)

// ErrStale is returned when a response arrived after its ticket was invalidated.
var ErrStale = errors.New("response discarded: state changed while the request was in flight")

// Guard is a generation counter. The zero value is ready to use.
type Guard struct {
	gen atomic.Uint64
}

// Ticket records the generation a request started in.
type Ticket struct {
	g   *Guard
	gen uint64
}

// Begin returns a ticket for the current generation.
func (g *Guard) Begin() Ticket {
	return Ticket{g: g, gen: g.gen.Load()}
}

// Invalidate advances the generation; outstanding tickets become stale.
func (g *Guard) Invalidate() uint64 {
	return g.gen.Add(1)
}

// Generation returns the current generation.
func (g *Guard) Generation() uint64 {
	return g.gen.Load()
}

// Valid reports whether nothing invalidated the guard since Begin.
func (t Ticket) Valid() bool {
	return t.g != nil && t.g.gen.Load() == t.gen
}

// Check returns ErrStale if the ticket is no longer valid.
func (t Ticket) Check() error {
	if !t.Valid() {
		return ErrStale
	}
	return nil
}
