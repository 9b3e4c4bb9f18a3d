package lifetime

import (
	"errors"
	"testing"
)

func TestTicketInvalidation(t *testing.T) {
	var g Guard
	first := g.Begin()
	if !first.Valid() {
		t.Fatal("fresh ticket should be valid")
	}

	g.Invalidate()
	if first.Valid() {
		t.Fatal("ticket should be stale after Invalidate")
	}
	if err := first.Check(); !errors.Is(err, ErrStale) {
		t.Fatalf("Check() = %v, want ErrStale", err)
	}

	second := g.Begin()
	if err := second.Check(); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
	if got := g.Generation(); got != 1 {
		t.Fatalf("Generation() = %d, want 1", got)
	}
}

func TestZeroTicketIsStale(t *testing.T) {
	var tk Ticket
	if tk.Valid() {
		t.Fatal("zero ticket should not be valid")
	}
}
