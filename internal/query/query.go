// Package query filters and orders expense snapshots. Everything here is pure
// and safe to call from any goroutine.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ryanuber/go-glob"

	"github.com/spendline/spendline/internal/model"
)

// Field is a sortable column.
type Field string

const (
	ByDate     Field = "date"
	ByAmount   Field = "amount"
	ByCategory Field = "category"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is the active column and direction.
type Sort struct {
	Field Field
	Order Order
}

// DefaultSort is what the expense list opens with: newest first.
func DefaultSort() Sort {
	return Sort{Field: ByDate, Order: Desc}
}

// Toggle returns the sort after the user picked field: the same column flips
// direction, a different column starts ascending.
func (s Sort) Toggle(field Field) Sort {
	if s.Field == field {
		if s.Order == Asc {
			return Sort{Field: field, Order: Desc}
		}
		return Sort{Field: field, Order: Asc}
	}
	return Sort{Field: field, Order: Asc}
}

func (s Sort) String() string {
	return fmt.Sprintf("%s %s", s.Field, s.Order)
}

// Query is a filter plus a sort. Zero filter fields match everything.
type Query struct {
	Category model.Category
	From     time.Time // inclusive
	To       time.Time // inclusive
	Match    string    // case-insensitive description glob, e.g. "*coffee*"
	Sort     Sort
}

// Default returns the unfiltered query with the default sort.
func Default() Query {
	return Query{Sort: DefaultSort()}
}

// Matches reports whether e passes every filter in q.
func (q Query) Matches(e model.Expense) bool {
	if q.Category != "" && e.Category != q.Category {
		return false
	}
	if !q.From.IsZero() && e.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && e.Date.After(q.To) {
		return false
	}
	if q.Match != "" && !glob.Glob(strings.ToLower(q.Match), strings.ToLower(e.Description)) {
		return false
	}
	return true
}

// Apply returns the expenses that match q, ordered by q.Sort. The input is
// never modified. Equal keys keep their input order in both directions.
func Apply(expenses []model.Expense, q Query) []model.Expense {
	out := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if q.Matches(e) {
			out = append(out, e)
		}
	}

	less := lessFunc(q.Sort.Field)
	if less == nil {
		return out
	}
	if q.Sort.Order == Desc {
		sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

func lessFunc(f Field) func(a, b model.Expense) bool {
	switch f {
	case ByDate:
		return func(a, b model.Expense) bool { return a.Date.Before(b.Date.Time) }
	case ByAmount:
		return func(a, b model.Expense) bool { return a.Amount.LessThan(b.Amount) }
	case ByCategory:
		return func(a, b model.Expense) bool { return a.Category.String() < b.Category.String() }
	}
	return nil
}

// ParseField accepts a column name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case ByDate, ByAmount, ByCategory:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q (want date, amount or category)", s)
}

// ParseOrder accepts asc or desc.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
}

// EndOfDay returns the last representable instant of t's calendar day, for
// turning a date-only upper bound into an inclusive one.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}
