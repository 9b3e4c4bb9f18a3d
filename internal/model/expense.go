// Package model defines the domain types shared by the spendline controllers.
package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/apierr"
)

// Expense is a single server-confirmed expense record.
type Expense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	Date        Timestamp       `json:"date"`
}

// Draft holds the user-editable fields of an expense before submission.
type Draft struct {
	Amount      decimal.Decimal
	Category    Category
	Description string
	Date        Timestamp
}

// DraftOf returns a draft pre-filled from e, for edits.
func DraftOf(e Expense) Draft {
	return Draft{
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
	}
}

// Normalize trims the description.
func (d Draft) Normalize() Draft {
	d.Description = strings.TrimSpace(d.Description)
	return d
}

// Validate checks the draft the way the entry forms do before anything is sent.
func (d Draft) Validate() error {
	if !d.Amount.IsPositive() {
		return apierr.Validation("amount", "enter a valid amount greater than 0")
	}
	if d.Category == "" {
		return apierr.Validation("category", "select a category")
	}
	if !d.Category.Valid() {
		return apierr.Validation("category", "unknown category %q", d.Category)
	}
	if strings.TrimSpace(d.Description) == "" {
		return apierr.Validation("description", "enter a description")
	}
	if len(d.Description) > 255 {
		return apierr.Validation("description", "must be at most 255 characters")
	}
	if d.Date.IsZero() {
		return apierr.Validation("date", "select a date")
	}
	return nil
}
