package model

import (
	"fmt"
	"strings"
)

// Category classifies an expense.
type Category string

// Known categories, in the order forms list them.
const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Utilities      Category = "Utilities"
	Other          Category = "Other"
)

// Categories lists every known category.
var Categories = []Category{Food, Transportation, Entertainment, Utilities, Other}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
