// Package core holds the domain model: dates, yen amounts, expenses,
// budget entries, the category taxonomy and the period token.
package core

import (
	"strconv"
	"strings"
)

// ParseYen converts a decimal string to a whole-yen amount.
//
// Yen has no fractional unit, so only digit strings are accepted; signs,
// separators and decimals are rejected. Zero is a valid amount (the entry
// form permits it), negative values are not representable.
//
// Examples:
//
//	ParseYen("500")  -> Money{Yen: 500}, nil
//	ParseYen("0")    -> Money{Yen: 0}, nil
//	ParseYen("-1")   -> error
//	ParseYen("12.5") -> error
func ParseYen(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Money{}, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Yen: v}, nil
}

// Sub returns m minus other. The result may be negative; overspend is
// representable and rendered distinctly, never clamped.
func (m Money) Sub(other Money) Money {
	return Money{Yen: m.Yen - other.Yen}
}

// Add returns the sum of m and other.
func (m Money) Add(other Money) Money {
	return Money{Yen: m.Yen + other.Yen}
}

// IsZero reports whether the amount is exactly zero yen.
func (m Money) IsZero() bool {
	return m.Yen == 0
}
