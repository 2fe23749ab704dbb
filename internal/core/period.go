package core

import (
	"fmt"
	"regexp"
	"time"
)

// Period identifies a budgeting month as a "YYYY年MM月" token. Two dates
// in the same calendar month always map to the same token regardless of
// day, and the token is the budget table's key, so it stays a string
// rather than a (year, month) pair.
type Period string

var periodPattern = regexp.MustCompile(`^\d{4}年\d{2}月$`)

// NewPeriod builds the token for a year and month.
func NewPeriod(year int, month time.Month) Period {
	return Period(fmt.Sprintf("%04d年%02d月", year, int(month)))
}

// Period returns the token of the month the date falls in.
func (d Date) Period() Period {
	return NewPeriod(d.Time.Year(), d.Time.Month())
}

// CurrentPeriod returns the token for now's month.
func CurrentPeriod(now time.Time) Period {
	return NewPeriod(now.Year(), now.Month())
}

// ParsePeriod validates an externally supplied token.
func ParsePeriod(s string) (Period, error) {
	if !periodPattern.MatchString(s) {
		return "", ErrInvalidPeriod
	}
	return Period(s), nil
}

func (p Period) String() string {
	return string(p)
}
