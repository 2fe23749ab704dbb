package core

import (
	"errors"
	"time"
)

type (
	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Money is an amount in whole yen, the smallest currency unit.
	Money struct {
		Yen int64
	}

	// Expense is a committed ledger record. ID is assigned by the store
	// on insert and never reused.
	Expense struct {
		ID       int64
		Date     Date
		Category string
		Item     string
		Amount   Money
	}

	// BudgetEntry is the budgeted ceiling for one category in one period.
	// At most one entry exists per (period, category); writes upsert.
	BudgetEntry struct {
		Period   Period
		Category string
		Amount   Money
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidPeriod   = errors.New("invalid period token")

	// ErrExtraction is the single failure mode of receipt extraction;
	// every model, image, or parse problem wraps it.
	ErrExtraction = errors.New("receipt extraction failed")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as ISO YYYY-MM-DD, the persisted form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (m Money) Validate() error {
	if m.Yen < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !IsValidCategory(e.Category) {
		return ErrUnknownCategory
	}
	// Item may be empty and amount may be zero; neither is an error.
	return nil
}

func (b BudgetEntry) Validate() error {
	if _, err := ParsePeriod(string(b.Period)); err != nil {
		return err
	}
	if b.Category == "" {
		return ErrUnknownCategory
	}
	return b.Amount.Validate()
}
