package core

import "time"

// Draft is the transient candidate record staged between receipt
// extraction and user confirmation. It is never persisted; it lives in
// the session until committed or discarded.
type Draft struct {
	Date     Date
	Amount   Money
	Item     string
	Category string
}

// NewDraft returns the empty-state draft the entry form shows before any
// scan: today's date, zero amount, no item, the default category.
func NewDraft(now time.Time) Draft {
	return Draft{
		Date:     DateOf(now),
		Amount:   Money{},
		Item:     "",
		Category: DefaultCategory,
	}
}

// Expense converts the draft to a committable record. The category is
// normalized once more so a hand-edited form value can never bypass the
// taxonomy.
func (d Draft) Expense() Expense {
	return Expense{
		Date:     d.Date,
		Category: NormalizeCategory(d.Category),
		Item:     d.Item,
		Amount:   d.Amount,
	}
}
