package core

// CategoryLine is one detail row of the month report: budget versus
// actual for a single category, with the signed balance.
type CategoryLine struct {
	Category string
	Budget   Money
	Actual   Money
	Balance  Money // Budget - Actual, negative when overspent
}

// MonthReport is the budget-vs-actual summary for one period.
//
// Actual maps category to the summed spend; categories without matching
// records are absent, not present with zero. Lines carries only rows
// where budget or actual is nonzero, in taxonomy order. Ratio is the
// consumption ratio capped at 1.0 and is only meaningful when HasRatio
// is set (total budget > 0); with no budget there is nothing to consume.
type MonthReport struct {
	Period      Period
	Actual      map[string]Money
	Budget      map[string]Money
	TotalBudget Money
	TotalActual Money
	Remaining   Money // TotalBudget - TotalActual, may be negative
	Ratio       float64
	HasRatio    bool
	Lines       []CategoryLine
}
