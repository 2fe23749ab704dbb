package http

import (
	"kakeibo/internal/core"
	"kakeibo/internal/services"
)

// View models passed to the HTML templates. Money is pre-formatted
// here so templates stay free of arithmetic.

type draftView struct {
	Date       string
	Amount     int64
	Item       string
	Category   string
	Categories []string
	Flash      string
	FlashKind  string
}

func newDraftView(d core.Draft, flash, kind string) draftView {
	return draftView{
		Date:       d.Date.String(),
		Amount:     d.Amount.Yen,
		Item:       d.Item,
		Category:   d.Category,
		Categories: core.Categories(),
		Flash:      flash,
		FlashKind:  kind,
	}
}

type fixedCostView struct {
	Category string
	Item     string
	Amount   string
}

type indexPage struct {
	Draft       draftView
	ScanEnabled bool
	FixedCosts  []fixedCostView
	FixedTotal  string
	Today       string
}

func newFixedCostViews(items []services.FixedCost) []fixedCostView {
	views := make([]fixedCostView, 0, len(items))
	for _, fc := range items {
		views = append(views, fixedCostView{
			Category: fc.Category,
			Item:     fc.Item,
			Amount:   formatYen(fc.Amount),
		})
	}
	return views
}

type reportPage struct {
	Months   []core.Period
	Selected core.Period
}

type reportLineView struct {
	Category string
	Budget   string
	Actual   string
	Balance  string
	Overrun  bool
}

type reportView struct {
	Period      string
	TotalBudget string
	TotalActual string
	Remaining   string
	Overrun     bool
	HasRatio    bool
	Ratio       string
	RatioWidth  int
	Lines       []reportLineView
	HasLines    bool
}

func newReportView(rep core.MonthReport) reportView {
	v := reportView{
		Period:      string(rep.Period),
		TotalBudget: formatYen(rep.TotalBudget),
		TotalActual: formatYen(rep.TotalActual),
		Remaining:   formatYen(rep.Remaining),
		Overrun:     rep.Remaining.Yen < 0,
		HasRatio:    rep.HasRatio,
	}
	if rep.HasRatio {
		v.Ratio = formatPercent(rep.Ratio)
		v.RatioWidth = int(rep.Ratio * 100)
	}
	for _, line := range rep.Lines {
		v.Lines = append(v.Lines, reportLineView{
			Category: line.Category,
			Budget:   formatYen(line.Budget),
			Actual:   formatYen(line.Actual),
			Balance:  formatYen(line.Balance),
			Overrun:  line.Balance.Yen < 0,
		})
	}
	v.HasLines = len(v.Lines) > 0
	return v
}

type budgetRowView struct {
	Category string
	Budget   int64
	Actual   string
}

type budgetFormView struct {
	Period string
	Rows   []budgetRowView
}

func newBudgetFormView(p core.Period, rows []services.BudgetRow) budgetFormView {
	v := budgetFormView{Period: string(p)}
	for _, row := range rows {
		v.Rows = append(v.Rows, budgetRowView{
			Category: row.Category,
			Budget:   row.Budget.Yen,
			Actual:   formatYen(row.Actual),
		})
	}
	return v
}

type historyRowView struct {
	ID       int64
	Date     string
	Category string
	Item     string
	Amount   string
}

type historyView struct {
	Period    string
	Rows      []historyRowView
	HasRows   bool
	Flash     string
	FlashKind string
}

func newHistoryView(p core.Period, expenses []core.Expense) historyView {
	v := historyView{Period: string(p)}
	for _, e := range expenses {
		v.Rows = append(v.Rows, historyRowView{
			ID:       e.ID,
			Date:     e.Date.String(),
			Category: e.Category,
			Item:     e.Item,
			Amount:   formatYen(e.Amount),
		})
	}
	v.HasRows = len(v.Rows) > 0
	return v
}
