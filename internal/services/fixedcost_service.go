package services

import (
	"context"
	"fmt"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
)

// FixedCost is one recurring monthly charge.
type FixedCost struct {
	Category string
	Item     string
	Amount   core.Money
}

// fixedCosts is the household's monthly charges, registered in one
// action instead of six form submissions. The list is deliberately
// hardcoded; it changes a few times a year at most.
var fixedCosts = []FixedCost{
	{Category: "家賃", Item: "家賃", Amount: core.Money{Yen: 85000}},
	{Category: "通信費(Wi-Fi)", Item: "Wi-Fi", Amount: core.Money{Yen: 4800}},
	{Category: "通信費(携帯)", Item: "携帯電話", Amount: core.Money{Yen: 3200}},
	{Category: "ナッシュ", Item: "ナッシュ定期便", Amount: core.Money{Yen: 6780}},
	{Category: "Netflix", Item: "Netflix", Amount: core.Money{Yen: 1590}},
	{Category: "Google One", Item: "Google One", Amount: core.Money{Yen: 250}},
}

// FixedCostService registers the monthly charges in bulk.
type FixedCostService struct {
	store  ledger.ExpenseWriter
	logger *log.Logger
}

func NewFixedCostService(store ledger.ExpenseWriter, logger *log.Logger) *FixedCostService {
	return &FixedCostService{
		store:  store,
		logger: logger.WithComponent(log.ComponentFixedCost),
	}
}

// Items returns the fixed-cost list for display.
func (s *FixedCostService) Items() []FixedCost {
	out := make([]FixedCost, len(fixedCosts))
	copy(out, fixedCosts)
	return out
}

// Total returns the sum of all fixed costs.
func (s *FixedCostService) Total() core.Money {
	var total core.Money
	for _, fc := range fixedCosts {
		total = total.Add(fc.Amount)
	}
	return total
}

// Register inserts every fixed cost as an expense dated to the given
// day. Inserts run one by one without rollback: a failure mid-list
// leaves the earlier rows committed and reports them alongside the
// error.
func (s *FixedCostService) Register(ctx context.Context, date core.Date) ([]core.Expense, error) {
	inserted := make([]core.Expense, 0, len(fixedCosts))
	for _, fc := range fixedCosts {
		e := core.Expense{
			Date:     date,
			Category: fc.Category,
			Item:     fc.Item,
			Amount:   fc.Amount,
		}
		id, err := s.store.Append(ctx, e)
		if err != nil {
			return inserted, fmt.Errorf("register fixed cost %s: %w", fc.Item, err)
		}
		e.ID = id
		inserted = append(inserted, e)
	}

	s.logger.InfoContext(ctx, "Fixed costs registered",
		log.FieldOperation, log.OpCreate,
		log.FieldRowCount, len(inserted),
		log.FieldAmountYen, s.Total().Yen)
	return inserted, nil
}
