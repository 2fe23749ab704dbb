package memory

import (
	"context"
	"testing"
	"time"

	"kakeibo/internal/core"
)

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := core.Expense{Date: core.NewDate(2024, time.March, 1), Category: "食費", Amount: core.Money{Yen: 500}}
	id1, err := s.Append(ctx, e)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := s.Append(ctx, e)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids not monotonic: %d then %d", id1, id2)
	}

	// Ids are never reused, even after a delete.
	if err := s.Delete(ctx, id2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	id3, _ := s.Append(ctx, e)
	if id3 == id2 {
		t.Fatalf("id %d was reused", id2)
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.Append(ctx, core.Expense{Date: core.NewDate(2024, time.March, 1), Category: "食費", Amount: core.Money{Yen: 100}})

	if err := s.Delete(ctx, 9999); err != nil {
		t.Fatalf("deleting unknown id must not error: %v", err)
	}
	items, _ := s.ListAll(ctx)
	if len(items) != 1 || items[0].ID != id {
		t.Fatalf("store state changed by no-op delete: %+v", items)
	}
}

func TestBudgetUpsertLastWriteWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := core.NewPeriod(2024, time.March)

	for _, amt := range []int64{10000, 25000} {
		err := s.UpsertBudget(ctx, core.BudgetEntry{Period: p, Category: "食費", Amount: core.Money{Yen: amt}})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	budgets, err := s.BudgetsByPeriod(ctx, p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(budgets))
	}
	if budgets["食費"].Yen != 25000 {
		t.Fatalf("expected latest amount 25000, got %d", budgets["食費"].Yen)
	}
}

func TestAppendRejectsInvalidRecords(t *testing.T) {
	s := New()
	_, err := s.Append(context.Background(), core.Expense{Category: "食費"})
	if err == nil {
		t.Fatalf("expected validation error for zero date")
	}
}
