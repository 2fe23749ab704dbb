package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/ledger/memory"
)

func seedBudget(t *testing.T, store ledger.Store, p core.Period, category string, yen int64) {
	t.Helper()
	err := store.UpsertBudget(context.Background(), core.BudgetEntry{
		Period:   p,
		Category: category,
		Amount:   core.Money{Yen: yen},
	})
	if err != nil {
		t.Fatalf("seed budget: %v", err)
	}
}

func TestReportPage(t *testing.T) {
	store := memory.New()
	seedExpense(t, store, core.NewDate(2025, time.July, 5), "食費", "", 500)
	srv := newTestServer(t, store)

	rr := doGet(srv, "/report")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "表示月") {
		t.Error("report page missing month picker")
	}
	// Current month is prepended and selected; the data month listed.
	if !strings.Contains(body, `value="2025年08月" selected`) {
		t.Errorf("current month not selected: %s", body)
	}
	if !strings.Contains(body, "2025年07月") {
		t.Error("report page missing month with data")
	}
}

func TestReportFragment_BudgetAndActual(t *testing.T) {
	store := memory.New()
	p := core.NewPeriod(2025, time.August)
	seedBudget(t, store, p, "食費", 30000)
	seedExpense(t, store, core.NewDate(2025, time.August, 10), "食費", "スーパー", 1200)
	srv := newTestServer(t, store)

	rr := doGet(srv, "/ui/report")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := rr.Body.String()
	for _, want := range []string{
		"総予算", "¥30,000",
		"総支出", "¥1,200",
		"残り", "¥28,800",
		"予算消化率 4%",
		"食費",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestReportFragment_NoBudgetNoRatio(t *testing.T) {
	store := memory.New()
	seedExpense(t, store, core.NewDate(2025, time.August, 10), "食費", "", 1200)
	srv := newTestServer(t, store)

	rr := doGet(srv, "/ui/report")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := rr.Body.String()
	if strings.Contains(body, "予算消化率") {
		t.Error("ratio should be hidden when no budget is set")
	}
	if !strings.Contains(body, "-¥1,200") {
		t.Errorf("remaining should go negative: %s", body)
	}
}

func TestReportFragment_EmptyMonth(t *testing.T) {
	store := memory.New()
	seedExpense(t, store, core.NewDate(2025, time.August, 10), "食費", "", 1200)
	srv := newTestServer(t, store)

	rr := doGet(srv, "/ui/report?period="+url.QueryEscape("2025年07月"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "この月のデータはまだありません") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestReportFragment_PeriodRememberedOnSession(t *testing.T) {
	store := memory.New()
	seedExpense(t, store, core.NewDate(2025, time.July, 1), "食費", "先月分", 300)
	srv := newTestServer(t, store)

	// Select July explicitly, then load history without a parameter.
	rr := doGet(srv, "/ui/report?period="+url.QueryEscape("2025年07月"))
	cookie := sessionCookie(t, rr)

	history := doGet(srv, "/ui/history", cookie)
	if history.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", history.Code)
	}
	if !strings.Contains(history.Body.String(), "先月分") {
		t.Error("history should follow the month selected on the session")
	}
}

func TestBudgetForm(t *testing.T) {
	store := memory.New()
	p := core.NewPeriod(2025, time.August)
	seedBudget(t, store, p, "食費", 30000)
	srv := newTestServer(t, store)

	rr := doGet(srv, "/ui/budget-form")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := rr.Body.String()
	for _, want := range []string{
		`name="period" value="2025年08月"`,
		`value="30000"`,
		"予算を保存",
		"追加項目",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("budget form missing %q", want)
		}
	}
	// Full taxonomy renders even without budgets.
	for _, category := range core.Categories() {
		if !strings.Contains(body, category) {
			t.Errorf("budget form missing category %q", category)
		}
	}
}

func TestSaveBudgets(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store)

	rr := postForm(srv, "/budgets", url.Values{
		"period":     {"2025年08月"},
		"categories": {"食費", "家賃", ""},
		"amounts":    {"30000", "85000", "0"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "保存しました！") {
		t.Errorf("body = %s", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), eventBudgetSaved) {
		t.Errorf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}

	budgets, err := store.BudgetsByPeriod(context.Background(), core.NewPeriod(2025, time.August))
	if err != nil {
		t.Fatalf("BudgetsByPeriod: %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("saved %d budgets, want 2 (empty row skipped): %v", len(budgets), budgets)
	}
	if budgets["食費"].Yen != 30000 || budgets["家賃"].Yen != 85000 {
		t.Errorf("budgets = %v", budgets)
	}
}

func TestSaveBudgets_InvalidPeriod(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rr := postForm(srv, "/budgets", url.Values{
		"period":     {"August 2025"},
		"categories": {"食費"},
		"amounts":    {"30000"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "対象月が不正です") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSaveBudgets_MismatchedRows(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rr := postForm(srv, "/budgets", url.Values{
		"period":     {"2025年08月"},
		"categories": {"食費", "家賃"},
		"amounts":    {"30000"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSaveBudgets_InvalidAmount(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store)

	rr := postForm(srv, "/budgets", url.Values{
		"period":     {"2025年08月"},
		"categories": {"食費"},
		"amounts":    {"たくさん"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "「食費」の予算額が不正です") {
		t.Errorf("body = %s", rr.Body.String())
	}

	budgets, _ := store.BudgetsByPeriod(context.Background(), core.NewPeriod(2025, time.August))
	if len(budgets) != 0 {
		t.Errorf("nothing should be saved on validation failure, got %v", budgets)
	}
}
