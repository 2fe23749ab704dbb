package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger/memory"
)

func TestExportCSV(t *testing.T) {
	store := memory.New()
	seedExpense(t, store, core.NewDate(2025, time.August, 10), "食費", "スーパー", 1200)
	srv := newTestServer(t, store)

	rr := doGet(srv, "/export.csv")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	disposition := rr.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "kakeibo_") {
		t.Errorf("Content-Disposition = %q", disposition)
	}

	body := rr.Body.String()
	if !strings.HasPrefix(body, "\xEF\xBB\xBF") {
		t.Error("export should start with a UTF-8 BOM")
	}
	if !strings.Contains(body, "id,date,category,item,amount") {
		t.Errorf("export missing header: %s", body)
	}
	if !strings.Contains(body, "2025-08-10,食費,スーパー,1200") {
		t.Errorf("export missing row: %s", body)
	}
}

func TestExportCSV_WrongMethod(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rr := postForm(srv, "/export.csv", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestImportCSV(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store)

	csvData := "\xEF\xBB\xBF" +
		"id,date,category,item,amount\n" +
		"1,2025-08-01,食費,コンビニ,480\n" +
		"2,2025-08-02,日用品,洗剤,320\n"

	rr := postMultipart(t, srv, "/import", "file", "kakeibo.csv", []byte(csvData))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "2件インポートしました") {
		t.Errorf("body = %s", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), eventCSVImported) {
		t.Errorf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}

	expenses, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("stored %d expenses, want 2", len(expenses))
	}
}

func TestImportCSV_MalformedRejectedWhole(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store)

	csvData := "id,date,category,item,amount\n" +
		"1,2025-08-01,食費,コンビニ,480\n" +
		"2,2025-08-02,日用品,洗剤,そこそこ\n"

	rr := postMultipart(t, srv, "/import", "file", "kakeibo.csv", []byte(csvData))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "CSVの形式が不正です") {
		t.Errorf("body = %s", rr.Body.String())
	}

	expenses, _ := store.ListAll(context.Background())
	if len(expenses) != 0 {
		t.Errorf("malformed import should write nothing, got %d rows", len(expenses))
	}
}

func TestImportCSV_MissingFile(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rr := postMultipart(t, srv, "/import", "attachment", "kakeibo.csv", []byte("id,date\n"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "CSVファイルを選択してください") {
		t.Errorf("body = %s", rr.Body.String())
	}
}
