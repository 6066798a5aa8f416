package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets is a minimal stand-in for the values endpoints of the Sheets API.
type fakeSheets struct {
	mu      sync.Mutex
	values  [][]interface{}
	calls   []string
	input   string
	failGet bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "get")
		if f.failGet {
			http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "sheet1", "values": f.values})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		f.values = nil
		_ = json.NewEncoder(w).Encode(map[string]any{"clearedRange": "sheet1"})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "update")
		f.input = r.URL.Query().Get("valueInputOption")
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.Unmarshal(body, &vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.values = vr.Values
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": len(vr.Values)})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func TestClient_Load(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"Date", "Type", "Income", "Expense", "Category", "Income/Expense"},
		{"2024-03-01", "pay", "1,000", "", "Salary", "Income"},
		{"2024-03-05", "lunch", "", "₹300", "Food", "Expense"},
	}}
	c := newTestClient(t, f)

	rows, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	totals := core.CalcTotals(core.Normalize(rows))
	if totals.Income != 1000 || totals.Expense != 300 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestClient_LoadError(t *testing.T) {
	c := newTestClient(t, &fakeSheets{failGet: true})
	if _, err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_SaveThenLoad(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{{"Date"}, {"2020-01-01"}, {"2020-01-02"}}}
	c := newTestClient(t, f)
	ts := []core.Transaction{{
		Date:                core.NewDate(2024, 3, 1),
		Time:                "09:00",
		Description:         "pay",
		Income:              1000,
		RemainingBalance:    1000,
		HasRemainingBalance: true,
		Category:            "Salary",
		Kind:                core.KindIncome,
	}}

	if err := c.Save(context.Background(), ts); err != nil {
		t.Fatalf("save: %v", err)
	}
	if strings.Join(f.calls, ",") != "clear,update" {
		t.Fatalf("unexpected call order: %v", f.calls)
	}
	if f.input != valueInputOption {
		t.Fatalf("expected %s input, got %q", valueInputOption, f.input)
	}
	if len(f.values) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(f.values))
	}

	rows, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := core.Normalize(rows)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Date.String() != "2024-03-01" || got[0].Income != 1000 || got[0].Category != "Salary" {
		t.Fatalf("unexpected row: %+v", got[0])
	}
	if !got[0].HasRemainingBalance || got[0].RemainingBalance != 1000 {
		t.Fatalf("unexpected balance: %+v", got[0])
	}
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Load(context.Background()); !errors.Is(err, ports.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := c.Save(context.Background(), nil); !errors.Is(err, ports.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNew_MissingSpreadsheet(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet")
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{Spreadsheet: "abc"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}
