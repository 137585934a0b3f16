package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ledger/memory"
	"ledger/internal/report"
)

var fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := NewServer(memory.New(), opts)
	s.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestRootAndProbes(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/api/", "/api"} {
		rec := do(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"message":"Expense Tracker API"}`, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

type failingStore struct{ *memory.Store }

func (*failingStore) Scan(context.Context) (core.Snapshot, error) {
	return core.Snapshot{}, errors.New("database is locked")
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	s := NewServer(&failingStore{Store: memory.New()}, Options{})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	rec := do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/summary", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
}

func TestSalaryAndRentScenario(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2024-01-01","category":"Salary","description":"January pay","amount":3000,"type":"income"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeObject(t, rec)
	assert.Equal(t, "3000.00", string(created["amount"]))
	assert.Equal(t, `"income"`, string(created["type"]))
	assert.Equal(t, `"Salary"`, string(created["category"]))
	assert.Equal(t, `"2024-01-01"`, string(created["date"]))
	assert.NotEmpty(t, created["id"])
	assert.NotEmpty(t, created["created_at"])

	rec = do(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2024-01-02","category":"Rent","description":"Flat","amount":"1200.00","type":"expense"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		`{"total_income":3000.00,"total_expense":1200.00,"net_balance":1800.00,"transaction_count":2}`,
		rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		`{"expense_by_category":[{"category":"Rent","amount":1200.00,"percentage":100.00}],`+
			`"income_by_category":[{"category":"Salary","amount":3000.00,"percentage":100.00}]}`,
		rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, `"Rent"`, string(list[0]["category"]), "most recent date first")
}

func TestEmptyLedgerViews(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/api/transactions", "")
	assert.Equal(t, "[]", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/summary", "")
	assert.Equal(t,
		`{"total_income":0.00,"total_expense":0.00,"net_balance":0.00,"transaction_count":0}`,
		rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/analytics", "")
	assert.JSONEq(t, `{"expense_by_category":[],"income_by_category":[]}`, rec.Body.String())
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"date":"2024-01-01","category":"Food","description":"x","amount":-5.00,"type":"expense"}`},
		{"negative amount string", `{"date":"2024-01-01","category":"Food","description":"x","amount":"-5.00","type":"expense"}`},
		{"grouped amount string", `{"date":"2024-01-01","category":"Food","description":"x","amount":"1,200","type":"expense"}`},
		{"grouped decimal amount string", `{"date":"2024-01-01","category":"Food","description":"x","amount":"1,200.00","type":"expense"}`},
		{"zero amount", `{"date":"2024-01-01","category":"Food","description":"x","amount":0,"type":"expense"}`},
		{"amount rounds to zero", `{"date":"2024-01-01","category":"Food","description":"x","amount":0.004,"type":"expense"}`},
		{"amount not numeric", `{"date":"2024-01-01","category":"Food","description":"x","amount":"ten","type":"expense"}`},
		{"amount wrong json type", `{"date":"2024-01-01","category":"Food","description":"x","amount":true,"type":"expense"}`},
		{"missing amount", `{"date":"2024-01-01","category":"Food","description":"x","type":"expense"}`},
		{"category of other type", `{"date":"2024-01-01","category":"Salary","description":"x","amount":1,"type":"expense"}`},
		{"unknown category", `{"date":"2024-01-01","category":"Gambling","description":"x","amount":1,"type":"expense"}`},
		{"unknown type", `{"date":"2024-01-01","category":"Food","description":"x","amount":1,"type":"transfer"}`},
		{"bad date", `{"date":"2024-02-30","category":"Food","description":"x","amount":1,"type":"expense"}`},
		{"blank description", `{"date":"2024-01-01","category":"Food","description":"   ","amount":1,"type":"expense"}`},
		{"description too long", `{"date":"2024-01-01","category":"Food","description":"` + strings.Repeat("a", 201) + `","amount":1,"type":"expense"}`},
		{"malformed json", `{"date":`},
		{"empty body", ``},
		{"two objects", `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Options{})
			rec := do(t, s, http.MethodPost, "/api/transactions", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			body := decodeObject(t, rec)
			assert.NotEmpty(t, body["detail"])

			rec = do(t, s, http.MethodGet, "/api/transactions", "")
			assert.Equal(t, "[]", rec.Body.String(), "ledger must be unchanged")
		})
	}
}

func TestCreateTransactionAmountParsing(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{`10`, "10.00"},
		{`"12.34"`, "12.34"},
		{`12.345`, "12.35"},
		{`"12.344"`, "12.34"},
		{`0.005`, "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			s := newTestServer(t, Options{})
			rec := do(t, s, http.MethodPost, "/api/transactions",
				`{"date":"2024-03-01","category":"Food","description":"Lunch","amount":`+tt.amount+`,"type":"expense"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, string(decodeObject(t, rec)["amount"]))
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2024-01-01","category":"Food","description":"Groceries","amount":42.5,"type":"expense"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var id string
	require.NoError(t, json.Unmarshal(decodeObject(t, rec)["id"], &id))

	rec = do(t, s, http.MethodDelete, "/api/transactions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Transaction deleted successfully"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/summary", "")
	assert.Contains(t, rec.Body.String(), `"total_expense":0.00`)
	assert.Contains(t, rec.Body.String(), `"transaction_count":0`)

	rec = do(t, s, http.MethodDelete, "/api/transactions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Transaction not found"}`, rec.Body.String())

	rec = do(t, s, http.MethodDelete, "/api/transactions/never-issued", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportPDF(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/reports/pdf", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=expense_report_20240115.pdf", rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "%PDF-"))
	assert.Contains(t, body[len(body)-16:], "%%EOF")
}

func TestReportPDFIsCachedPerRevision(t *testing.T) {
	s := newTestServer(t, Options{})
	var renders atomic.Int32
	s.render = func(in report.Input) ([]byte, error) {
		renders.Add(1)
		return report.Render(in)
	}

	first := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	second := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, int32(1), renders.Load())

	rec := do(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2024-01-05","category":"Freelance","description":"Gig","amount":250,"type":"income"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	third := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, int32(2), renders.Load(), "a new revision renders again")
	assert.NotEqual(t, first.Body.Bytes(), third.Body.Bytes())

	s.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	fourth := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	require.Equal(t, http.StatusOK, fourth.Code)
	assert.Equal(t, int32(3), renders.Load(), "a new day renders again")
	assert.Equal(t, "attachment; filename=expense_report_20240116.pdf", fourth.Header().Get("Content-Disposition"))

	stats := s.ReportCacheStats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestReportPDFUsesUTCDay(t *testing.T) {
	s := newTestServer(t, Options{})
	var generated []time.Time
	s.render = func(in report.Input) ([]byte, error) {
		generated = append(generated, in.GeneratedAt)
		return report.Render(in)
	}
	plus3 := time.FixedZone("UTC+3", 3*60*60)

	// 01:00 local on the 16th is still the 15th in UTC.
	s.now = func() time.Time { return time.Date(2024, 1, 16, 1, 0, 0, 0, plus3) }
	first := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "attachment; filename=expense_report_20240115.pdf", first.Header().Get("Content-Disposition"))

	s.now = func() time.Time { return time.Date(2024, 1, 16, 23, 0, 0, 0, plus3) }
	second := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "attachment; filename=expense_report_20240116.pdf", second.Header().Get("Content-Disposition"))

	require.Len(t, generated, 2, "each UTC day renders its own document")
	assert.Equal(t, "20240115", generated[0].Format("20060102"))
	assert.Equal(t, "20240116", generated[1].Format("20060102"))
	assert.Equal(t, time.UTC, generated[1].Location())
}

func TestReportPDFRenderFailure(t *testing.T) {
	s := newTestServer(t, Options{})
	var calls atomic.Int32
	s.render = func(report.Input) ([]byte, error) {
		calls.Add(1)
		return nil, &core.RenderError{Err: errors.New("font missing")}
	}

	rec := do(t, s, http.MethodPost, "/api/reports/pdf", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to generate PDF report"}`, rec.Body.String())

	// Failures are not cached.
	_ = do(t, s, http.MethodPost, "/api/reports/pdf", "")
	assert.Equal(t, int32(2), calls.Load())
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMutationsAreRateLimited(t *testing.T) {
	s := newTestServer(t, Options{RateLimitPerMinute: 2})
	body := `{"date":"2024-01-01","category":"Food","description":"x","amount":1,"type":"expense"}`

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/api/transactions", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, decodeObject(t, rec)["detail"])

	// Reads are not limited.
	rec = do(t, s, http.MethodGet, "/api/summary", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transaction_count":2`)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodPut, "/api/transactions", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
