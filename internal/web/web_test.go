package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"lessoncal/internal/config"
)

func testServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.CacheDir = filepath.Join(dir, "cache")
	if mutate != nil {
		mutate(cfg)
	}
	return NewServer(cfg, filepath.Join(dir, "config.yaml"))
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "OK" {
		t.Errorf("body = %q, want OK", body)
	}
}

func TestBasicAuth(t *testing.T) {
	srv := testServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/rehearsals/exclude-words", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/rehearsals/exclude-words", nil)
	req.SetBasicAuth("admin", "wrong")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/reports/rehearsals/exclude-words", nil)
	req.SetBasicAuth("admin", "secret")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("good credentials: status = %d, want 200", rec.Code)
	}

	// /health stays open.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health behind auth: status = %d, want 200", rec.Code)
	}
}

func TestExcludeWordsRoundTrip(t *testing.T) {
	srv := testServer(t, func(c *config.Config) {
		c.ExcludeWords = []string{"mentenanta"}
	})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/rehearsals/exclude-words", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var got excludeWordsPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.ExcludeWords) != 1 || got.ExcludeWords[0] != "mentenanta" {
		t.Fatalf("GET payload = %+v", got)
	}

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"excludeWords":["mentenanta","curatenie"]}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports/rehearsals/exclude-words", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/rehearsals/exclude-words", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.ExcludeWords) != 2 {
		t.Fatalf("after POST, payload = %+v", got)
	}
}

func TestSetExcludeWordsRejectsBadPayload(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Handler()

	for _, body := range []string{`{}`, `{"excludeWords":"not-an-array"}`, `not json`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reports/rehearsals/exclude-words", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSchoolReportValidation(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Handler()

	cases := []string{
		"/api/reports/school",
		"/api/reports/school?month=1",
		"/api/reports/school?month=13&year=2026",
		"/api/reports/school?month=abc&year=2026",
	}
	for _, url := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", url, rec.Code)
		}
	}
}

func TestNeedsPaymentRejectsBadDate(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/needs-payment?date=03-10-2026", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPerformanceRejectsBadYear(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/performance/next", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPerformanceCacheWriteAndRead(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"year":2026,"school":[1,0,0,0,0,0,0,0,0,0,0,0],"rehearsals":[0,0,0,0,0,0,0,0,0,0,0,0]}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/performance/cache/2026", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("cache write status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/performance/2026", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("read status = %d", rec.Code)
	}
	var resp performanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Year != 2026 || resp.Data.SchoolHoursByMonth[0] != 1 {
		t.Errorf("aggregate = %+v", resp.Data)
	}
	if resp.Stale {
		t.Error("a just-written aggregate must not be stale")
	}
}

func TestPerformanceCacheWriteYearMismatch(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"year":2025,"school":[0,0,0,0,0,0,0,0,0,0,0,0],"rehearsals":[0,0,0,0,0,0,0,0,0,0,0,0]}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/performance/cache/2026", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 on year mismatch", rec.Code)
	}
}

func TestParseMonths(t *testing.T) {
	got, err := parseMonths("1, 2,12")
	if err != nil {
		t.Fatalf("parseMonths: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 12 {
		t.Errorf("parseMonths = %v", got)
	}

	for _, bad := range []string{"", "0", "13", "x"} {
		if _, err := parseMonths(bad); err == nil {
			t.Errorf("parseMonths(%q) should fail", bad)
		}
	}
}
