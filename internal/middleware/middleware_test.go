package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"cow.jpg":                "cow.jpg",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\My Cow.png`: "My_Cow.png",
		"  red sindhi (1).jpeg ": "red_sindhi_1.jpeg",
		".hidden.png":            "hidden.png",
		"..":                     "",
		"%%%":                    "",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPagination(t *testing.T) {
	if ValidatePage(0) != 1 || ValidatePage(3) != 3 {
		t.Error("ValidatePage")
	}
	if ValidateLimit(0) != 20 || ValidateLimit(500) != 100 || ValidateLimit(7) != 7 {
		t.Error("ValidateLimit")
	}
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetClientFromContext(r.Context())))
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"mobile": "k-mobile", "web": "k-web"})(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"missing header", "/breeds", "", http.StatusUnauthorized, ""},
		{"wrong key", "/breeds", "Bearer nope", http.StatusUnauthorized, ""},
		{"bearer key", "/breeds", "Bearer k-web", http.StatusOK, "web"},
		{"bare key", "/breeds", "k-mobile", http.StatusOK, "mobile"},
		{"health exempt", "/health/live", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != tt.body {
				t.Fatalf("client = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	for _, p := range []string{"/ok", "/ok", "/fail"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	m.ObserveAnalysis("parsed", true)
	m.ObserveAnalysis("upstream_error", false)

	if m.RequestsTotal != 3 || m.RequestsSuccess != 2 || m.RequestsFailed != 1 || m.RequestsInProgress != 0 {
		t.Fatalf("request counters = %+v", m)
	}
	if m.AnalysesTotal != 2 || m.AnalysesParsed != 1 || m.AnalysesUpstreamError != 1 || m.AnalysesMatched != 1 {
		t.Fatalf("analysis counters = %+v", m)
	}

	rec := httptest.NewRecorder()
	m.Handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["requests_total"].(float64) != 3 {
		t.Fatalf("metrics body = %v", body)
	}
}

func TestHealthHandler(t *testing.T) {
	healthy := HealthHandler(map[string]HealthChecker{
		"db": CheckFunc(func(context.Context) error { return nil }),
	})
	rec := httptest.NewRecorder()
	healthy(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	sick := HealthHandler(map[string]HealthChecker{
		"db":      CheckFunc(func(context.Context) error { return nil }),
		"archive": CheckFunc(func(context.Context) error { return errors.New("bucket missing") }),
	})
	rec = httptest.NewRecorder()
	sick(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var hs HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &hs); err != nil {
		t.Fatal(err)
	}
	if hs.Checks["archive"].Message != "bucket missing" || hs.Checks["db"].Status != "healthy" {
		t.Fatalf("checks = %+v", hs.Checks)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/check-symptoms", nil))

	out := buf.String()
	for _, want := range []string{"method=POST", "path=/check-symptoms", "status=418", "bytes=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
