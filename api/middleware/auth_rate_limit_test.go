package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type countingRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newCountingRateStore() *countingRateStore {
	return &countingRateStore{counts: map[string]int64{}}
}

func (s *countingRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func postLogin(handler http.Handler, remoteAddr, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitBodySurvivesInspection(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)
	handler := AuthRateLimit(policy, newCountingRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"tester@campus.edu"`) {
			t.Fatalf("downstream handler got mangled body: %s", body)
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := postLogin(handler, "1.2.3.4:5678", `{"email":"tester@campus.edu","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRateLimitEmailDimension(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, newCountingRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":"blocked@campus.edu","password":"secret"}`
	for i := 0; i < 2; i++ {
		if rec := postLogin(handler, "1.2.3.4:5678", body); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected success under the limit, got %d", i+1, rec.Code)
		}
	}

	rec := postLogin(handler, "1.2.3.4:5678", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected error code %s", payload.Error.Code)
	}

	// A different email is its own counter.
	if rec := postLogin(handler, "1.2.3.4:5678", `{"email":"other@campus.edu","password":"secret"}`); rec.Code != http.StatusOK {
		t.Fatalf("different email should not share a counter, got %d", rec.Code)
	}
}

func TestAuthRateLimitIPDimension(t *testing.T) {
	policy := NewAuthRateLimitPolicy("register", time.Minute, 1, 0)
	handler := AuthRateLimit(policy, newCountingRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":"foo@campus.edu","password":"secret"}`
	if rec := postLogin(handler, "5.6.7.8:1234", body); rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	if rec := postLogin(handler, "5.6.7.8:1234", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request from the same IP should be blocked, got %d", rec.Code)
	}
	if rec := postLogin(handler, "9.9.9.9:1234", body); rec.Code != http.StatusOK {
		t.Fatalf("different IP should not share a counter, got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicyIsPassthrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 5, 5)
	handler := AuthRateLimit(policy, newCountingRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		if rec := postLogin(handler, "1.2.3.4:5678", `{"email":"a@campus.edu"}`); rec.Code != http.StatusOK {
			t.Fatalf("zero window must disable the policy, got %d", rec.Code)
		}
	}
}
