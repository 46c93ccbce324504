package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) *Limiter {
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	return rl
}

func TestLimiter_Allow(t *testing.T) {
	rl := newTestLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over the limit should be denied")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients are unaffected")
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	rl := newTestLimiter(1)
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request should be denied")
	}

	// Age the entry past the window.
	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow("1.2.3.4") {
		t.Error("request after window reset should be allowed")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl := newTestLimiter(10)
	defer rl.Stop()

	rl.Allow("1.2.3.4")
	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastRequest = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Errorf("ActiveClients() = %d, want 0", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl := newTestLimiter(1)
	defer rl.Stop()

	handler := rl.Middleware(
		func(r *http.Request) string { return r.RemoteAddr },
		nil,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Error("429 response should carry Retry-After")
	}
}
