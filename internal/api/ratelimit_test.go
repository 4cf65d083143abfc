package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

// TestOriginPolicy verifies exact, wildcard and localhost origin matching
func TestOriginPolicy(t *testing.T) {
	open := NewOriginPolicy(nil)
	if !open.Allowed("https://anything.test") {
		t.Error("empty policy should allow every origin")
	}

	p := NewOriginPolicy([]string{"https://arena.example", "*.games.test", "http://localhost"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://arena.example", true},
		{"https://arena.example.evil", false},
		{"https://play.games.test", true},
		{"https://games.test.evil", false},
		{"http://localhost", true},
		{"http://localhost:5173", true},
		{"http://localhost.evil", false},
	}
	for _, tt := range tests {
		if got := p.Allowed(tt.origin); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

// TestWebSocketRateLimiter verifies per-IP slots are reserved and released
func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)
	if !wrl.Allow("1.1.1.1") || !wrl.Allow("1.1.1.1") {
		t.Fatal("first two connections should be allowed")
	}
	if wrl.Allow("1.1.1.1") {
		t.Error("third connection should be rejected")
	}
	if !wrl.Allow("2.2.2.2") {
		t.Error("another IP should have its own slots")
	}
	wrl.Release("1.1.1.1")
	if got := wrl.GetConnectionCount("1.1.1.1"); got != 1 {
		t.Errorf("expected 1 connection after release, got %d", got)
	}
	if !wrl.Allow("1.1.1.1") {
		t.Error("released slot should be reusable")
	}
}

// TestIPRateLimiterCleanup verifies idle limiters are evicted
func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second request should exceed the burst")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if !rl.Allow("10.0.0.1") {
		t.Error("evicted IP should start with a fresh bucket")
	}
	stats := rl.GetStats()
	if stats["allowed"] != 2 || stats["rejected"] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}

// TestGetClientIP verifies proxy headers take precedence over RemoteAddr
func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	if got := GetClientIP(r); got != "192.0.2.1" {
		t.Errorf("expected RemoteAddr host, got %q", got)
	}
	r.Header.Set("X-Real-IP", "198.51.100.2")
	if got := GetClientIP(r); got != "198.51.100.2" {
		t.Errorf("expected X-Real-IP, got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := GetClientIP(r); got != "203.0.113.9" {
		t.Errorf("expected first X-Forwarded-For hop, got %q", got)
	}
}

// TestIsLoopback verifies the debug server address check
func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1:6060": true,
		"localhost:6060": true,
		"[::1]:6060":     true,
		"0.0.0.0:6060":   false,
		":6060":          false,
		"10.1.2.3:6060":  false,
		"garbage":        false,
	}
	for addr, want := range tests {
		if got := isLoopback(addr); got != want {
			t.Errorf("isLoopback(%q) = %v, want %v", addr, got, want)
		}
	}
}

// TestTokenEqual verifies token comparison
func TestTokenEqual(t *testing.T) {
	if !tokenEqual("abc", "abc") {
		t.Error("equal tokens should match")
	}
	if tokenEqual("abc", "abcd") || tokenEqual("", "abc") {
		t.Error("different tokens should not match")
	}
}
