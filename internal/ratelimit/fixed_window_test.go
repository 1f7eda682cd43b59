package ratelimit

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLimiterEnforcesUploadQuota(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisLimiter(srv.Addr(), "", "", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	for i := 0; i < 2; i++ {
		if !limiter.Allow("203.0.113.9") {
			t.Fatalf("upload %d should be inside quota", i+1)
		}
	}
	if limiter.Allow("203.0.113.9") {
		t.Fatal("third upload in the window should be rejected")
	}
	if !limiter.Allow("198.51.100.4") {
		t.Fatal("a different client has its own counter")
	}

	for _, key := range srv.Keys() {
		if !strings.HasPrefix(key, "mailsnap:uploads:") {
			t.Fatalf("counter key %q outside the upload-quota namespace", key)
		}
	}
}

func TestLimiterWindowRollsOver(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisLimiter(srv.Addr(), "", "quota", 1, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	if !limiter.Allow("client") {
		t.Fatal("first upload should pass")
	}
	if limiter.Allow("client") {
		t.Fatal("second upload in the same window should be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow("client") {
		t.Fatal("next window should start a fresh counter")
	}
}

func TestLimiterFailsClosedOnRedisErrors(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisLimiter(srv.Addr(), "", "", 5, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	srv.Close()
	if limiter.Allow("203.0.113.9") {
		t.Fatal("uploads must be rejected while redis is unreachable")
	}
}

func TestNewRedisLimiterValidation(t *testing.T) {
	tests := []struct {
		name   string
		addr   string
		limit  int
		window time.Duration
	}{
		{name: "missing addr", addr: "", limit: 5, window: time.Minute},
		{name: "zero limit", addr: "localhost:6379", limit: 0, window: time.Minute},
		{name: "sub-millisecond window", addr: "localhost:6379", limit: 5, window: time.Microsecond},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRedisLimiter(tc.addr, "", "", tc.limit, tc.window); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}
