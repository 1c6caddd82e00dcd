package server

import (
	"testing"

	"github.com/gloomdelve/server/internal/config"
)

func TestConnLimiterPerIP(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100})

	if !l.TryAcquire("10.0.0.1") || !l.TryAcquire("10.0.0.1") {
		t.Fatal("first two connections from an IP should be admitted")
	}
	if l.TryAcquire("10.0.0.1") {
		t.Error("third connection from the same IP admitted")
	}
	if !l.TryAcquire("10.0.0.2") {
		t.Error("different IP blocked by another IP's count")
	}

	l.Release("10.0.0.1")
	if !l.TryAcquire("10.0.0.1") {
		t.Error("release did not free a per-IP slot")
	}
}

func TestConnLimiterTotal(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 0, MaxTotal: 2})

	l.TryAcquire("10.0.0.1")
	l.TryAcquire("10.0.0.2")
	if l.TryAcquire("10.0.0.3") {
		t.Error("connection admitted past the total cap")
	}

	l.Release("10.0.0.1")
	if !l.TryAcquire("10.0.0.3") {
		t.Error("release did not free a total slot")
	}
}

func TestConnLimiterUnlimited(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{})
	for i := 0; i < 100; i++ {
		if !l.TryAcquire("10.0.0.1") {
			t.Fatal("zero limits should admit everything")
		}
	}
}

func TestConnLimiterStats(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 10})
	l.TryAcquire("10.0.0.1")
	l.TryAcquire("10.0.0.1")
	l.TryAcquire("10.0.0.2")

	total, ips := l.Stats()
	if total != 3 || ips != 2 {
		t.Errorf("stats = (%d,%d), want (3,2)", total, ips)
	}

	l.Release("10.0.0.2")
	total, ips = l.Stats()
	if total != 2 || ips != 1 {
		t.Errorf("stats after release = (%d,%d), want (2,1)", total, ips)
	}
}

func TestExtractIP(t *testing.T) {
	if got := extractIP("10.0.0.1:52413"); got != "10.0.0.1" {
		t.Errorf("extractIP = %q", got)
	}
	if got := extractIP("[::1]:52413"); got != "::1" {
		t.Errorf("extractIP v6 = %q", got)
	}
	if got := extractIP("not-an-addr"); got != "not-an-addr" {
		t.Errorf("extractIP fallback = %q", got)
	}
}
