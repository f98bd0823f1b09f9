package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestMemory(max int, w time.Duration) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	m := NewMemory(max, w)
	m.now = clock.Now
	return m, clock
}

func TestMemory_RejectsAfterMax(t *testing.T) {
	m, _ := newTestMemory(20, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		res, err := m.Allow(ctx, "global")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if res.Remaining != 20-i {
			t.Fatalf("request %d: remaining=%d", i, res.Remaining)
		}
	}

	res, err := m.Allow(ctx, "global")
	if err != nil {
		t.Fatalf("allow 21: %v", err)
	}
	if res.Allowed {
		t.Fatalf("21st request should be rejected")
	}
	if res.Remaining != 0 || res.Limit != 20 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMemory_WindowResets(t *testing.T) {
	m, clock := newTestMemory(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if res, _ := m.Allow(ctx, "k"); !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	first, _ := m.Allow(ctx, "k")
	if first.Allowed {
		t.Fatalf("3rd request should be rejected")
	}

	clock.Advance(59 * time.Second)
	if res, _ := m.Allow(ctx, "k"); res.Allowed {
		t.Fatalf("window has not elapsed yet")
	}

	clock.Advance(time.Second)
	res, _ := m.Allow(ctx, "k")
	if !res.Allowed || res.Remaining != 1 {
		t.Fatalf("expected a fresh window, got %+v", res)
	}
	if !res.ResetAt.After(first.ResetAt) {
		t.Fatalf("reset time did not move: %v vs %v", res.ResetAt, first.ResetAt)
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	m, _ := newTestMemory(1, time.Minute)
	ctx := context.Background()

	if res, _ := m.Allow(ctx, "10.0.0.1"); !res.Allowed {
		t.Fatalf("first key should be allowed")
	}
	if res, _ := m.Allow(ctx, "10.0.0.2"); !res.Allowed {
		t.Fatalf("second key should be allowed")
	}
	if res, _ := m.Allow(ctx, "10.0.0.1"); res.Allowed {
		t.Fatalf("first key should be limited")
	}
}

func TestMemory_SweepsExpiredWindows(t *testing.T) {
	m, clock := newTestMemory(5, time.Minute)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_, _ = m.Allow(ctx, k)
	}
	clock.Advance(2 * time.Minute)
	_, _ = m.Allow(ctx, "d")

	m.mu.Lock()
	n := len(m.windows)
	m.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected expired windows to be dropped, have %d", n)
	}
}

func TestMemory_ConcurrentCallsNeverExceedMax(t *testing.T) {
	m := NewMemory(20, time.Minute)
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Allow(ctx, "global")
			if err == nil && res.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 20 {
		t.Fatalf("expected exactly 20 allowed, got %d", allowed)
	}
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		reset time.Time
		want  time.Duration
	}{
		{now.Add(30 * time.Second), 30 * time.Second},
		{now.Add(1500 * time.Millisecond), 2 * time.Second},
		{now.Add(10 * time.Millisecond), time.Second},
		{now, time.Second},
		{now.Add(-time.Second), time.Second},
	}
	for _, tc := range cases {
		got := Result{ResetAt: tc.reset}.RetryAfter(now)
		if got != tc.want {
			t.Fatalf("reset in %s: got %s want %s", tc.reset.Sub(now), got, tc.want)
		}
	}
}
