// Package ratelimit implements fixed-window request counting.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMax    = 20
	DefaultWindow = 60 * time.Second
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// RetryAfter is the wait until the window resets, rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	return (d + time.Second - 1).Truncate(time.Second)
}

// Limiter admits at most a fixed number of requests per key per window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type window struct {
	start time.Time
	count int
}

// Memory is an in-process Limiter. Windows start on the first request for a
// key and last exactly Window.
type Memory struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

func NewMemory(max int, w time.Duration) *Memory {
	if max <= 0 {
		max = DefaultMax
	}
	if w <= 0 {
		w = DefaultWindow
	}
	return &Memory{
		max:     max,
		window:  w,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (m *Memory) Allow(ctx context.Context, key string) (Result, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	w, ok := m.windows[key]
	if !ok || !now.Before(w.start.Add(m.window)) {
		w = &window{start: now}
		m.windows[key] = w
	}

	res := Result{Limit: m.max, ResetAt: w.start.Add(m.window)}
	if w.count >= m.max {
		return res, nil
	}
	w.count++
	res.Allowed = true
	res.Remaining = m.max - w.count
	return res, nil
}

// sweep drops expired windows at most once per window length.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now
	for k, w := range m.windows {
		if !now.Before(w.start.Add(m.window)) {
			delete(m.windows, k)
		}
	}
}
