// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const throttled = "Easy there. The witnesses need a moment before the next attempt."

// visitor is one client's token bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles the routes that spend AI quota or browser time,
// keyed by client IP. Each client may burst up to the limit and then
// refills evenly across the window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	refill   rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows limit requests per window (at least one) and
// starts a janitor that forgets clients idle for a whole window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return newRateLimiter(limit, window, time.Now)
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	limit = max(limit, 1)
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		refill:   rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		now:      now,
		done:     make(chan struct{}),
	}
	go rl.janitor(min(window, 5*time.Minute))
	return rl
}

// Stop ends the janitor. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.forgetIdle()
		case <-rl.done:
			return
		}
	}
}

// reserve takes a token for key. A zero wait means the request may pass;
// otherwise wait is how long until a token is free.
func (rl *RateLimiter) reserve(key string) time.Duration {
	now := rl.now()

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.refill, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	res := v.limiter.ReserveN(now, 1)
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait
	}
	return 0
}

// forgetIdle drops clients whose bucket has had a full window to refill.
func (rl *RateLimiter) forgetIdle() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// Middleware rejects over-limit requests with 429 and a Retry-After in
// whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait := rl.reserve(clientIP(r)); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			refuse(w, r, http.StatusTooManyRequests, throttled)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the host part of the remote address. Forwarding headers are
// honoured only through chi's RealIP, which the router installs behind a
// trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
