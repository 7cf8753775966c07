package webfrontend

import (
	"sync"

	"golang.org/x/time/rate"
)

// ipLimiter hands out one token-bucket limiter per client IP, blunting
// enumeration of the 16-char confirmation-code space by a single source.
// Limiters are created lazily and kept for the process lifetime; the
// confirm endpoint sees low enough traffic that this never grows large
// enough to need eviction.
type entry struct {
	lim   *rate.Limiter
	perS  float64
	burst int
}

type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
}

func newIPLimiter() *ipLimiter {
	return &ipLimiter{limiters: make(map[string]*entry)}
}

// allow reports whether ip may make another confirm attempt right now,
// using the given per-second rate and burst (read fresh from config on
// every call so a live config reload applies without a restart).
func (l *ipLimiter) allow(ip string, perS float64, burst int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[ip]
	if !ok || e.perS != perS || e.burst != burst {
		e = &entry{lim: rate.NewLimiter(rate.Limit(perS), burst), perS: perS, burst: burst}
		l.limiters[ip] = e
	}
	return e.lim.Allow()
}
