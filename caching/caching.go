// Package caching provides the in-memory TTL store backing the login
// attempt limiter.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Login limiter defaults: five failures within fifteen minutes lock the
// address out until the window expires.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// LoginLimiter counts failed login attempts per remote address. Entries
// expire on their own; a successful login resets the counter early.
type LoginLimiter struct {
	store       *cache.Cache
	maxAttempts int
}

func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		store:       cache.New(window, 2*window),
		maxAttempts: maxAttempts,
	}
}

// Blocked reports whether the address has exhausted its attempts.
func (l *LoginLimiter) Blocked(ip string) bool {
	return l.attempts(ip) >= l.maxAttempts
}

// Fail records one failed attempt for the address. The expiry of the first
// failure bounds the whole window.
func (l *LoginLimiter) Fail(ip string) {
	if _, err := l.store.IncrementInt(l.key(ip), 1); err != nil {
		l.store.SetDefault(l.key(ip), 1)
	}
}

// Reset clears the counter, called after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.store.Delete(l.key(ip))
}

func (l *LoginLimiter) attempts(ip string) int {
	if v, ok := l.store.Get(l.key(ip)); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

func (l *LoginLimiter) key(ip string) string {
	return "login:" + ip
}
