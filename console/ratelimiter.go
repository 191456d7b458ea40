package console

import (
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

const (
	loginAttemptInterval = 10 * time.Second
	loginLimiterMaxKeys  = 16384
)

// loginLimiter throttles login attempts per username after failures. The
// TTL cache bounds memory even when an attacker sprays unique usernames.
type loginLimiter struct {
	attempts cache.Cache[string, time.Time]
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		attempts: cache.NewCache[string, time.Time]().WithTTL(loginAttemptInterval).WithMaxKeys(loginLimiterMaxKeys),
	}
}

// wait returns how long the username still has to wait, or zero.
func (l *loginLimiter) wait(username string) time.Duration {
	if last, found := l.attempts.Get(username); found {
		if wait := loginAttemptInterval - time.Since(last); wait > 0 {
			return wait
		}
	}
	return 0
}

func (l *loginLimiter) recordFailure(username string) {
	l.attempts.Set(username, time.Now(), 0)
}

func (l *loginLimiter) clearFailure(username string) {
	l.attempts.Invalidate(username)
}
