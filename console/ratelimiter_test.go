package console

import (
	"testing"
)

func TestLoginLimiter(t *testing.T) {
	limiter := newLoginLimiter()
	if wait := limiter.wait("alice"); wait != 0 {
		t.Errorf("fresh username waits %v, want 0", wait)
	}

	limiter.recordFailure("alice")
	if limiter.wait("alice") == 0 {
		t.Error("no wait after a failed attempt")
	}
	if wait := limiter.wait("bob"); wait != 0 {
		t.Errorf("unrelated username waits %v, want 0", wait)
	}

	limiter.clearFailure("alice")
	if wait := limiter.wait("alice"); wait != 0 {
		t.Errorf("username waits %v after successful login, want 0", wait)
	}
}
