package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strideworks/fittrack/pkg/slogx"
)

const (
	loginMaxAttempts = 10
	loginWindow      = 15 * time.Minute
)

// LoginThrottle counts failed logins per email in Redis and blocks the
// account once the window limit is hit. Redis being down must never lock
// everyone out, so every Redis error fails open: the attempt is allowed
// and the error is logged.
type LoginThrottle struct {
	Client *redis.Client

	// Max and Window override the defaults when positive.
	Max    int64
	Window time.Duration
}

func (t *LoginThrottle) key(email string) string {
	return "login:fail:" + strings.ToLower(email)
}

func (t *LoginThrottle) max() int64 {
	if t.Max > 0 {
		return t.Max
	}
	return loginMaxAttempts
}

func (t *LoginThrottle) window() time.Duration {
	if t.Window > 0 {
		return t.Window
	}
	return loginWindow
}

// Allow reports whether a login attempt for the email may proceed.
// Returns ErrThrottled when the account is blocked.
func (t *LoginThrottle) Allow(ctx context.Context, email string) error {
	count, err := t.Client.Get(ctx, t.key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		slogx.FromContext(ctx).Warn("login throttle unavailable, failing open", "error", err)
		return nil
	}
	if count >= t.max() {
		return ErrThrottled
	}
	return nil
}

// RecordFailure bumps the failure counter, starting the window on the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) {
	count, err := t.Client.Incr(ctx, t.key(email)).Result()
	if err != nil {
		slogx.FromContext(ctx).Warn("login throttle record failed", "error", err)
		return
	}
	if count == 1 {
		if err := t.Client.Expire(ctx, t.key(email), t.window()).Err(); err != nil {
			slogx.FromContext(ctx).Warn("login throttle expire failed", "error", err)
		}
	}
}

// Reset clears the failure counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if err := t.Client.Del(ctx, t.key(email)).Err(); err != nil {
		slogx.FromContext(ctx).Warn("login throttle reset failed", "error", err)
	}
}
