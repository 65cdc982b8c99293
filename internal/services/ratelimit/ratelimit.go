// Package ratelimit is the admission-control gate in front of content
// creation. Quotas are per user per action kind over a fixed window, with
// higher ceilings for admins. The gate fails open: if the counter store is
// unreachable the request proceeds and the skip is logged.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
)

const (
	ActionQuestions = "questions"
	ActionCompanies = "companies"
	ActionTips      = "tips"
	ActionReplies   = "replies"
)

type Limit struct {
	User   int
	Admin  int
	Window time.Duration
}

// Limits per action kind over a 24h window.
var Limits = map[string]Limit{
	ActionQuestions: {User: 10, Admin: 50, Window: 24 * time.Hour},
	ActionCompanies: {User: 5, Admin: 25, Window: 24 * time.Hour},
	ActionTips:      {User: 20, Admin: 100, Window: 24 * time.Hour},
	ActionReplies:   {User: 30, Admin: 150, Window: 24 * time.Hour},
}

// Status reports the quota state after (or without) consuming one unit.
type Status struct {
	Action    string `json:"action"`
	Limit     int    `json:"limit"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	// ResetIn is seconds until the window resets; 0 when no window is armed.
	ResetIn int `json:"reset_in"`
	// Enforced is false when the counter store was unavailable and the
	// request was admitted without counting.
	Enforced bool `json:"enforced"`
}

type Limiter struct {
	counter Counter
	lg      *zap.SugaredLogger
}

// NewLimiter accepts a nil counter, in which case every check fails open.
func NewLimiter(counter Counter, lg *zap.SugaredLogger) *Limiter {
	return &Limiter{counter: counter, lg: lg}
}

func key(userID, action string) string {
	return "ratelimit:" + userID + ":" + action
}

func ceilingFor(role string, l Limit) int {
	if role == models.RoleAdmin || role == models.RoleSuperadmin {
		return l.Admin
	}
	return l.User
}

// CheckAndConsume admits or rejects one unit of the given action kind. On
// rejection the returned error is RateLimited and carries seconds until the
// window resets.
func (l *Limiter) CheckAndConsume(ctx context.Context, userID, role, action string) (Status, error) {
	limit, ok := Limits[action]
	if !ok {
		return Status{}, fmt.Errorf("unknown rate limit action: %s", action)
	}
	ceiling := ceilingFor(role, limit)
	st := Status{Action: action, Limit: ceiling}

	if l.counter == nil {
		l.lg.Warnw("rate limiting skipped, counter store not configured", "action", action)
		st.Remaining = int64(ceiling)
		return st, nil
	}

	count, ttl, err := l.counter.IncrementWithExpiry(ctx, key(userID, action), limit.Window)
	if err != nil {
		l.lg.Warnw("rate limiting skipped, counter store unavailable", "action", action, "error", err)
		st.Remaining = int64(ceiling)
		return st, nil
	}

	st.Enforced = true
	st.Used = count
	st.Remaining = int64(ceiling) - count
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	st.ResetIn = int(ttl.Seconds())
	if count > int64(ceiling) {
		retryAfter := st.ResetIn
		if retryAfter <= 0 {
			retryAfter = int(limit.Window.Seconds())
		}
		msg := fmt.Sprintf("You can only add %d %s per day. Try again in %s.",
			ceiling, action, humanDuration(retryAfter))
		return st, apperr.RateLimited(msg, retryAfter)
	}
	return st, nil
}

// Status reports the current quota without consuming. Returns a fail-open
// status when the store is unreachable.
func (l *Limiter) Status(ctx context.Context, userID, role, action string) (Status, error) {
	limit, ok := Limits[action]
	if !ok {
		return Status{}, fmt.Errorf("unknown rate limit action: %s", action)
	}
	ceiling := ceilingFor(role, limit)
	st := Status{Action: action, Limit: ceiling, Remaining: int64(ceiling)}
	if l.counter == nil {
		return st, nil
	}
	count, ttl, err := l.counter.Peek(ctx, key(userID, action))
	if err != nil {
		l.lg.Warnw("rate limit status unavailable", "action", action, "error", err)
		return st, nil
	}
	st.Enforced = true
	st.Used = count
	st.Remaining = int64(ceiling) - count
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	st.ResetIn = int(ttl.Seconds())
	return st, nil
}

func humanDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case hours > 0 && minutes > 0:
		return strconv.Itoa(hours) + plural(hours, " hour") + " " + strconv.Itoa(minutes) + " min"
	case hours > 0:
		return strconv.Itoa(hours) + plural(hours, " hour")
	default:
		if minutes < 1 {
			minutes = 1
		}
		return strconv.Itoa(minutes) + plural(minutes, " minute")
	}
}

func plural(n int, unit string) string {
	if n > 1 {
		return unit + "s"
	}
	return unit
}
