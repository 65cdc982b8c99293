package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepvault/internal/apperr"
	"prepvault/internal/models"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewLimiter(NewRedisCounter(rdb), zap.NewNop().Sugar()), mr
}

func TestQuotaBoundary(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		st, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionQuestions)
		require.NoError(t, err)
		require.True(t, st.Enforced)
		require.EqualValues(t, i, st.Used)
		require.EqualValues(t, 10-i, st.Remaining)
	}

	st, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionQuestions)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
	require.EqualValues(t, 11, st.Used)
	require.Zero(t, st.Remaining)

	var rlErr *apperr.Error
	require.ErrorAs(t, err, &rlErr)
	require.Positive(t, rlErr.RetryAfter)
}

func TestAdminCeilingIsHigher(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := l.CheckAndConsume(ctx, "a1", models.RoleAdmin, ActionQuestions)
		require.NoError(t, err)
	}
	st, err := l.Status(ctx, "a1", models.RoleAdmin, ActionQuestions)
	require.NoError(t, err)
	require.EqualValues(t, 30, st.Used)
	require.EqualValues(t, 20, st.Remaining)
}

func TestQuotasAreIndependentPerUserAndAction(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionCompanies)
		require.NoError(t, err)
	}
	_, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionCompanies)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))

	// Same user, different action: fresh quota.
	_, err = l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionTips)
	require.NoError(t, err)

	// Different user, same action: fresh quota.
	_, err = l.CheckAndConsume(ctx, "u2", models.RoleUser, ActionCompanies)
	require.NoError(t, err)
}

func TestWindowResets(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionCompanies)
		require.NoError(t, err)
	}
	_, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionCompanies)
	require.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))

	mr.FastForward(24*time.Hour + time.Second)

	st, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionCompanies)
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Used)
}

func TestFailsOpenWhenStoreDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	ctx := context.Background()
	mr.Close()

	st, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionQuestions)
	require.NoError(t, err)
	require.False(t, st.Enforced)
	require.EqualValues(t, 10, st.Remaining)
}

func TestFailsOpenWithoutCounter(t *testing.T) {
	l := NewLimiter(nil, zap.NewNop().Sugar())

	st, err := l.CheckAndConsume(context.Background(), "u1", models.RoleUser, ActionQuestions)
	require.NoError(t, err)
	require.False(t, st.Enforced)

	st, err = l.Status(context.Background(), "u1", models.RoleUser, ActionQuestions)
	require.NoError(t, err)
	require.False(t, st.Enforced)
	require.EqualValues(t, 10, st.Remaining)
}

func TestStatusDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(t)
	ctx := context.Background()

	_, err := l.CheckAndConsume(ctx, "u1", models.RoleUser, ActionQuestions)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		st, err := l.Status(ctx, "u1", models.RoleUser, ActionQuestions)
		require.NoError(t, err)
		require.True(t, st.Enforced)
		require.EqualValues(t, 1, st.Used)
		require.EqualValues(t, 9, st.Remaining)
		require.Positive(t, st.ResetIn)
	}
}

func TestStatusOnFreshKey(t *testing.T) {
	l, _ := newTestLimiter(t)

	st, err := l.Status(context.Background(), "fresh", models.RoleUser, ActionReplies)
	require.NoError(t, err)
	require.True(t, st.Enforced)
	require.Zero(t, st.Used)
	require.EqualValues(t, 30, st.Remaining)
	require.Zero(t, st.ResetIn)
}

func TestUnknownAction(t *testing.T) {
	l, _ := newTestLimiter(t)
	_, err := l.CheckAndConsume(context.Background(), "u1", models.RoleUser, "uploads")
	require.Error(t, err)
}

func TestHumanDuration(t *testing.T) {
	require.Equal(t, "1 minute", humanDuration(30))
	require.Equal(t, "5 minutes", humanDuration(300))
	require.Equal(t, "1 hour", humanDuration(3600))
	require.Equal(t, "2 hours 30 min", humanDuration(9000))
}
