package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_AllowsBurstThenBlocks(t *testing.T) {
	l := NewLocal(5, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other, "keys are independent")

	now = now.Add(12 * time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refilled")
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)
}

func TestLocal_EvictsIdleKeys(t *testing.T) {
	l := NewLocal(2, time.Second)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a")
	_, _ = l.Allow(ctx, "b")
	assert.Equal(t, 2, l.size())

	now = now.Add(5 * time.Second)
	_, _ = l.Allow(ctx, "c")
	assert.Equal(t, 1, l.size())
}

func TestRedis_KeyIsWindowed(t *testing.T) {
	r := NewRedis(nil, "rl:me", 5, time.Minute)
	base := time.Date(2025, 1, 1, 12, 0, 10, 0, time.UTC)
	r.now = func() time.Time { return base }
	k1 := r.key("1.2.3.4")

	r.now = func() time.Time { return base.Add(30 * time.Second) }
	assert.Equal(t, k1, r.key("1.2.3.4"))

	r.now = func() time.Time { return base.Add(time.Minute) }
	assert.NotEqual(t, k1, r.key("1.2.3.4"))
}
