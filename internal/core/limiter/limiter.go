package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter answers whether one more request for key fits the policy of
// N requests per window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Local is an in-process token bucket per key: a burst of n refilled evenly
// over window. Keys idle for longer than a window are evicted.
type Local struct {
	n      int
	window time.Duration
	every  rate.Limit

	mu        sync.Mutex
	buckets   map[string]*entry
	lastSweep time.Time
	now       func() time.Time
}

func NewLocal(n int, window time.Duration) *Local {
	return &Local{
		n:       n,
		window:  window,
		every:   rate.Every(window / time.Duration(n)),
		buckets: make(map[string]*entry),
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.window {
		for k, e := range l.buckets {
			if now.Sub(e.seen) > l.window {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.buckets[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.every, l.n)}
		l.buckets[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1), nil
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
