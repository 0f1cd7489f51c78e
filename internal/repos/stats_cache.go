package repos

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	availabilityKey = "roofradar:availability:remaining"
	availabilityTTL = 30 * time.Second
	sampleViewsKey  = "roofradar:sample_views"
)

// StatsCache fronts the hot landing-page counters with Redis. It is an
// optional layer: the checkout path never reads it, and a nil *StatsCache
// disables caching entirely.
type StatsCache struct{ client *redis.Client }

func NewStatsCache(addr, password string) (*StatsCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &StatsCache{client: client}, nil
}

func (s *StatsCache) Close() error { return s.client.Close() }

// Remaining returns the cached remaining-copies figure, or ok=false on a
// miss or any Redis error.
func (s *StatsCache) Remaining(ctx context.Context) (int, bool) {
	if s == nil {
		return 0, false
	}
	v, err := s.client.Get(ctx, availabilityKey).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *StatsCache) SetRemaining(ctx context.Context, n int) {
	if s == nil {
		return
	}
	_ = s.client.Set(ctx, availabilityKey, strconv.Itoa(n), availabilityTTL).Err()
}

// Invalidate drops the cached counter after a purchase completes.
func (s *StatsCache) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	_ = s.client.Del(ctx, availabilityKey).Err()
}

// BumpSampleViews keeps a fast running total alongside the sqlite rows.
func (s *StatsCache) BumpSampleViews(ctx context.Context) {
	if s == nil {
		return
	}
	_ = s.client.Incr(ctx, sampleViewsKey).Err()
}
