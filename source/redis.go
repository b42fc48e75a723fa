package source

import (
	"context"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arloliu/tether/internal/backoff"
	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/types"
)

// DefaultRedisInterval is the polling interval of RedisSet.
const DefaultRedisInterval = time.Second

// SetMembersClient is the subset of a go-redis client RedisSet needs.
// *redis.Client, *redis.ClusterClient and redis.UniversalClient satisfy it.
type SetMembersClient interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// RedisSet emits the members of a Redis set.
//
// The set is polled on an interval and a snapshot is emitted on the first
// successful poll and whenever the membership changes. Poll errors are logged
// and retried with jittered backoff capped at the interval; the last snapshot
// stays in effect meanwhile. Members are sorted.
type RedisSet struct {
	client   SetMembersClient
	key      string
	interval time.Duration
	logger   types.Logger
}

var _ types.SnapshotSource[string] = (*RedisSet)(nil)

// RedisOption configures a RedisSet source.
type RedisOption func(*RedisSet)

// WithPollInterval overrides DefaultRedisInterval.
func WithPollInterval(d time.Duration) RedisOption {
	return func(s *RedisSet) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithRedisLogger sets the logger used for poll diagnostics.
func WithRedisLogger(l types.Logger) RedisOption {
	return func(s *RedisSet) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRedisSet creates a source over the set stored at key.
func NewRedisSet(client SetMembersClient, key string, opts ...RedisOption) *RedisSet {
	s := &RedisSet{
		client:   client,
		key:      key,
		interval: DefaultRedisInterval,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Watch starts polling. The stream closes when ctx ends.
func (s *RedisSet) Watch(ctx context.Context) (<-chan []string, error) {
	out := make(chan []string, 1)
	go s.loop(ctx, out)

	return out, nil
}

func (s *RedisSet) loop(ctx context.Context, out chan<- []string) {
	defer close(out)

	retry := backoff.New(s.interval/10, 2, s.interval, 0)

	var (
		last     []string
		emitted  bool
		retryGap time.Duration
	)

	for {
		wait := s.interval

		members, err := s.client.SMembers(ctx, s.key).Result()
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			retryGap = retry.Next(retryGap)
			wait = retryGap
			s.logger.Warn("poll redis set failed", "key", s.key, "error", err, "retry_in", wait)
		default:
			retryGap = 0
			slices.Sort(members)
			if !emitted || !slices.Equal(members, last) {
				select {
				case out <- members:
				case <-ctx.Done():
					return
				}
				last = members
				emitted = true
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
