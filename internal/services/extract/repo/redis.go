package repo

import (
	"context"
	"sort"
	"strconv"
	"time"

	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/services/extract/domain"

	"github.com/go-redis/redis/v8"
)

// Redis key layout
const (
	RedisNamesKey   = "lexiscan:names:"
	RedisSummaryKey = "lexiscan:summary:"
)

// redisChunk caps the members of a single SADD
const redisChunk = 500

// Redis keeps a set of names and a summary hash per variant
type Redis struct {
	rdb redis.Cmdable
}

// NewRedis binds the sink to a client
func NewRedis(rdb redis.Cmdable) *Redis { return &Redis{rdb: rdb} }

// Name implements domain.Sink
func (*Redis) Name() string { return "redis" }

// Save implements domain.Sink
func (r *Redis) Save(ctx context.Context, s domain.Summary) error {
	nkey := RedisNamesKey + s.Variant
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := 0; i < len(s.Names); i += redisChunk {
			end := min(i+redisChunk, len(s.Names))
			members := make([]any, 0, end-i)
			for _, n := range s.Names[i:end] {
				members = append(members, n)
			}
			pipe.SAdd(ctx, nkey, members...)
		}
		pipe.HSet(ctx, RedisSummaryKey+s.Variant, map[string]any{
			"runId":       s.RunID,
			"profile":     s.Profile,
			"attempts":    s.Attempts,
			"successes":   s.Successes,
			"rateLimited": s.RateLimited,
			"failures":    s.Failures,
			"requests":    s.Requests,
			"count":       len(s.Names),
			"cancelled":   strconv.FormatBool(s.Cancelled),
			"finishedAt":  s.FinishedAt.UTC().Format(time.RFC3339Nano),
		})
		return nil
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStore, "redis sink: save %s", s.Variant)
	}
	return nil
}

// Names implements domain.History; the set is unordered so the result is sorted
func (r *Redis) Names(ctx context.Context, variant string) ([]string, error) {
	out, err := r.rdb.SMembers(ctx, RedisNamesKey+variant).Result()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "redis history: names")
	}
	sort.Strings(out)
	return out, nil
}

// Summary reads the stored summary hash of a variant
func (r *Redis) Summary(ctx context.Context, variant string) (map[string]string, error) {
	m, err := r.rdb.HGetAll(ctx, RedisSummaryKey+variant).Result()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "redis: summary")
	}
	if len(m) == 0 {
		return nil, perr.NotFoundf("redis: no summary for %s", variant)
	}
	return m, nil
}
