package repo

import (
	"context"

	perr "lexiscan/internal/platform/errors"

	"github.com/go-redis/redis/v8"
)

// RedisVocabKey prefixes the sorted set of each variant; every member has score 0
const RedisVocabKey = "lexiscan:mock:vocab:"

const redisAddChunk = 500

// Redis answers prefix lookups with ZRANGEBYLEX over a zero-score sorted set
type Redis struct {
	rdb redis.Cmdable
}

// NewRedis binds the vocabulary to a client
func NewRedis(rdb redis.Cmdable) *Redis { return &Redis{rdb: rdb} }

// Complete implements domain.Vocabulary
func (r *Redis) Complete(ctx context.Context, variant, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	lo, hi := "-", "+"
	if prefix != "" {
		// 0xff never occurs in UTF-8 so it bounds every extension of prefix
		lo, hi = "["+prefix, "["+prefix+"\xff"
	}
	out, err := r.rdb.ZRangeByLex(ctx, RedisVocabKey+variant, &redis.ZRangeBy{
		Min:   lo,
		Max:   hi,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "vocabulary %s: range", variant)
	}
	return out, nil
}

// Add implements domain.Vocabulary
func (r *Redis) Add(ctx context.Context, variant string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	key := RedisVocabKey + variant
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := 0; i < len(names); i += redisAddChunk {
			end := min(i+redisAddChunk, len(names))
			members := make([]*redis.Z, 0, end-i)
			for _, n := range names[i:end] {
				members = append(members, &redis.Z{Score: 0, Member: n})
			}
			pipe.ZAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStore, "vocabulary %s: add", variant)
	}
	return nil
}

// Len implements domain.Vocabulary
func (r *Redis) Len(ctx context.Context, variant string) (int, error) {
	n, err := r.rdb.ZCard(ctx, RedisVocabKey+variant).Result()
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "vocabulary %s: card", variant)
	}
	return int(n), nil
}
