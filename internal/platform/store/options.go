package store

import (
	"lexiscan/internal/platform/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redis/v8"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithRedis installs an already connected redis client; Open skips dialing redis
func WithRedis(c *redis.Client) Option {
	return func(s *Store) error {
		s.Redis = c
		return nil
	}
}

// WithElasticsearch installs an already built elasticsearch client; Open skips building one
func WithElasticsearch(c *elasticsearch.Client) Option {
	return func(s *Store) error {
		s.ES = c
		return nil
	}
}
