package session

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// settings carries construction collaborators shared by the store backends.
type settings struct {
	log     *slog.Logger
	now     func() time.Time
	client  *mongo.Client
	live    *mongo.Collection
	history *mongo.Collection
	redis   *redis.Client
}

func newSettings(opts ...Option) settings {
	s := settings{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option is a functional option for store construction.
type Option func(*settings)

// WithLogger sets the logger used for background and best-effort paths.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCollections supplies pre-existing live and history collection handles,
// skipping the store's own connection setup.
func WithCollections(live, history *mongo.Collection) Option {
	return func(s *settings) {
		s.live = live
		s.history = history
	}
}

// WithClient supplies a pre-connected mongo client. The store will not
// disconnect it on Close.
func WithClient(client *mongo.Client) Option {
	return func(s *settings) {
		s.client = client
	}
}

// WithRedisClient supplies a pre-connected redis client.
func WithRedisClient(client *redis.Client) Option {
	return func(s *settings) {
		s.redis = client
	}
}
