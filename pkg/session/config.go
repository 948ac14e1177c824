package session

import (
	"time"

	"github.com/dmitrymomot/sessionstore/pkg/config"
	mongodb "github.com/dmitrymomot/sessionstore/pkg/mongo"
	redisconn "github.com/dmitrymomot/sessionstore/pkg/redis"
)

// Config holds session store configuration.
type Config struct {
	// Mongo configures the connection of the MongoDB-backed store.
	Mongo mongodb.Config `envPrefix:"SESSION_"`

	// Redis configures the connection of the Redis-backed store.
	Redis redisconn.Config `envPrefix:"SESSION_"`

	// Collection and HistoryCollection name the live and archive
	// collections.
	Collection        string `env:"SESSION_COLLECTION" envDefault:"sessions"`
	HistoryCollection string `env:"SESSION_HISTORY_COLLECTION" envDefault:"sessions_history"`

	// MaxAge is the session lifetime applied on every write.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`

	// StringifyPayload stores payloads as JSON text instead of native
	// documents. On by default; survives values bson cannot represent.
	StringifyPayload bool `env:"SESSION_STRINGIFY_PAYLOAD" envDefault:"true"`

	// RequireForceUpdate gates payload overwrites behind an explicit
	// forceUpdate flag inside the payload; without the flag an existing
	// record keeps its payload and only the timestamps are refreshed.
	RequireForceUpdate bool `env:"SESSION_REQUIRE_FORCE_UPDATE" envDefault:"false"`

	// AutoSweep archives and removes expired records in the background,
	// kicked by every Set. SweepInterval adds a periodic sweep on top
	// (0 disables the timer).
	AutoSweep     bool          `env:"SESSION_AUTO_SWEEP" envDefault:"true"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"0s"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Mongo: mongodb.Config{
			Host:            "127.0.0.1",
			Port:            27017,
			Database:        "test",
			ConnectTimeout:  10 * time.Second,
			MaxPoolSize:     100,
			MinPoolSize:     1,
			MaxConnIdleTime: 5 * time.Minute,
			RetryWrites:     true,
			RetryReads:      true,
			RetryAttempts:   3,
			RetryInterval:   5 * time.Second,
		},
		Redis: redisconn.Config{
			ConnectionURL:  "redis://localhost:6379/0",
			RetryAttempts:  3,
			RetryInterval:  5 * time.Second,
			ConnectTimeout: 30 * time.Second,
		},
		Collection:        "sessions",
		HistoryCollection: "sessions_history",
		MaxAge:            24 * time.Hour,
		StringifyPayload:  true,
		AutoSweep:         true,
	}
}

// LoadConfig populates Config from the environment, including a local .env
// file when one exists.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
