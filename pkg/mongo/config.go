package mongo

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config represents the configuration for the database connection.
// Either ConnectionURL or the Host/Port/Database triple must be provided;
// ConnectionURL wins when both are set.
type Config struct {
	ConnectionURL string `env:"MONGODB_URL"`                         // ConnectionURL is the full mongodb:// URI of the database.
	Host          string `env:"MONGODB_HOST" envDefault:"127.0.0.1"` // Host of the database server, used when ConnectionURL is empty.
	Port          int    `env:"MONGODB_PORT" envDefault:"27017"`     // Port of the database server.
	Database      string `env:"MONGODB_DATABASE" envDefault:"test"`  // Database is the default database name.
	Username      string `env:"MONGODB_USERNAME"`                    // Username is the optional authentication user.
	Password      string `env:"MONGODB_PASSWORD"`                    // Password is the optional authentication password.

	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`     // ConnectTimeout is the timeout for connecting to the database.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`       // MaxPoolSize is the maximum number of connections in the pool.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`         // MinPoolSize is the minimum number of connections in the pool.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is the maximum idle time of a pooled connection.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`       // RetryWrites specifies whether to retry write operations.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`        // RetryReads specifies whether to retry read operations.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`       // RetryInterval is the interval between connection attempts.
}

// URI returns the connection URI: ConnectionURL when set, otherwise a
// mongodb:// URI assembled from host, port, credentials and database name.
func (c Config) URI() string {
	if c.ConnectionURL != "" {
		return c.ConnectionURL
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}
