package mongo

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// New creates a new mongo client, retrying the connection according to the
// configured attempts and interval. It returns an error when every attempt
// fails.
func New(ctx context.Context, cfg Config) (*mongo.Client, error) {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for range attempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.URI()).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime).
				SetRetryWrites(cfg.RetryWrites).
				SetRetryReads(cfg.RetryReads),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}

		select {
		case <-ctx.Done():
			return nil, ErrFailedToConnect
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnect
}

// NewWithDatabase creates a new mongo client and returns a handle to the
// database named in the configuration.
func NewWithDatabase(ctx context.Context, cfg Config) (*mongo.Database, error) {
	client, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Database(cfg.Database), nil
}

// DisconnectOnSignal closes the client when the process receives SIGINT or
// SIGTERM, logging the connection transitions. The returned stop function
// cancels the watch without disconnecting.
func DisconnectOnSignal(client *mongo.Client, log *slog.Logger) (stop func()) {
	if log == nil {
		log = slog.Default()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			log.Info("signal received, closing mongodb connection", slog.String("signal", s.String()))
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("mongodb disconnect failed", slog.Any("error", err))
				return
			}
			log.Info("mongodb connection closed")
		case <-done:
		}
	}()

	return func() { close(done) }
}
