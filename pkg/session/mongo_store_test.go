package session_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/session"
)

// newTestMongoStore dials the instance named by TEST_MONGODB_URL and returns
// a store over per-test collections. Tests are skipped when the variable is
// unset so the suite stays runnable without infrastructure.
func newTestMongoStore(t *testing.T, cfg session.Config, clock *testClock) *session.MongoStore {
	t.Helper()

	url := os.Getenv("TEST_MONGODB_URL")
	if url == "" {
		t.Skip("TEST_MONGODB_URL is not set; skipping mongo integration tests")
	}

	cfg.Mongo.ConnectionURL = url
	cfg.Mongo.Database = "sessionstore_test"
	suffix := fmt.Sprintf("%s_%d", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	cfg.Collection = "sessions_" + suffix
	cfg.HistoryCollection = "history_" + suffix

	opts := []session.Option{}
	if clock != nil {
		opts = append(opts, session.WithClock(clock.Now))
	}

	ctx := context.Background()
	store, err := session.NewMongoStore(ctx, cfg, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Clear(ctx)
		_ = store.Close(ctx)
	})

	return store
}

func TestMongoStore_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthenticated payload is never persisted", func(t *testing.T) {
		store := newTestMongoStore(t, testConfig(), nil)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{"cart": "sku-1"}))

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("authenticated payload round-trips", func(t *testing.T) {
		store := newTestMongoStore(t, testConfig(), nil)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{
			"user":  "u-1",
			"theme": "dark",
		}))

		p, err := store.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "u-1", p["user"])
		assert.Equal(t, "dark", p["theme"])
		assert.Equal(t, "sid-1", p["sid"])
	})

	t.Run("expired record is archived on read", func(t *testing.T) {
		clock := newTestClock()
		store := newTestMongoStore(t, testConfig(), clock)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{"user": "u-1"}))
		clock.Advance(time.Hour + time.Second)

		p, err := store.Get(ctx, "sid-1")
		require.NoError(t, err)
		assert.Nil(t, p)

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		hist, err := store.History(ctx, "sid-1")
		require.NoError(t, err)
		assert.Len(t, hist, 1)
	})

	t.Run("destroy archives then deletes", func(t *testing.T) {
		store := newTestMongoStore(t, testConfig(), nil)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{"user": "u-1"}))
		require.NoError(t, store.Destroy(ctx, "sid-1"))

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		hist, err := store.History(ctx, "sid-1")
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.Equal(t, "sid-1", hist[0].SID)
	})

	t.Run("clear archives everything", func(t *testing.T) {
		store := newTestMongoStore(t, testConfig(), nil)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{"user": "u-1"}))
		require.NoError(t, store.Set(ctx, "sid-2", session.Payload{"user": "u-2"}))

		require.NoError(t, store.Clear(ctx))

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		for _, sid := range []string{"sid-1", "sid-2"} {
			hist, err := store.History(ctx, sid)
			require.NoError(t, err)
			assert.Len(t, hist, 1, sid)
		}
	})

	t.Run("force update gating", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequireForceUpdate = true
		clock := newTestClock()
		store := newTestMongoStore(t, cfg, clock)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{"user": "u-1", "step": "one"}))

		clock.Advance(30 * time.Minute)
		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{"user": "u-1", "step": "two"}))

		clock.Advance(45 * time.Minute)

		p, err := store.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.NotNil(t, p, "timestamps must have been refreshed")
		assert.Equal(t, "one", p["step"])

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{
			"user": "u-1", "step": "three", "forceUpdate": true,
		}))

		p, err = store.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "three", p["step"])
	})

	t.Run("native payload mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.StringifyPayload = false
		store := newTestMongoStore(t, cfg, nil)

		require.NoError(t, store.Set(ctx, "sid-1", session.Payload{
			"user":     "u-1",
			"passport": map[string]any{"user": "u-1"},
		}))

		p, err := store.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "u-1", p["user"])
	})
}
