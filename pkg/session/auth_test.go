package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/sessionstore/pkg/session"
)

func TestExtractUser(t *testing.T) {
	t.Run("direct user field", func(t *testing.T) {
		user, ok := session.ExtractUser(session.Payload{"user": "u-1"})
		assert.True(t, ok)
		assert.Equal(t, "u-1", user)
	})

	t.Run("passport user field", func(t *testing.T) {
		user, ok := session.ExtractUser(session.Payload{
			"passport": map[string]any{"user": "u-2"},
		})
		assert.True(t, ok)
		assert.Equal(t, "u-2", user)
	})

	t.Run("direct wins over passport", func(t *testing.T) {
		user, ok := session.ExtractUser(session.Payload{
			"user":     "direct",
			"passport": map[string]any{"user": "nested"},
		})
		assert.True(t, ok)
		assert.Equal(t, "direct", user)
	})

	t.Run("passport as bson document", func(t *testing.T) {
		user, ok := session.ExtractUser(session.Payload{
			"passport": bson.D{{Key: "user", Value: "u-3"}},
		})
		assert.True(t, ok)
		assert.Equal(t, "u-3", user)
	})

	t.Run("no user", func(t *testing.T) {
		_, ok := session.ExtractUser(session.Payload{"cart": []string{"sku-1"}})
		assert.False(t, ok)
	})

	t.Run("nil user does not count", func(t *testing.T) {
		_, ok := session.ExtractUser(session.Payload{"user": nil})
		assert.False(t, ok)
	})

	t.Run("passport without user", func(t *testing.T) {
		_, ok := session.ExtractUser(session.Payload{
			"passport": map[string]any{"strategy": "local"},
		})
		assert.False(t, ok)
	})

	t.Run("nil payload", func(t *testing.T) {
		_, ok := session.ExtractUser(nil)
		assert.False(t, ok)
	})
}
