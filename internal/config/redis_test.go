package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	t.Run("Should pass a bare host:port through with password and db", func(t *testing.T) {
		cfg := &Config{RedisURL: "localhost:6379", RedisPassword: "secret", RedisDB: 2}

		opt, err := RedisOptions(cfg)

		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opt.Addr)
		assert.Equal(t, "secret", opt.Password)
		assert.Equal(t, 2, opt.DB)
	})

	t.Run("Should resolve a full redis URL", func(t *testing.T) {
		cfg := &Config{RedisURL: "redis://:urlpass@redis.example.com:6380/1"}

		opt, err := RedisOptions(cfg)

		require.NoError(t, err)
		assert.Equal(t, "redis.example.com:6380", opt.Addr)
		assert.Equal(t, "urlpass", opt.Password)
		assert.Equal(t, 1, opt.DB)
	})

	t.Run("Should enable TLS for rediss URLs", func(t *testing.T) {
		cfg := &Config{RedisURL: "rediss://managed.example.com:6379"}

		opt, err := RedisOptions(cfg)

		require.NoError(t, err)
		assert.Equal(t, "managed.example.com:6379", opt.Addr)
		assert.NotNil(t, opt.TLSConfig)
	})

	t.Run("Should reject an unparseable redis URL", func(t *testing.T) {
		cfg := &Config{RedisURL: "redis://host:port:extra"}

		_, err := RedisOptions(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}
