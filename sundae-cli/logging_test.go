package sundaecli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/tj/assert"
)

func TestNewLogger(t *testing.T) {
	service := Service{Name: "chat-relay", Version: "abc"}

	t.Run("fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, service, "debug")
		logger.Debug().Msg("hello")

		var line map[string]interface{}
		assert.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "chat-relay", line["service"])
		assert.Equal(t, "abc", line["version"])
		assert.Equal(t, "hello", line["message"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, service, "warn")
		logger.Info().Msg("dropped")
		assert.Equal(t, 0, buf.Len())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, service, "loud")
		logger.Debug().Msg("dropped")
		assert.Equal(t, 0, buf.Len())
		logger.Info().Msg("kept")
		assert.NotEqual(t, 0, buf.Len())
	})
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "REDIS_ADDR", EnvVar("redis-addr"))
	assert.Equal(t, "ENDPOINT", EnvVar("endpoint"))
}
