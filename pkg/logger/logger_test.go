package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/membergate/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatJSON))
		l.Info("hello", slog.String("key", "value"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "value", record["key"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))
		l.Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
		l.Info("dropped")
		l.Warn("kept")

		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.New(logger.WithOutput(&buf), logger.WithAttr(slog.String("service", "billing")))
		l.Info("hello")

		assert.Contains(t, buf.String(), `"service":"billing"`)
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("yaml")))
		})
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.NewFromConfig(
		logger.Config{Level: "debug", Format: "text"},
		logger.WithOutput(&buf),
	)
	l.Debug("visible")

	assert.True(t, strings.Contains(buf.String(), "visible"))
}
