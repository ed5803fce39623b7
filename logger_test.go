package repsim_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/repsim"
)

func TestLoggerWithLayer(t *testing.T) {
	var buf bytes.Buffer
	logger := repsim.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	logger.WithLayer("conv1").Info("hello")
	assert.Contains(t, buf.String(), "layer=conv1")
}

func TestLogDistance(t *testing.T) {
	var buf bytes.Buffer
	logger := repsim.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	logger.LogDistance(context.Background(), "pwcca", 32, 0.25, nil)
	assert.Contains(t, buf.String(), "distance computed")
	assert.Contains(t, buf.String(), "kind=pwcca")

	buf.Reset()
	logger.LogDistance(context.Background(), "pwcca", 32, 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "distance failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestNoopLogger(t *testing.T) {
	logger := repsim.NoopLogger()
	logger.Info("dropped")
	logger.Error("dropped too")
}
