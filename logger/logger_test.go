package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitInstallsGlobal(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	log, err := Init(Config{Level: "debug", Environment: "development", ServiceName: "test"})
	require.NoError(t, err)
	assert.Same(t, log, GetLogger())
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
	assert.NotNil(t, FromContext(context.Background()))
}
