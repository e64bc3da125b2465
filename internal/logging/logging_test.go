package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestParseLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))

	t.Setenv("DEBUG", "1")
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(""))
}

func TestWithBatchID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	ctx = WithBatchID(ctx, "batch-1")
	FromContext(ctx).Info().Msg("hello")

	assert.Equal(t, "batch-1", gjson.Get(buf.String(), "batch_id").String())
	assert.Equal(t, "hello", gjson.Get(buf.String(), "message").String())
}

func TestFromContextFallsBack(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
}
