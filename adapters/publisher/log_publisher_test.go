package publisher

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"liquigen/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestLogPublisherLogsEveryPath(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf)
	ctx := logging.WithLogger(context.Background(), &logger)

	require.NoError(t, NewLogPublisher().Publish(ctx, []string{"output/F1.xml", "output/F2_updates.xml"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "output/F1.xml", gjson.Get(lines[0], "path").String())
	assert.Equal(t, "output/F2_updates.xml", gjson.Get(lines[1], "path").String())
	assert.Equal(t, int64(2), gjson.Get(lines[2], "files").Int())
}
