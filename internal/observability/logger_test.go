package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(&buf, "api-server", "prod")

	logger.Info().Str("k", "v").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "api-server", line["service"])
	assert.Equal(t, "prod", line["env"])
	assert.Equal(t, "hello", line["message"])
	assert.Contains(t, line, "caller")
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := zerolog.New(&buf).With().Str("request_id", "r-1").Logger()
	ctx := WithLogger(context.Background(), scoped)

	LoggerFromContext(ctx).Info().Msg("x")

	assert.Contains(t, buf.String(), `"request_id":"r-1"`)
	assert.NotNil(t, LoggerFromContext(context.Background()))
}
