package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo_WritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", &buf)
	defer Init("production")

	Info("search finished", "mall", "rakuten", "count", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "search finished", line["message"])
	assert.Equal(t, "rakuten", line["mall"])
	assert.EqualValues(t, 3, line["count"])
	assert.Equal(t, "info", line["level"])
}

func TestError_TrailingErrorBecomesErrorField(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", &buf)
	defer Init("production")

	Error("save failed", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["error"])
}

func TestDebug_SuppressedOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("production", &buf)
	defer Init("production")

	Debug("noisy", "k", "v")

	assert.Zero(t, buf.Len())
}
