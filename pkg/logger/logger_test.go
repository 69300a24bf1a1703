package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("component", "sampler"))

	l.Info("chain done",
		Int("chain", 2),
		Float64("acceptance", 0.41),
		Duration("elapsed", 1500*time.Millisecond),
		Strings("params", []string{"tau", "mu_1"}),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "chain done", got["message"])
	assert.Equal(t, "sampler", got["component"])
	assert.Equal(t, float64(2), got["chain"])
	assert.Equal(t, 0.41, got["acceptance"])
	assert.Equal(t, float64(1500), got["elapsed"])
	assert.Equal(t, "boom", got["error"])
}

func TestLevelFilter(t *testing.T) {
	l, err := New(&Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)
	assert.Nil(t, l.zl.Info())
	assert.NotNil(t, l.zl.Warn())

	_, err = New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("ignored", Any("x", 1)) })
}
