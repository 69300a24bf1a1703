package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigOptions(t *testing.T) {
	cfg := Config{
		Host:             "ch.local",
		Database:         "brent",
		User:             "default",
		Password:         "secret",
		DialTimeout:      5 * time.Second,
		MaxExecutionTime: time.Minute,
	}
	opts, err := cfg.options()
	require.NoError(t, err)
	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, "brent", opts.Auth.Database)
	assert.Equal(t, clickhouse.Native, opts.Protocol)
	assert.Equal(t, 60, opts.Settings["max_execution_time"])

	cfg.UseHTTP = true
	cfg.Port = 8123
	cfg.MaxExecutionTime = 0
	opts, err = cfg.options()
	require.NoError(t, err)
	assert.Equal(t, []string{"ch.local:8123"}, opts.Addr)
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Nil(t, opts.Settings)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Port: 9000})
	assert.EqualError(t, err, "clickhouse host is required")
}
