package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	key    string
	value  interface{}
	closed bool
}

func (f *fakeProducer) SendJSON(_ context.Context, key string, v interface{}) error {
	f.key, f.value = key, v
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_KeyedByRun(t *testing.T) {
	fp := &fakeProducer{}
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	pub := &KafkaPublisher{p: fp, now: func() time.Time { return now }}

	rec, _ := sampleRecord()
	require.NoError(t, pub.PublishAnalysis(context.Background(), rec))
	assert.Equal(t, "run-1", fp.key)

	ev, ok := fp.value.(AnalysisEvent)
	require.True(t, ok)
	assert.Equal(t, "analysis.completed", ev.Type)
	assert.Equal(t, now, ev.PublishedAt)
	assert.Equal(t, rec, ev.Record)

	require.NoError(t, pub.Close())
	assert.True(t, fp.closed)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	rec, _ := sampleRecord()
	assert.NoError(t, p.PublishAnalysis(context.Background(), rec))
	assert.NoError(t, p.Close())
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS change_point_associations")
	for _, col := range associationColumns {
		assert.Contains(t, stmts[0], col)
	}
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS change_point_nearby_events")
}
