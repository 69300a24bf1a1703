package repository

import (
	"context"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	pkgkafka "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/kafka"
)

const analysisCompletedEvent = "analysis.completed"

// AnalysisEvent is the message published after each successful run.
type AnalysisEvent struct {
	Type        string                `json:"type"`
	PublishedAt time.Time             `json:"published_at"`
	Record      models.AnalysisRecord `json:"record"`
}

type jsonSender interface {
	SendJSON(ctx context.Context, key string, v interface{}) error
	Close() error
}

// KafkaPublisher implements Publisher using Kafka, keyed by run id.
type KafkaPublisher struct {
	p   jsonSender
	now func() time.Time
}

func NewKafkaPublisher(p *pkgkafka.Producer) domrepo.Publisher {
	return &KafkaPublisher{p: p, now: time.Now}
}

func (k *KafkaPublisher) PublishAnalysis(ctx context.Context, rec models.AnalysisRecord) error {
	ev := AnalysisEvent{Type: analysisCompletedEvent, PublishedAt: k.now().UTC(), Record: rec}
	return k.p.SendJSON(ctx, rec.RunID, ev)
}

func (k *KafkaPublisher) Close() error { return k.p.Close() }

// NoopPublisher drops every message.
type NoopPublisher struct{}

func (NoopPublisher) PublishAnalysis(context.Context, models.AnalysisRecord) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }
