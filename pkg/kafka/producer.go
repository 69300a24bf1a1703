package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// Config describes a producer bound to a single topic.
type Config struct {
	Brokers      []string
	Topic        string
	RequiredAcks int // -1 waits for all in-sync replicas
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes JSON messages to one topic. Messages with the same key
// land on the same partition.
type Producer struct {
	w     messageWriter
	topic string
	now   func() time.Time
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  codec,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		// one message per completed run, do not wait for a batch to fill
		BatchSize: 1,
	}
	return newProducer(w, cfg.Topic), nil
}

func newProducer(w messageWriter, topic string) *Producer {
	registerMetrics()
	return &Producer{w: w, topic: topic, now: time.Now}
}

// SendJSON encodes v and writes it under key.
func (p *Producer) SendJSON(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	start := p.now()
	err = p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body, Time: start})
	sendSeconds.WithLabelValues(p.topic).Observe(time.Since(start).Seconds())
	if err != nil {
		sentTotal.WithLabelValues(p.topic, "error").Inc()
		return fmt.Errorf("kafka send to %s: %w", p.topic, err)
	}
	sentTotal.WithLabelValues(p.topic, "ok").Inc()
	sentBytes.WithLabelValues(p.topic).Add(float64(len(body)))
	return nil
}

func (p *Producer) Close() error {
	return p.w.Close()
}

func compressionCodec(name string) (kafka.Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("unknown kafka compression %q", name)
}

var (
	sentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "brent_kafka_messages_total",
		Help: "Messages written to Kafka by result",
	}, []string{"topic", "result"})
	sentBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "brent_kafka_bytes_total",
		Help: "Payload bytes written to Kafka",
	}, []string{"topic"})
	sendSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brent_kafka_send_seconds",
		Help:    "Time spent writing one message",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	metricsOnce sync.Once
)

func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(sentTotal, sentBytes, sendSeconds)
	})
}
