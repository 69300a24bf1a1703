package di

import (
	"context"
	"fmt"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	domsvc "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/service"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/handler/api"
	internalrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/repository"
	icache "github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/ratelimit"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/analytics"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/association"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/usecase"
	pkgch "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/clickhouse"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/config"
	xhttp "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/http"
	pkgkafka "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/kafka"
	applogger "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/metrics"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/server"
)

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func ProvidePriceSource(cfg *config.Config, l *applogger.Logger) repository.PriceSource {
	return internalrepo.NewCSVPriceSource(cfg.Data.PricesPath, l)
}

func ProvideDetector(cfg *config.Config, l *applogger.Logger) domsvc.ChangePointDetector {
	return analytics.NewBayesianDetector(cfg, l)
}

// ProvideAssociator loads the event catalog; a missing catalog fails startup.
func ProvideAssociator(cfg *config.Config, l *applogger.Logger) (domsvc.EventAssociator, error) {
	eng, err := association.NewFromFile(cfg.Data.EventsPath, association.WithLogger(l))
	if err != nil {
		return nil, fmt.Errorf("event catalog: %w", err)
	}
	return eng, nil
}

// ProvideResultStore picks file or ClickHouse storage.
func ProvideResultStore(cfg *config.Config, l *applogger.Logger) (repository.ResultStore, error) {
	if cfg.Storage.Type != "clickhouse" {
		return internalrepo.NewFileResultStore(cfg.Storage.ReportsDir, cfg.Storage.Format, l)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := pkgch.NewClient(ctx, pkgch.Config{
		Host:             cfg.ClickHouse.Host,
		Port:             cfg.ClickHouse.Port,
		Database:         cfg.ClickHouse.Database,
		User:             cfg.ClickHouse.User,
		Password:         cfg.ClickHouse.Password,
		UseHTTP:          cfg.ClickHouse.UseHTTP,
		DialTimeout:      cfg.ClickHouse.DialTimeout,
		ReadTimeout:      cfg.ClickHouse.ReadTimeout,
		MaxExecutionTime: cfg.ClickHouse.MaxExecutionTime,
		MaxOpenConns:     4,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	l.Info("clickhouse connected", applogger.String("database", cfg.ClickHouse.Database))
	return internalrepo.NewCHResultStore(client, l), nil
}

// ProvidePublisher returns a Kafka publisher when enabled, otherwise a no-op.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.MaxAttempts,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer), nil
}

// ProvideCache returns the response cache. An unreachable Redis degrades to
// the in-process cache instead of failing startup.
func ProvideCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	c := icache.New(cfg)
	rc, ok := c.(*icache.RedisCache)
	if !ok {
		return c
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-memory cache",
			applogger.String("addr", cfg.Cache.Redis.Addr),
			applogger.Error(err),
		)
		_ = rc.Close()
		return icache.NewTTLCache()
	}
	return rc
}

func ProvideChangePointAnalysis(
	cfg *config.Config,
	l *applogger.Logger,
	prices repository.PriceSource,
	detector domsvc.ChangePointDetector,
	assoc domsvc.EventAssociator,
	store repository.ResultStore,
	pub repository.Publisher,
	m repository.Metrics,
) *usecase.ChangePointAnalysis {
	return usecase.NewChangePointAnalysis(prices, detector, assoc, store, pub, m, cfg.Association.WindowDays, l)
}

func ProvideDataService(prices repository.PriceSource, assoc domsvc.EventAssociator, store repository.ResultStore) *usecase.DataService {
	return usecase.NewDataService(prices, assoc, store)
}

// ProvideHandler builds the read API with caching and per-client rate limiting.
func ProvideHandler(cfg *config.Config, l *applogger.Logger, data *usecase.DataService, cache icache.BytesCache) xhttp.Handler {
	opts := []api.HandlerOption{
		api.WithCache(cache, cfg.Cache.TTL),
		api.WithDefaultWindow(cfg.Association.WindowDays),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, api.WithGroupMiddleware(ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware()))
	}
	return api.NewAnalysisHandler(l, data, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	analysis *usecase.ChangePointAnalysis,
	store repository.ResultStore,
	pub repository.Publisher,
	cache icache.BytesCache,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, analysis, store, pub, cache, handler)
}
