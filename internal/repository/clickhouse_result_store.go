package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	pkgch "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/clickhouse"
	applogger "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

const (
	chAssociationsTable = "change_point_associations"
	chNearbyTable       = "change_point_nearby_events"
)

// CHResultStore implements ResultStore backed by ClickHouse.
type CHResultStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHResultStore(ch *pkgch.Client, l *applogger.Logger) domrepo.ResultStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHResultStore{ch: ch, db: ch.DB(), l: l}
}

// schemaStatements returns the idempotent DDL for the result tables.
func schemaStatements() []string {
	return []string{
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id String,
            change_point_date Date,
            change_point_obs UInt32,
            mu1 Float64,
            mu2 Float64,
            impact_percent Float64,
            price_before Nullable(Float64),
            price_after Nullable(Float64),
            impact_usd Nullable(Float64),
            closest_event String,
            closest_event_date Nullable(Date),
            days_difference Nullable(Int32),
            impact_statement String,
            certainty LowCardinality(String),
            confidence LowCardinality(String),
            convergence LowCardinality(String),
            created_at DateTime64(3, 'UTC')
        ) ENGINE = MergeTree
        ORDER BY (created_at, run_id)`, chAssociationsTable),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id String,
            rank UInt16,
            event_date Date,
            event_description String,
            event_type LowCardinality(String),
            region LowCardinality(String),
            impact_level LowCardinality(String),
            days_difference Int32
        ) ENGINE = MergeTree
        ORDER BY (run_id, rank)`, chNearbyTable),
	}
}

func (s *CHResultStore) Init(ctx context.Context) error {
	return s.ch.Exec(ctx, schemaStatements()...)
}

func (s *CHResultStore) Save(ctx context.Context, rec models.AnalysisRecord, nearby []models.NearbyEvent) error {
	start := time.Now()
	q := fmt.Sprintf(`INSERT INTO %s (run_id, change_point_date, change_point_obs, mu1, mu2, impact_percent,
        price_before, price_after, impact_usd, closest_event, closest_event_date, days_difference,
        impact_statement, certainty, confidence, convergence, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, chAssociationsTable)

	var days *int32
	if rec.DaysDifference != nil {
		d := int32(*rec.DaysDifference)
		days = &d
	}
	if _, err := s.db.ExecContext(ctx, q,
		rec.RunID, rec.ChangePointDate, uint32(rec.ChangePointObs), rec.Mu1, rec.Mu2, rec.ImpactPercent,
		rec.PriceBefore, rec.PriceAfter, rec.ImpactUSD, rec.ClosestEvent, rec.ClosestEventDate, days,
		rec.ImpactStatement, string(rec.Certainty), string(rec.Confidence), rec.Converged, rec.CreatedAt.UTC(),
	); err != nil {
		s.l.Error("clickhouse save_analysis error", applogger.String("run_id", rec.RunID), applogger.Error(err))
		return fmt.Errorf("insert analysis: %w", err)
	}

	if len(nearby) > 0 {
		if err := s.saveNearby(ctx, rec.RunID, nearby); err != nil {
			return err
		}
	}
	s.l.Debug("clickhouse save_analysis",
		applogger.String("run_id", rec.RunID),
		applogger.Int("nearby_events", len(nearby)),
		applogger.Duration("duration", time.Since(start)),
	)
	return nil
}

// saveNearby writes all events of a run in one batch.
func (s *CHResultStore) saveNearby(ctx context.Context, runID string, nearby []models.NearbyEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin nearby batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (run_id, rank, event_date, event_description,
        event_type, region, impact_level, days_difference)`, chNearbyTable))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare nearby batch: %w", err)
	}
	defer stmt.Close()
	for i, e := range nearby {
		if _, err := stmt.ExecContext(ctx, runID, uint16(i), e.Date, e.Description, e.Type, e.Region,
			string(e.ImpactLevel), int32(e.DaysDifference)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append nearby event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.l.Error("clickhouse save_nearby error", applogger.String("run_id", runID), applogger.Error(err))
		return fmt.Errorf("commit nearby batch: %w", err)
	}
	return nil
}

func (s *CHResultStore) Latest(ctx context.Context) (models.AnalysisResult, error) {
	q := fmt.Sprintf(`
        SELECT run_id, change_point_date, change_point_obs, mu1, mu2, impact_percent,
               price_before, price_after, impact_usd, closest_event, closest_event_date, days_difference,
               impact_statement, certainty, confidence, convergence, created_at
        FROM %s
        ORDER BY created_at DESC
        LIMIT 1`, chAssociationsTable)

	var (
		rec                            models.AnalysisRecord
		obs                            uint32
		before, after, usd             sql.NullFloat64
		closestDate                    sql.NullTime
		days                           sql.NullInt32
		certainty, confidence, verdict string
	)
	err := s.db.QueryRowContext(ctx, q).Scan(
		&rec.RunID, &rec.ChangePointDate, &obs, &rec.Mu1, &rec.Mu2, &rec.ImpactPercent,
		&before, &after, &usd, &rec.ClosestEvent, &closestDate, &days,
		&rec.ImpactStatement, &certainty, &confidence, &verdict, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingResult("no analysis has been run yet"), nil
	}
	if err != nil {
		s.l.Error("clickhouse latest_analysis error", applogger.Error(err))
		return models.AnalysisResult{}, fmt.Errorf("latest analysis: %w", err)
	}
	rec.ChangePointObs = int(obs)
	rec.PriceBefore = nullFloat(before)
	rec.PriceAfter = nullFloat(after)
	rec.ImpactUSD = nullFloat(usd)
	if closestDate.Valid {
		t := closestDate.Time
		rec.ClosestEventDate = &t
	}
	if days.Valid {
		d := int(days.Int32)
		rec.DaysDifference = &d
	}
	rec.Certainty = models.Certainty(certainty)
	rec.Confidence = models.Confidence(confidence)
	rec.Converged = verdict

	nearby, err := s.nearby(ctx, rec.RunID)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return models.ComputedResult(rec, nearby), nil
}

func (s *CHResultStore) nearby(ctx context.Context, runID string) ([]models.NearbyEvent, error) {
	q := fmt.Sprintf(`
        SELECT event_date, event_description, event_type, region, impact_level, days_difference
        FROM %s
        WHERE run_id = ?
        ORDER BY rank ASC`, chNearbyTable)
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("nearby events: %w", err)
	}
	defer rows.Close()

	var out []models.NearbyEvent
	for rows.Next() {
		var (
			e     models.NearbyEvent
			level string
			days  int32
		)
		if err := rows.Scan(&e.Date, &e.Description, &e.Type, &e.Region, &level, &days); err != nil {
			return nil, fmt.Errorf("scan nearby event: %w", err)
		}
		e.ImpactLevel = models.ImpactLevel(level)
		e.DaysDifference = int(days)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHResultStore) Close() error { return s.ch.Close() }

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
