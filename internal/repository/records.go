package repository

import (
	"fmt"
	"strconv"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Column order of the persisted association table.
var associationColumns = []string{
	"run_id", "change_point_date", "change_point_obs", "mu1", "mu2", "impact_percent",
	"price_before", "price_after", "impact_usd",
	"closest_event", "closest_event_date", "days_difference",
	"impact_statement", "certainty", "confidence", "convergence", "created_at",
}

var nearbyColumns = []string{
	"run_id", "event_date", "event_description", "event_type", "region", "impact_level", "days_difference",
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func recordRow(r models.AnalysisRecord) []string {
	closestDate, days := "", ""
	if r.ClosestEventDate != nil {
		closestDate = r.ClosestEventDate.Format(dateLayout)
	}
	if r.DaysDifference != nil {
		days = strconv.Itoa(*r.DaysDifference)
	}
	return []string{
		r.RunID,
		r.ChangePointDate.Format(dateLayout),
		strconv.Itoa(r.ChangePointObs),
		formatFloat(r.Mu1),
		formatFloat(r.Mu2),
		formatFloat(r.ImpactPercent),
		formatOptFloat(r.PriceBefore),
		formatOptFloat(r.PriceAfter),
		formatOptFloat(r.ImpactUSD),
		r.ClosestEvent,
		closestDate,
		days,
		r.ImpactStatement,
		string(r.Certainty),
		string(r.Confidence),
		r.Converged,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// rowParser turns string cells into typed values, keeping the first error.
type rowParser struct {
	cells map[string]string
	err   error
}

func newRowParser(header, row []string) *rowParser {
	cells := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			cells[h] = row[i]
		}
	}
	return &rowParser{cells: cells}
}

func (p *rowParser) str(col string) string { return p.cells[col] }

func (p *rowParser) float(col string) float64 {
	v, err := strconv.ParseFloat(p.cells[col], 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

func (p *rowParser) optFloat(col string) *float64 {
	if p.cells[col] == "" {
		return nil
	}
	v := p.float(col)
	return &v
}

func (p *rowParser) int(col string) int {
	v, err := strconv.Atoi(p.cells[col])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

func (p *rowParser) optInt(col string) *int {
	if p.cells[col] == "" {
		return nil
	}
	v := p.int(col)
	return &v
}

func (p *rowParser) time(col, layout string) time.Time {
	t, err := time.Parse(layout, p.cells[col])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return t
}

func (p *rowParser) optDate(col string) *time.Time {
	if p.cells[col] == "" {
		return nil
	}
	t := p.time(col, dateLayout)
	return &t
}

func parseRecord(header, row []string) (models.AnalysisRecord, error) {
	p := newRowParser(header, row)
	rec := models.AnalysisRecord{
		RunID:            p.str("run_id"),
		ChangePointDate:  p.time("change_point_date", dateLayout),
		ChangePointObs:   p.int("change_point_obs"),
		Mu1:              p.float("mu1"),
		Mu2:              p.float("mu2"),
		ImpactPercent:    p.float("impact_percent"),
		PriceBefore:      p.optFloat("price_before"),
		PriceAfter:       p.optFloat("price_after"),
		ImpactUSD:        p.optFloat("impact_usd"),
		ClosestEvent:     p.str("closest_event"),
		ClosestEventDate: p.optDate("closest_event_date"),
		DaysDifference:   p.optInt("days_difference"),
		ImpactStatement:  p.str("impact_statement"),
		Certainty:        models.Certainty(p.str("certainty")),
		Confidence:       models.Confidence(p.str("confidence")),
		Converged:        p.str("convergence"),
	}
	if s := p.str("created_at"); s != "" {
		rec.CreatedAt = p.time("created_at", time.RFC3339)
	}
	return rec, p.err
}

func nearbyRow(runID string, e models.NearbyEvent) []string {
	return []string{
		runID,
		e.Date.Format(dateLayout),
		e.Description,
		e.Type,
		e.Region,
		string(e.ImpactLevel),
		strconv.Itoa(e.DaysDifference),
	}
}

func parseNearby(header, row []string) (string, models.NearbyEvent, error) {
	p := newRowParser(header, row)
	ev := models.NearbyEvent{
		EventRecord: models.EventRecord{
			Date:        p.time("event_date", dateLayout),
			Description: p.str("event_description"),
			Type:        p.str("event_type"),
			Region:      p.str("region"),
			ImpactLevel: models.ImpactLevel(p.str("impact_level")),
		},
		DaysDifference: p.int("days_difference"),
	}
	return p.str("run_id"), ev, p.err
}
