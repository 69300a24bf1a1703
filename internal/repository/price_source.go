package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/util"
)

// Thresholds for price sanity warnings.
const (
	maxPlausiblePrice = 200.0
	minCoverageDays   = 365
)

// PriceReport describes what was kept and what looked wrong in a price file.
type PriceReport struct {
	Rows     int
	Dropped  int
	Warnings []string
}

// CSVPriceSource reads a Date,Price file.
type CSVPriceSource struct {
	path string
	log  *logger.Logger
}

func NewCSVPriceSource(path string, l *logger.Logger) domrepo.PriceSource {
	if l == nil {
		l = logger.Nop()
	}
	return &CSVPriceSource{path: path, log: l}
}

func (s *CSVPriceSource) LoadPrices(ctx context.Context) (models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.PriceSeries{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	series, report, err := ReadPrices(f)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%s: %w", s.path, err)
	}
	series.Source = s.path

	if report.Dropped > 0 {
		s.log.Warn("dropped unparseable price rows", logger.Int("dropped", report.Dropped), logger.String("path", s.path))
	}
	for _, w := range report.Warnings {
		s.log.Warn("price data check", logger.String("warning", w))
	}
	s.log.Info("prices loaded", logger.String("path", s.path), logger.Int("rows", report.Rows))
	return series, nil
}

// ReadPrices parses a CSV with Date and Price columns, dropping rows that do
// not parse, and returns the points sorted by date.
func ReadPrices(r io.Reader) (models.PriceSeries, PriceReport, error) {
	var report PriceReport
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return models.PriceSeries{}, report, fmt.Errorf("read header: %w", err)
	}
	dateCol, priceCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")) {
		case "date":
			dateCol = i
		case "price":
			priceCol = i
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return models.PriceSeries{}, report, fmt.Errorf("expected Date and Price columns, got %v", header)
	}

	var series models.PriceSeries
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.PriceSeries{}, report, fmt.Errorf("read row: %w", err)
		}
		if dateCol >= len(row) || priceCol >= len(row) {
			report.Dropped++
			continue
		}
		date, ok := util.ParseDate(row[dateCol])
		if !ok {
			report.Dropped++
			continue
		}
		price, ok := util.ParseFloat(row[priceCol])
		if !ok {
			report.Dropped++
			continue
		}
		series.Points = append(series.Points, models.PricePoint{Date: date, Price: price})
	}
	sort.SliceStable(series.Points, func(i, j int) bool { return series.Points[i].Date.Before(series.Points[j].Date) })
	report.Rows = len(series.Points)
	report.Warnings = checkPrices(series)
	return series, report, nil
}

func checkPrices(s models.PriceSeries) []string {
	var out []string
	if len(s.Points) == 0 {
		return []string{"no price rows"}
	}
	negative, high, dup := 0, 0, 0
	for i, p := range s.Points {
		if p.Price < 0 {
			negative++
		}
		if p.Price > maxPlausiblePrice {
			high++
		}
		if i > 0 && p.Date.Equal(s.Points[i-1].Date) {
			dup++
		}
	}
	if negative > 0 {
		out = append(out, fmt.Sprintf("%d negative prices", negative))
	}
	if high > 0 {
		out = append(out, fmt.Sprintf("%d prices above %.0f USD", high, maxPlausiblePrice))
	}
	if dup > 0 {
		out = append(out, fmt.Sprintf("%d duplicate dates", dup))
	}
	first, last := s.Points[0].Date, s.Points[len(s.Points)-1].Date
	if days := util.DaysBetween(first, last); days < minCoverageDays {
		out = append(out, fmt.Sprintf("series covers only %d days", days))
	}
	return out
}
