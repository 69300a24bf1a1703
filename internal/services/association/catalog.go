package association

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/util"
)

var (
	ErrCatalogNotFound = errors.New("event catalog not found")
	ErrInvalidCatalog  = errors.New("invalid event catalog")
)

// Catalog column headers.
const (
	colDate        = "Event_Date"
	colDescription = "Event_Description"
	colType        = "Event_Type"
	colRegion      = "Region"
	colImpact      = "Impact_Level"
)

// ReadCatalog parses an event catalog CSV and returns its records in
// chronological order. Rows sharing a date keep their file order.
func ReadCatalog(r io.Reader) ([]models.EventRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidCatalog, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, required := range []string{colDate, colDescription} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidCatalog, required)
		}
	}
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var events []models.EventRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCatalog, line, err)
		}
		date, ok := util.ParseDate(cell(row, colDate))
		if !ok {
			return nil, fmt.Errorf("%w: line %d: bad date %q", ErrInvalidCatalog, line, cell(row, colDate))
		}
		events = append(events, models.EventRecord{
			Date:        date,
			Description: cell(row, colDescription),
			Type:        cell(row, colType),
			Region:      cell(row, colRegion),
			ImpactLevel: normalizeImpact(cell(row, colImpact)),
		})
	}
	sortChronological(events)
	return events, nil
}

func sortChronological(events []models.EventRecord) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
}

func normalizeImpact(s string) models.ImpactLevel {
	switch strings.ToLower(s) {
	case "high":
		return models.ImpactLevelHigh
	case "medium":
		return models.ImpactLevelMedium
	case "low":
		return models.ImpactLevelLow
	}
	return models.ImpactLevel(s)
}
