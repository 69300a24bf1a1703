package association

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

const catalogCSV = `Event_Date,Event_Description,Event_Type,Region,Impact_Level
2020-03-20,Saudi-Russia price war,Economic,Middle East,high
2020-03-01,COVID-19 pandemic declared,Economic,Global,High
2020-02-28,OPEC+ talks collapse,Political,Global,Medium
2008-09-15,Lehman Brothers collapse,Economic,Global,High
2020-03-10,Storage glut warning,Economic,Global,Low
`

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func newEngine(t *testing.T) *Engine {
	t.Helper()
	events, err := ReadCatalog(strings.NewReader(catalogCSV))
	require.NoError(t, err)
	return New(events)
}

func TestReadCatalog_SortedAndNormalized(t *testing.T) {
	events, err := ReadCatalog(strings.NewReader(catalogCSV))
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, "Lehman Brothers collapse", events[0].Description)
	assert.Equal(t, "Saudi-Russia price war", events[4].Description)
	assert.Equal(t, models.ImpactLevelHigh, events[4].ImpactLevel)
	assert.Equal(t, "Middle East", events[4].Region)
}

func TestReadCatalog_Invalid(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader("Date,Description\n2020-01-01,x\n"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = ReadCatalog(strings.NewReader("Event_Date,Event_Description\nyesterday,x\n"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestNewFromFile(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogNotFound))

	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o644))
	e, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Len(t, e.Events(), 5)
}

func TestFindNearbyEvents_SortedByProximity(t *testing.T) {
	e := newEngine(t)
	cp := date(2020, 3, 5)

	got := e.FindNearbyEvents(cp, 30)
	require.Len(t, got, 4)
	// Mar 1 and Mar 10 are 4 and 5 days away; Feb 28 and Mar 20 are 6 and 15.
	assert.Equal(t, "COVID-19 pandemic declared", got[0].Description)
	assert.Equal(t, -4, got[0].DaysDifference)
	assert.Equal(t, 5, got[1].DaysDifference)
	assert.Equal(t, -6, got[2].DaysDifference)
	assert.Equal(t, 15, got[3].DaysDifference)

	again := e.FindNearbyEvents(cp, 30)
	assert.Equal(t, got, again)
}

func TestFindNearbyEvents_EquidistantEarlierFirst(t *testing.T) {
	e := New([]models.EventRecord{
		{Date: date(2020, 1, 15), Description: "later"},
		{Date: date(2020, 1, 5), Description: "earlier"},
	})
	got := e.FindNearbyEvents(date(2020, 1, 10), 10)
	require.Len(t, got, 2)
	assert.Equal(t, "earlier", got[0].Description)
	assert.Equal(t, "later", got[1].Description)
}

func TestFindNearbyEvents_InclusiveWindow(t *testing.T) {
	e := New([]models.EventRecord{
		{Date: date(2020, 1, 1), Description: "edge"},
		{Date: date(2019, 12, 31), Description: "outside"},
	})
	got := e.FindNearbyEvents(date(2020, 1, 11), 10)
	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].Description)
}

func TestAssociate_NoEvents(t *testing.T) {
	e := newEngine(t)
	a := e.Associate(date(1995, 6, 1), 0.001, -0.002, nil, nil, DefaultWindowDays)
	assert.NotNil(t, a.NearbyEvents)
	assert.Empty(t, a.NearbyEvents)
	assert.Nil(t, a.ClosestEvent)
	assert.Equal(t, models.ConfidenceNone, a.Confidence)
	assert.Nil(t, a.ImpactUSD)

	s := e.FormatImpactStatement(a, "")
	assert.True(t, strings.HasPrefix(s, "On June 01, 1995, the model detects a change point"))
	assert.NotContains(t, s, "Following")
}

func TestAssociate_WithPricesAndEvent(t *testing.T) {
	e := newEngine(t)
	a := e.Associate(date(2020, 3, 5), 0.0005, -0.0040, ptr(58.25), ptr(32.10), DefaultWindowDays)

	require.NotNil(t, a.ClosestEvent)
	assert.Equal(t, "COVID-19 pandemic declared", a.ClosestEvent.Description)
	assert.Equal(t, models.ConfidenceHigh, a.Confidence)
	assert.InDelta(t, -0.0045, a.ImpactLog, 1e-12)
	require.NotNil(t, a.ImpactUSD)
	assert.InDelta(t, -26.15, *a.ImpactUSD, 1e-9)

	s := e.FormatImpactStatement(a, a.ClosestEvent.Description)
	assert.Equal(t,
		"Following the COVID-19 pandemic declared around March 05, 2020, the model detects a change point, "+
			"with the average daily price shifting from $58.25 to $32.10, a decrease of 0.45%.",
		s)
}

func TestAssociate_OnePriceMissing(t *testing.T) {
	a := newEngine(t).Associate(date(2020, 3, 5), 0, 0.01, ptr(50), nil, 10)
	assert.Nil(t, a.PriceBefore)
	assert.Nil(t, a.PriceAfter)
	assert.Nil(t, a.ImpactUSD)
}

func TestFormatImpactStatement_Direction(t *testing.T) {
	e := New(nil)
	cp := date(2014, 11, 27)

	down := e.FormatImpactStatement(models.Association{ChangePointDate: cp, ImpactPercent: -12.34}, "")
	assert.Contains(t, down, "decrease")
	assert.Contains(t, down, "12.34%")
	assert.NotContains(t, down, "-12.34")

	up := e.FormatImpactStatement(models.Association{ChangePointDate: cp, ImpactPercent: 171.828}, "OPEC meeting")
	assert.Contains(t, up, "an increase of 171.83%.")

	flat := e.FormatImpactStatement(models.Association{ChangePointDate: cp}, "")
	assert.Contains(t, flat, "a decrease of 0.00%.")
}

func TestConfidenceFromDays(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, models.ConfidenceFromDays(30))
	assert.Equal(t, models.ConfidenceModerate, models.ConfidenceFromDays(31))
	assert.Equal(t, models.ConfidenceModerate, models.ConfidenceFromDays(60))
	assert.Equal(t, models.ConfidenceLow, models.ConfidenceFromDays(61))
}
