package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/ratelimit"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/association"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/usecase"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type countingPrices struct {
	series models.PriceSeries
	err    error
	calls  int
}

func (p *countingPrices) LoadPrices(context.Context) (models.PriceSeries, error) {
	p.calls++
	return p.series, p.err
}

type staticStore struct {
	res models.AnalysisResult
	err error
}

func (s staticStore) Init(context.Context) error { return nil }
func (s staticStore) Save(context.Context, models.AnalysisRecord, []models.NearbyEvent) error {
	return nil
}
func (s staticStore) Latest(context.Context) (models.AnalysisResult, error) { return s.res, s.err }
func (s staticStore) Close() error                                          { return nil }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func fixture(store staticStore, opts ...HandlerOption) (*echo.Echo, *countingPrices) {
	prices := &countingPrices{series: models.PriceSeries{Points: []models.PricePoint{
		{Date: day(2020, 3, 2), Price: 51.9},
		{Date: day(2020, 3, 3), Price: 53.0},
		{Date: day(2020, 3, 4), Price: 52.1},
		{Date: day(2020, 3, 9), Price: 35.0},
	}}}
	events := association.New([]models.EventRecord{
		{Date: day(2020, 3, 6), Description: "OPEC+ talks collapse", Type: "OPEC", ImpactLevel: models.ImpactLevelHigh},
		{Date: day(2020, 3, 11), Description: "Pandemic declared", Type: "Pandemic", ImpactLevel: models.ImpactLevelHigh},
		{Date: day(2014, 11, 27), Description: "OPEC holds output", Type: "OPEC", ImpactLevel: models.ImpactLevelMedium},
	})
	e := echo.New()
	NewAnalysisHandler(nil, usecase.NewDataService(prices, events, store), opts...).RegisterRoutes(e)
	return e, prices
}

func get(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestHealth(t *testing.T) {
	e, _ := fixture(staticStore{})
	rec, env := get(t, e, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, string(env.Data))
}

func TestPrices(t *testing.T) {
	e, _ := fixture(staticStore{})
	rec, env := get(t, e, "/api/prices?start_date=2020-03-03&end_date=2020-03-04")
	require.Equal(t, http.StatusOK, rec.Code)

	var out models.PriceOverview
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 53.0, out.PriceRange.Max)
	assert.Equal(t, day(2020, 3, 3), *out.DateRange.Start)
}

func TestPrices_BadRequests(t *testing.T) {
	e, _ := fixture(staticStore{})
	rec, env := get(t, e, "/api/prices?start_date=03/03/2020")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "start_date")

	rec, env = get(t, e, "/api/prices?start_date=2020-03-05&end_date=2020-03-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_INVALID_RANGE")
}

func TestPrices_CachedAndInternalError(t *testing.T) {
	e, prices := fixture(staticStore{}, WithCache(cache.NewTTLCache(), time.Minute))
	get(t, e, "/api/prices")
	rec, _ := get(t, e, "/api/prices")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, prices.calls)

	e, prices = fixture(staticStore{})
	prices.err = errors.New("open /secret/path: permission denied")
	rec, env := get(t, e, "/api/summary")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, string(env.Data), "secret")
}

func TestEvents(t *testing.T) {
	e, _ := fixture(staticStore{})
	_, env := get(t, e, "/api/events?event_type=OPEC")
	var out EventsResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, 2, out.Count)
	assert.Equal(t, day(2014, 11, 27), out.Events[0].Date)

	_, env = get(t, e, "/api/events?impact_level=High&start_date=2020-03-10")
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Pandemic declared", out.Events[0].Description)

	rec, _ := get(t, e, "/api/events?impact_level=Severe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearbyEvents(t *testing.T) {
	e, _ := fixture(staticStore{})
	_, env := get(t, e, "/api/events/nearby?date=2020-03-09")
	var out NearbyEventsResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 90, out.WindowDays)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, 2, out.Events[0].DaysDifference)
	assert.Equal(t, -3, out.Events[1].DaysDifference)

	_, env = get(t, e, "/api/events/nearby?date=2020-03-09&window_days=0")
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 0, out.WindowDays)
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Events)

	rec, _ := get(t, e, "/api/events/nearby")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePoints(t *testing.T) {
	e, _ := fixture(staticStore{res: models.PendingResult("no analysis has been run yet")})
	_, env := get(t, e, "/api/change-points")
	var out ChangePointsResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 0, out.Count)
	assert.Empty(t, out.ChangePoints)
	assert.Equal(t, "no analysis has been run yet", out.Message)

	rec := models.AnalysisRecord{RunID: "run-1", ChangePointDate: day(2020, 3, 9), ChangePointObs: 8300}
	e, _ = fixture(staticStore{res: models.ComputedResult(rec, nil)})
	_, env = get(t, e, "/api/change-points")
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "run-1", out.ChangePoints[0].RunID)

	e, _ = fixture(staticStore{err: errors.New("clickhouse down")})
	resp, _ := get(t, e, "/api/change-points")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestSummary(t *testing.T) {
	e, _ := fixture(staticStore{})
	_, env := get(t, e, "/api/summary")
	var out models.SeriesSummary
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 4, out.Observations)
	assert.Equal(t, 35.0, out.Price.Min)
	assert.Greater(t, out.AnnualizedVolatility, 0.0)
}

func TestRateLimitedGroup(t *testing.T) {
	e, _ := fixture(staticStore{}, WithGroupMiddleware(ratelimit.New(0.001, 1).Middleware()))
	first, _ := get(t, e, "/api/health")
	assert.Equal(t, http.StatusOK, first.Code)
	second, env := get(t, e, "/api/health")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 429, env.Status)
}
