package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	icache "github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/metrics"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/usecase"
	xhttp "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/http"
	xlogger "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

const dateLayout = "2006-01-02"

// AnalysisHandler serves the read side of the analysis over Echo.
type AnalysisHandler struct {
	logger     *xlogger.Logger
	data       *usecase.DataService
	cache      icache.BytesCache
	ttl        time.Duration
	windowDays int
	mw         []echo.MiddlewareFunc
}

// HandlerOption configures AnalysisHandler.
type HandlerOption func(*AnalysisHandler)

// WithCache caches encoded responses of the price and catalog endpoints.
func WithCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *AnalysisHandler) {
		h.cache = c
		h.ttl = ttl
	}
}

// WithGroupMiddleware runs m on every /api route.
func WithGroupMiddleware(m ...echo.MiddlewareFunc) HandlerOption {
	return func(h *AnalysisHandler) { h.mw = append(h.mw, m...) }
}

func WithDefaultWindow(days int) HandlerOption {
	return func(h *AnalysisHandler) { h.windowDays = days }
}

func NewAnalysisHandler(logger *xlogger.Logger, data *usecase.DataService, opts ...HandlerOption) *AnalysisHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &AnalysisHandler{logger: logger, data: data, windowDays: 90}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)
	g.GET("/health", h.Health)
	g.GET("/prices", h.Prices)
	g.GET("/change-points", h.ChangePoints)
	g.GET("/events", h.Events)
	g.GET("/events/nearby", h.NearbyEvents)
	g.GET("/summary", h.Summary)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "healthy"})
}

func (h *AnalysisHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	key := "prices:" + req.StartDate + ":" + req.EndDate
	return h.cached(c, "prices", key, func(ctx context.Context) (interface{}, error) {
		return h.data.Prices(ctx, from, to)
	})
}

// ChangePointsResponse lists persisted change points; empty until an analysis has run.
type ChangePointsResponse struct {
	Count        int                     `json:"count"`
	ChangePoints []models.AnalysisRecord `json:"change_points"`
	NearbyEvents []models.NearbyEvent    `json:"nearby_events,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

func (h *AnalysisHandler) ChangePoints(c echo.Context) error {
	start := time.Now()
	defer observe("change_points", start)

	res, err := h.data.LatestChangePoints(c.Request().Context())
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("change_points").Inc()
		h.logger.Error("change points usecase error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	out := ChangePointsResponse{ChangePoints: []models.AnalysisRecord{}, Message: res.Message}
	if res.IsComputed() {
		out.ChangePoints = append(out.ChangePoints, *res.Record)
		out.NearbyEvents = res.NearbyEvents
		out.Count = 1
	}
	return xhttp.SuccessResponse(c, out)
}

type EventsResponse struct {
	Count  int                  `json:"count"`
	Events []models.EventRecord `json:"events"`
}

func (h *AnalysisHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	filter := models.EventFilter{
		From:        from,
		To:          to,
		EventType:   req.EventType,
		ImpactLevel: models.ImpactLevel(req.ImpactLevel),
	}
	key := "events:" + req.StartDate + ":" + req.EndDate + ":" + req.EventType + ":" + req.ImpactLevel
	return h.cached(c, "events", key, func(context.Context) (interface{}, error) {
		evs := h.data.Events(filter)
		return EventsResponse{Count: len(evs), Events: evs}, nil
	})
}

type NearbyEventsResponse struct {
	Date       string               `json:"date"`
	WindowDays int                  `json:"window_days"`
	Count      int                  `json:"count"`
	Events     []models.NearbyEvent `json:"events"`
}

func (h *AnalysisHandler) NearbyEvents(c echo.Context) error {
	req := &models.NearbyEventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !c.QueryParams().Has("window_days") {
		req.WindowDays = h.windowDays
	}
	date, _ := time.Parse(dateLayout, req.Date)

	start := time.Now()
	defer observe("events_nearby", start)
	evs := h.data.NearbyEvents(date, req.WindowDays)
	return xhttp.SuccessResponse(c, NearbyEventsResponse{
		Date:       req.Date,
		WindowDays: req.WindowDays,
		Count:      len(evs),
		Events:     evs,
	})
}

func (h *AnalysisHandler) Summary(c echo.Context) error {
	return h.cached(c, "summary", "summary", func(ctx context.Context) (interface{}, error) {
		return h.data.Summary(ctx)
	})
}

// cached serves the encoded envelope from the response cache when present,
// otherwise loads, encodes and stores it. Cache failures only cost a reload.
func (h *AnalysisHandler) cached(c echo.Context, endpoint, key string, load func(context.Context) (interface{}, error)) error {
	start := time.Now()
	defer observe(endpoint, start)
	ctx := c.Request().Context()

	if h.cache != nil {
		b, ok, err := h.cache.GetBytes(ctx, key)
		switch {
		case err != nil:
			h.logger.Warn("cache get error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		case ok:
			metrics.CacheHits.WithLabelValues(endpoint, "hit").Inc()
			return xhttp.RawSuccessResponse(c, b)
		default:
			metrics.CacheHits.WithLabelValues(endpoint, "miss").Inc()
		}
	}

	data, err := load(ctx)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("read usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	body, err := xhttp.EncodeSuccess(data)
	if err != nil {
		h.logger.Error("encode response", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(ctx, key, body, h.ttl); err != nil {
			h.logger.Warn("cache set error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		}
	}
	return xhttp.RawSuccessResponse(c, body)
}

func observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// parseRange parses already validated optional ISO dates.
func parseRange(startDate, endDate string) (from, to time.Time, err error) {
	if startDate != "" {
		from, _ = time.Parse(dateLayout, startDate)
	}
	if endDate != "" {
		to, _ = time.Parse(dateLayout, endDate)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, xhttp.InvalidRangeError(startDate, endDate)
	}
	return from, to, nil
}
