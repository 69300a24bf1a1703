package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowRequest struct {
	Date   string `query:"date" validate:"required,datetime=2006-01-02"`
	Level  string `query:"level" validate:"omitempty,oneof=High Low"`
	Window int    `query:"window" default:"30" validate:"gte=0,lte=100"`
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestReadAndValidateRequest(t *testing.T) {
	c, _ := newContext("/?date=2020-03-05")
	req := &windowRequest{}
	assert.Nil(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, 30, req.Window)

	c, _ = newContext("/?date=05-03-2020&level=Mid&window=500")
	verr := ReadAndValidateRequest(c, &windowRequest{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_DATETIME", byField["date"].Code)
	assert.Equal(t, "date must be a date formatted as 2006-01-02", byField["date"].Message)
	assert.Equal(t, "level must be one of: High, Low", byField["level"].Message)
	assert.Equal(t, "100", byField["window"].Params["max"])
}

func TestReadAndValidateRequest_BindError(t *testing.T) {
	c, _ := newContext("/?date=2020-03-05&window=abc")
	errs, ok := ReadAndValidateRequest(c, &windowRequest{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext("/")
	require.NoError(t, AppErrorResponse(c, BadRequestErrorf("bad %s", "range").WithParam("k", "v")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 400, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_BAD_REQUEST", body.Data[0].Code)
	assert.Equal(t, "bad range", body.Data[0].Message)

	c, rec = newContext("/")
	require.NoError(t, AppErrorResponse(c, errors.New("db password leaked")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestEncodeSuccessMatchesSuccessResponse(t *testing.T) {
	data := map[string]int{"count": 2}
	c, rec := newContext("/")
	require.NoError(t, SuccessResponse(c, data))

	body, err := EncodeSuccess(data)
	require.NoError(t, err)
	assert.JSONEq(t, rec.Body.String(), string(body))

	c, rec = newContext("/")
	require.NoError(t, RawSuccessResponse(c, body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":{"count":2}}`, rec.Body.String())
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestNewServer_RoutesCORSAndMetrics(t *testing.T) {
	s := NewServer(pingHandler{}, ServerConfig{MetricsPath: "/metrics"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dashboard.test")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	noCORS := NewServer(pingHandler{}, ServerConfig{DisableCORS: true}, nil)
	rec = httptest.NewRecorder()
	noCORS.Echo().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = httptest.NewRecorder()
	noCORS.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "0.0.0.0:8080", NewServer(nil, ServerConfig{Host: "0.0.0.0"}, nil).Addr())
}

func TestInvalidRangeError(t *testing.T) {
	err := InvalidRangeError("2020-03-05", "2020-03-01")
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "ERR_INVALID_RANGE", err.Code)
	assert.Equal(t, "2020-03-01", err.Params["end_date"])
	assert.Equal(t, "end_date 2020-03-01 is before start_date 2020-03-05", err.Error())
}
