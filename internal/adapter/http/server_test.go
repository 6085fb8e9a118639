package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/cpi-lookup-service/internal/adapter/http"
	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockLookuper struct {
	res        lookup.Result
	err        error
	gotMonth   string
	gotYear    int
	calledWith bool
}

func (m *mockLookuper) Lookup(_ context.Context, month string, year int) (lookup.Result, error) {
	m.gotMonth, m.gotYear, m.calledWith = month, year, true
	return m.res, m.err
}

func newTestServer(l httpadapter.Lookuper, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", l, &mockReadiness{err: readyErr}, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCPI_Found(t *testing.T) {
	value := 142
	l := &mockLookuper{res: lookup.Result{
		Record: &domain.CPIRecord{Month: "March", Year: "2019", Value: &value,
			Notes: []domain.Footnote{{Code: "P", Text: "Preliminary."}}, NotesText: "P: Preliminary. "},
		Source: lookup.SourceAPI,
	}}

	rec := get(t, newTestServer(l, nil), "/cpi?month=march&year=2019")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
	  "result": {"month":"March","year":"2019","value":142,
	             "notes":[{"code":"P","text":"Preliminary."}],"notesText":"P: Preliminary. "},
	  "source": "api"
	}`, rec.Body.String())
	assert.Equal(t, "march", l.gotMonth)
	assert.Equal(t, 2019, l.gotYear)
}

func TestCPI_FromCache(t *testing.T) {
	l := &mockLookuper{res: lookup.Result{
		Record: &domain.CPIRecord{Month: "April", Year: "2019", Notes: []domain.Footnote{}},
		Source: lookup.SourceCache,
	}}

	body := decode(t, get(t, newTestServer(l, nil), "/cpi?month=April&year=2019"))

	assert.Equal(t, "cache", body["source"])
	result := body["result"].(map[string]any)
	assert.NotContains(t, result, "value")
}

func TestCPI_NoData(t *testing.T) {
	l := &mockLookuper{res: lookup.Result{Source: lookup.SourceNone}}

	rec := get(t, newTestServer(l, nil), "/cpi?month=June&year=2024")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No data found for provided month June and year 2024", decode(t, rec)["message"])
}

func TestCPI_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"invalid input", fmt.Errorf("%w: month %q", domain.ErrInvalidInput, "Smarch"), http.StatusBadRequest, "Month or Year are out of range"},
		{"upstream status", &domain.UpstreamError{StatusCode: http.StatusServiceUnavailable}, http.StatusServiceUnavailable, "Failed to retrieve CPI data."},
		{"upstream client error", &domain.UpstreamError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests, "Failed to retrieve CPI data."},
		{"upstream redirect", &domain.UpstreamError{StatusCode: http.StatusFound}, http.StatusBadGateway, "Failed to retrieve CPI data."},
		{"transport failure", &domain.UpstreamError{Err: errors.New("timeout")}, http.StatusBadGateway, "Failed to retrieve CPI data."},
		{"malformed body", fmt.Errorf("parse: %w", domain.ErrMalformedResponse), http.StatusBadGateway, "Failed to retrieve CPI data."},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Failed to retrieve CPI data."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(&mockLookuper{err: tt.err}, nil), "/cpi?month=March&year=2019")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decode(t, rec)["error"])
		})
	}
}

func TestCPI_BadYearNeverReachesLookup(t *testing.T) {
	for _, target := range []string{"/cpi?month=March&year=twenty", "/cpi?month=March", "/cpi?month=March&year=2019.5"} {
		t.Run(target, func(t *testing.T) {
			l := &mockLookuper{}
			rec := get(t, newTestServer(l, nil), target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Month or Year are out of range", decode(t, rec)["error"])
			assert.False(t, l.calledWith)
		})
	}
}

func TestCPI_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&mockLookuper{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cpi?month=March&year=2019", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockLookuper{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(&mockLookuper{}, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(&mockLookuper{}, errors.New("cache store unreachable")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockLookuper{}, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
