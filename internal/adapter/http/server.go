package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/lookup"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	msgOutOfRange     = "Month or Year are out of range"
	msgUpstreamFailed = "Failed to retrieve CPI data."
)

// Lookuper answers CPI lookups. It is implemented by lookup.Service.
type Lookuper interface {
	Lookup(ctx context.Context, month string, year int) (lookup.Result, error)
}

type resultResponse struct {
	Result *domain.CPIRecord `json:"result"`
	Source lookup.Source     `json:"source"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the CPI lookup endpoint alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	lookup     Lookuper
	logger     *slog.Logger
}

// writeSlack is how long a response may take beyond the upstream timeout.
const writeSlack = 30 * time.Second

// NewServer creates an HTTP server with /cpi, /healthz, /readyz, and /metrics routes.
// upstreamTimeout bounds one BLS call; the write timeout is derived from it so
// that a slow cache miss still gets its response out.
func NewServer(addr string, l Lookuper, ready sharedobs.ReadinessChecker, upstreamTimeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: upstreamTimeout + writeSlack,
			IdleTimeout:  60 * time.Second,
		},
		lookup: l,
		logger: logger,
	}

	mux.HandleFunc("GET /cpi", s.handleCPI)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month := q.Get("month")
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgOutOfRange})
		return
	}

	res, err := s.lookup.Lookup(r.Context(), month, year)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	if res.Record == nil {
		writeJSON(w, http.StatusOK, messageResponse{
			Message: fmt.Sprintf("No data found for provided month %s and year %d", month, year),
		})
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: res.Record, Source: res.Source})
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	var upErr *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgOutOfRange})
	case errors.As(err, &upErr):
		status := http.StatusBadGateway
		if upErr.StatusCode >= 400 && upErr.StatusCode <= 599 {
			status = upErr.StatusCode
		}
		writeJSON(w, status, errorResponse{Error: msgUpstreamFailed})
	case errors.Is(err, domain.ErrMalformedResponse):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: msgUpstreamFailed})
	default:
		s.logger.Error("cpi lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgUpstreamFailed})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
