package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/observability"
	"golang.org/x/sync/singleflight"
)

// Validator decides whether a requested month and year may be looked up.
type Validator interface {
	IsValidMonth(month string) bool
	IsValidYear(year int) bool
}

// Store holds CPI records under their normalized cache key.
type Store interface {
	Get(ctx context.Context, key string) (domain.CPIRecord, bool, error)
	Set(ctx context.Context, key string, rec domain.CPIRecord, ttl time.Duration) error
}

// Fetcher retrieves one calendar year of the configured series.
type Fetcher interface {
	FetchYear(ctx context.Context, year int) (domain.RawResponse, error)
}

// Publisher forwards freshly fetched records downstream.
type Publisher interface {
	PublishRecords(ctx context.Context, seriesID string, records []domain.CPIRecord) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Source tells the caller where a lookup result came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceAPI   Source = "api"
	SourceNone  Source = "none"
)

// Result is the outcome of a successful lookup. Record is nil when the
// upstream year did not include the requested month.
type Result struct {
	Record *domain.CPIRecord
	Source Source
}

// Options configures a Service.
type Options struct {
	SeriesID string
	TTL      time.Duration
	// Dedup collapses concurrent fetches of the same year into one upstream call.
	Dedup bool
	// Publisher is optional.
	Publisher Publisher
}

// Service answers CPI lookups from the cache, populating it a whole year at a
// time on a miss.
type Service struct {
	validator Validator
	store     Store
	fetcher   Fetcher
	publisher Publisher
	seriesID  string
	ttl       time.Duration
	dedup     bool
	group     singleflight.Group
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service with the given collaborators and observability.
func New(v Validator, store Store, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Service {
	return &Service{
		validator: v,
		store:     store,
		fetcher:   fetcher,
		publisher: opts.Publisher,
		seriesID:  opts.SeriesID,
		ttl:       opts.TTL,
		dedup:     opts.Dedup,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness pings the store when it supports it. The in-memory store is
// always ready.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("cache store unreachable: %w", err)
		}
	}
	return nil
}

// Lookup returns the CPI record for month and year.
//
// Errors are domain.ErrInvalidInput for rejected input, a *domain.UpstreamError
// when BLS could not be reached or answered with a non-success status, and
// domain.ErrMalformedResponse when the body could not be parsed. A year that
// does not report the month is not an error: the result has SourceNone.
func (s *Service) Lookup(ctx context.Context, month string, year int) (Result, error) {
	if !s.validator.IsValidMonth(month) || !s.validator.IsValidYear(year) {
		s.metrics.Lookups.WithLabelValues("invalid").Inc()
		return Result{}, fmt.Errorf("%w: month %q, year %d", domain.ErrInvalidInput, month, year)
	}

	key := domain.CacheKey(month, strconv.Itoa(year))
	if rec, ok := s.cached(ctx, key); ok {
		s.metrics.Lookups.WithLabelValues(string(SourceCache)).Inc()
		return Result{Record: &rec, Source: SourceCache}, nil
	}

	records, err := s.fetch(ctx, year)
	if err != nil {
		s.metrics.Lookups.WithLabelValues(failureOutcome(err)).Inc()
		return Result{}, err
	}

	// Later series overwrite earlier ones in the cache, so the last match wins here too.
	var found *domain.CPIRecord
	for i := range records {
		if records[i].Key() == key {
			rec := records[i]
			found = &rec
		}
	}
	if found == nil {
		s.metrics.Lookups.WithLabelValues(string(SourceNone)).Inc()
		return Result{Source: SourceNone}, nil
	}
	s.metrics.Lookups.WithLabelValues(string(SourceAPI)).Inc()
	return Result{Record: found, Source: SourceAPI}, nil
}

// cached reads key from the store. Store failures are logged and reported as a miss.
func (s *Service) cached(ctx context.Context, key string) (domain.CPIRecord, bool) {
	rec, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.metrics.CacheErrors.WithLabelValues("get").Inc()
		s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return domain.CPIRecord{}, false
	}
	return rec, ok
}

func (s *Service) fetch(ctx context.Context, year int) ([]domain.CPIRecord, error) {
	if !s.dedup {
		return s.populate(ctx, year)
	}
	v, err, shared := s.group.Do(strconv.Itoa(year), func() (any, error) {
		return s.populate(ctx, year)
	})
	if shared {
		s.logger.Debug("joined in-flight fetch", "year", year)
	}
	if err != nil {
		return nil, err
	}
	return v.([]domain.CPIRecord), nil
}

// populate fetches and parses one year, then caches and publishes every record.
func (s *Service) populate(ctx context.Context, year int) ([]domain.CPIRecord, error) {
	raw, err := s.fetcher.FetchYear(ctx, year)
	if err != nil {
		s.logger.Error("bls fetch failed", "year", year, "error", err)
		return nil, &domain.UpstreamError{Err: err}
	}
	if !raw.StatusOK {
		return nil, &domain.UpstreamError{StatusCode: raw.StatusCode}
	}

	records, err := domain.ParseSeriesResponse(raw.Body)
	if err != nil {
		s.logger.Error("bls response rejected", "year", year, "error", err)
		return nil, fmt.Errorf("parse %d response: %w", year, err)
	}
	s.metrics.RecordsParsed.Observe(float64(len(records)))

	for _, rec := range records {
		if err := s.store.Set(ctx, rec.Key(), rec, s.ttl); err != nil {
			s.metrics.CacheErrors.WithLabelValues("set").Inc()
			s.logger.Warn("cache write failed", "key", rec.Key(), "error", err)
			continue
		}
		s.metrics.CacheWrites.Inc()
	}
	s.logger.Info("cache populated from bls", "year", year, "records", len(records))

	s.publish(ctx, records)
	return records, nil
}

// publish forwards records to the optional publisher. Failures are logged only.
func (s *Service) publish(ctx context.Context, records []domain.CPIRecord) {
	if s.publisher == nil || len(records) == 0 {
		return
	}
	if err := s.publisher.PublishRecords(ctx, s.seriesID, records); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish records failed", "count", len(records), "error", err)
		return
	}
	s.metrics.RecordsPublished.Add(float64(len(records)))
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream_error"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
