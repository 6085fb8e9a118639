// Command lookup resolves a single CPI value against the live BLS API and
// prints the result as JSON. It runs the same validation, parsing, and
// resolution as the service, with a throwaway in-memory cache.
//
// Usage:
//
//	go run ./cmd/lookup -month March -year 2019
//	go run ./cmd/lookup -month june -year 2020 -series CUUR0000SA0
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/adapter/bls"
	"github.com/couchcryptid/cpi-lookup-service/internal/adapter/cache"
	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/lookup"
	"github.com/couchcryptid/cpi-lookup-service/internal/observability"
)

func main() {
	month := flag.String("month", "", "month name, any casing (e.g. March)")
	year := flag.Int("year", 0, "four-digit year")
	series := flag.String("series", "LAUCN040010000000005", "BLS series id")
	url := flag.String("url", bls.DefaultBaseURL, "BLS time-series endpoint")
	timeout := flag.Duration("timeout", 30*time.Second, "upstream request timeout")
	verbose := flag.Bool("v", false, "log pipeline steps to stderr")
	flag.Parse()

	if *month == "" || *year == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if code := run(os.Stdout, logger, observability.NewMetrics(), *month, *year, *series, *url, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, logger *slog.Logger, metrics *observability.Metrics, month string, year int, series, url string, timeout time.Duration) int {
	client := bls.NewClient(url, series, timeout, metrics, logger)
	svc := lookup.New(domain.DefaultCalendar(), cache.NewMemoryStore(nil, metrics), client, logger, metrics,
		lookup.Options{SeriesID: series, TTL: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), timeout+5*time.Second)
	defer cancel()

	res, err := svc.Lookup(ctx, month, year)
	if err != nil {
		var upErr *domain.UpstreamError
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			fmt.Fprintln(os.Stderr, "Month or Year are out of range")
			return 2
		case errors.As(err, &upErr) && upErr.StatusCode != 0:
			fmt.Fprintf(os.Stderr, "BLS returned status %d\n", upErr.StatusCode)
		default:
			fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		}
		return 1
	}

	if res.Record == nil {
		fmt.Fprintf(out, "No data found for provided month %s and year %d\n", month, year)
		return 0
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Record); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		return 1
	}
	return 0
}
