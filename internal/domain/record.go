package domain

import (
	"slices"
	"strconv"
)

// Footnote is a coded annotation attached to one month's index value.
type Footnote struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// CPIRecord is one month of the configured series as reported by BLS.
// Records are built by ParseSeriesResponse and treated as read-only afterwards;
// the cache hands the same value to every caller.
type CPIRecord struct {
	Month     string     `json:"month"` // display name as returned upstream, e.g. "March"
	Year      string     `json:"year"`
	Value     *int       `json:"value,omitempty"` // nil when upstream value is not an integer
	Notes     []Footnote `json:"notes"`
	NotesText string     `json:"notesText"` // "{code}: {text} " per footnote, in order
}

// Key returns the cache key addressing this record.
func (r CPIRecord) Key() string {
	return CacheKey(r.Month, r.Year)
}

// Clone returns a deep copy whose Value and Notes share no memory with r.
func (r CPIRecord) Clone() CPIRecord {
	c := r
	if r.Value != nil {
		v := *r.Value
		c.Value = &v
	}
	if r.Notes != nil {
		c.Notes = slices.Clone(r.Notes)
	}
	return c
}

// SeriesRequest is the POST body sent to the BLS time-series endpoint.
type SeriesRequest struct {
	SeriesIDs     []string `json:"seriesid"`
	StartYear     string   `json:"startyear"`
	EndYear       string   `json:"endyear"`
	Catalog       bool     `json:"catalog"`
	Calculations  bool     `json:"calculations"`
	AnnualAverage bool     `json:"annualaverage"`
}

// NewSeriesRequest builds the request for one series and one calendar year,
// asking upstream for its richest response shape.
func NewSeriesRequest(seriesID string, year int) SeriesRequest {
	y := strconv.Itoa(year)
	return SeriesRequest{
		SeriesIDs:     []string{seriesID},
		StartYear:     y,
		EndYear:       y,
		Catalog:       true,
		Calculations:  true,
		AnnualAverage: true,
	}
}

// RawResponse is the transport-level result of one upstream fetch.
type RawResponse struct {
	StatusOK   bool
	StatusCode int
	Body       []byte
}
