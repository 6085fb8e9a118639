package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseSeriesResponse decodes one BLS time-series body into a record per data
// element, across every series in the body. Parsing is all-or-nothing: the
// first element missing a required field fails the whole body and no records
// are returned.
func ParseSeriesResponse(body []byte) ([]CPIRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)

	results := root.Get("Results")
	if !results.IsObject() {
		return nil, fmt.Errorf("%w: missing Results%s", ErrMalformedResponse, upstreamStatus(root))
	}
	series := results.Get("series")
	if !series.IsArray() {
		return nil, fmt.Errorf("%w: Results.series is not an array", ErrMalformedResponse)
	}

	var records []CPIRecord
	for i, s := range series.Array() {
		data := s.Get("data")
		if !data.IsArray() {
			return nil, fmt.Errorf("%w: series[%d].data is not an array", ErrMalformedResponse, i)
		}
		for j, elem := range data.Array() {
			rec, err := parseDataElement(elem)
			if err != nil {
				return nil, fmt.Errorf("series[%d].data[%d]: %w", i, j, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// parseDataElement builds a CPIRecord from one element of a series' data array.
func parseDataElement(elem gjson.Result) (CPIRecord, error) {
	month, err := requiredString(elem, "periodName")
	if err != nil {
		return CPIRecord{}, err
	}
	year, err := requiredString(elem, "year")
	if err != nil {
		return CPIRecord{}, err
	}

	value := elem.Get("value")
	if !value.Exists() {
		return CPIRecord{}, fmt.Errorf("%w: missing value", ErrMalformedResponse)
	}

	footnotes := elem.Get("footnotes")
	if !footnotes.IsArray() {
		return CPIRecord{}, fmt.Errorf("%w: missing footnotes", ErrMalformedResponse)
	}

	rec := CPIRecord{
		Month: month,
		Year:  year,
		Value: parseIntOrNil(value),
		Notes: []Footnote{},
	}

	var text strings.Builder
	for _, note := range footnotes.Array() {
		code, body := note.Get("code"), note.Get("text")
		// BLS pads elements without notes with a single empty object.
		if !code.Exists() && !body.Exists() {
			continue
		}
		fn := Footnote{Code: code.String(), Text: body.String()}
		rec.Notes = append(rec.Notes, fn)
		fmt.Fprintf(&text, "%s: %s ", fn.Code, fn.Text)
	}
	rec.NotesText = text.String()

	return rec, nil
}

func requiredString(elem gjson.Result, field string) (string, error) {
	r := elem.Get(field)
	if r.Type != gjson.String {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedResponse, field)
	}
	return r.Str, nil
}

// parseIntOrNil parses an index value, returning nil for anything that is not
// a 32-bit base-10 integer ("-", "N/A", "142.5").
func parseIntOrNil(r gjson.Result) *int {
	var s string
	switch r.Type {
	case gjson.String:
		s = r.Str
	case gjson.Number:
		s = r.Raw
	default:
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}

// upstreamStatus formats the BLS status and first message, if present, for
// inclusion in an error.
func upstreamStatus(root gjson.Result) string {
	status := root.Get("status").String()
	if status == "" {
		return ""
	}
	if msg := root.Get("message.0").String(); msg != "" {
		return fmt.Sprintf(" (status %s: %s)", status, msg)
	}
	return fmt.Sprintf(" (status %s)", status)
}
