// Package domain models Consumer Price Index data published by the U.S. Bureau
// of Labor Statistics (BLS).
//
// # Data Source
//
// Records come from the BLS Public Data API v2 time-series endpoint,
// https://api.bls.gov/publicAPI/v2/timeseries/data/. A request names one or
// more series IDs and an inclusive year range; this service always asks for a
// single series and a single year (startyear == endyear) with the catalog,
// calculations and annual average flags set.
//
// # BLS Response Conventions
//
// Body shape:
//
//	{"status": "REQUEST_SUCCEEDED",
//	 "Results": {"series": [{"seriesID": "...",
//	   "data": [{"year": "2024", "period": "M03", "periodName": "March",
//	             "value": "142", "footnotes": [{"code": "P", "text": "preliminary"}]}]}]}}
//
// Rejected requests (bad series, daily quota) still return HTTP 200 with
// "status": "REQUEST_NOT_PROCESSED", a "message" array and no "Results".
//
// Values:
//
//	"value" is always a JSON string. Index values are parsed as base-10 integers;
//	anything else ("-", "N/A", decimals) leaves the record without a value.
//
// Footnotes:
//
//	Each data element carries a "footnotes" array. An element without notes
//	still carries one empty object, "footnotes": [{}], which is skipped.
//
// # Cache Keys
//
// A record is addressed by [CacheKey] of its month name and year. Both parts
// pass through [Normalize], so "March"/"2024" and " march "/"2024" share a key.
package domain
