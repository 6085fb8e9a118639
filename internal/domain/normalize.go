package domain

import (
	"regexp"
	"strings"
)

// keyStripRe matches every run of characters that may not appear in a cache key.
var keyStripRe = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// Normalize canonicalizes free text into a cache key fragment: characters
// outside [A-Za-z0-9_.] are removed and the rest is lowercased.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(keyStripRe.ReplaceAllString(s, ""))
}

// CacheKey joins the normalized month and year with no separator. This relies
// on the year fragment being purely numeric, so "march"+"2024" can never
// collide with another month/year pair.
func CacheKey(month, year string) string {
	return Normalize(month) + Normalize(year)
}
