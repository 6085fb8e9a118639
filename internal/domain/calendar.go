package domain

import (
	"slices"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinYear is the exclusive lower bound for requested years.
const MinYear = 1960

// EnglishMonths is the canonical month list used by DefaultCalendar.
var EnglishMonths = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Calendar validates requested months and years. Month names and casing rules
// are injected rather than taken from the process locale so that validation
// behaves the same on every host.
type Calendar struct {
	months []string
	tag    language.Tag
	clock  clockwork.Clock
}

// NewCalendar creates a Calendar over the given ordered month names. Casing of
// user input follows tag. A nil clock uses real time.
func NewCalendar(months []string, tag language.Tag, clock clockwork.Clock) *Calendar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Calendar{
		months: slices.Clone(months),
		tag:    tag,
		clock:  clock,
	}
}

// DefaultCalendar returns an English calendar on the real clock.
func DefaultCalendar() *Calendar {
	return NewCalendar(EnglishMonths, language.English, nil)
}

// IsValidMonth reports whether s names a month once its first letter is
// upper-cased and the remainder lower-cased, e.g. "mARCH" -> "March".
func (c *Calendar) IsValidMonth(s string) bool {
	if s == "" {
		return false
	}
	_, size := utf8.DecodeRuneInString(s)
	// Casers are stateful; build fresh ones per call.
	titled := cases.Upper(c.tag).String(s[:size]) + cases.Lower(c.tag).String(s[size:])
	return slices.Contains(c.months, titled)
}

// IsValidYear reports whether MinYear < year <= current calendar year.
func (c *Calendar) IsValidYear(year int) bool {
	return year > MinYear && year <= c.clock.Now().Year()
}
