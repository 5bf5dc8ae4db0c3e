package anachronism

import (
	"strconv"
	"strings"
)

// DateAnchor is the in-world date a narrative is judged against.
type DateAnchor struct {
	Raw   string // as stored, e.g. "-0120-05-20"
	Year  int
	Known bool
}

// NewDateAnchor parses raw with ParseYear.
func NewDateAnchor(raw string) DateAnchor {
	year, ok := ParseYear(raw)
	return DateAnchor{Raw: raw, Year: year, Known: ok}
}

// String renders the year for queries, or "" when unknown.
func (d DateAnchor) String() string {
	if !d.Known {
		return ""
	}
	return strconv.Itoa(d.Year)
}

// ParseYear reads the year from an ISO-like date. The year is the first four
// characters, or the four after a leading "-" for BCE dates:
// "1776-07-04" is 1776 and "-0120-05-20" is -120. ok is false for empty or
// malformed input.
func ParseYear(s string) (year int, ok bool) {
	if s == "" {
		return 0, false
	}

	bce := strings.HasPrefix(s, "-")
	if bce {
		s = s[1:]
	}
	if len(s) > 4 {
		s = s[:4]
	}

	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if bce {
		year = -year
	}
	return year, true
}
