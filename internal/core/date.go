package core

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins. Day-first
// layouts come after year-first ones so "2024-03-01" is never read as DMY.
var dateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"2006/1/2",
	"2/1/2006",
}

// ParseDate turns a stored date value into a canonical Date.
//
// Dates (Date or time.Time) are returned unchanged. Strings are trimmed and
// matched against dateLayouts. Anything else, including text that matches no
// layout, is returned as given: malformed dates are passed through, never
// rejected.
func ParseDate(v any) any {
	switch x := v.(type) {
	case Date, time.Time:
		return x
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Date{Time: t}
			}
		}
	}
	return v
}

// NormalizeDate is ParseDate for typed rows: parsed values become a valid
// Date, anything else keeps its text in Date.Raw.
func NormalizeDate(v any) Date {
	switch x := ParseDate(v).(type) {
	case Date:
		return x
	case time.Time:
		y, m, d := x.Date()
		return NewDate(y, int(m), d)
	default:
		return Date{Raw: Text(x)}
	}
}
