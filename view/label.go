// Package view turns pipeline state into what the widget shows: a display
// label with a flag glyph and one summary line per forecast day.
package view

import (
	"strings"
	"time"
)

// regionalIndicatorOffset maps 'A' to U+1F1E6 REGIONAL INDICATOR SYMBOL LETTER A
const regionalIndicatorOffset = 0x1F1E6 - 'A'

// Flag returns the flag glyph for a two-letter country code, or "" if the
// code is not exactly two ASCII letters.
func Flag(countryCode string) string {
	code := strings.ToUpper(countryCode)
	if len(code) != 2 {
		return ""
	}

	var b strings.Builder
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(r + regionalIndicatorOffset)
	}
	return b.String()
}

// DisplayLabel is the place name followed by its flag
func DisplayLabel(name, countryCode string) string {
	flag := Flag(countryCode)
	if flag == "" {
		return name
	}
	return name + " " + flag
}

// DayLabel labels the first forecast entry "Today" and every other entry
// with its short weekday name.
func DayLabel(index int, date time.Time) string {
	if index == 0 {
		return "Today"
	}
	return date.Format("Mon")
}
