package utils

import (
	"log"
	"time"
)

// Deals and expenses store dates as ISO strings.
const DefaultDateFormat = "2006-01-02"

// Commission year anchors carry only month and day.
const AnchorDateFormat = "01-02"

// ParseDate parses a date string using the default format.
// Logs an error and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s' with format '%s': %v. Returning zero time.", dateStr, DefaultDateFormat, err)
		return time.Time{}
	}
	return t
}

// ParseAnchor parses a month/day anchor ("MM-DD"). Full ISO dates are also
// accepted, in which case the year digits are ignored. Returns ok=false when
// the value is unparseable.
func ParseAnchor(anchor string) (month time.Month, day int, ok bool) {
	if t, err := time.Parse(AnchorDateFormat, anchor); err == nil {
		return t.Month(), t.Day(), true
	}
	if t, err := time.Parse(DefaultDateFormat, anchor); err == nil {
		return t.Month(), t.Day(), true
	}
	return 0, 0, false
}
