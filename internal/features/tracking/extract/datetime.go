package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DHL renders dates as D/M/YY or D/M/YYYY with "/" or "-" separators, and
// times as H:MM with an optional meridiem suffix.
var (
	dateRe = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})`)
	timeRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})(\s*[AP]M)?`)
)

// ParseTimestamp extracts the first date token and optional time token
// from text and composes a timestamp. Day comes before month. Two-digit
// years are in the 2000s. When no date token is present the fallback time
// is returned, which is the only wall-clock dependency of the extraction
// engine.
//
// The matched tokens are returned so callers can strip them from the
// description.
func ParseTimestamp(text string, fallback time.Time) (ts time.Time, dateToken, timeToken string) {
	dm := dateRe.FindStringSubmatch(text)
	tm := timeRe.FindStringSubmatch(text)
	if tm != nil {
		timeToken = tm[0]
	}
	if dm == nil {
		return fallback, "", timeToken
	}
	dateToken = dm[0]

	day, _ := strconv.Atoi(dm[1])
	month, _ := strconv.Atoi(dm[2])
	year, _ := strconv.Atoi(dm[3])
	if len(dm[3]) == 2 {
		year += 2000
	}

	hour, minute := 0, 0
	if tm != nil {
		hour, _ = strconv.Atoi(tm[1])
		minute, _ = strconv.Atoi(tm[2])
		meridiem := strings.ToUpper(strings.TrimSpace(tm[3]))
		if meridiem == "PM" && hour < 12 {
			hour += 12
		}
		if meridiem == "AM" && hour == 12 {
			hour = 0
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), dateToken, timeToken
}

// hasDateOrTime reports whether text carries a date or time pattern, which
// qualifies a chunk as an event even without a tracking keyword.
func hasDateOrTime(text string) bool {
	return dateRe.MatchString(text) || timeRe.MatchString(text)
}
