// Package decode provides stateless decoders for GDS time, date and
// day-of-week tokens. Decoders never return errors; the second return value
// reports whether the token was recognised, and callers decide whether a miss
// gates line classification or is carried as a null field.
package decode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	time12hRe     = regexp.MustCompile(`^\d+[A-Z]$`)
	time24hRe     = regexp.MustCompile(`^\d+$`)
	partialDateRe = regexp.MustCompile(`^(\d{1,2})([A-Z]{3})$`)
)

// Meridiem markers vary by carrier: N is seen for PM and M for AM.
var meridiems = map[string]string{
	"P": "PM",
	"N": "PM",
	"A": "AM",
	"M": "AM",
}

var months = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

// GdsTime decodes a departure/arrival time token into a 24-hour HH:mm string.
// Digits followed by a single meridiem letter are decoded as 12-hour time;
// bare digits are taken as 24-hour time verbatim, with no range validation.
func GdsTime(token string) (string, bool) {
	token = strings.TrimSpace(token)

	switch {
	case time12hRe.MatchString(token):
		return gds12hTime(token)
	case time24hRe.MatchString(token):
		return gds24hTime(token), true
	default:
		return "", false
	}
}

func gds12hTime(token string) (string, bool) {
	padded := leftPad(token, 5)
	if len(padded) != 5 {
		return "", false
	}

	meridiem, ok := meridiems[padded[4:]]
	if !ok {
		return "", false
	}

	hours, err := strconv.Atoi(padded[:2])
	if err != nil {
		return "", false
	}
	if hours == 0 {
		hours = 12
	}
	minutes := padded[2:4]

	if meridiem == "AM" && hours == 12 {
		hours = 0
	} else if meridiem == "PM" && hours != 12 {
		hours += 12
	}

	return fmt.Sprintf("%02d:%s", hours, minutes), true
}

func gds24hTime(token string) string {
	padded := leftPad(token, 4)
	return padded[:2] + ":" + padded[2:4]
}

func leftPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// PartialDate is a day+month without a year, as GDS dumps print dates.
type PartialDate struct {
	Raw   string `json:"raw"`
	Day   int    `json:"day"`
	Month int    `json:"month"`
}

// GdsPartialDate decodes a <day><3-letter-month> token such as 21APR. The
// token must match exactly; callers pre-trim, surrounding whitespace is not
// tolerated here.
func GdsPartialDate(token string) (PartialDate, bool) {
	m := partialDateRe.FindStringSubmatch(token)
	if m == nil {
		return PartialDate{}, false
	}

	month, ok := months[m[2]]
	if !ok {
		return PartialDate{}, false
	}

	day, _ := strconv.Atoi(m[1])
	return PartialDate{Raw: token, Day: day, Month: month}, true
}

// Year-rolling is bounded: the widest real gap is a Feb 29 just after a
// skipped century leap year (2096 -> 2104).
const maxYearSearch = 8

// FullDateInFuture resolves a partial date against a YYYY-MM-DD base date by
// rolling forward year by year until the day and month land on a real calendar
// date on or after the base date. Years where the combination does not exist
// (Feb 29 outside leap years) are skipped. Impossible day/month combinations
// exhaust the capped search and fail instead of looping.
func FullDateInFuture(pd PartialDate, baseDate string) (string, bool) {
	base, err := time.Parse("2006-01-02", baseDate)
	if err != nil {
		return "", false
	}

	for year := base.Year(); year <= base.Year()+maxYearSearch; year++ {
		candidate := time.Date(year, time.Month(pd.Month), pd.Day, 0, 0, 0, 0, time.UTC)
		if int(candidate.Month()) != pd.Month || candidate.Day() != pd.Day {
			continue // normalised away, no such date this year
		}
		if candidate.Before(base) {
			continue
		}
		return candidate.Format("2006-01-02"), true
	}

	return "", false
}

// DayOffsetTravelport decodes an arrival day-offset token as printed by Apollo
// and Galileo. The # and * forms are Galileo only; the alphabets are kept per
// vendor family because other decoders use overlapping characters as garbage
// sentinels.
func DayOffsetTravelport(token string) (int, bool) {
	switch token {
	case "":
		return 0, true
	case "|", "+":
		return 1, true
	case "-":
		return -1, true
	case "#": // Galileo
		return 1, true
	case "*": // Galileo
		return 2, true
	}
	if n, err := strconv.Atoi(token); err == nil && n != 0 {
		return n, true
	}
	return 0, false
}

var sabreDays = map[string]int{
	"M": 1, "T": 2, "W": 3, "Q": 4, "F": 5, "J": 6, "S": 7,
}

// SabreDayOfWeek decodes Sabre's single-letter day-of-week column. A bare
// digit is passed through as-is.
func SabreDayOfWeek(token string) (int, bool) {
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		return int(token[0] - '0'), true
	}
	if day, ok := sabreDays[token]; ok {
		return day, true
	}
	return 0, false
}

var travelportDays = map[string]int{
	"MO": 1, "TU": 2, "WE": 3, "TH": 4, "FR": 5, "SA": 6, "SU": 7,
}

// TravelportDayOfWeek decodes the two-letter day-of-week codes used by Apollo
// and Galileo layouts.
func TravelportDayOfWeek(token string) (int, bool) {
	day, ok := travelportDays[token]
	return day, ok
}
