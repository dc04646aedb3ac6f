package entities

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ruMonths maps genitive Russian month names to month numbers, for the
// "15 января 2024" literal form the date patterns capture.
var ruMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// extractDates collects the unique raw matches of every date pattern and
// fuzzy-parses each with a day-before-month bias. Unparseable raw strings
// are kept with the parsed fields zero.
func (e *Extractor) extractDates(text string) []Date {
	seen := map[string]struct{}{}
	var raws []string
	for _, pat := range e.datePatterns {
		for _, m := range pat.FindAllString(text, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			raws = append(raws, m)
		}
	}

	dates := make([]Date, 0, len(raws))
	for _, raw := range raws {
		t, err := parseDate(raw)
		if err != nil {
			dates = append(dates, Date{Raw: raw})
			continue
		}
		dates = append(dates, Date{
			Raw:    raw,
			Parsed: t.Format("2006-01-02T15:04:05"),
			Year:   t.Year(),
			Month:  int(t.Month()),
			Day:    t.Day(),
		})
	}
	return dates
}

func parseDate(raw string) (time.Time, error) {
	if t, ok := parseRussianDate(raw); ok {
		return t, nil
	}
	return dateparse.ParseAny(raw, dateparse.PreferMonthFirst(false))
}

// parseRussianDate handles "D <month-name> Y"; dateparse knows only
// English month names.
func parseRussianDate(raw string) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) != 3 {
		return time.Time{}, false
	}
	month, ok := ruMonths[fields[1]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false // e.g. 31 февраля rolls over
	}
	return t, true
}
