// internal/pipeline/plan/daterange.go
package plan

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/textfold"
	"timesheet-planner/internal/models"
)

const isoDate = "2006-01-02"

var (
	dateRangeTokenRe = regexp.MustCompile(`DATE_RANGE=(\d{4}-\d{2}-\d{2})\.\.(\d{4}-\d{2}-\d{2})`)
	lastWorkdaysRe   = regexp.MustCompile(`\b(?:last|ultimos?)\s+(\d+)\s+(?:workdays?|dias\s+uteis)\b`)

	weekdaysOnlyRes = []*regexp.Regexp{
		regexp.MustCompile(`\bmon(?:day)?\s*(?:-|to)\s*fri(?:day)?\b`),
		regexp.MustCompile(`\bseg(?:unda)?\s*(?:-|a|ate)\s*sex(?:ta)?\b`),
		regexp.MustCompile(`\bweekdays only\b`),
		regexp.MustCompile(`\bsomente dias uteis\b`),
	}
)

// weekRule maps a folded Portuguese phrase to a symbolic week window.
type weekRule struct {
	re    *regexp.Regexp
	value string
}

var weekRules = []weekRule{
	{regexp.MustCompile(`\besta semana\b`), models.RangeThisWeek},
	{regexp.MustCompile(`\bsemana passada\b`), models.RangeLastWeek},
	{regexp.MustCompile(`\bultima semana\b`), models.RangeLastWeek},
	{regexp.MustCompile(`\bproxima semana\b`), models.RangeNextWeek},
}

// dateToken matches an ISO or day-first slash date.
const dateToken = `(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`

// absoluteRules are tried in order against the folded prompt. The bare
// "X a Y" / "X to Y" form comes last so the labeled forms win when both
// would match.
var absoluteRules = []*regexp.Regexp{
	regexp.MustCompile(`\bfrom\s+` + dateToken + `\s+to\s+` + dateToken),
	regexp.MustCompile(`\bde\s+` + dateToken + `\s+(?:a|ate)\s+` + dateToken),
	regexp.MustCompile(`\bbetween\s+` + dateToken + `\s+and\s+` + dateToken),
	regexp.MustCompile(`\bentre\s+` + dateToken + `\s+e\s+` + dateToken),
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*-\s*(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})\s*-\s*(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(dateToken + `\s+(?:a|to)\s+` + dateToken),
}

// resolveDates turns the request into an inclusive, ordered list of ISO
// dates. Sources are tried in a fixed precedence and the first that
// yields a window wins.
func (b *Builder) resolveDates(req *Request, now time.Time, loc *time.Location) ([]string, *planerrors.Issue) {
	weekStart := b.weekStart
	if req.WeekStart != "" {
		weekStart = parseWeekStart(req.WeekStart)
	}
	folded := textfold.Fold(req.Prompt)

	dates, ok := b.datesFromSources(req, folded, now, loc, weekStart)
	if !ok {
		issue := planerrors.NewDateRangeMissingIssue()
		return nil, &issue
	}

	if wantsWeekdaysOnly(folded) {
		dates = filterWeekdays(dates, loc)
	}
	if len(dates) == 0 {
		issue := planerrors.NewEmptyDateRangeIssue()
		return nil, &issue
	}
	return dates, nil
}

func (b *Builder) datesFromSources(req *Request, folded string, now time.Time, loc *time.Location, weekStart time.Weekday) ([]string, bool) {
	// 1. Explicit structured range on the intent.
	if req.Intent != nil && req.Intent.DateRange != nil {
		if dates, ok := expandDateRange(req.Intent.DateRange, now, loc, weekStart); ok {
			return dates, true
		}
	}

	// 2. Builder token embedded in the prompt.
	if m := dateRangeTokenRe.FindStringSubmatch(req.Prompt); m != nil {
		if dates, ok := expandAbsolute(m[1], m[2], loc); ok {
			return dates, true
		}
	}

	// 3. Explicit payload bounds, one defaulting to the other.
	if req.StartDate != "" || req.EndDate != "" {
		from, to := req.StartDate, req.EndDate
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		if dates, ok := expandAbsolute(from, to, loc); ok {
			return dates, true
		}
	}

	// 4. "last N workdays" / "ultimos N dias uteis".
	if m := lastWorkdaysRe.FindStringSubmatch(folded); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return lastNWorkdays(now, n), true
		}
	}

	// 5. Portuguese relative-week phrases.
	for _, rule := range weekRules {
		if rule.re.MatchString(folded) {
			from, to := weekWindow(now, weekStart, weekOffset(rule.value))
			return expandRange(from, to), true
		}
	}

	// 6. Labeled or bare absolute ranges, bilingual.
	for _, re := range absoluteRules {
		if m := re.FindStringSubmatch(folded); m != nil {
			if dates, ok := expandAbsolute(m[1], m[2], loc); ok {
				return dates, true
			}
		}
	}

	return nil, false
}

// expandDateRange resolves a structured DateRange. A malformed range is
// not an error here: the caller falls through to the textual sources.
func expandDateRange(dr *models.DateRange, now time.Time, loc *time.Location, weekStart time.Weekday) ([]string, bool) {
	switch dr.Type {
	case models.RangeAbsolute:
		if dr.From == "" || dr.To == "" {
			return nil, false
		}
		return expandAbsolute(dr.From, dr.To, loc)
	case models.RangeRelative:
		switch dr.Value {
		case models.RangeLastNWorkdays:
			if dr.Count <= 0 {
				return nil, false
			}
			return lastNWorkdays(now, dr.Count), true
		case models.RangeThisWeek, models.RangeLastWeek, models.RangeNextWeek:
			from, to := weekWindow(now, weekStart, weekOffset(dr.Value))
			return expandRange(from, to), true
		}
	}
	return nil, false
}

func expandAbsolute(fromStr, toStr string, loc *time.Location) ([]string, bool) {
	from, okFrom := parseDateToken(fromStr, loc)
	to, okTo := parseDateToken(toStr, loc)
	if !okFrom || !okTo {
		return nil, false
	}
	if from.After(to) {
		from, to = to, from
	}
	return expandRange(from, to), true
}

// parseDateToken accepts ISO dates and day-first slash dates.
func parseDateToken(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{isoDate, "02/01/2006", "2/1/2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// expandRange lists every calendar date from from to to inclusive.
func expandRange(from, to time.Time) []string {
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(isoDate))
	}
	return dates
}

// lastNWorkdays walks backward from now, today included when it is a
// workday, until n Monday-Friday dates are collected, oldest first.
func lastNWorkdays(now time.Time, n int) []string {
	dates := make([]string, 0, n)
	for d := now; len(dates) < n; d = d.AddDate(0, 0, -1) {
		if isWeekend(d.Weekday()) {
			continue
		}
		dates = append(dates, d.Format(isoDate))
	}
	// collected newest first, reverse in place
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}

// weekWindow returns the seven-day window containing now shifted by
// offset weeks, anchored on the configured week-start day.
func weekWindow(now time.Time, weekStart time.Weekday, offset int) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	delta := (int(day.Weekday()) - int(weekStart) + 7) % 7
	start := day.AddDate(0, 0, -delta+offset*7)
	return start, start.AddDate(0, 0, 6)
}

func weekOffset(value string) int {
	switch value {
	case models.RangeLastWeek:
		return -1
	case models.RangeNextWeek:
		return 1
	default:
		return 0
	}
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func wantsWeekdaysOnly(folded string) bool {
	for _, re := range weekdaysOnlyRes {
		if re.MatchString(folded) {
			return true
		}
	}
	return false
}

func filterWeekdays(dates []string, loc *time.Location) []string {
	kept := dates[:0]
	for _, ds := range dates {
		d, ok := parseDateToken(ds, loc)
		if !ok || isWeekend(d.Weekday()) {
			continue
		}
		kept = append(kept, ds)
	}
	return kept
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekStart maps a day name to its weekday, defaulting to Monday.
func parseWeekStart(name string) time.Weekday {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d
	}
	return time.Monday
}
