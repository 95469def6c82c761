package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-planner/internal/common/clock"
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// testNow is Wednesday 2026-02-11.
var testNow = time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)

func testDateBuilder() *Builder {
	return &Builder{
		clock:     clock.Fixed(testNow),
		weekStart: time.Monday,
		logger:    logger.Nop(),
	}
}

func resolve(t *testing.T, req *Request) ([]string, *planerrors.Issue) {
	t.Helper()
	return testDateBuilder().resolveDates(req, testNow, time.UTC)
}

// ==========================
// Date Expansion Tests
// ==========================

func TestExpandRange_InclusiveBothEnds(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		days int
	}{
		{"single day", "2026-02-10", "2026-02-10", 1},
		{"two days", "2026-02-10", "2026-02-11", 2},
		{"across month boundary", "2026-01-30", "2026-02-02", 4},
		{"full week", "2026-02-09", "2026-02-15", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, ok := parseDateToken(tt.from, time.UTC)
			require.True(t, ok)
			to, ok := parseDateToken(tt.to, time.UTC)
			require.True(t, ok)

			dates := expandRange(from, to)
			assert.Len(t, dates, tt.days)
			assert.Equal(t, tt.from, dates[0])
			assert.Equal(t, tt.to, dates[len(dates)-1])
		})
	}
}

func TestLastNWorkdays_NoWeekends(t *testing.T) {
	for _, n := range []int{1, 3, 5, 10} {
		dates := lastNWorkdays(testNow, n)
		assert.Len(t, dates, n)
		for _, ds := range dates {
			d, ok := parseDateToken(ds, time.UTC)
			require.True(t, ok)
			assert.False(t, isWeekend(d.Weekday()), "unexpected weekend date %s", ds)
		}
	}
}

func TestLastNWorkdays_WalksBackwardOldestFirst(t *testing.T) {
	dates := lastNWorkdays(testNow, 5)
	// Wed 11, Tue 10, Mon 9, Fri 6, Thu 5, reversed.
	assert.Equal(t, []string{"2026-02-05", "2026-02-06", "2026-02-09", "2026-02-10", "2026-02-11"}, dates)
}

func TestWeekWindow_AnchoredOnWeekStart(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		from   string
		to     string
	}{
		{"this week", 0, "2026-02-09", "2026-02-15"},
		{"last week", -1, "2026-02-02", "2026-02-08"},
		{"next week", 1, "2026-02-16", "2026-02-22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := weekWindow(testNow, time.Monday, tt.offset)
			assert.Equal(t, tt.from, from.Format(isoDate))
			assert.Equal(t, tt.to, to.Format(isoDate))
		})
	}
}

// ==========================
// Precedence Tests
// ==========================

func TestResolveDates_Precedence(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		want []string
	}{
		{
			name: "intent range beats builder token",
			req: &Request{
				Intent: &models.Intent{DateRange: &models.DateRange{
					Type: models.RangeAbsolute, From: "2026-02-02", To: "2026-02-03",
				}},
				Prompt: "DATE_RANGE=2026-02-10..2026-02-11",
			},
			want: []string{"2026-02-02", "2026-02-03"},
		},
		{
			name: "builder token beats payload bounds",
			req: &Request{
				Prompt:    "DATE_RANGE=2026-02-10..2026-02-11",
				StartDate: "2026-02-02",
				EndDate:   "2026-02-03",
			},
			want: []string{"2026-02-10", "2026-02-11"},
		},
		{
			name: "payload start defaults missing end",
			req:  &Request{StartDate: "2026-02-10"},
			want: []string{"2026-02-10"},
		},
		{
			name: "intent relative last n workdays",
			req: &Request{
				Intent: &models.Intent{DateRange: &models.DateRange{
					Type: models.RangeRelative, Value: models.RangeLastNWorkdays, Count: 2,
				}},
			},
			want: []string{"2026-02-10", "2026-02-11"},
		},
		{
			name: "english last n workdays phrase",
			req:  &Request{Prompt: "fill my timesheet for the last 2 workdays"},
			want: []string{"2026-02-10", "2026-02-11"},
		},
		{
			name: "portuguese last n workdays phrase with accents",
			req:  &Request{Prompt: "preencher os últimos 2 dias úteis"},
			want: []string{"2026-02-10", "2026-02-11"},
		},
		{
			name: "portuguese this week",
			req:  &Request{Prompt: "lancar horas desta vez para esta semana"},
			want: expandForTest("2026-02-09", "2026-02-15"),
		},
		{
			name: "portuguese last week",
			req:  &Request{Prompt: "horas da semana passada"},
			want: expandForTest("2026-02-02", "2026-02-08"),
		},
		{
			name: "english from-to with iso dates",
			req:  &Request{Prompt: "log 9-5 from 2026-02-10 to 2026-02-12"},
			want: []string{"2026-02-10", "2026-02-11", "2026-02-12"},
		},
		{
			name: "portuguese de-ate with slash dates",
			req:  &Request{Prompt: "de 10/02/2026 até 12/02/2026"},
			want: []string{"2026-02-10", "2026-02-11", "2026-02-12"},
		},
		{
			name: "bare iso dash range",
			req:  &Request{Prompt: "2026-02-10 - 2026-02-11 no projeto Alpha"},
			want: []string{"2026-02-10", "2026-02-11"},
		},
		{
			name: "between-and",
			req:  &Request{Prompt: "between 2026-02-10 and 2026-02-11"},
			want: []string{"2026-02-10", "2026-02-11"},
		},
		{
			name: "swapped absolute bounds are reordered",
			req: &Request{
				Intent: &models.Intent{DateRange: &models.DateRange{
					Type: models.RangeAbsolute, From: "2026-02-11", To: "2026-02-10",
				}},
			},
			want: []string{"2026-02-10", "2026-02-11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, issue := resolve(t, tt.req)
			require.Nil(t, issue)
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestResolveDates_NoRangeFound(t *testing.T) {
	dates, issue := resolve(t, &Request{Prompt: "log some hours on Alpha"})
	assert.Nil(t, dates)
	require.NotNil(t, issue)
	assert.Equal(t, planerrors.IssueDateRangeMissing, issue.Code)
	assert.Equal(t, "Provide a date range or 'last N workdays'.", issue.Message)
}

func TestResolveDates_WeekdaysOnlyFilter(t *testing.T) {
	// Fri 13 through Mon 16, weekend dropped.
	dates, issue := resolve(t, &Request{
		Prompt: "from 2026-02-13 to 2026-02-16, mon-fri only",
	})
	require.Nil(t, issue)
	assert.Equal(t, []string{"2026-02-13", "2026-02-16"}, dates)
}

func TestResolveDates_WeekdaysOnlyFilterEmpty(t *testing.T) {
	// Sat 14 through Sun 15, nothing survives the filter.
	dates, issue := resolve(t, &Request{
		Prompt: "from 2026-02-14 to 2026-02-15, seg-sex",
	})
	assert.Nil(t, dates)
	require.NotNil(t, issue)
	assert.Equal(t, planerrors.IssueEmptyDateRange, issue.Code)
}

func TestParseWeekStart(t *testing.T) {
	assert.Equal(t, time.Sunday, parseWeekStart("sunday"))
	assert.Equal(t, time.Monday, parseWeekStart("Monday"))
	assert.Equal(t, time.Monday, parseWeekStart("not-a-day"))
}

func expandForTest(from, to string) []string {
	f, _ := parseDateToken(from, time.UTC)
	t, _ := parseDateToken(to, time.UTC)
	return expandRange(f, t)
}
