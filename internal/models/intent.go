// internal/models/intent.go
package models

// Date range kinds and relative values.
const (
	RangeAbsolute = "absolute"
	RangeRelative = "relative"

	RangeThisWeek      = "this_week"
	RangeLastWeek      = "last_week"
	RangeNextWeek      = "next_week"
	RangeLastNWorkdays = "last_n_workdays"
)

// DateRange is either a pair of literal dates or a symbolic window.
// Immutable once resolved to a list of calendar dates.
type DateRange struct {
	Type  string `json:"type"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Value string `json:"value,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Block is one schedule or break window inside an Intent.
type Block struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Project   string `json:"project,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Intent is the canonical, partially-AI-derived description of what
// timesheets to create. It is mutated in place while gaps are filled from
// locally extracted fields, then discarded after the plan is built.
type Intent struct {
	Intent        string     `json:"intent"`
	DateRange     *DateRange `json:"dateRange"`
	Schedule      []Block    `json:"schedule"`
	Breaks        []Block    `json:"breaks"`
	Project       string     `json:"project"`
	Task          string     `json:"task"`
	Description   string     `json:"description"`
	Notes         string     `json:"notes"`
	MissingFields []string   `json:"missingFields"`
}

// IntentCreateTimesheets is the only intent value the pipeline acts on.
const IntentCreateTimesheets = "create_timesheets"
