// internal/models/plan.go
package models

// Interval is one extracted time window before day expansion. Never spans
// midnight; break intervals carry no project.
type Interval struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ProjectName string `json:"project_name,omitempty"`
	ProjectKey  string `json:"project_key,omitempty"` // lowercased label
	ProjectRaw  string `json:"project_raw,omitempty"` // untrimmed source text
	IsBreak     bool   `json:"is_break"`
	Notes       string `json:"notes,omitempty"`
}

// Entry is one work window on one day with its resolved project identity.
type Entry struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Notes       string `json:"notes,omitempty"`
}

// BreakWindow is a declared break on one day.
type BreakWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Day is one calendar date of the plan.
type Day struct {
	Date    string        `json:"date"`
	Entries []Entry       `json:"entries"`
	Breaks  []BreakWindow `json:"breaks"`
}

// Plan is the unvalidated day-by-day skeleton produced by the builder.
// It is never mutated after the builder returns it; the validator emits a
// fresh NormalizedPlan instead.
type Plan struct {
	Prompt       string `json:"prompt"`
	Timezone     string `json:"timezone"`
	TargetUserID string `json:"target_user_id"`
	TechnicianID string `json:"technician_id"`
	Days         []Day  `json:"days"`
}

// NormalizedEntry is a plan entry whose task, location, and duration have
// been resolved and authorized.
type NormalizedEntry struct {
	Entry
	TaskID       string `json:"task_id"`
	TaskName     string `json:"task_name"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Minutes      int    `json:"minutes"`
}

// NormalizedDay is one validated calendar date.
type NormalizedDay struct {
	Date    string            `json:"date"`
	Entries []NormalizedEntry `json:"entries"`
	Breaks  []BreakWindow     `json:"breaks"`
}

// NormalizedPlan has the Plan shape with resolved identities on every
// entry. Invariant: every entry references a project, task, and location
// that exist and are authorized for the target user.
type NormalizedPlan struct {
	Prompt       string          `json:"prompt"`
	Timezone     string          `json:"timezone"`
	TargetUserID string          `json:"target_user_id"`
	TechnicianID string          `json:"technician_id"`
	Days         []NormalizedDay `json:"days"`
}

// DayTotal aggregates one date.
type DayTotal struct {
	Minutes int     `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// Totals aggregates the whole normalized plan.
type Totals struct {
	OverallMinutes int                 `json:"overall_minutes"`
	OverallHours   float64             `json:"overall_hours"`
	PerDay         map[string]DayTotal `json:"per_day"`
}
