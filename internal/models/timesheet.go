// internal/models/timesheet.go
package models

// Timesheet statuses that matter to the pipeline. Approved and closed
// rows lock their date against new plan entries.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusClosed    = "closed"
	StatusRejected  = "rejected"
)

// TimesheetEntry is an existing persisted row as the validator sees it.
// StartTime/EndTime may be empty when legacy rows carry no time values;
// the validator treats that as a hard error rather than skipping the
// overlap check.
type TimesheetEntry struct {
	ID           string  `json:"id"`
	TechnicianID string  `json:"technician_id"`
	WorkDate     string  `json:"work_date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Hours        float64 `json:"hours"`
	Status       string  `json:"status"`
}
