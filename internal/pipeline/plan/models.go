// internal/pipeline/plan/models.go
package plan

import (
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/models"
)

// Request is one build invocation. Intent is optional: the legacy path
// feeds the raw prompt straight in and every fact is re-derived from text.
type Request struct {
	Intent       *models.Intent `json:"intent,omitempty"`
	Prompt       string         `json:"prompt"`
	Timezone     string         `json:"timezone"`
	WeekStart    string         `json:"week_start,omitempty"`
	StartDate    string         `json:"start_date,omitempty"`
	EndDate      string         `json:"end_date,omitempty"`
	TenantID     string         `json:"tenant_id"`
	TargetUserID string         `json:"target_user_id"`
	TechnicianID string         `json:"technician_id"`
}

// Result carries the unvalidated plan skeleton. Any error leaves Plan nil.
type Result struct {
	Plan     *models.Plan       `json:"plan,omitempty"`
	Errors   []planerrors.Issue `json:"errors,omitempty"`
	Warnings []planerrors.Issue `json:"warnings,omitempty"`
}
