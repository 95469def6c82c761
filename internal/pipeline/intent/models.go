// internal/pipeline/intent/models.go
package intent

import (
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/models"
)

// Request is one extraction invocation.
type Request struct {
	Prompt    string `json:"prompt"`
	Timezone  string `json:"timezone"`
	WeekStart string `json:"week_start,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	TenantID  string `json:"tenant_id"`
}

// Result distinguishes hard failures (Errors) from follow-up questions
// (MissingFields). OK is true iff both are empty.
type Result struct {
	OK            bool               `json:"ok"`
	Intent        *models.Intent     `json:"intent,omitempty"`
	Errors        []planerrors.Issue `json:"errors,omitempty"`
	MissingFields []string           `json:"missing_fields,omitempty"`
}
