// internal/pipeline/validate/models.go
package validate

import (
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/models"
)

// Request is one validation invocation. TaskID and LocationID are
// optional caller overrides applied to every entry.
type Request struct {
	Plan          *models.Plan `json:"plan"`
	TenantID      string       `json:"tenant_id"`
	ActorID       string       `json:"actor_id"`
	TargetUserID  string       `json:"target_user_id"`
	TechnicianID  string       `json:"technician_id"`
	TaskID        string       `json:"task_id,omitempty"`
	LocationID    string       `json:"location_id,omitempty"`
	EnforceBreaks bool         `json:"enforce_breaks"`
}

// Result reports every independent problem found in one pass. The
// normalized plan and totals are present only when Errors is empty;
// warnings alone do not suppress them.
type Result struct {
	OK             bool                   `json:"ok"`
	Errors         []planerrors.Issue     `json:"errors,omitempty"`
	Warnings       []planerrors.Issue     `json:"warnings,omitempty"`
	NormalizedPlan *models.NormalizedPlan `json:"normalized_plan,omitempty"`
	Totals         *models.Totals         `json:"totals,omitempty"`
}
