// internal/pipeline/apply/applier.go

// Package apply persists a validated plan as draft timesheet rows. It
// performs no validation of its own: a NormalizedPlan is trusted to
// reference only existing, authorized identities.
package apply

import (
	"context"
	"math"

	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
	"timesheet-planner/internal/timesheet"
)

// DraftWriter is the single write the applier performs.
type DraftWriter interface {
	CreateDraft(ctx context.Context, d timesheet.DraftEntry) (string, error)
}

// Request is one apply invocation.
type Request struct {
	Plan     *models.NormalizedPlan `json:"plan"`
	TenantID string                 `json:"tenant_id"`
	ActorID  string                 `json:"actor_id"`
}

// Result lists what was persisted.
type Result struct {
	CreatedIDs []string `json:"created_ids"`
	Count      int      `json:"count"`
}

type Applier struct {
	writer DraftWriter
	logger logger.Logger
}

func NewApplier(writer DraftWriter, log logger.Logger) *Applier {
	return &Applier{
		writer: writer,
		logger: log.WithFields(map[string]interface{}{"stage": "plan-apply"}),
	}
}

// Apply creates one draft row per entry per day. The first write failure
// aborts; rows already written stay written since drafts are harmless
// and visible to the user.
func (a *Applier) Apply(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{CreatedIDs: []string{}}

	for _, day := range req.Plan.Days {
		for _, entry := range day.Entries {
			id, err := a.writer.CreateDraft(ctx, timesheet.DraftEntry{
				TenantID:     req.TenantID,
				TechnicianID: req.Plan.TechnicianID,
				Date:         day.Date,
				StartTime:    entry.StartTime,
				EndTime:      entry.EndTime,
				Hours:        roundHours(entry.Minutes),
				ProjectID:    entry.ProjectID,
				TaskID:       entry.TaskID,
				LocationID:   entry.LocationID,
				Notes:        entry.Notes,
				ActorID:      req.ActorID,
			})
			if err != nil {
				return nil, err
			}
			result.CreatedIDs = append(result.CreatedIDs, id)
		}
	}

	result.Count = len(result.CreatedIDs)
	a.logger.Info("plan applied", map[string]interface{}{
		"created":    result.Count,
		"technician": req.Plan.TechnicianID,
	})
	return result, nil
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}
