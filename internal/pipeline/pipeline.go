// internal/pipeline/pipeline.go

// Package pipeline chains the four plan stages behind the
// preview-then-confirm contract: Parse answers follow-up questions,
// Preview shows the plan with totals and warnings, Apply re-validates
// and persists. Apply never runs against a plan with errors.
package pipeline

import (
	"context"
	"time"

	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/common/metrics"
	"timesheet-planner/internal/common/observability"
	"timesheet-planner/internal/models"
	"timesheet-planner/internal/notify"
	"timesheet-planner/internal/pipeline/apply"
	"timesheet-planner/internal/pipeline/intent"
	"timesheet-planner/internal/pipeline/plan"
	"timesheet-planner/internal/pipeline/validate"
)

// Notifier receives best-effort post-apply events. nil disables it.
type Notifier interface {
	PlanApplied(ctx context.Context, ev notify.AppliedEvent)
}

type Pipeline struct {
	extractor *intent.Extractor
	builder   *plan.Builder
	validator *validate.Validator
	applier   *apply.Applier
	notifier  Notifier
	obs       *observability.Observability
	logger    logger.Logger
}

func New(extractor *intent.Extractor, builder *plan.Builder, validator *validate.Validator, applier *apply.Applier, notifier Notifier, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		builder:   builder,
		validator: validator,
		applier:   applier,
		notifier:  notifier,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// PreviewRequest carries everything the three read-only stages need.
// SkipIntent selects the legacy path where the builder re-derives
// everything from the raw prompt.
type PreviewRequest struct {
	Prompt        string `json:"prompt"`
	Timezone      string `json:"timezone"`
	WeekStart     string `json:"week_start,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	TenantID      string `json:"tenant_id"`
	ActorID       string `json:"actor_id"`
	TargetUserID  string `json:"target_user_id"`
	TechnicianID  string `json:"technician_id"`
	TaskID        string `json:"task_id,omitempty"`
	LocationID    string `json:"location_id,omitempty"`
	EnforceBreaks bool   `json:"enforce_breaks"`
	SkipIntent    bool   `json:"skip_intent,omitempty"`
}

// PreviewResult is the stage-boundary contract an HTTP layer renders.
type PreviewResult struct {
	OK             bool                   `json:"ok"`
	MissingFields  []string               `json:"missing_fields,omitempty"`
	Errors         []planerrors.Issue     `json:"errors,omitempty"`
	Warnings       []planerrors.Issue     `json:"warnings,omitempty"`
	Plan           *models.Plan           `json:"plan,omitempty"`
	NormalizedPlan *models.NormalizedPlan `json:"normalized_plan,omitempty"`
	Totals         *models.Totals         `json:"totals,omitempty"`
}

// ApplyRequest is a preview request plus the contact details the
// notifier uses after persistence.
type ApplyRequest struct {
	PreviewRequest
	ActorEmail string `json:"actor_email,omitempty"`
	ActorPhone string `json:"actor_phone,omitempty"`
}

// ApplyResult reports what was persisted, or why nothing was.
type ApplyResult struct {
	OK            bool               `json:"ok"`
	MissingFields []string           `json:"missing_fields,omitempty"`
	Errors        []planerrors.Issue `json:"errors,omitempty"`
	Warnings      []planerrors.Issue `json:"warnings,omitempty"`
	CreatedIDs    []string           `json:"created_ids,omitempty"`
	Count         int                `json:"count"`
}

// Parse runs intent extraction alone, for the follow-up question UX.
func (p *Pipeline) Parse(ctx context.Context, req *intent.Request) *intent.Result {
	defer p.observeStage(ctx, "intent-extract", time.Now())
	result := p.extractor.Extract(ctx, req)
	if len(result.Errors) > 0 {
		p.recordStageError(ctx, "intent-extract")
	}
	return result
}

// Preview runs extract, build, and validate, stopping at the first stage
// whose output cannot feed the next.
func (p *Pipeline) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResult, error) {
	var in *models.Intent

	if !req.SkipIntent {
		parsed := p.Parse(ctx, &intent.Request{
			Prompt:    req.Prompt,
			Timezone:  req.Timezone,
			WeekStart: req.WeekStart,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			TenantID:  req.TenantID,
		})
		if len(parsed.Errors) > 0 {
			return &PreviewResult{Errors: parsed.Errors}, nil
		}
		if !parsed.OK {
			return &PreviewResult{MissingFields: parsed.MissingFields}, nil
		}
		in = parsed.Intent
	}

	buildStart := time.Now()
	built, err := p.builder.Build(ctx, &plan.Request{
		Intent:       in,
		Prompt:       req.Prompt,
		Timezone:     req.Timezone,
		WeekStart:    req.WeekStart,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TenantID:     req.TenantID,
		TargetUserID: req.TargetUserID,
		TechnicianID: req.TechnicianID,
	})
	p.observeStage(ctx, "plan-build", buildStart)
	if err != nil {
		p.recordStageError(ctx, "plan-build")
		return nil, err
	}
	if len(built.Errors) > 0 {
		p.recordStageError(ctx, "plan-build")
		return &PreviewResult{Errors: built.Errors, Warnings: built.Warnings}, nil
	}

	validateStart := time.Now()
	validated, err := p.validator.Validate(ctx, &validate.Request{
		Plan:          built.Plan,
		TenantID:      req.TenantID,
		ActorID:       req.ActorID,
		TargetUserID:  req.TargetUserID,
		TechnicianID:  req.TechnicianID,
		TaskID:        req.TaskID,
		LocationID:    req.LocationID,
		EnforceBreaks: req.EnforceBreaks,
	})
	p.observeStage(ctx, "plan-validate", validateStart)
	if err != nil {
		p.recordStageError(ctx, "plan-validate")
		return nil, err
	}
	if !validated.OK {
		p.recordStageError(ctx, "plan-validate")
	}

	return &PreviewResult{
		OK:             validated.OK,
		Errors:         validated.Errors,
		Warnings:       validated.Warnings,
		Plan:           built.Plan,
		NormalizedPlan: validated.NormalizedPlan,
		Totals:         validated.Totals,
	}, nil
}

// Apply re-runs the full preview and persists only a clean result.
func (p *Pipeline) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResult, error) {
	preview, err := p.Preview(ctx, &req.PreviewRequest)
	if err != nil {
		return nil, err
	}
	if !preview.OK {
		return &ApplyResult{
			MissingFields: preview.MissingFields,
			Errors:        preview.Errors,
			Warnings:      preview.Warnings,
		}, nil
	}

	applyStart := time.Now()
	applied, err := p.applier.Apply(ctx, &apply.Request{
		Plan:     preview.NormalizedPlan,
		TenantID: req.TenantID,
		ActorID:  req.ActorID,
	})
	p.observeStage(ctx, "plan-apply", applyStart)
	if err != nil {
		p.recordStageError(ctx, "plan-apply")
		return nil, err
	}

	metrics.PlansApplied.Inc()
	metrics.EntriesCreated.Add(float64(applied.Count))

	if p.notifier != nil {
		p.notifier.PlanApplied(ctx, notify.AppliedEvent{
			TenantID:     req.TenantID,
			ActorID:      req.ActorID,
			TechnicianID: req.TechnicianID,
			ActorEmail:   req.ActorEmail,
			ActorPhone:   req.ActorPhone,
			Prompt:       req.Prompt,
			Dates:        planDates(preview.NormalizedPlan),
			CreatedIDs:   applied.CreatedIDs,
			Count:        applied.Count,
		})
	}

	return &ApplyResult{
		OK:         true,
		Warnings:   preview.Warnings,
		CreatedIDs: applied.CreatedIDs,
		Count:      applied.Count,
	}, nil
}

func (p *Pipeline) observeStage(ctx context.Context, stage string, start time.Time) {
	elapsed := time.Since(start)
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if p.obs != nil {
		p.obs.RecordStageDuration(ctx, stage, elapsed)
		p.obs.RecordStage(ctx, stage, "processed")
	}
}

func (p *Pipeline) recordStageError(ctx context.Context, stage string) {
	metrics.PipelineStageErrors.WithLabelValues(stage).Inc()
	if p.obs != nil {
		p.obs.RecordStage(ctx, stage, "error")
	}
}

func planDates(np *models.NormalizedPlan) []string {
	dates := make([]string, 0, len(np.Days))
	for _, day := range np.Days {
		dates = append(dates, day.Date)
	}
	return dates
}
