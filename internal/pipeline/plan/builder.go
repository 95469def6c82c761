// internal/pipeline/plan/builder.go

// Package plan turns a validated intent or raw prompt into a day-by-day
// plan skeleton. It resolves the working date range, extracts time
// intervals from the prompt, and attaches a resolved project to each.
package plan

import (
	"context"
	"time"

	"timesheet-planner/internal/common/clock"
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
)

// ProjectResolver is the slice of the directory the builder needs. The
// three-way return mirrors the resolution contract: one project, a list
// of ambiguous candidates, or neither for not-found.
type ProjectResolver interface {
	ResolveProject(ctx context.Context, tenantID, label, raw string) (*models.Project, []models.Project, error)
}

type Builder struct {
	clock     clock.Clock
	resolver  ProjectResolver
	weekStart time.Weekday
	logger    logger.Logger
}

func NewBuilder(clk clock.Clock, resolver ProjectResolver, weekStartName string, log logger.Logger) *Builder {
	return &Builder{
		clock:     clk,
		resolver:  resolver,
		weekStart: parseWeekStart(weekStartName),
		logger:    log.WithFields(map[string]interface{}{"stage": "plan-build"}),
	}
}

// Build assembles the plan skeleton. Errors accumulate: a failed date
// range and three unresolvable projects all come back in one Result. The
// returned error is reserved for infrastructure failures.
func (b *Builder) Build(ctx context.Context, req *Request) (*Result, error) {
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		b.logger.Warn("unknown timezone, falling back to UTC", map[string]interface{}{"timezone": req.Timezone})
		loc = time.UTC
	}
	now := b.clock.Now().In(loc)

	result := &Result{}

	dates, dateIssue := b.resolveDates(req, now, loc)
	if dateIssue != nil {
		result.Errors = append(result.Errors, *dateIssue)
	}

	intervals, intervalIssues := extractIntervals(req)
	result.Errors = append(result.Errors, intervalIssues...)
	if len(intervals) == 0 && len(intervalIssues) == 0 {
		result.Errors = append(result.Errors, planerrors.Issue{
			Code:    planerrors.IssueIntervalNoProject,
			Message: "No time ranges could be found in the request.",
		})
	}

	resolved, resolveIssues, err := b.resolveProjects(ctx, req.TenantID, intervals)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, resolveIssues...)

	if len(result.Errors) > 0 {
		return result, nil
	}

	days := make([]models.Day, 0, len(dates))
	for _, date := range dates {
		day := models.Day{Date: date, Entries: []models.Entry{}, Breaks: []models.BreakWindow{}}
		for _, iv := range intervals {
			if iv.IsBreak {
				day.Breaks = append(day.Breaks, models.BreakWindow{StartTime: iv.StartTime, EndTime: iv.EndTime})
				continue
			}
			project := resolved[iv.ProjectKey]
			day.Entries = append(day.Entries, models.Entry{
				ProjectID:   project.ID,
				ProjectName: project.Name,
				StartTime:   iv.StartTime,
				EndTime:     iv.EndTime,
				Notes:       iv.Notes,
			})
		}
		days = append(days, day)
	}

	result.Plan = &models.Plan{
		Prompt:       req.Prompt,
		Timezone:     req.Timezone,
		TargetUserID: req.TargetUserID,
		TechnicianID: req.TechnicianID,
		Days:         days,
	}
	b.logger.Info("plan skeleton built", map[string]interface{}{
		"days":      len(days),
		"intervals": len(intervals),
	})
	return result, nil
}

// resolveProjects resolves each distinct project label once. Zero matches
// and ambiguity are both terminal for the whole build.
func (b *Builder) resolveProjects(ctx context.Context, tenantID string, intervals []models.Interval) (map[string]*models.Project, []planerrors.Issue, error) {
	resolved := map[string]*models.Project{}
	var issues []planerrors.Issue

	for _, iv := range intervals {
		if iv.IsBreak || iv.ProjectKey == "" {
			continue
		}
		if _, done := resolved[iv.ProjectKey]; done {
			continue
		}

		project, candidates, err := b.resolver.ResolveProject(ctx, tenantID, iv.ProjectName, iv.ProjectRaw)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case project != nil:
			resolved[iv.ProjectKey] = project
		case len(candidates) > 1:
			names := make([]string, 0, len(candidates))
			for _, c := range candidates {
				names = append(names, c.Name)
			}
			issues = append(issues, planerrors.NewProjectAmbiguousIssue(iv.ProjectName, names))
			resolved[iv.ProjectKey] = nil
		default:
			issues = append(issues, planerrors.NewProjectNotFoundIssue(iv.ProjectName))
			resolved[iv.ProjectKey] = nil
		}
	}
	return resolved, issues, nil
}
