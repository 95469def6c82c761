// internal/pipeline/validate/validator.go

// Package validate checks a plan skeleton against the tenant directory
// and the persisted timesheet table, accumulating every independent
// problem before reporting. A clean run produces the NormalizedPlan the
// applier trusts without re-checking.
package validate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"timesheet-planner/internal/common/config"
	"timesheet-planner/internal/directory"
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
)

// Directory is the read-only slice of the tenant directory the validator
// consumes.
type Directory interface {
	HasCapability(ctx context.Context, userID, capability string) (bool, error)
	ProjectByID(ctx context.Context, tenantID, projectID string) (*models.Project, error)
	IsProjectMember(ctx context.Context, projectID, userID string) (bool, error)
	TaskByID(ctx context.Context, projectID, taskID string) (*models.Task, error)
	MostRecentTask(ctx context.Context, projectID string) (*models.Task, error)
	FirstLocationForTask(ctx context.Context, taskID string) (*models.Location, error)
	AnyActiveLocation(ctx context.Context, tenantID string) (*models.Location, error)
	LocationByID(ctx context.Context, tenantID, locationID string) (*models.Location, error)
}

// TimesheetReader reads the persisted rows the overlap and cap checks
// compare against.
type TimesheetReader interface {
	EntriesForDate(ctx context.Context, tenantID, technicianID, date string) ([]models.TimesheetEntry, error)
}

type Validator struct {
	directory  Directory
	timesheets TimesheetReader
	cfg        config.TimesheetsConfig
	logger     logger.Logger
}

func NewValidator(dir Directory, ts TimesheetReader, cfg config.TimesheetsConfig, log logger.Logger) *Validator {
	return &Validator{
		directory:  dir,
		timesheets: ts,
		cfg:        cfg,
		logger:     log.WithFields(map[string]interface{}{"stage": "plan-validate"}),
	}
}

// entryResolution is one plan entry with its parsed minutes and resolved
// identities. Invalid entries keep valid=false and are excluded from the
// overlap, cap, and break checks.
type entryResolution struct {
	entry    models.Entry
	startMin int
	endMin   int
	task     *models.Task
	location *models.Location
	valid    bool
}

// Validate runs every check and reports the complete set of problems.
// The returned error is reserved for store failures; everything
// user-facing accumulates in the Result.
func (v *Validator) Validate(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{}

	allowed, err := v.directory.HasCapability(ctx, req.ActorID, directory.CapabilityCreateTimesheets)
	if err != nil {
		return nil, err
	}
	if !allowed {
		result.Errors = append(result.Errors, planerrors.NewNotAuthorizedIssue())
	}

	memberships := map[string]bool{}
	tasks := map[string]*models.Task{}

	var normalizedDays []models.NormalizedDay
	for _, day := range req.Plan.Days {
		resolved, dayIssues, err := v.validateDay(ctx, req, day, memberships, tasks)
		if err != nil {
			return nil, err
		}
		result.Errors = append(result.Errors, dayIssues.errors...)
		result.Warnings = append(result.Warnings, dayIssues.warnings...)
		normalizedDays = append(normalizedDays, normalizeDay(day, resolved))
	}

	result.OK = len(result.Errors) == 0
	if result.OK {
		result.NormalizedPlan = &models.NormalizedPlan{
			Prompt:       req.Plan.Prompt,
			Timezone:     req.Plan.Timezone,
			TargetUserID: req.Plan.TargetUserID,
			TechnicianID: req.Plan.TechnicianID,
			Days:         normalizedDays,
		}
		result.Totals = computeTotals(normalizedDays)
	} else {
		v.logger.Info("plan rejected", map[string]interface{}{
			"errors":   len(result.Errors),
			"warnings": len(result.Warnings),
		})
	}
	return result, nil
}

type dayIssues struct {
	errors   []planerrors.Issue
	warnings []planerrors.Issue
}

func (v *Validator) validateDay(ctx context.Context, req *Request, day models.Day, memberships map[string]bool, tasks map[string]*models.Task) ([]entryResolution, dayIssues, error) {
	var issues dayIssues

	existing, err := v.timesheets.EntriesForDate(ctx, req.TenantID, req.TechnicianID, day.Date)
	if err != nil {
		return nil, issues, err
	}
	locked := false
	for _, e := range existing {
		if e.Status == models.StatusApproved || e.Status == models.StatusClosed {
			locked = true
			break
		}
	}
	if locked {
		issues.errors = append(issues.errors, planerrors.NewDateLockedIssue(day.Date))
	}

	resolved := make([]entryResolution, 0, len(day.Entries))
	for _, entry := range day.Entries {
		r, entryIssues, err := v.resolveEntry(ctx, req, day.Date, entry, memberships, tasks)
		if err != nil {
			return nil, issues, err
		}
		issues.errors = append(issues.errors, entryIssues...)
		resolved = append(resolved, r)
	}

	valid := validResolutions(resolved)
	sort.Slice(valid, func(i, j int) bool { return valid[i].startMin < valid[j].startMin })

	// One overlap error per date regardless of how many pairs collide.
	for i := 1; i < len(valid); i++ {
		if valid[i].startMin < valid[i-1].endMin {
			issues.errors = append(issues.errors, planerrors.NewOverlappingRangesIssue(day.Date))
			break
		}
	}

	if !locked {
		existingIssues := v.checkExisting(day.Date, valid, existing)
		issues.errors = append(issues.errors, existingIssues...)

		if capIssue := v.checkDailyCap(day.Date, valid, existing); capIssue != nil {
			issues.errors = append(issues.errors, *capIssue)
		}
	}

	if breakIssue := v.checkBreakPolicy(day.Date, valid); breakIssue != nil {
		if req.EnforceBreaks {
			issues.errors = append(issues.errors, *breakIssue)
		} else {
			issues.warnings = append(issues.warnings, *breakIssue)
		}
	}

	return resolved, issues, nil
}

func (v *Validator) resolveEntry(ctx context.Context, req *Request, date string, entry models.Entry, memberships map[string]bool, tasks map[string]*models.Task) (entryResolution, []planerrors.Issue, error) {
	r := entryResolution{entry: entry}
	var issues []planerrors.Issue

	project, err := v.directory.ProjectByID(ctx, req.TenantID, entry.ProjectID)
	if err != nil {
		return r, nil, err
	}
	if project == nil {
		issues = append(issues, planerrors.NewProjectNotFoundIssue(entry.ProjectName))
		return r, issues, nil
	}

	member, known := memberships[project.ID]
	if !known {
		member, err = v.directory.IsProjectMember(ctx, project.ID, req.TargetUserID)
		if err != nil {
			return r, nil, err
		}
		memberships[project.ID] = member
	}
	if !member {
		issues = append(issues, planerrors.NewNotProjectMemberIssue(project.Name))
	}

	startMin, okStart := minuteOfDay(entry.StartTime)
	endMin, okEnd := minuteOfDay(entry.EndTime)
	if !okStart || !okEnd || endMin <= startMin {
		issues = append(issues, planerrors.NewInvalidTimeRangeIssue(date, fmt.Sprintf("%s-%s", entry.StartTime, entry.EndTime)))
		return r, issues, nil
	}
	r.startMin, r.endMin = startMin, endMin

	task, err := v.resolveTask(ctx, req, project, tasks)
	if err != nil {
		return r, nil, err
	}
	if task == nil {
		issues = append(issues, planerrors.NewProjectHasNoTasksIssue(project.Name))
		return r, issues, nil
	}
	r.task = task

	location, err := v.resolveLocation(ctx, req, task)
	if err != nil {
		return r, nil, err
	}
	if location == nil {
		issues = append(issues, planerrors.NewNoLocationIssue(date))
		return r, issues, nil
	}
	r.location = location

	r.valid = len(issues) == 0
	return r, issues, nil
}

// resolveTask prefers the caller's explicit task when it belongs to the
// project, then the project's most recently active task.
func (v *Validator) resolveTask(ctx context.Context, req *Request, project *models.Project, tasks map[string]*models.Task) (*models.Task, error) {
	cacheKey := project.ID + "|" + req.TaskID
	if t, known := tasks[cacheKey]; known {
		return t, nil
	}

	var task *models.Task
	var err error
	if req.TaskID != "" {
		task, err = v.directory.TaskByID(ctx, project.ID, req.TaskID)
		if err != nil {
			return nil, err
		}
	}
	if task == nil {
		task, err = v.directory.MostRecentTask(ctx, project.ID)
		if err != nil {
			return nil, err
		}
	}
	tasks[cacheKey] = task
	return task, nil
}

func (v *Validator) resolveLocation(ctx context.Context, req *Request, task *models.Task) (*models.Location, error) {
	if req.LocationID != "" {
		return v.directory.LocationByID(ctx, req.TenantID, req.LocationID)
	}
	location, err := v.directory.FirstLocationForTask(ctx, task.ID)
	if err != nil || location != nil {
		return location, err
	}
	return v.directory.AnyActiveLocation(ctx, req.TenantID)
}

// checkExisting compares each planned range against every persisted row
// for the date. A row whose time data cannot be parsed is a hard error,
// never a silent pass.
func (v *Validator) checkExisting(date string, valid []entryResolution, existing []models.TimesheetEntry) []planerrors.Issue {
	var issues []planerrors.Issue

	type span struct{ start, end int }
	var spans []span
	unreadable := false
	for _, e := range existing {
		start, okStart := minuteOfDay(e.StartTime)
		end, okEnd := minuteOfDay(e.EndTime)
		if !okStart || !okEnd {
			unreadable = true
			continue
		}
		spans = append(spans, span{start, end})
	}
	if unreadable {
		issues = append(issues, planerrors.NewExistingUnreadableIssue(date))
	}

	for _, r := range valid {
		for _, s := range spans {
			if r.startMin < s.end && s.start < r.endMin {
				issues = append(issues, planerrors.NewOverlapsExistingIssue(date, fmt.Sprintf("%s-%s", r.entry.StartTime, r.entry.EndTime)))
				break
			}
		}
	}
	return issues
}

// checkDailyCap sums persisted hours and newly planned minutes against
// the configured cap.
func (v *Validator) checkDailyCap(date string, valid []entryResolution, existing []models.TimesheetEntry) *planerrors.Issue {
	total := 0.0
	for _, e := range existing {
		total += e.Hours * 60
	}
	for _, r := range valid {
		total += float64(r.endMin - r.startMin)
	}
	if total > v.cfg.DailyHourCap*60 {
		issue := planerrors.NewDailyCapExceededIssue(date, v.cfg.DailyHourCap)
		return &issue
	}
	return nil
}

// checkBreakPolicy merges the day's work entries into maximal continuous
// blocks, where a gap of at least the minimum break length starts a new
// block, and flags any block spanning past the break-required threshold.
func (v *Validator) checkBreakPolicy(date string, valid []entryResolution) *planerrors.Issue {
	if len(valid) == 0 {
		return nil
	}

	blockStart, blockEnd := valid[0].startMin, valid[0].endMin
	flag := false
	for _, r := range valid[1:] {
		if r.startMin-blockEnd >= v.cfg.BreakMinMinutes {
			if float64(blockEnd-blockStart) > v.cfg.BreakRequiredAfterHours*60 {
				flag = true
			}
			blockStart = r.startMin
		}
		if r.endMin > blockEnd {
			blockEnd = r.endMin
		}
	}
	if float64(blockEnd-blockStart) > v.cfg.BreakRequiredAfterHours*60 {
		flag = true
	}

	if !flag {
		return nil
	}
	issue := planerrors.NewBreakRequiredIssue(date, v.cfg.BreakRequiredAfterHours, v.cfg.BreakMinMinutes)
	return &issue
}

func validResolutions(resolved []entryResolution) []entryResolution {
	valid := make([]entryResolution, 0, len(resolved))
	for _, r := range resolved {
		if r.valid {
			valid = append(valid, r)
		}
	}
	return valid
}

func normalizeDay(day models.Day, resolved []entryResolution) models.NormalizedDay {
	nd := models.NormalizedDay{Date: day.Date, Breaks: day.Breaks, Entries: []models.NormalizedEntry{}}
	for _, r := range resolved {
		if !r.valid {
			continue
		}
		nd.Entries = append(nd.Entries, models.NormalizedEntry{
			Entry:        r.entry,
			TaskID:       r.task.ID,
			TaskName:     r.task.Name,
			LocationID:   r.location.ID,
			LocationName: r.location.Name,
			Minutes:      r.endMin - r.startMin,
		})
	}
	return nd
}

func computeTotals(days []models.NormalizedDay) *models.Totals {
	totals := &models.Totals{PerDay: map[string]models.DayTotal{}}
	for _, day := range days {
		minutes := 0
		for _, e := range day.Entries {
			minutes += e.Minutes
		}
		totals.PerDay[day.Date] = models.DayTotal{Minutes: minutes, Hours: roundHours(minutes)}
		totals.OverallMinutes += minutes
	}
	totals.OverallHours = roundHours(totals.OverallMinutes)
	return totals
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// minuteOfDay parses "HH:MM" into minutes since midnight. Seconds are
// tolerated and ignored since some stores persist "HH:MM:SS".
func minuteOfDay(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
