// internal/pipeline/intent/extractor.go

// Package intent normalizes a free-text prompt plus an optional AI
// pre-structured object into a canonical Intent, filling gaps from
// locally extracted "label: value" lines and reporting which required
// fields are still missing.
package intent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"timesheet-planner/internal/ai"
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/common/textfold"
	"timesheet-planner/internal/models"
)

// ProjectFinder is the slice of the directory the extractor needs for the
// builder-shape project fill.
type ProjectFinder interface {
	FindProjectsByName(ctx context.Context, tenantID, name string) ([]models.Project, error)
}

type Extractor struct {
	ai       ai.Service
	projects ProjectFinder
	logger   logger.Logger
}

func NewExtractor(aiSvc ai.Service, projects ProjectFinder, log logger.Logger) *Extractor {
	return &Extractor{
		ai:       aiSvc,
		projects: projects,
		logger:   log.WithFields(map[string]interface{}{"stage": "intent-extract"}),
	}
}

// Bilingual label lines: "project: X", "projeto = X" and so on.
var labelLineRe = regexp.MustCompile(`(?im)^[ \t]*(project|projeto|task|tarefa|description|descricao|descrição|notes|observacoes|observações)[ \t]*[:=][ \t]*(.+)$`)

var dateRangeTokenRe = regexp.MustCompile(`DATE_RANGE=(\d{4}-\d{2}-\d{2})\.\.(\d{4}-\d{2}-\d{2})`)

// localFields holds everything extractable without the AI.
type localFields struct {
	Project     string
	Task        string
	Description string
	Notes       string
}

// Extract runs the extraction algorithm end to end. AI or JSON failures
// come back as hard errors; incomplete-but-parseable intents come back
// with missing field names so the caller can ask a follow-up question.
func (e *Extractor) Extract(ctx context.Context, req *Request) *Result {
	local := extractLocalFields(req.Prompt)

	parsed, err := e.ai.Parse(ctx, req.Prompt, req.Timezone, req.WeekStart)
	if err != nil {
		e.logger.Warn("AI collaborator call failed", map[string]interface{}{"error": err.Error()})
		return &Result{Errors: []planerrors.Issue{planerrors.NewAIServiceFailedIssue("")}}
	}
	if !parsed.Success {
		return &Result{Errors: []planerrors.Issue{planerrors.NewAIServiceFailedIssue(parsed.Error)}}
	}

	in, ok := decodeIntent(parsed.Response)
	if !ok {
		return &Result{Errors: []planerrors.Issue{planerrors.NewAIResponseInvalidIssue()}}
	}

	mergeLocalFields(in, local)

	if in.DateRange == nil && (req.StartDate != "" || req.EndDate != "") {
		from, to := req.StartDate, req.EndDate
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		in.DateRange = &models.DateRange{Type: models.RangeAbsolute, From: from, To: to}
		removeMissingField(in, "dateRange")
	}

	if isBuilderShaped(req.Prompt) {
		e.fillBuilderProject(ctx, req.TenantID, in, local)
	}

	missing := completenessGaps(in)
	return &Result{
		OK:            len(missing) == 0,
		Intent:        in,
		MissingFields: missing,
	}
}

// decodeIntent parses the raw AI text as a JSON intent object, recovering
// the first {...} substring when the response carries surrounding prose.
func decodeIntent(raw string) (*models.Intent, bool) {
	candidate := strings.TrimSpace(raw)
	if !tryShape(candidate) {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return nil, false
		}
		candidate = candidate[start : end+1]
		if !tryShape(candidate) {
			return nil, false
		}
	}

	var in models.Intent
	if err := json.Unmarshal([]byte(candidate), &in); err != nil {
		return nil, false
	}
	return &in, true
}

func tryShape(candidate string) bool {
	var probe map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return false
	}
	valid, err := validateIntentShape(candidate)
	return err == nil && valid
}

func extractLocalFields(prompt string) localFields {
	var f localFields
	for _, m := range labelLineRe.FindAllStringSubmatch(prompt, -1) {
		value := textfold.StripQuotes(textfold.NormalizeQuotes(strings.TrimSpace(m[2])))
		if value == "" {
			continue
		}
		switch textfold.Fold(m[1]) {
		case "project", "projeto":
			if f.Project == "" {
				f.Project = value
			}
		case "task", "tarefa":
			if f.Task == "" {
				f.Task = value
			}
		case "description", "descricao":
			if f.Description == "" {
				f.Description = value
			}
		case "notes", "observacoes":
			if f.Notes == "" {
				f.Notes = value
			}
		}
	}
	return f
}

// mergeLocalFields fills intent gaps from locally extracted lines. A
// field filled this way is removed from the AI's missing list.
func mergeLocalFields(in *models.Intent, local localFields) {
	fill := func(target *string, value, name string) {
		if strings.TrimSpace(*target) == "" && value != "" {
			*target = value
			removeMissingField(in, name)
		}
	}
	fill(&in.Project, local.Project, "project")
	fill(&in.Task, local.Task, "task")
	fill(&in.Description, local.Description, "description")
	fill(&in.Notes, local.Notes, "notes")
}

func removeMissingField(in *models.Intent, name string) {
	kept := in.MissingFields[:0]
	for _, f := range in.MissingFields {
		if !strings.EqualFold(f, name) {
			kept = append(kept, f)
		}
	}
	in.MissingFields = kept
}

// isBuilderShaped recognizes prompts assembled by the structured form UI:
// a literal DATE_RANGE token or leading label lines.
func isBuilderShaped(prompt string) bool {
	if dateRangeTokenRe.MatchString(prompt) {
		return true
	}
	for _, m := range labelLineRe.FindAllStringSubmatch(prompt, -1) {
		switch textfold.Fold(m[1]) {
		case "project", "projeto", "task", "tarefa", "description", "descricao":
			return true
		}
	}
	return false
}

// fillBuilderProject resolves the builder-supplied project name against
// the tenant's table by exact case-insensitive match and fills in the
// canonical name when exactly one project matches.
func (e *Extractor) fillBuilderProject(ctx context.Context, tenantID string, in *models.Intent, local localFields) {
	name := strings.TrimSpace(in.Project)
	if name == "" {
		name = local.Project
	}
	if name == "" || e.projects == nil {
		return
	}

	matches, err := e.projects.FindProjectsByName(ctx, tenantID, name)
	if err != nil {
		e.logger.Warn("builder project lookup failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(matches) == 1 {
		in.Project = matches[0].Name
		removeMissingField(in, "project")
	}
}

// completenessGaps lists the required fields still absent. A wrong intent
// value short-circuits to exactly one gap so the caller asks about the
// request's purpose before anything else.
func completenessGaps(in *models.Intent) []string {
	if in.Intent != models.IntentCreateTimesheets {
		return []string{"intent"}
	}

	var missing []string
	if !dateRangeResolvable(in.DateRange) {
		missing = append(missing, "dateRange")
	}
	if len(in.Schedule) == 0 {
		missing = append(missing, "schedule")
	}
	if strings.TrimSpace(in.Project) == "" {
		missing = append(missing, "project")
	}
	return missing
}

func dateRangeResolvable(dr *models.DateRange) bool {
	if dr == nil {
		return false
	}
	switch dr.Type {
	case models.RangeAbsolute:
		return dr.From != "" && dr.To != ""
	case models.RangeRelative:
		switch dr.Value {
		case models.RangeLastNWorkdays:
			return dr.Count > 0
		case models.RangeThisWeek, models.RangeLastWeek, models.RangeNextWeek:
			return true
		}
	}
	return false
}
