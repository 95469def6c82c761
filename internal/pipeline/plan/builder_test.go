package plan

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-planner/internal/common/clock"
	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeResolver resolves labels against a fixed map, case-insensitively.
type fakeResolver struct {
	projects  map[string]*models.Project
	ambiguous map[string][]models.Project
}

func (f *fakeResolver) ResolveProject(ctx context.Context, tenantID, label, raw string) (*models.Project, []models.Project, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if candidates, ok := f.ambiguous[key]; ok {
		return nil, candidates, nil
	}
	if p, ok := f.projects[key]; ok {
		return p, nil, nil
	}
	return nil, nil, nil
}

func newTestBuilder(resolver ProjectResolver) *Builder {
	return NewBuilder(clock.Fixed(testNow), resolver, "monday", logger.Nop())
}

func alphaResolver() *fakeResolver {
	return &fakeResolver{
		projects: map[string]*models.Project{
			"alpha": {ID: "proj-alpha", TenantID: "tenant-1", Name: "Alpha", Active: true},
			"beta":  {ID: "proj-beta", TenantID: "tenant-1", Name: "Beta", Active: true},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestBuilder_Build_BuilderPrompt(t *testing.T) {
	b := newTestBuilder(alphaResolver())

	result, err := b.Build(context.Background(), &Request{
		Prompt:       "DATE_RANGE=2026-02-10..2026-02-11\nprojeto: Alpha\n09:00-13:00\n14:00-18:00",
		Timezone:     "UTC",
		TenantID:     "tenant-1",
		TargetUserID: "user-1",
		TechnicianID: "tech-1",
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Plan)

	require.Len(t, result.Plan.Days, 2)
	assert.Equal(t, "2026-02-10", result.Plan.Days[0].Date)
	assert.Equal(t, "2026-02-11", result.Plan.Days[1].Date)

	for _, day := range result.Plan.Days {
		require.Len(t, day.Entries, 2)
		assert.Empty(t, day.Breaks)
		minutes := 0
		for _, e := range day.Entries {
			assert.Equal(t, "proj-alpha", e.ProjectID)
			assert.Equal(t, "Alpha", e.ProjectName)
			minutes += entryMinutes(t, e)
		}
		assert.Equal(t, 480, minutes, "each day should total 8h")
	}
}

func TestBuilder_Build_IntentDriven(t *testing.T) {
	b := newTestBuilder(alphaResolver())

	result, err := b.Build(context.Background(), &Request{
		Intent: &models.Intent{
			Intent:    models.IntentCreateTimesheets,
			Project:   "Alpha",
			DateRange: &models.DateRange{Type: models.RangeRelative, Value: models.RangeLastNWorkdays, Count: 2},
			Schedule: []models.Block{
				{StartTime: "09:00", EndTime: "17:00"},
			},
			Breaks: []models.Block{
				{StartTime: "12:00", EndTime: "12:30"},
			},
		},
		Timezone:     "UTC",
		TenantID:     "tenant-1",
		TargetUserID: "user-1",
		TechnicianID: "tech-1",
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Plan)

	require.Len(t, result.Plan.Days, 2)
	for _, day := range result.Plan.Days {
		require.Len(t, day.Entries, 1)
		require.Len(t, day.Breaks, 1)
		assert.Equal(t, "12:00", day.Breaks[0].StartTime)
	}
}

func TestBuilder_Build_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	b := newTestBuilder(alphaResolver())

	result, err := b.Build(context.Background(), &Request{
		Prompt:   "DATE_RANGE=2026-02-10..2026-02-10\nprojeto: Alpha\n09:00-13:00",
		Timezone: "Not/AZone",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Plan)
}

// ==========================
// Error Accumulation Tests
// ==========================

func TestBuilder_Build_ProjectNotFound(t *testing.T) {
	b := newTestBuilder(&fakeResolver{})

	result, err := b.Build(context.Background(), &Request{
		Prompt:   "DATE_RANGE=2026-02-10..2026-02-10\n09:00-13:00 Gamma",
		Timezone: "UTC",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Plan)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, planerrors.IssueProjectNotFound, result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "Gamma")
}

func TestBuilder_Build_AmbiguousProjectListsCandidates(t *testing.T) {
	b := newTestBuilder(&fakeResolver{
		ambiguous: map[string][]models.Project{
			"alpha": {
				{ID: "p1", Name: "Alpha One"},
				{ID: "p2", Name: "Alpha Two"},
			},
		},
	})

	result, err := b.Build(context.Background(), &Request{
		Prompt:   "DATE_RANGE=2026-02-10..2026-02-10\n09:00-13:00 Alpha",
		Timezone: "UTC",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Plan)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, planerrors.IssueProjectAmbiguous, result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "Alpha One")
	assert.Contains(t, result.Errors[0].Message, "Alpha Two")
}

func TestBuilder_Build_AccumulatesIndependentErrors(t *testing.T) {
	b := newTestBuilder(&fakeResolver{})

	// No date range and an unresolvable project, both reported at once.
	result, err := b.Build(context.Background(), &Request{
		Prompt:   "09:00-13:00 Gamma",
		Timezone: "UTC",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Plan)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, planerrors.IssueDateRangeMissing, result.Errors[0].Code)
	assert.Equal(t, planerrors.IssueProjectNotFound, result.Errors[1].Code)
}

func TestBuilder_Build_NoIntervalsFound(t *testing.T) {
	b := newTestBuilder(alphaResolver())

	result, err := b.Build(context.Background(), &Request{
		Prompt:   "DATE_RANGE=2026-02-10..2026-02-10\nprojeto: Alpha",
		Timezone: "UTC",
		TenantID: "tenant-1",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Plan)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, planerrors.IssueIntervalNoProject, result.Errors[0].Code)
}

func entryMinutes(t *testing.T, e models.Entry) int {
	t.Helper()
	start, ok := minuteOfDayForTest(e.StartTime)
	require.True(t, ok)
	end, ok := minuteOfDayForTest(e.EndTime)
	require.True(t, ok)
	return end - start
}

func minuteOfDayForTest(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}
