package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/models"
)

// ==========================
// Interval Extraction Tests
// ==========================

func TestExtractIntervals_InlineLabels(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "09:00-13:00 Alpha\n14:00 - 18:00 Beta",
	})
	require.Empty(t, issues)
	require.Len(t, intervals, 2)

	assert.Equal(t, "09:00", intervals[0].StartTime)
	assert.Equal(t, "13:00", intervals[0].EndTime)
	assert.Equal(t, "Alpha", intervals[0].ProjectName)
	assert.Equal(t, "alpha", intervals[0].ProjectKey)
	assert.False(t, intervals[0].IsBreak)

	assert.Equal(t, "Beta", intervals[1].ProjectName)
}

func TestExtractIntervals_BreakDetection(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"break keyword", "09:00-12:00 Alpha\nbreak 12:00-13:00"},
		{"pausa keyword", "09:00-12:00 Alpha\npausa 12:00-13:00"},
		{"lunch label", "09:00-12:00 Alpha\n12:00-13:00 lunch"},
		{"almoco label with accent", "09:00-12:00 Alpha\n12:00-13:00 almoço"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intervals, issues := extractIntervals(&Request{Prompt: tt.prompt})
			require.Empty(t, issues)
			require.Len(t, intervals, 2)
			assert.False(t, intervals[0].IsBreak)
			assert.True(t, intervals[1].IsBreak)
			assert.Empty(t, intervals[1].ProjectName)
		})
	}
}

func TestExtractIntervals_GlobalFallbackLabel(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "projeto: Alpha\n09:00-13:00\n14:00-18:00",
	})
	require.Empty(t, issues)
	require.Len(t, intervals, 2)
	assert.Equal(t, "Alpha", intervals[0].ProjectName)
	assert.Equal(t, "Alpha", intervals[1].ProjectName)
}

func TestExtractIntervals_BuilderStyleProjectLine(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "projeto Alpha\n09:00-13:00",
	})
	require.Empty(t, issues)
	require.Len(t, intervals, 1)
	assert.Equal(t, "Alpha", intervals[0].ProjectName)
}

func TestExtractIntervals_IntentHintBeatsInlineLabel(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "09:00-13:00 Beta",
		Intent: &models.Intent{Project: "Alpha"},
	})
	require.Empty(t, issues)
	require.Len(t, intervals, 1)
	assert.Equal(t, "Alpha", intervals[0].ProjectName)
}

func TestExtractIntervals_NoProjectIsHardError(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "09:00-13:00",
	})
	assert.Empty(t, intervals)
	require.Len(t, issues, 1)
	assert.Equal(t, planerrors.IssueIntervalNoProject, issues[0].Code)
	assert.Equal(t, "09:00-13:00", issues[0].TimeRange)
}

func TestExtractIntervals_MergesIntentScheduleWithoutDuplicates(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "09:00-13:00\n14:00-18:00",
		Intent: &models.Intent{
			Project: "Alpha",
			Schedule: []models.Block{
				{StartTime: "09:00", EndTime: "13:00", Project: "Alpha"},
			},
			Breaks: []models.Block{
				{StartTime: "13:00", EndTime: "14:00"},
			},
		},
	})
	require.Empty(t, issues)

	// Two work windows plus one break, the intent's 09:00-13:00 collapses
	// into the prompt-parsed one.
	require.Len(t, intervals, 3)
	work := 0
	breaks := 0
	for _, iv := range intervals {
		if iv.IsBreak {
			breaks++
		} else {
			work++
			assert.Equal(t, "Alpha", iv.ProjectName)
		}
	}
	assert.Equal(t, 2, work)
	assert.Equal(t, 1, breaks)
}

func TestExtractIntervals_SingleDigitHoursNormalized(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "9:00-13:00 Alpha",
	})
	require.Empty(t, issues)
	require.Len(t, intervals, 1)
	assert.Equal(t, "09:00", intervals[0].StartTime)
}

func TestExtractIntervals_QuotedLabelStripped(t *testing.T) {
	intervals, issues := extractIntervals(&Request{
		Prompt: "09:00-13:00 “Alpha”",
	})
	require.Empty(t, issues)
	require.Len(t, intervals, 1)
	assert.Equal(t, "Alpha", intervals[0].ProjectName)
	assert.Equal(t, "“Alpha”", intervals[0].ProjectRaw)
}
