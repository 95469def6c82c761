package apply

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
	"timesheet-planner/internal/timesheet"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeWriter struct {
	created []timesheet.DraftEntry
	failAt  int
}

func (f *fakeWriter) CreateDraft(ctx context.Context, d timesheet.DraftEntry) (string, error) {
	if f.failAt > 0 && len(f.created)+1 == f.failAt {
		return "", errors.New("insert failed")
	}
	f.created = append(f.created, d)
	return fmt.Sprintf("ts-%d", len(f.created)), nil
}

func normalizedPlan() *models.NormalizedPlan {
	entry := func(start, end string, minutes int) models.NormalizedEntry {
		return models.NormalizedEntry{
			Entry: models.Entry{
				ProjectID: "proj-alpha", ProjectName: "Alpha",
				StartTime: start, EndTime: end, Notes: "from plan",
			},
			TaskID: "task-1", TaskName: "Implementation",
			LocationID: "loc-1", LocationName: "HQ",
			Minutes: minutes,
		}
	}
	return &models.NormalizedPlan{
		Prompt:       "test prompt",
		Timezone:     "UTC",
		TargetUserID: "user-1",
		TechnicianID: "tech-1",
		Days: []models.NormalizedDay{
			{Date: "2026-02-10", Entries: []models.NormalizedEntry{entry("09:00", "13:00", 240)}},
			{Date: "2026-02-11", Entries: []models.NormalizedEntry{entry("09:00", "11:05", 125)}},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestApplier_Apply_CreatesOneDraftPerEntry(t *testing.T) {
	writer := &fakeWriter{}
	a := NewApplier(writer, logger.Nop())

	result, err := a.Apply(context.Background(), &Request{
		Plan:     normalizedPlan(),
		TenantID: "tenant-1",
		ActorID:  "actor-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{"ts-1", "ts-2"}, result.CreatedIDs)

	require.Len(t, writer.created, 2)
	first := writer.created[0]
	assert.Equal(t, "tenant-1", first.TenantID)
	assert.Equal(t, "tech-1", first.TechnicianID)
	assert.Equal(t, "2026-02-10", first.Date)
	assert.Equal(t, "proj-alpha", first.ProjectID)
	assert.Equal(t, "task-1", first.TaskID)
	assert.Equal(t, "loc-1", first.LocationID)
	assert.Equal(t, "actor-1", first.ActorID)
	assert.Equal(t, 4.0, first.Hours)
}

func TestApplier_Apply_RoundsHoursToTwoDecimals(t *testing.T) {
	writer := &fakeWriter{}
	a := NewApplier(writer, logger.Nop())

	_, err := a.Apply(context.Background(), &Request{
		Plan:     normalizedPlan(),
		TenantID: "tenant-1",
		ActorID:  "actor-1",
	})
	require.NoError(t, err)

	// 125 minutes is 2.0833... hours.
	assert.Equal(t, 2.08, writer.created[1].Hours)
}

func TestApplier_Apply_StopsOnFirstWriteFailure(t *testing.T) {
	writer := &fakeWriter{failAt: 2}
	a := NewApplier(writer, logger.Nop())

	result, err := a.Apply(context.Background(), &Request{
		Plan:     normalizedPlan(),
		TenantID: "tenant-1",
		ActorID:  "actor-1",
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Len(t, writer.created, 1, "rows written before the failure stay written")
}
