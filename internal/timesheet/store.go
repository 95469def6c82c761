// internal/timesheet/store.go

// Package timesheet reads existing timesheet rows and writes draft rows.
// The pipeline reads through EntriesForDate during validation and writes
// only through CreateDraft during apply.
package timesheet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"

	"github.com/google/uuid"
)

var (
	ErrTimesheetQueryFailed  = errors.New("TIMESHEET_QUERY_FAILED")
	ErrTimesheetInsertFailed = errors.New("TIMESHEET_INSERT_FAILED")
)

// DraftEntry carries everything needed to persist one draft row.
type DraftEntry struct {
	TenantID     string
	TechnicianID string
	Date         string
	StartTime    string
	EndTime      string
	Hours        float64
	ProjectID    string
	TaskID       string
	LocationID   string
	Notes        string
	ActorID      string
}

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "timesheet"}),
	}
}

// EntriesForDate returns every non-rejected row for the technician on the
// date. Null time columns come back as empty strings so the validator can
// flag them instead of this layer guessing.
func (s *Store) EntriesForDate(ctx context.Context, tenantID, technicianID, date string) ([]models.TimesheetEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, technician_id, work_date, COALESCE(start_time, ''), COALESCE(end_time, ''), COALESCE(hours, 0), status
		FROM timesheets
		WHERE tenant_id = $1 AND technician_id = $2 AND work_date = $3 AND status <> $4`,
		tenantID, technicianID, date, models.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("%w: entries for date: %v", ErrTimesheetQueryFailed, err)
	}
	defer rows.Close()

	var entries []models.TimesheetEntry
	for rows.Next() {
		var e models.TimesheetEntry
		if err := rows.Scan(&e.ID, &e.TechnicianID, &e.WorkDate, &e.StartTime, &e.EndTime, &e.Hours, &e.Status); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrTimesheetQueryFailed, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", ErrTimesheetQueryFailed, err)
	}
	return entries, nil
}

// CreateDraft inserts one draft-status row and returns its id.
func (s *Store) CreateDraft(ctx context.Context, d DraftEntry) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timesheets (
			id, tenant_id, technician_id, work_date, start_time, end_time,
			hours, status, project_id, task_id, location_id, notes,
			created_by, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, $14, $14)`,
		id,
		d.TenantID,
		d.TechnicianID,
		d.Date,
		d.StartTime,
		d.EndTime,
		d.Hours,
		models.StatusDraft,
		d.ProjectID,
		d.TaskID,
		d.LocationID,
		d.Notes,
		d.ActorID,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert failed: %v", ErrTimesheetInsertFailed, err)
	}

	s.logger.Info("draft timesheet created", map[string]interface{}{
		"timesheetId":  id,
		"technicianId": d.TechnicianID,
		"date":         d.Date,
	})

	return id, nil
}
