// internal/directory/store.go

// Package directory reads the tenant's project/task/location tables and
// answers membership and capability questions. All queries are read-only.
package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrDirectoryQueryFailed = errors.New("DIRECTORY_QUERY_FAILED")

// CapabilityCreateTimesheets gates the validator's authorization check.
const CapabilityCreateTimesheets = "create_timesheets"

const projectCacheTTL = 5 * time.Minute

// Store wraps directory reads with a redis read-through cache for the
// full project listing used by the fuzzy matcher's table scan.
type Store struct {
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewStore(db *sql.DB, rdb *redis.Client, log logger.Logger) *Store {
	return &Store{
		db:     db,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "directory"}),
	}
}

// FindProjectsByName returns active projects whose name matches
// case-insensitively. More than one row is possible and the caller must
// treat that as ambiguity.
func (s *Store) FindProjectsByName(ctx context.Context, tenantID, name string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, active FROM projects
		WHERE tenant_id = $1 AND active = TRUE AND LOWER(name) = LOWER($2)`,
		tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("%w: find projects by name: %v", ErrDirectoryQueryFailed, err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListProjects returns every active project of the tenant, cached in
// redis for the table-scan matcher pass.
func (s *Store) ListProjects(ctx context.Context, tenantID string) ([]models.Project, error) {
	cacheKey := "projects:" + tenantID
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached []models.Project
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, active FROM projects
		WHERE tenant_id = $1 AND active = TRUE
		ORDER BY name`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: list projects: %v", ErrDirectoryQueryFailed, err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(projects); err == nil {
			s.redis.Set(ctx, cacheKey, data, projectCacheTTL)
		}
	}

	return projects, nil
}

// ProjectByID returns the project or nil when it does not exist for the
// tenant.
func (s *Store) ProjectByID(ctx context.Context, tenantID, projectID string) (*models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, active FROM projects
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, projectID).Scan(&p.ID, &p.TenantID, &p.Name, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: project by id: %v", ErrDirectoryQueryFailed, err)
	}
	return &p, nil
}

// TaskByID returns the task only when it belongs to the given project.
func (s *Store) TaskByID(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, active, last_activity_at FROM tasks
		WHERE project_id = $1 AND id = $2 AND active = TRUE`,
		projectID, taskID).Scan(&t.ID, &t.ProjectID, &t.Name, &t.Active, &t.LastActivityAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: task by id: %v", ErrDirectoryQueryFailed, err)
	}
	return &t, nil
}

// MostRecentTask returns the project's most recently active task, or nil
// when the project has none.
func (s *Store) MostRecentTask(ctx context.Context, projectID string) (*models.Task, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, active, last_activity_at FROM tasks
		WHERE project_id = $1 AND active = TRUE
		ORDER BY last_activity_at DESC NULLS LAST
		LIMIT 1`,
		projectID).Scan(&t.ID, &t.ProjectID, &t.Name, &t.Active, &t.LastActivityAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: most recent task: %v", ErrDirectoryQueryFailed, err)
	}
	return &t, nil
}

// FirstLocationForTask returns the task's first associated active
// location, or nil when it has none.
func (s *Store) FirstLocationForTask(ctx context.Context, taskID string) (*models.Location, error) {
	var l models.Location
	err := s.db.QueryRowContext(ctx, `
		SELECT l.id, l.name, l.active
		FROM locations l
		JOIN task_locations tl ON tl.location_id = l.id
		WHERE tl.task_id = $1 AND l.active = TRUE
		ORDER BY l.name
		LIMIT 1`,
		taskID).Scan(&l.ID, &l.Name, &l.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: first location for task: %v", ErrDirectoryQueryFailed, err)
	}
	return &l, nil
}

// AnyActiveLocation is the tenant-wide fallback.
func (s *Store) AnyActiveLocation(ctx context.Context, tenantID string) (*models.Location, error) {
	var l models.Location
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, active FROM locations
		WHERE tenant_id = $1 AND active = TRUE
		ORDER BY name
		LIMIT 1`,
		tenantID).Scan(&l.ID, &l.Name, &l.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: any active location: %v", ErrDirectoryQueryFailed, err)
	}
	return &l, nil
}

// LocationByID returns the location or nil.
func (s *Store) LocationByID(ctx context.Context, tenantID, locationID string) (*models.Location, error) {
	var l models.Location
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, active FROM locations
		WHERE tenant_id = $1 AND id = $2 AND active = TRUE`,
		tenantID, locationID).Scan(&l.ID, &l.Name, &l.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: location by id: %v", ErrDirectoryQueryFailed, err)
	}
	return &l, nil
}

// IsProjectMember reports whether the user belongs to the project.
func (s *Store) IsProjectMember(ctx context.Context, projectID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM project_members
			WHERE project_id = $1 AND user_id = $2
		)`, projectID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: membership check: %v", ErrDirectoryQueryFailed, err)
	}
	return exists, nil
}

// HasCapability reports whether the user holds the named capability.
func (s *Store) HasCapability(ctx context.Context, userID, capability string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM user_capabilities
			WHERE user_id = $1 AND capability = $2
		)`, userID, capability).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: capability check: %v", ErrDirectoryQueryFailed, err)
	}
	return exists, nil
}

func scanProjects(rows *sql.Rows) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Active); err != nil {
			return nil, fmt.Errorf("%w: scan project: %v", ErrDirectoryQueryFailed, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate projects: %v", ErrDirectoryQueryFailed, err)
	}
	return projects, nil
}
