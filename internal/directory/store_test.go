package directory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, nil, logger.Nop()), mock
}

func projectRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "name", "active"})
	for i, name := range names {
		rows.AddRow(projectID(i), "tenant-1", name, true)
	}
	return rows
}

func projectID(i int) string {
	return []string{"proj-1", "proj-2", "proj-3"}[i]
}

// ==========================
// Query Tests
// ==========================

func TestStore_FindProjectsByName(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "alpha").
		WillReturnRows(projectRows("Alpha"))

	projects, err := s.FindProjectsByName(context.Background(), "tenant-1", "alpha")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Alpha", projects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindProjectsByName_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WillReturnError(assert.AnError)

	_, err := s.FindProjectsByName(context.Background(), "tenant-1", "alpha")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryQueryFailed)
}

func TestStore_HasCapability(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("actor-1", CapabilityCreateTimesheets).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.HasCapability(context.Background(), "actor-1", CapabilityCreateTimesheets)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_IsProjectMember(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("proj-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := s.IsProjectMember(context.Background(), "proj-1", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_MostRecentTask_NoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, project_id, name, active, last_activity_at FROM tasks`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name", "active", "last_activity_at"}))

	task, err := s.MostRecentTask(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Nil(t, task)
}

// ==========================
// Cache Tests
// ==========================

func TestStore_ListProjects_CachesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	s := NewStore(db, rdb, logger.Nop())

	// The database is hit exactly once; the second call reads the cache.
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1").
		WillReturnRows(projectRows("Alpha", "Beta"))

	first, err := s.ListProjects(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := s.ListProjects(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())

	cached, err := mr.Get("projects:tenant-1")
	require.NoError(t, err)
	var fromCache []models.Project
	require.NoError(t, json.Unmarshal([]byte(cached), &fromCache))
	assert.Equal(t, first, fromCache)
}

func TestStore_ListProjects_SetsCacheWithTTL(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	s := NewStore(db, rdb, logger.Nop())

	projects := []models.Project{{ID: "proj-1", TenantID: "tenant-1", Name: "Alpha", Active: true}}
	cached, err := json.Marshal(projects)
	require.NoError(t, err)

	rmock.ExpectGet("projects:tenant-1").RedisNil()
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1").
		WillReturnRows(projectRows("Alpha"))
	rmock.ExpectSet("projects:tenant-1", cached, 5*time.Minute).SetVal("OK")

	got, err := s.ListProjects(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, projects, got)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

// ==========================
// Resolver Tests
// ==========================

func TestStore_ResolveProject_ExactMatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "Alpha").
		WillReturnRows(projectRows("Alpha"))

	project, candidates, err := s.ResolveProject(context.Background(), "tenant-1", "Alpha", "Alpha")
	require.NoError(t, err)
	assert.Nil(t, candidates)
	require.NotNil(t, project)
	assert.Equal(t, "proj-1", project.ID)
}

func TestStore_ResolveProject_AmbiguousIsTerminal(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "Alpha").
		WillReturnRows(projectRows("Alpha", "ALPHA"))

	project, candidates, err := s.ResolveProject(context.Background(), "tenant-1", "Alpha", "Alpha")
	require.NoError(t, err)
	assert.Nil(t, project)
	assert.Len(t, candidates, 2, "two case-variant matches must surface as ambiguity, not fall through")
}

func TestStore_ResolveProject_PrefixStripped(t *testing.T) {
	s, mock := newMockStore(t)

	// Exact and raw lookups miss, the prefix-stripped lookup hits.
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "projeto Alpha").
		WillReturnRows(projectRows())
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "Alpha").
		WillReturnRows(projectRows("Alpha"))

	project, candidates, err := s.ResolveProject(context.Background(), "tenant-1", "projeto Alpha", "projeto Alpha")
	require.NoError(t, err)
	assert.Nil(t, candidates)
	require.NotNil(t, project)
	assert.Equal(t, "Alpha", project.Name)
}

func TestStore_ResolveProject_FoldedScanFallback(t *testing.T) {
	s, mock := newMockStore(t)

	// Every exact-style lookup misses, the table scan folds accents.
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "Expansao").
		WillReturnRows(projectRows())
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1").
		WillReturnRows(projectRows("Expansão"))

	project, candidates, err := s.ResolveProject(context.Background(), "tenant-1", "Expansao", "Expansao")
	require.NoError(t, err)
	assert.Nil(t, candidates)
	require.NotNil(t, project)
	assert.Equal(t, "Expansão", project.Name)
}

func TestStore_ResolveProject_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1", "Gamma").
		WillReturnRows(projectRows())
	mock.ExpectQuery(`SELECT id, tenant_id, name, active FROM projects`).
		WithArgs("tenant-1").
		WillReturnRows(projectRows("Alpha"))

	project, candidates, err := s.ResolveProject(context.Background(), "tenant-1", "Gamma", "Gamma")
	require.NoError(t, err)
	assert.Nil(t, project)
	assert.Nil(t, candidates)
}
