// internal/models/directory.go
package models

import "time"

// Project is a tenant project row.
type Project struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// Task is one task inside a project.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Name           string     `json:"name"`
	Active         bool       `json:"active"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// Location is a tenant work location.
type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
