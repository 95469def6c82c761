// internal/common/errors/errors.go

// Package errors provides standardized error handling for the plan pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes for
// infrastructure-level failures.
type ErrorCode string

const (
	ErrCodeDirectoryQueryFailed  ErrorCode = "DIRECTORY_QUERY_FAILED"
	ErrCodeTimesheetQueryFailed  ErrorCode = "TIMESHEET_QUERY_FAILED"
	ErrCodeTimesheetInsertFailed ErrorCode = "TIMESHEET_INSERT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewDirectoryQueryFailedError creates a retryable directory read error.
func NewDirectoryQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryQueryFailed,
		Message:   "Tenant directory query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimesheetQueryFailedError creates a retryable timesheet read error.
func NewTimesheetQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimesheetQueryFailed,
		Message:   "Timesheet query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimesheetInsertFailedError creates a retryable timesheet write error.
func NewTimesheetInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimesheetInsertFailed,
		Message:   "Timesheet insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
