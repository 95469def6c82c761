// internal/common/errors/issues.go
package errors

import (
	"fmt"
	"strings"
)

// ==========================
// Plan Validation Issues
// ==========================

// IssueCode identifies one category of user-facing plan problem. Issues are
// accumulated, never thrown: every stage reports the complete set it found.
type IssueCode string

const (
	IssueAIServiceFailed    IssueCode = "AI_SERVICE_FAILED"
	IssueAIResponseInvalid  IssueCode = "AI_RESPONSE_INVALID"
	IssueDateRangeMissing   IssueCode = "DATE_RANGE_MISSING"
	IssueEmptyDateRange     IssueCode = "EMPTY_DATE_RANGE"
	IssueIntervalNoProject  IssueCode = "INTERVAL_NO_PROJECT"
	IssueProjectNotFound    IssueCode = "PROJECT_NOT_FOUND"
	IssueProjectAmbiguous   IssueCode = "PROJECT_AMBIGUOUS"
	IssueNotAuthorized      IssueCode = "NOT_AUTHORIZED"
	IssueNotProjectMember   IssueCode = "NOT_PROJECT_MEMBER"
	IssueInvalidTimeRange   IssueCode = "INVALID_TIME_RANGE"
	IssueProjectHasNoTasks  IssueCode = "PROJECT_HAS_NO_TASKS"
	IssueNoLocation         IssueCode = "NO_LOCATION"
	IssueOverlappingRanges  IssueCode = "OVERLAPPING_RANGES"
	IssueOverlapsExisting   IssueCode = "OVERLAPS_EXISTING"
	IssueDateLocked         IssueCode = "DATE_LOCKED"
	IssueExistingUnreadable IssueCode = "EXISTING_TIME_UNPARSEABLE"
	IssueDailyCapExceeded   IssueCode = "DAILY_CAP_EXCEEDED"
	IssueBreakRequired      IssueCode = "BREAK_REQUIRED"
)

// Issue is one accumulated validation error or warning. Message is the
// user-facing rendering; the contextual fields let presentation layers
// localize or reformat without re-parsing the message.
type Issue struct {
	Code      IssueCode `json:"code"`
	Message   string    `json:"message"`
	Date      string    `json:"date,omitempty"`
	TimeRange string    `json:"time_range,omitempty"`
	Project   string    `json:"project,omitempty"`
}

// ==========================
// Issue Constructors
// ==========================

func NewAIServiceFailedIssue(detail string) Issue {
	msg := "The scheduling assistant could not process the request."
	if detail != "" {
		msg = fmt.Sprintf("The scheduling assistant could not process the request: %s", detail)
	}
	return Issue{Code: IssueAIServiceFailed, Message: msg}
}

func NewAIResponseInvalidIssue() Issue {
	return Issue{
		Code:    IssueAIResponseInvalid,
		Message: "The scheduling assistant returned a response that could not be understood.",
	}
}

func NewDateRangeMissingIssue() Issue {
	return Issue{
		Code:    IssueDateRangeMissing,
		Message: "Provide a date range or 'last N workdays'.",
	}
}

func NewEmptyDateRangeIssue() Issue {
	return Issue{
		Code:    IssueEmptyDateRange,
		Message: "The requested date range contains no matching days.",
	}
}

func NewIntervalNoProjectIssue(timeRange string) Issue {
	return Issue{
		Code:      IssueIntervalNoProject,
		Message:   fmt.Sprintf("No project could be resolved for time range %s.", timeRange),
		TimeRange: timeRange,
	}
}

func NewProjectNotFoundIssue(label string) Issue {
	return Issue{
		Code:    IssueProjectNotFound,
		Message: fmt.Sprintf("Project %q was not found.", label),
		Project: label,
	}
}

func NewProjectAmbiguousIssue(label string, candidates []string) Issue {
	return Issue{
		Code:    IssueProjectAmbiguous,
		Message: fmt.Sprintf("Project %q is ambiguous, matches: %s.", label, strings.Join(candidates, ", ")),
		Project: label,
	}
}

func NewNotAuthorizedIssue() Issue {
	return Issue{
		Code:    IssueNotAuthorized,
		Message: "You are not allowed to create timesheets.",
	}
}

func NewNotProjectMemberIssue(project string) Issue {
	return Issue{
		Code:    IssueNotProjectMember,
		Message: fmt.Sprintf("Target user is not a member of project %s.", project),
		Project: project,
	}
}

func NewInvalidTimeRangeIssue(date, timeRange string) Issue {
	return Issue{
		Code:      IssueInvalidTimeRange,
		Message:   fmt.Sprintf("Invalid time range %s on %s.", timeRange, date),
		Date:      date,
		TimeRange: timeRange,
	}
}

func NewProjectHasNoTasksIssue(project string) Issue {
	return Issue{
		Code:    IssueProjectHasNoTasks,
		Message: fmt.Sprintf("Project %s has no tasks.", project),
		Project: project,
	}
}

func NewNoLocationIssue(date string) Issue {
	return Issue{
		Code:    IssueNoLocation,
		Message: fmt.Sprintf("No location could be resolved for entry on %s.", date),
		Date:    date,
	}
}

func NewOverlappingRangesIssue(date string) Issue {
	return Issue{
		Code:    IssueOverlappingRanges,
		Message: fmt.Sprintf("Overlapping time ranges detected on %s.", date),
		Date:    date,
	}
}

func NewOverlapsExistingIssue(date, timeRange string) Issue {
	return Issue{
		Code:      IssueOverlapsExisting,
		Message:   fmt.Sprintf("Time range %s overlaps an existing entry on %s.", timeRange, date),
		Date:      date,
		TimeRange: timeRange,
	}
}

func NewDateLockedIssue(date string) Issue {
	return Issue{
		Code:    IssueDateLocked,
		Message: fmt.Sprintf("Date %s is locked by approved/closed entries.", date),
		Date:    date,
	}
}

func NewExistingUnreadableIssue(date string) Issue {
	return Issue{
		Code:    IssueExistingUnreadable,
		Message: fmt.Sprintf("An existing entry on %s has missing or unparseable time data.", date),
		Date:    date,
	}
}

func NewDailyCapExceededIssue(date string, capHours float64) Issue {
	return Issue{
		Code:    IssueDailyCapExceeded,
		Message: fmt.Sprintf("Daily total exceeds %g hours on %s.", capHours, date),
		Date:    date,
	}
}

func NewBreakRequiredIssue(date string, afterHours float64, minMinutes int) Issue {
	return Issue{
		Code:    IssueBreakRequired,
		Message: fmt.Sprintf("Continuous work on %s exceeds %g hours without a %d-minute break.", date, afterHours, minMinutes),
		Date:    date,
	}
}

// Messages flattens a list of issues into user-facing strings.
func Messages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Message)
	}
	return out
}
