// internal/pipeline/plan/intervals.go
package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	planerrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/textfold"
	"timesheet-planner/internal/models"
)

// One pattern for every time window in the prompt: an optional break
// keyword, HH:MM-HH:MM, then whatever trails it on the same line up to
// the next window is treated as the inline label.
var intervalRe = regexp.MustCompile(`(?i)(break|pausa|lunch|almoco|almoço)?[ \t]*\b(\d{1,2}:\d{2})[ \t]*[-–][ \t]*(\d{1,2}:\d{2})`)

var breakLabelWords = []string{"break", "pausa", "lunch", "almoco"}

// Bilingual label lines, shared with the global-fallback scan.
var projectLabelLineRe = regexp.MustCompile(`(?im)^[ \t]*(?:project|projeto)[ \t]*[:=][ \t]*(.+)$`)

// Builder-style bare project line: "projeto Alpha" without a separator.
var builderProjectLineRe = regexp.MustCompile(`(?im)^[ \t]*(?:project|projeto)[ \t]+([^:=\n][^\n]*)$`)

// extractIntervals parses every time window out of the prompt and merges
// in the intent's structured schedule and breaks, de-duplicated by
// (start, end, project, is_break). A work interval that ends up with no
// project label at all is a hard error naming its range.
func extractIntervals(req *Request) ([]models.Interval, []planerrors.Issue) {
	intentHint, fallback, builderLine := projectSources(req)

	var (
		intervals []models.Interval
		issues    []planerrors.Issue
		seen      = map[string]bool{}
	)

	add := func(iv models.Interval) {
		key := iv.StartTime + "|" + iv.EndTime + "|" + iv.ProjectKey + "|" + strconv.FormatBool(iv.IsBreak)
		if seen[key] {
			return
		}
		seen[key] = true
		intervals = append(intervals, iv)
	}

	matches := intervalRe.FindAllStringSubmatchIndex(req.Prompt, -1)
	for i, m := range matches {
		keyword := submatch(req.Prompt, m, 1)
		start := normalizeClock(submatch(req.Prompt, m, 2))
		end := normalizeClock(submatch(req.Prompt, m, 3))
		label := trailingLabel(req.Prompt, m[1], nextMatchStart(matches, i))

		if keyword != "" || isBreakLabel(label) {
			add(models.Interval{StartTime: start, EndTime: end, IsBreak: true})
			continue
		}

		raw := label
		name := textfold.StripQuotes(textfold.NormalizeQuotes(strings.TrimSpace(label)))
		if intentHint != "" {
			name, raw = intentHint, intentHint
		} else if name == "" {
			if fallback != "" {
				name, raw = fallback, fallback
			} else if builderLine != "" {
				name, raw = builderLine, builderLine
			}
		}
		if name == "" {
			issues = append(issues, planerrors.NewIntervalNoProjectIssue(fmt.Sprintf("%s-%s", start, end)))
			continue
		}
		add(models.Interval{
			StartTime:   start,
			EndTime:     end,
			ProjectName: name,
			ProjectKey:  strings.ToLower(name),
			ProjectRaw:  raw,
		})
	}

	if req.Intent != nil {
		for _, block := range req.Intent.Schedule {
			name := strings.TrimSpace(block.Project)
			if name == "" {
				name = intentHint
			}
			if name == "" {
				name = fallback
			}
			start := normalizeClock(block.StartTime)
			end := normalizeClock(block.EndTime)
			if name == "" {
				issues = append(issues, planerrors.NewIntervalNoProjectIssue(fmt.Sprintf("%s-%s", start, end)))
				continue
			}
			add(models.Interval{
				StartTime:   start,
				EndTime:     end,
				ProjectName: name,
				ProjectKey:  strings.ToLower(name),
				ProjectRaw:  name,
				Notes:       block.Notes,
			})
		}
		for _, block := range req.Intent.Breaks {
			add(models.Interval{
				StartTime: normalizeClock(block.StartTime),
				EndTime:   normalizeClock(block.EndTime),
				IsBreak:   true,
			})
		}
	}

	return intervals, issues
}

// projectSources computes the three textual fallbacks an interval without
// an inline label can draw its project from.
func projectSources(req *Request) (intentHint, fallback, builderLine string) {
	if req.Intent != nil {
		intentHint = strings.TrimSpace(req.Intent.Project)
	}
	if m := projectLabelLineRe.FindStringSubmatch(req.Prompt); m != nil {
		fallback = textfold.StripQuotes(textfold.NormalizeQuotes(strings.TrimSpace(m[1])))
	}
	if m := builderProjectLineRe.FindStringSubmatch(req.Prompt); m != nil {
		builderLine = textfold.StripQuotes(textfold.NormalizeQuotes(strings.TrimSpace(m[1])))
	}
	return intentHint, fallback, builderLine
}

func submatch(s string, m []int, group int) string {
	lo, hi := m[2*group], m[2*group+1]
	if lo < 0 {
		return ""
	}
	return s[lo:hi]
}

func nextMatchStart(matches [][]int, i int) int {
	if i+1 < len(matches) {
		return matches[i+1][0]
	}
	return -1
}

// trailingLabel captures the text between a time window and the next one
// (or the end of its line), stripped of separator punctuation.
func trailingLabel(prompt string, matchEnd, nextStart int) string {
	end := len(prompt)
	if nl := strings.IndexByte(prompt[matchEnd:], '\n'); nl >= 0 {
		end = matchEnd + nl
	}
	if nextStart >= 0 && nextStart < end {
		end = nextStart
	}
	label := prompt[matchEnd:end]
	label = strings.Trim(label, " \t,;-–()")
	return label
}

func isBreakLabel(label string) bool {
	folded := textfold.Fold(label)
	for _, word := range breakLabelWords {
		if strings.Contains(folded, word) {
			return true
		}
	}
	return false
}

// normalizeClock pads single-digit hours so "9:00" and "09:00" share a
// de-duplication key.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return s
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d:%s", h, parts[1])
}
