// internal/directory/resolver.go
package directory

import (
	"context"
	"strings"

	"timesheet-planner/internal/common/textfold"
	"timesheet-planner/internal/models"
)

// ResolveProject maps a free-text label to exactly one project. Matcher
// strategies run in a fixed order, each returning zero, one, or many
// candidates; the first strategy yielding exactly one wins, and "many" is
// terminal ambiguity rather than a reason to try the next strategy.
//
// Return contract:
//   - (project, nil, nil)    resolved
//   - (nil, candidates, nil) ambiguous, candidates listed
//   - (nil, nil, nil)        not found by any strategy
//   - (nil, nil, err)        directory query failed
func (s *Store) ResolveProject(ctx context.Context, tenantID, label, raw string) (*models.Project, []models.Project, error) {
	label = strings.TrimSpace(label)

	type strategy func(context.Context) ([]models.Project, error)

	strategies := []strategy{
		func(ctx context.Context) ([]models.Project, error) {
			return s.FindProjectsByName(ctx, tenantID, label)
		},
		func(ctx context.Context) ([]models.Project, error) {
			if raw == "" || raw == label {
				return nil, nil
			}
			return s.FindProjectsByName(ctx, tenantID, raw)
		},
		func(ctx context.Context) ([]models.Project, error) {
			normalized := textfold.StripQuotes(textfold.NormalizeQuotes(label))
			if normalized == label {
				normalized = textfold.StripQuotes(textfold.NormalizeQuotes(raw))
				if normalized == raw || normalized == "" {
					return nil, nil
				}
			}
			return s.FindProjectsByName(ctx, tenantID, normalized)
		},
		func(ctx context.Context) ([]models.Project, error) {
			stripped := stripProjectPrefix(label)
			if stripped == label || stripped == "" {
				return nil, nil
			}
			return s.FindProjectsByName(ctx, tenantID, stripped)
		},
		func(ctx context.Context) ([]models.Project, error) {
			return s.foldedScan(ctx, tenantID, label)
		},
	}

	for _, try := range strategies {
		matches, err := try(ctx)
		if err != nil {
			return nil, nil, err
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return &matches[0], nil, nil
		default:
			return nil, matches, nil
		}
	}

	return nil, nil, nil
}

// foldedScan compares ASCII-folded lowercase names across the whole
// (cached) project table.
func (s *Store) foldedScan(ctx context.Context, tenantID, label string) ([]models.Project, error) {
	projects, err := s.ListProjects(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	want := textfold.Fold(strings.TrimSpace(label))
	var matches []models.Project
	for _, p := range projects {
		if textfold.Fold(p.Name) == want {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func stripProjectPrefix(label string) string {
	lower := strings.ToLower(label)
	for _, prefix := range []string{"project ", "projeto "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(label[len(prefix):])
		}
	}
	return label
}
