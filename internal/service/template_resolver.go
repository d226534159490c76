package service

import (
	"context"
	"encoding/json"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/rs/zerolog"
)

// TemplateResolver builds the ordered, line-code-aware list of approval-step
// definitions: the active base chain plus any insert steps whose line set
// contains the document's line code, renumbered 1..N.
type TemplateResolver interface {
	Resolve(ctx context.Context, lineCode string) ([]model.ApprovalTemplate, error)
}

type templateResolver struct {
	templates repository.TemplateRepository
	logger    zerolog.Logger
}

func NewTemplateResolver(templates repository.TemplateRepository, logger zerolog.Logger) TemplateResolver {
	return &templateResolver{templates: templates, logger: logger}
}

func (r *templateResolver) Resolve(ctx context.Context, lineCode string) ([]model.ApprovalTemplate, error) {
	base, err := r.templates.ListActiveBase(ctx)
	if err != nil {
		return nil, err
	}
	// An empty base chain is a configuration problem the caller must handle;
	// it is never a crash here.
	if len(base) == 0 {
		r.logger.Warn().Str("line_code", lineCode).Msg("no active base approval templates configured")
		return nil, nil
	}

	inserts, err := r.templates.ListActiveInserts(ctx)
	if err != nil {
		return nil, err
	}

	applicable := inserts[:0:0]
	for _, t := range inserts {
		if lineApplies(t.AppliesToLines, lineCode) {
			applicable = append(applicable, t)
		}
	}
	if len(applicable) == 0 {
		return renumber(base), nil
	}

	// Group insert steps by anchor, then walk the base chain emitting each
	// base step followed by the inserts anchored to its original order.
	// A nil anchor means the head of the chain.
	byAnchor := make(map[int][]model.ApprovalTemplate, len(applicable))
	for _, t := range applicable {
		anchor := 0
		if t.InsertAfterStep != nil {
			anchor = *t.InsertAfterStep
		}
		byAnchor[anchor] = append(byAnchor[anchor], t)
	}

	resolved := make([]model.ApprovalTemplate, 0, len(base)+len(applicable))
	resolved = append(resolved, byAnchor[0]...)
	for _, b := range base {
		resolved = append(resolved, b)
		resolved = append(resolved, byAnchor[b.StepOrder]...)
	}

	return renumber(resolved), nil
}

// renumber assigns contiguous 1-based step orders in place of whatever the
// templates carried.
func renumber(templates []model.ApprovalTemplate) []model.ApprovalTemplate {
	out := make([]model.ApprovalTemplate, len(templates))
	copy(out, templates)
	for i := range out {
		out[i].StepOrder = i + 1
	}
	return out
}

// lineApplies is the single line-applicability predicate: it accepts the line
// set stored either as a JSON array, a JSON-encoded string holding a JSON
// array, or an inline comma-separated list. Parse failures mean "not
// applicable", never an error.
func lineApplies(raw, lineCode string) bool {
	set := parseLineSet(raw)
	return set[normalizeLine(lineCode)]
}

func parseLineSet(raw string) map[string]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var lines []string
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		// Double-encoded variant: a JSON string that itself contains the array.
		var inner string
		if err := json.Unmarshal([]byte(raw), &inner); err == nil {
			if err := json.Unmarshal([]byte(inner), &lines); err != nil {
				lines = nil
			}
		}
		if lines == nil {
			// Inline list fallback: "M1,M2" possibly wrapped in brackets.
			trimmed := strings.Trim(raw, "[]{}()")
			if trimmed == "" {
				return nil
			}
			lines = strings.Split(trimmed, ",")
		}
	}

	set := make(map[string]bool, len(lines))
	for _, l := range lines {
		l = normalizeLine(strings.Trim(strings.TrimSpace(l), `"'`))
		if l != "" {
			set[l] = true
		}
	}
	return set
}

func normalizeLine(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}
