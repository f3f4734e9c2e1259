// Package search implements the offer query engine: structured filtering,
// full-text relevance ranking and keyset pagination over the SQLite store.
package search

import (
	"strings"

	"github.com/unijobs/unijobs/pkg/core"
)

// Predicate is a SQL condition fragment with its bind arguments. Fragments
// are combined with And/Or and always parameterized, never interpolated.
type Predicate struct {
	SQL  string
	Args []any
}

// And combines predicates conjunctively. Empty input yields a tautology.
func And(preds ...Predicate) Predicate {
	return combine(preds, " AND ", "1=1")
}

// Or combines predicates disjunctively.
func Or(preds ...Predicate) Predicate {
	return combine(preds, " OR ", "1=0")
}

func combine(preds []Predicate, sep, empty string) Predicate {
	switch len(preds) {
	case 0:
		return Predicate{SQL: empty}
	case 1:
		return preds[0]
	}
	parts := make([]string, len(preds))
	var args []any
	for i, p := range preds {
		parts[i] = "(" + p.SQL + ")"
		args = append(args, p.Args...)
	}
	return Predicate{SQL: strings.Join(parts, sep), Args: args}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CompileFilters translates structured filters into predicates over the
// offers table (aliased "o"). Filters are independent and conjunctive.
func CompileFilters(f core.SearchFilters) []Predicate {
	var preds []Predicate

	if len(f.JobTypes) > 0 {
		args := make([]any, len(f.JobTypes))
		for i, jt := range f.JobTypes {
			args[i] = jt
		}
		preds = append(preds, Predicate{
			SQL:  "o.job_type IN (" + placeholders(len(args)) + ")",
			Args: args,
		})
	}

	// An offer matches a duration bound when its own, possibly open-ended,
	// duration range overlaps it. A missing bound on the offer side counts
	// as unbounded.
	if f.JobMinDuration != nil {
		v := *f.JobMinDuration
		preds = append(preds, Predicate{
			SQL: `o.job_min_duration IS NULL
				OR o.job_min_duration >= ?
				OR (o.job_min_duration < ? AND (o.job_max_duration IS NULL OR o.job_max_duration >= ?))`,
			Args: []any{v, v, v},
		})
	}
	if f.JobMaxDuration != nil {
		v := *f.JobMaxDuration
		preds = append(preds, Predicate{
			SQL: `o.job_max_duration IS NULL
				OR o.job_max_duration <= ?
				OR (o.job_max_duration > ? AND (o.job_min_duration IS NULL OR o.job_min_duration <= ?))`,
			Args: []any{v, v, v},
		})
	}

	if len(f.Fields) > 0 {
		preds = append(preds, setIntersects("o.fields", f.Fields))
	}
	if len(f.Technologies) > 0 {
		preds = append(preds, setIntersects("o.technologies", f.Technologies))
	}

	return preds
}

// setIntersects matches offers whose JSON array column shares at least one
// value with the requested set.
func setIntersects(column string, values []string) Predicate {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Predicate{
		SQL: "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value IN (" +
			placeholders(len(args)) + "))",
		Args: args,
	}
}
