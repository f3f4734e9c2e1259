package search

import (
	"fmt"
	"strings"

	"github.com/unijobs/unijobs/pkg/core"
	"github.com/unijobs/unijobs/pkg/storage"
)

// scoreExpr is the relevance score of a matched offer: bm25 negated so that
// higher means more relevant and all values are non-negative. The title
// column is weighted double. SQLite does not allow SELECT aliases in WHERE,
// so the expression is repeated wherever the score is compared.
const scoreExpr = "-bm25(offers_fts, 10.0, 5.0, 5.0, 5.0, 5.0, 5.0)"

// MatchQuery converts free-form search text into an FTS5 MATCH expression.
// Each whitespace-separated term is double-quoted, which keeps FTS5 operator
// characters in user input inert, and terms are joined with OR so any
// matching term qualifies an offer.
func MatchQuery(value string) string {
	terms := strings.Fields(value)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// request is a fully resolved page query: validation and defaulting have
// already happened in the service layer.
type request struct {
	Value          string
	Filters        core.SearchFilters
	Visibility     Visibility
	SortField      string
	SortDescending bool
	After          *Token
	Limit          int
	Now            string
}

// keysetLevel is one level of the pagination tie-break cascade: an ordered
// expression, its direction and the last page's value for it.
type keysetLevel struct {
	expr string
	desc bool
	val  any
}

// keysetPredicate builds the resume condition for a keyset cascade: a row
// qualifies when it sorts strictly after the recorded position at some level
// while matching it exactly on every earlier level.
func keysetPredicate(levels []keysetLevel) Predicate {
	alts := make([]Predicate, 0, len(levels))
	for i, level := range levels {
		conj := make([]Predicate, 0, i+1)
		for _, prev := range levels[:i] {
			conj = append(conj, Predicate{SQL: prev.expr + " = ?", Args: []any{prev.val}})
		}
		op := " > "
		if level.desc {
			op = " < "
		}
		conj = append(conj, Predicate{SQL: level.expr + op + "?", Args: []any{level.val}})
		alts = append(alts, And(conj...))
	}
	return Or(alts...)
}

// buildQuery assembles the page SELECT. Listing and search queries share one
// shape: searches join the full-text index, select the real score and gain a
// leading score level in both ORDER BY and the resume cascade; listings
// select a constant zero score so row scanning is uniform.
func buildQuery(r request) (string, []any, error) {
	field, ok := sortableFields[r.SortField]
	if !ok {
		return "", nil, fmt.Errorf("unknown sort field %q", r.SortField)
	}
	sortExpr := field.Column
	if field.Kind == kindText {
		sortExpr += " COLLATE NOCASE"
	}

	searching := r.Value != ""
	scoreCol := "0.0"
	from := "FROM offers o"
	var preds []Predicate

	if searching {
		scoreCol = scoreExpr
		from = "FROM offers o JOIN offers_fts ON o.rowid = offers_fts.rowid"
		preds = append(preds, Predicate{SQL: "offers_fts MATCH ?", Args: []any{MatchQuery(r.Value)}})
	}
	preds = append(preds, r.Visibility.predicate(r.Now)...)
	preds = append(preds, CompileFilters(r.Filters)...)

	if r.After != nil {
		var levels []keysetLevel
		if searching {
			if r.After.Score == nil {
				return "", nil, fmt.Errorf("continuation token lacks a score for a search query")
			}
			levels = append(levels, keysetLevel{expr: scoreExpr, desc: true, val: *r.After.Score})
		}
		levels = append(levels,
			keysetLevel{expr: sortExpr, desc: r.SortDescending, val: r.After.SortValue},
			keysetLevel{expr: "o.id", desc: false, val: r.After.ID},
		)
		preds = append(preds, keysetPredicate(levels))
	}

	where := And(preds...)

	var order []string
	if searching {
		order = append(order, scoreExpr+" DESC")
	}
	dir := "ASC"
	if r.SortDescending {
		dir = "DESC"
	}
	order = append(order, sortExpr+" "+dir, "o.id ASC")

	query := "SELECT " + storage.OfferColumns + ", " + scoreCol + " AS score\n" +
		from + "\nWHERE " + where.SQL +
		"\nORDER BY " + strings.Join(order, ", ") +
		"\nLIMIT ?"
	args := append(where.Args, r.Limit)
	return query, args, nil
}
