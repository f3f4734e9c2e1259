package search

import (
	"github.com/unijobs/unijobs/pkg/core"
	"github.com/unijobs/unijobs/pkg/storage"
)

// DefaultSortField orders results by publish date when the caller does not
// choose a field; newest first.
const DefaultSortField = "publishDate"

type fieldKind int

const (
	kindDate fieldKind = iota
	kindText
)

// sortableField describes one column callers may sort by. Extract produces
// the canonical string encoding of an offer's sort key, the same encoding
// the column stores, so values recorded in continuation tokens compare
// against the column directly.
type sortableField struct {
	Column  string
	Kind    fieldKind
	Extract func(*core.Offer) string
}

// Only non-null columns are sortable: a nullable sort key would make the
// keyset comparison ambiguous at NULL boundaries.
var sortableFields = map[string]sortableField{
	"publishDate": {
		Column:  "o.publish_date",
		Kind:    kindDate,
		Extract: func(o *core.Offer) string { return storage.FormatTime(o.PublishDate) },
	},
	"publishEndDate": {
		Column:  "o.publish_end_date",
		Kind:    kindDate,
		Extract: func(o *core.Offer) string { return storage.FormatTime(o.PublishEndDate) },
	},
	"title": {
		Column:  "o.title",
		Kind:    kindText,
		Extract: func(o *core.Offer) string { return o.Title },
	},
	"location": {
		Column:  "o.location",
		Kind:    kindText,
		Extract: func(o *core.Offer) string { return o.Location },
	},
}

// SortableFields lists the field names callers may pass as sortBy.
func SortableFields() []string {
	names := make([]string, 0, len(sortableFields))
	for name := range sortableFields {
		names = append(names, name)
	}
	return names
}
