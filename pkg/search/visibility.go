package search

// Visibility controls which offers a request may see and how much of each
// offer is disclosed.
type Visibility struct {
	// ShowHidden includes hidden offers. Reserved for owner and admin
	// requests. The publish-window restriction applies regardless.
	ShowHidden bool

	// ShowAdminReason discloses the adminReason field. Admin requests only.
	ShowAdminReason bool
}

// predicate returns the visibility conditions for the offers table. now is
// the reference instant encoded with storage.FormatTime; stored timestamps
// use the same encoding, so string comparison is chronological comparison.
//
// Every query is restricted to offers whose publish window contains now;
// ShowHidden only lifts the non-hidden restriction.
func (v Visibility) predicate(now string) []Predicate {
	preds := []Predicate{{
		SQL:  "o.publish_date <= ? AND o.publish_end_date > ?",
		Args: []any{now, now},
	}}
	if !v.ShowHidden {
		preds = append(preds, Predicate{SQL: "o.is_hidden = 0"})
	}
	return preds
}
