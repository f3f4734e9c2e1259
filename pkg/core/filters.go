package core

import "fmt"

// SearchFilters are the structured filter parameters of a search request.
// They are embedded verbatim in continuation tokens so that later pages keep
// filtering exactly like the first one, regardless of what the caller sends
// alongside the token.
type SearchFilters struct {
	// JobTypes restricts results to offers whose jobType is one of these.
	JobTypes []string `json:"jobType,omitempty"`

	// JobMinDuration/JobMaxDuration describe the caller's duration constraint.
	// An offer matches when its own (possibly open-ended) duration range
	// overlaps the constraint.
	JobMinDuration *int `json:"jobMinDuration,omitempty"`
	JobMaxDuration *int `json:"jobMaxDuration,omitempty"`

	// Fields/Technologies match by set intersection: at least one requested
	// value must appear in the offer's set.
	Fields       []string `json:"fields,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return len(f.JobTypes) == 0 &&
		f.JobMinDuration == nil &&
		f.JobMaxDuration == nil &&
		len(f.Fields) == 0 &&
		len(f.Technologies) == 0
}

// Normalize canonicalizes enum spellings case-insensitively and rejects
// unknown values.
func (f *SearchFilters) Normalize() error {
	for i, jt := range f.JobTypes {
		canonical, err := ParseJobType(jt)
		if err != nil {
			return err
		}
		f.JobTypes[i] = canonical
	}
	for i, field := range f.Fields {
		canonical, err := ParseFieldType(field)
		if err != nil {
			return err
		}
		f.Fields[i] = canonical
	}
	for i, tech := range f.Technologies {
		canonical, err := ParseTechnologyType(tech)
		if err != nil {
			return err
		}
		f.Technologies[i] = canonical
	}
	if f.JobMinDuration != nil && *f.JobMinDuration < 0 {
		return fmt.Errorf("jobMinDuration must not be negative")
	}
	if f.JobMaxDuration != nil && *f.JobMaxDuration < 0 {
		return fmt.Errorf("jobMaxDuration must not be negative")
	}
	if f.JobMinDuration != nil && f.JobMaxDuration != nil && *f.JobMaxDuration < *f.JobMinDuration {
		return fmt.Errorf("jobMaxDuration must not be smaller than jobMinDuration")
	}
	return nil
}
