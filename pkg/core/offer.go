// Package core defines the offer model and the enumerated vocabularies shared
// by the storage, search and API layers.
package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Limits on offer content, matching the published schema.
const (
	TitleMaxLength       = 90
	DescriptionMaxLength = 1500
	MinFields            = 2
	MaxFields            = 5
	MinTechnologies      = 1
	MaxTechnologies      = 7

	// OfferMaxLifetimeMonths bounds publishEndDate relative to publishDate.
	OfferMaxLifetimeMonths = 6
)

// Reasons an offer may be hidden.
const (
	HiddenReasonAdminRequest    = "ADMIN_REQUEST"
	HiddenReasonCompanyRequest  = "COMPANY_REQUEST"
	HiddenReasonCompanyBlocked  = "COMPANY_BLOCKED"
	HiddenReasonCompanyDisabled = "COMPANY_DISABLED"
)

// JobTypes enumerates the accepted values for an offer's jobType.
var JobTypes = []string{
	"FULL-TIME",
	"PART-TIME",
	"SUMMER INTERNSHIP",
	"CURRICULAR INTERNSHIP",
	"RESEARCH GRANT",
	"FREELANCE",
	"OTHER",
}

// FieldTypes enumerates the accepted values for an offer's fields.
var FieldTypes = []string{
	"BACKEND",
	"FRONTEND",
	"DEVOPS",
	"BLOCKCHAIN",
	"MACHINE LEARNING",
	"OTHER",
}

// TechnologyTypes enumerates the accepted values for an offer's technologies.
var TechnologyTypes = []string{
	"React",
	"Angular",
	"Vue",
	"Node.js",
	"Java",
	"C++",
	"C",
	"C#",
	"Clojure",
	"Go",
	"Haskell",
	"Spring Boot",
	"Android",
	"Flutter",
	"Dart",
	"PHP",
	"CSS",
	"Other",
}

// upperCaser folds enum input case-insensitively. Enum values are matched the
// way the API matches them: ignoring case but preserving the canonical
// spelling from the lists above.
var upperCaser = cases.Upper(language.English)

// canonicalEnum returns the canonical spelling for value within allowed,
// matching case-insensitively. The second result reports whether a match was
// found.
func canonicalEnum(value string, allowed []string) (string, bool) {
	folded := upperCaser.String(strings.TrimSpace(value))
	for _, a := range allowed {
		if upperCaser.String(a) == folded {
			return a, true
		}
	}
	return "", false
}

// ParseJobType canonicalizes a job type, case-insensitively.
func ParseJobType(value string) (string, error) {
	if v, ok := canonicalEnum(value, JobTypes); ok {
		return v, nil
	}
	return "", fmt.Errorf("invalid job type %q", value)
}

// ParseFieldType canonicalizes an offer field, case-insensitively.
func ParseFieldType(value string) (string, error) {
	if v, ok := canonicalEnum(value, FieldTypes); ok {
		return v, nil
	}
	return "", fmt.Errorf("invalid field %q", value)
}

// ParseTechnologyType canonicalizes a technology, case-insensitively.
func ParseTechnologyType(value string) (string, error) {
	if v, ok := canonicalEnum(value, TechnologyTypes); ok {
		return v, nil
	}
	return "", fmt.Errorf("invalid technology %q", value)
}

// Offer is a single job offer as stored and returned by the search API.
//
// ID is store-assigned and opaque to callers; its string form is totally
// ordered, which the pagination protocol relies on. PublishDate and
// PublishEndDate bound the window during which the offer is visible to
// unprivileged callers. JobMinDuration/JobMaxDuration are optional and
// open-ended (nil means unbounded on that side).
type Offer struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	PublishDate    time.Time  `json:"publishDate"`
	PublishEndDate time.Time  `json:"publishEndDate"`
	JobMinDuration *int       `json:"jobMinDuration,omitempty"`
	JobMaxDuration *int       `json:"jobMaxDuration,omitempty"`
	JobStartDate   *time.Time `json:"jobStartDate,omitempty"`
	Description    string     `json:"description"`
	Contacts       []string   `json:"contacts"`
	IsPaid         *bool      `json:"isPaid,omitempty"`
	Vacancies      *int       `json:"vacancies,omitempty"`
	JobType        string     `json:"jobType"`
	Fields         []string   `json:"fields"`
	Technologies   []string   `json:"technologies"`
	IsHidden       bool       `json:"isHidden"`
	HiddenReason   string     `json:"hiddenReason,omitempty"`
	AdminReason    string     `json:"adminReason,omitempty"`
	Owner          string     `json:"owner"`
	OwnerName      string     `json:"ownerName"`
	Location       string     `json:"location"`
	Requirements   []string   `json:"requirements,omitempty"`
}

// SearchHit is one offer returned by a query, together with the relevance
// score computed for it. Score is meaningful only for full-text searches;
// listing queries report it as zero and drop it before responding.
type SearchHit struct {
	Offer Offer
	Score float64
}

// SearchText returns the free text indexed for relevance scoring, column by
// column, in the order of the full-text index.
func (o *Offer) SearchText() (title, ownerName, jobType, fields, technologies, location string) {
	return o.Title,
		o.OwnerName,
		o.JobType,
		strings.Join(o.Fields, " "),
		strings.Join(o.Technologies, " "),
		o.Location
}

// Validate checks the offer's structural invariants before it is stored.
func (o *Offer) Validate() error {
	if o.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(o.Title) > TitleMaxLength {
		return fmt.Errorf("title exceeds %d characters", TitleMaxLength)
	}
	if o.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(o.Description) > DescriptionMaxLength {
		return fmt.Errorf("description exceeds %d characters", DescriptionMaxLength)
	}
	if o.PublishDate.IsZero() || o.PublishEndDate.IsZero() {
		return fmt.Errorf("publishDate and publishEndDate are required")
	}
	if !o.PublishDate.Before(o.PublishEndDate) {
		return fmt.Errorf("publishDate must be earlier than publishEndDate")
	}
	if o.PublishEndDate.Sub(o.PublishDate) > OfferMaxLifetimeMonths*30*24*time.Hour+12*24*time.Hour {
		return fmt.Errorf("offer lifetime exceeds %d months", OfferMaxLifetimeMonths)
	}
	if o.JobMaxDuration != nil && o.JobMinDuration == nil {
		return fmt.Errorf("jobMinDuration is required when jobMaxDuration is set")
	}
	if o.JobMinDuration != nil && o.JobMaxDuration != nil && *o.JobMaxDuration < *o.JobMinDuration {
		return fmt.Errorf("jobMaxDuration must not be smaller than jobMinDuration")
	}
	if len(o.Contacts) < 1 {
		return fmt.Errorf("at least one contact is required")
	}
	if _, err := ParseJobType(o.JobType); err != nil {
		return err
	}
	if len(o.Fields) < MinFields || len(o.Fields) > MaxFields {
		return fmt.Errorf("fields must have between %d and %d values", MinFields, MaxFields)
	}
	if err := validateEnumSet(o.Fields, ParseFieldType); err != nil {
		return err
	}
	if len(o.Technologies) < MinTechnologies || len(o.Technologies) > MaxTechnologies {
		return fmt.Errorf("technologies must have between %d and %d values", MinTechnologies, MaxTechnologies)
	}
	if err := validateEnumSet(o.Technologies, ParseTechnologyType); err != nil {
		return err
	}
	if o.Owner == "" || o.OwnerName == "" {
		return fmt.Errorf("owner and ownerName are required")
	}
	if o.Location == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}

// Normalize canonicalizes enum spellings and rounds timestamps to whole UTC
// seconds so that stored values, sort keys and token round-trips agree.
func (o *Offer) Normalize() error {
	jt, err := ParseJobType(o.JobType)
	if err != nil {
		return err
	}
	o.JobType = jt
	if o.Fields, err = canonicalizeSet(o.Fields, ParseFieldType); err != nil {
		return err
	}
	if o.Technologies, err = canonicalizeSet(o.Technologies, ParseTechnologyType); err != nil {
		return err
	}
	o.PublishDate = o.PublishDate.UTC().Truncate(time.Second)
	o.PublishEndDate = o.PublishEndDate.UTC().Truncate(time.Second)
	if o.JobStartDate != nil {
		t := o.JobStartDate.UTC().Truncate(time.Second)
		o.JobStartDate = &t
	}
	return nil
}

func validateEnumSet(values []string, parse func(string) (string, error)) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		canonical, err := parse(v)
		if err != nil {
			return err
		}
		if seen[canonical] {
			return fmt.Errorf("duplicate value %q", canonical)
		}
		seen[canonical] = true
	}
	return nil
}

func canonicalizeSet(values []string, parse func(string) (string, error)) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		canonical, err := parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out, nil
}
