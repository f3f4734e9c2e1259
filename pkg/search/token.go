package search

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unijobs/unijobs/pkg/core"
)

// ErrInvalidToken is returned when a continuation token cannot be decoded or
// fails validation. API handlers map it to 422.
var ErrInvalidToken = errors.New("invalid continuation token")

// Token is a decoded continuation token. It records everything needed to
// resume a paginated query exactly where the previous page stopped: the last
// returned offer's identity and sort keys, plus the query itself (search
// text and filters), which later pages reuse verbatim.
type Token struct {
	// ID of the last offer on the previous page.
	ID string

	// Score of that offer. Present exactly when Value is present; relevance
	// only exists for full-text searches.
	Score *float64

	// SortField, SortValue and SortDescending describe the secondary sort:
	// the field name, the last offer's encoded key and the direction.
	SortField      string
	SortValue      string
	SortDescending bool

	// Value is the full-text search text, empty for listing queries.
	Value string

	// Filters are the structured filters of the original request.
	Filters core.SearchFilters
}

// tokenWire is the JSON shape of an encoded token. Score and SortValue are
// kept raw during decoding so values written by lenient clients (numeric
// strings, for instance) can be coerced instead of rejected.
type tokenWire struct {
	ID             string             `json:"id"`
	Score          json.RawMessage    `json:"score,omitempty"`
	SortField      string             `json:"sortField"`
	SortValue      json.RawMessage    `json:"sortValue"`
	SortDescending *bool              `json:"sortDescending"`
	Value          string             `json:"value,omitempty"`
	Filters        core.SearchFilters `json:"filters,omitempty"`
}

// Encode serializes the token as base64url-encoded JSON.
func (t Token) Encode() (string, error) {
	wire := tokenWire{
		ID:             t.ID,
		SortField:      t.SortField,
		SortDescending: &t.SortDescending,
		Value:          t.Value,
		Filters:        t.Filters,
	}
	sortValue, err := json.Marshal(t.SortValue)
	if err != nil {
		return "", fmt.Errorf("encoding sort value: %w", err)
	}
	wire.SortValue = sortValue
	if t.Score != nil {
		score, err := json.Marshal(*t.Score)
		if err != nil {
			return "", fmt.Errorf("encoding score: %w", err)
		}
		wire.Score = score
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encoding token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken parses and validates a continuation token. All failures wrap
// ErrInvalidToken.
func DecodeToken(s string) (*Token, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: not base64url", ErrInvalidToken)
	}

	var wire tokenWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidToken)
	}

	if wire.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidToken)
	}
	field, ok := sortableFields[wire.SortField]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidToken, wire.SortField)
	}
	if wire.SortDescending == nil {
		return nil, fmt.Errorf("%w: missing sortDescending", ErrInvalidToken)
	}
	if len(wire.SortValue) == 0 {
		return nil, fmt.Errorf("%w: missing sortValue", ErrInvalidToken)
	}

	sortValue, err := coerceString(wire.SortValue)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed sortValue", ErrInvalidToken)
	}
	if field.Kind == kindDate {
		if _, err := time.Parse(time.RFC3339, sortValue); err != nil {
			return nil, fmt.Errorf("%w: sortValue is not a valid date", ErrInvalidToken)
		}
	}

	token := &Token{
		ID:             wire.ID,
		SortField:      wire.SortField,
		SortValue:      sortValue,
		SortDescending: *wire.SortDescending,
		// Whitespace-only search text is empty search text; trimming here
		// keeps the score/value consistency check below authoritative.
		Value:   strings.TrimSpace(wire.Value),
		Filters: wire.Filters,
	}

	if len(wire.Score) > 0 {
		score, err := coerceFloat(wire.Score)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed score", ErrInvalidToken)
		}
		if score < 0 {
			return nil, fmt.Errorf("%w: negative score", ErrInvalidToken)
		}
		token.Score = &score
	}

	// Relevance scores exist only for full-text searches, so a token carries
	// a score exactly when it carries search text.
	if (token.Score != nil) != (token.Value != "") {
		return nil, fmt.Errorf("%w: score and value must be present together", ErrInvalidToken)
	}

	if err := token.Filters.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return token, nil
}

// coerceString accepts a JSON string or any scalar, returning its string form.
func coerceString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("neither string nor number")
}

// coerceFloat accepts a JSON number or a numeric string.
func coerceFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("neither number nor numeric string")
}
