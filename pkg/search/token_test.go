package search

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/unijobs/unijobs/pkg/core"
)

func encodeRawToken(t *testing.T, payload string) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestTokenRoundTrip(t *testing.T) {
	score := 4.25
	lo := 2
	in := Token{
		ID:             "0193039f-1111-7000-8000-000000000001",
		Score:          &score,
		SortField:      "publishDate",
		SortValue:      "2019-11-22T10:00:00Z",
		SortDescending: true,
		Value:          "porto frontend",
		Filters: core.SearchFilters{
			JobTypes:       []string{"FULL-TIME"},
			JobMinDuration: &lo,
			Fields:         []string{"FRONTEND"},
		},
	}

	encoded, err := in.Encode()
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}

	out, err := DecodeToken(encoded)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if out.ID != in.ID || out.SortField != in.SortField || out.SortValue != in.SortValue {
		t.Errorf("decoded = %+v, want %+v", out, in)
	}
	if out.SortDescending != in.SortDescending || out.Value != in.Value {
		t.Errorf("decoded = %+v, want %+v", out, in)
	}
	if out.Score == nil || *out.Score != score {
		t.Errorf("score = %v, want %v", out.Score, score)
	}
	if len(out.Filters.JobTypes) != 1 || out.Filters.JobTypes[0] != "FULL-TIME" {
		t.Errorf("filters = %+v", out.Filters)
	}
	if out.Filters.JobMinDuration == nil || *out.Filters.JobMinDuration != 2 {
		t.Errorf("jobMinDuration = %v", out.Filters.JobMinDuration)
	}
}

func TestTokenRoundTripListing(t *testing.T) {
	in := Token{
		ID:             "0193039f-1111-7000-8000-000000000002",
		SortField:      "title",
		SortValue:      "Backend Engineer",
		SortDescending: false,
	}

	encoded, err := in.Encode()
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	out, err := DecodeToken(encoded)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if out.Score != nil {
		t.Errorf("score = %v, want nil", out.Score)
	}
	if out.SortValue != in.SortValue {
		t.Errorf("sortValue = %q, want %q", out.SortValue, in.SortValue)
	}
}

func TestDecodeTokenScoreAsNumericString(t *testing.T) {
	payload := `{"id":"x","score":"4.5","sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true,"value":"porto"}`
	token, err := DecodeToken(encodeRawToken(t, payload))
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if token.Score == nil || *token.Score != 4.5 {
		t.Errorf("score = %v, want 4.5", token.Score)
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		raw     string
	}{
		{name: "not base64", raw: "%%%not-base64%%%"},
		{name: "not json", payload: "{nope"},
		{name: "missing id", payload: `{"sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true}`},
		{name: "unknown sort field", payload: `{"id":"x","sortField":"salary","sortValue":"1","sortDescending":true}`},
		{name: "missing sortDescending", payload: `{"id":"x","sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z"}`},
		{name: "missing sortValue", payload: `{"id":"x","sortField":"publishDate","sortDescending":true}`},
		{name: "unparseable date sortValue", payload: `{"id":"x","sortField":"publishDate","sortValue":"yesterday","sortDescending":true}`},
		{name: "negative score", payload: `{"id":"x","score":-1,"sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true,"value":"porto"}`},
		{name: "non-numeric score", payload: `{"id":"x","score":"lots","sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true,"value":"porto"}`},
		{name: "score without value", payload: `{"id":"x","score":2,"sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true}`},
		{name: "score with blank value", payload: `{"id":"x","score":2,"sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true,"value":"   "}`},
		{name: "value without score", payload: `{"id":"x","sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true,"value":"porto"}`},
		{name: "unknown filter enum", payload: `{"id":"x","sortField":"publishDate","sortValue":"2019-11-22T10:00:00Z","sortDescending":true,"filters":{"jobType":["GIG"]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.raw
			if raw == "" {
				raw = encodeRawToken(t, tt.payload)
			}
			_, err := DecodeToken(raw)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestDecodeTokenToleratesPadding(t *testing.T) {
	in := Token{ID: "x", SortField: "location", SortValue: "Porto", SortDescending: false}
	encoded, err := in.Encode()
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if _, err := DecodeToken(encoded + "=="); err != nil {
		t.Errorf("decoding padded token: %v", err)
	}
}

func TestMatchQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"porto", `"porto"`},
		{"porto frontend", `"porto" OR "frontend"`},
		{"  spaced   out ", `"spaced" OR "out"`},
		{`c++ "quoted"`, `"c++" OR """quoted"""`},
		{"NEAR AND NOT", `"NEAR" OR "AND" OR "NOT"`},
	}
	for _, tt := range tests {
		if got := MatchQuery(tt.in); got != tt.want {
			t.Errorf("MatchQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
