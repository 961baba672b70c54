package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// rawNullToken is the IMDb-style null marker that occasionally leaks from the
// raw dataset into model output. A filter value equal to it is treated as absent.
const rawNullToken = `\N`

const (
	SortByRating = "rating"
	SortByYear   = "year"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// DefaultLimit caps the result list when the translation omits a limit.
const DefaultLimit = 5

// FlexString is a string filter value that also accepts a JSON number,
// coercing it to its decimal string form. The model sometimes emits
// `"title_keywords": 1984` for year-like titles.
type FlexString string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// normalized returns the lowercase trimmed value. Empty, whitespace-only,
// and raw-null-token values normalize to "", meaning the filter is absent.
func (f FlexString) normalized() string {
	cleaned := strings.TrimSpace(string(f))
	if cleaned == "" || cleaned == rawNullToken {
		return ""
	}
	return strings.ToLower(cleaned)
}

// FilterSpec is the structured query produced by the translation step.
// Every field is optional; an absent field applies no constraint.
type FilterSpec struct {
	TitleKeywords FlexString `json:"title_keywords,omitempty"`
	Actor         FlexString `json:"actor,omitempty"`
	Director      FlexString `json:"director,omitempty"`
	Genre         FlexString `json:"genre,omitempty"`
	YearMin       *int       `json:"year_min,omitempty"`
	YearMax       *int       `json:"year_max,omitempty"`
	RatingMin     *float64   `json:"rating_min,omitempty"`
	SortBy        string     `json:"sort_by,omitempty"`
	SortOrder     string     `json:"sort_order,omitempty"`
	// Limit stays a raw JSON number: a non-integer or non-positive value
	// must disable truncation rather than fail or round.
	Limit json.Number `json:"limit,omitempty"`
}

// ParseFilterSpec decodes the translation output into a FilterSpec.
func ParseFilterSpec(raw string) (*FilterSpec, error) {
	var spec FilterSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ResolveLimit returns the effective truncation limit and whether truncation
// applies at all. Absent limit defaults to DefaultLimit; a non-positive or
// non-integer limit disables truncation.
func (s *FilterSpec) ResolveLimit() (int, bool) {
	if s.Limit == "" {
		return DefaultLimit, true
	}
	n, err := strconv.Atoi(s.Limit.String())
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
