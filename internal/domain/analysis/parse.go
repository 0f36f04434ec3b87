package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultBreed       = "Unknown"
	defaultHealthScore = 50
)

// FallbackUnparseable is returned when the model reply holds no JSON object.
func FallbackUnparseable() Result {
	return Result{
		Breed:           defaultBreed,
		Confidence:      0.0,
		HealthScore:     defaultHealthScore,
		HealthIssues:    []string{"Could not analyze health"},
		Recommendations: []string{"Please consult a veterinarian for accurate assessment"},
	}
}

// FallbackUpstream is returned when the inference call itself fails.
func FallbackUpstream() Result {
	return Result{
		Breed:           defaultBreed,
		Confidence:      0.0,
		HealthScore:     defaultHealthScore,
		HealthIssues:    []string{"Analysis error"},
		Recommendations: []string{"Please try again or consult a veterinarian"},
	}
}

// UpstreamFailure wraps a failed inference call into a Reply.
func UpstreamFailure(err error) Reply {
	return Reply{
		Outcome: OutcomeUpstreamError,
		Result:  FallbackUpstream(),
		Err:     fmt.Errorf("%w: %v", ErrUpstreamCall, err),
	}
}

// ParseReply extracts a Result from free model text in two stages:
// the whole text as a JSON object, then the span from the first '{'
// to the last '}'. Anything else yields FallbackUnparseable.
func ParseReply(text string) Reply {
	if r, ok := decodeObject(text); ok {
		return Reply{Outcome: OutcomeParsed, Result: r}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if r, ok := decodeObject(text[start : end+1]); ok {
			return Reply{Outcome: OutcomeParsed, Result: r}
		}
	}

	return Reply{Outcome: OutcomeUnparseable, Result: FallbackUnparseable()}
}

// decodeObject parses s as a JSON object and fills absent fields with defaults.
func decodeObject(s string) (Result, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil || fields == nil {
		return Result{}, false
	}

	r := Result{
		Breed:           defaultBreed,
		HealthScore:     defaultHealthScore,
		HealthIssues:    []string{},
		Recommendations: []string{},
	}
	if v, ok := fields["breed"]; ok {
		if b, ok := asString(v); ok {
			r.Breed = b
		}
	}
	if v, ok := fields["confidence"]; ok {
		if f, ok := asFloat(v); ok {
			r.Confidence = f
		}
	}
	if v, ok := fields["health_score"]; ok {
		if f, ok := asFloat(v); ok {
			r.HealthScore = int(math.Round(f))
		}
	}
	if v, ok := fields["health_issues"]; ok {
		r.HealthIssues = asStrings(v)
	}
	if v, ok := fields["recommendations"]; ok {
		r.Recommendations = asStrings(v)
	}
	return r, true
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// asFloat accepts JSON numbers and numeric strings ("0.85").
func asFloat(raw json.RawMessage) (float64, bool) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// asStrings accepts a list (non-string items are stringified) or a single string.
func asStrings(raw json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		if s, ok := asString(raw); ok {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch t := it.(type) {
		case nil:
			continue
		case string:
			out = append(out, t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			out = append(out, string(b))
		}
	}
	return out
}
