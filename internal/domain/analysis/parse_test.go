package analysis

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseReply_WholeObject(t *testing.T) {
	text := `{"breed":"Gir","confidence":0.82,"health_score":74,"health_issues":["mild tick load"],"recommendations":["deworm"]}`
	got := ParseReply(text)

	want := Result{
		Breed:           "Gir",
		Confidence:      0.82,
		HealthScore:     74,
		HealthIssues:    []string{"mild tick load"},
		Recommendations: []string{"deworm"},
	}
	if got.Outcome != OutcomeParsed {
		t.Fatalf("outcome = %s", got.Outcome)
	}
	if !reflect.DeepEqual(got.Result, want) {
		t.Fatalf("result = %+v", got.Result)
	}
	if got.Fallback() {
		t.Fatal("parsed reply reported as fallback")
	}
}

func TestParseReply_EmbeddedObject(t *testing.T) {
	text := "Here is the result: {\"breed\":\"Murrah\",\"confidence\":0.9,\"health_score\":80,\"health_issues\":[],\"recommendations\":[]}"
	got := ParseReply(text)
	if got.Outcome != OutcomeParsed {
		t.Fatalf("outcome = %s", got.Outcome)
	}
	if got.Result.Breed != "Murrah" || got.Result.Confidence != 0.9 || got.Result.HealthScore != 80 {
		t.Fatalf("result = %+v", got.Result)
	}
	if got.Result.HealthIssues == nil || got.Result.Recommendations == nil {
		t.Fatal("lists must be non-nil")
	}
}

func TestParseReply_MarkdownFence(t *testing.T) {
	text := "```json\n{\"breed\": \"Sahiwal\", \"health_issues\": [\"limp\"]}\n```"
	got := ParseReply(text)
	if got.Outcome != OutcomeParsed || got.Result.Breed != "Sahiwal" {
		t.Fatalf("got %+v", got)
	}
	if !reflect.DeepEqual(got.Result.HealthIssues, []string{"limp"}) {
		t.Fatalf("issues = %v", got.Result.HealthIssues)
	}
}

func TestParseReply_Defaults(t *testing.T) {
	got := ParseReply(`{}`)
	want := Result{
		Breed:           "Unknown",
		Confidence:      0.0,
		HealthScore:     50,
		HealthIssues:    []string{},
		Recommendations: []string{},
	}
	if got.Outcome != OutcomeParsed {
		t.Fatalf("outcome = %s", got.Outcome)
	}
	if !reflect.DeepEqual(got.Result, want) {
		t.Fatalf("result = %+v", got.Result)
	}
}

func TestParseReply_LenientFields(t *testing.T) {
	text := `{"breed":null,"confidence":"0.75","health_score":88.6,"health_issues":"none visible","recommendations":[1,"rest",null]}`
	got := ParseReply(text)
	want := Result{
		Breed:           "Unknown",
		Confidence:      0.75,
		HealthScore:     89,
		HealthIssues:    []string{"none visible"},
		Recommendations: []string{"1", "rest"},
	}
	if !reflect.DeepEqual(got.Result, want) {
		t.Fatalf("result = %+v", got.Result)
	}
}

func TestParseReply_Unparseable(t *testing.T) {
	cases := []string{
		"",
		"I cannot identify the animal in this picture.",
		"} backwards {",
		"{not json at all}",
		"null",
		`["breed","Gir"]`,
	}
	for _, text := range cases {
		got := ParseReply(text)
		if got.Outcome != OutcomeUnparseable {
			t.Errorf("%q: outcome = %s", text, got.Outcome)
		}
		if !reflect.DeepEqual(got.Result, FallbackUnparseable()) {
			t.Errorf("%q: result = %+v", text, got.Result)
		}
	}
}

func TestUpstreamFailure(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	got := UpstreamFailure(cause)

	want := Result{
		Breed:           "Unknown",
		Confidence:      0.0,
		HealthScore:     50,
		HealthIssues:    []string{"Analysis error"},
		Recommendations: []string{"Please try again or consult a veterinarian"},
	}
	if got.Outcome != OutcomeUpstreamError {
		t.Fatalf("outcome = %s", got.Outcome)
	}
	if !reflect.DeepEqual(got.Result, want) {
		t.Fatalf("result = %+v", got.Result)
	}
	if !errors.Is(got.Err, ErrUpstreamCall) {
		t.Fatalf("err = %v", got.Err)
	}
}

func TestFallbacksAreDistinctAndFresh(t *testing.T) {
	a, b := FallbackUnparseable(), FallbackUpstream()
	if reflect.DeepEqual(a, b) {
		t.Fatal("fallbacks must differ")
	}
	a.HealthIssues[0] = "changed"
	if FallbackUnparseable().HealthIssues[0] != "Could not analyze health" {
		t.Fatal("fallback shares backing array")
	}
}

func TestImageDataURL(t *testing.T) {
	img := Image{MimeType: "image/png", Base64: "AAAA"}
	if got := img.DataURL(); got != "data:image/png;base64,AAAA" {
		t.Fatalf("DataURL = %q", got)
	}
}
