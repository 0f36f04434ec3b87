package analysis

import (
	"time"

	"github.com/bryanwahyu/livestock-vision/internal/domain/breeds"
)

// Result is what the inference model reports for one image.
type Result struct {
	Breed           string   `json:"breed"`
	Confidence      float64  `json:"confidence"`
	HealthScore     int      `json:"health_score"`
	HealthIssues    []string `json:"health_issues"`
	Recommendations []string `json:"recommendations"`
}

// Outcome tags how a Result was obtained.
type Outcome string

const (
	OutcomeParsed        Outcome = "parsed"
	OutcomeUnparseable   Outcome = "unparseable"
	OutcomeUpstreamError Outcome = "upstream_error"
)

// Reply is the tagged outcome of one inference round trip.
// Result is always usable; Err is set only for OutcomeUpstreamError.
type Reply struct {
	Outcome Outcome
	Result  Result
	Err     error
}

// Fallback reports whether Result is one of the fixed fallback payloads.
func (r Reply) Fallback() bool { return r.Outcome != OutcomeParsed }

// Report is the combined outcome of one analysis: the model's result merged
// with the catalog record for the detected breed.
type Report struct {
	ID           string
	Result       Result
	Outcome      Outcome
	BreedKey     string
	BreedInfo    breeds.BreedRecord
	BreedMatched bool
	ImageURL     string
	CreatedAt    time.Time
}

// Record is a persisted analysis for the history listing.
type Record struct {
	ID           string    `json:"id"`
	Breed        string    `json:"breed"`
	BreedKey     string    `json:"breed_key"`
	BreedMatched bool      `json:"breed_matched"`
	Confidence   float64   `json:"confidence"`
	HealthScore  int       `json:"health_score"`
	Outcome      Outcome   `json:"outcome"`
	ImageURL     string    `json:"image_url,omitempty"`
	Result       string    `json:"result"` // Result as JSON
	CreatedAt    time.Time `json:"created_at"`
}

// Image is an encoded upload ready for the inference API.
type Image struct {
	MimeType string
	Base64   string
}

// DataURL renders the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + i.MimeType + ";base64," + i.Base64
}
