package analysis

import "errors"

// Client input errors; the HTTP layer maps these to 4xx.
var (
	ErrNoImage       = errors.New("no image file provided")
	ErrEmptyFilename = errors.New("no selected file")
	ErrEmptyImage    = errors.New("empty image file")
	ErrImageTooLarge = errors.New("image file too large")
	ErrBadRequest    = errors.New("bad request")
)

// ErrUpstreamCall wraps failures talking to the inference API. It never
// reaches the client; the service converts it to a fallback Reply.
var ErrUpstreamCall = errors.New("inference call failed")

// ErrHistoryDisabled is returned when history is queried but not configured.
var ErrHistoryDisabled = errors.New("analysis history disabled")
