package acquire

import (
	"fmt"
	"strings"
)

// FailureKind classifies why an extraction failed. Transient failures are
// retried up to the configured bound; permanent ones fail the request
// immediately.
type FailureKind string

const (
	FailureTransient FailureKind = "transient"
	FailurePermanent FailureKind = "permanent"
	FailureInvalid   FailureKind = "invalid"
)

// Error is a classified acquisition failure.
type Error struct {
	Kind FailureKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// permanentMarkers are yt-dlp stderr fragments that mean no amount of
// retrying will help.
var permanentMarkers = []string{
	"private video",
	"video unavailable",
	"this video is not available",
	"has been removed",
	"not available in your country",
	"geo restriction",
	"account terminated",
	"sign in to confirm your age",
	"age-restricted",
	"unsupported url",
	"is not a valid url",
}

// classifyExtraction maps yt-dlp stderr output to a failure kind. Anything
// not recognizably permanent is treated as transient and retried.
func classifyExtraction(stderr string) FailureKind {
	lower := strings.ToLower(stderr)
	for _, marker := range permanentMarkers {
		if strings.Contains(lower, marker) {
			return FailurePermanent
		}
	}
	return FailureTransient
}
