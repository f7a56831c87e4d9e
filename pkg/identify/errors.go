package identify

import "fmt"

// Kind classifies a pipeline failure. Exactly one kind applies to any failed
// request; callers use it for status mapping and logging, never for the
// user-facing message (see UserMessage).
type Kind string

const (
	// KindInvalidInput marks requests rejected before any I/O happened.
	KindInvalidInput Kind = "invalid_input"

	// KindAcquisitionFailed covers extraction that was blocked, content that
	// is unavailable, and transient network exhaustion after retries.
	KindAcquisitionFailed Kind = "acquisition_failed"

	// KindNoMatch means every configured provider was tried and none
	// produced a result.
	KindNoMatch Kind = "no_match"

	// KindInternal marks unexpected faults recovered at the pipeline
	// boundary. The detail goes to the log, never to the caller.
	KindInternal Kind = "internal"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
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

// UserMessage returns the message safe to show a caller. Internal faults and
// provider details are collapsed into generic wording.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidInput:
		return e.Msg
	case KindAcquisitionFailed:
		return "could not retrieve audio from this link"
	case KindNoMatch:
		return "no match found for this audio"
	default:
		return "something went wrong, please try again"
	}
}
