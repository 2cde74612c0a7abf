package schema

import "fmt"

// ValidationError reports well-formed input that does not conform to the
// schema's shape or constraints. The message preserves the diagnostic for
// user display.
type ValidationError struct {
	Path string // JSON-pointer-ish location, "" for the root
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func validationErrf(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// at re-roots a validation error under a path segment.
func (e *ValidationError) at(segment string) *ValidationError {
	return &ValidationError{Path: "/" + segment + e.Path, Msg: e.Msg}
}

// DecodeError reports malformed JSON syntax, distinct from schema mismatch so
// callers parsing untrusted text can tell the two apart.
type DecodeError struct {
	Msg   string
	cause error
}

func (e *DecodeError) Error() string {
	return "invalid JSON: " + e.Msg
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

func decodeErr(err error) *DecodeError {
	return &DecodeError{Msg: err.Error(), cause: err}
}
