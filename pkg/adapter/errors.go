package adapter

import "fmt"

// ImproperlyConfiguredSchema reports a schema that cannot be resolved to a
// concrete type: an adapter accessed before binding, a missing annotation, or
// an unresolvable forward reference. It is never silently defaulted.
type ImproperlyConfiguredSchema struct {
	Msg   string
	cause error
}

func (e *ImproperlyConfiguredSchema) Error() string {
	return e.Msg
}

func (e *ImproperlyConfiguredSchema) Unwrap() error {
	return e.cause
}

func improperf(format string, args ...any) *ImproperlyConfiguredSchema {
	return &ImproperlyConfiguredSchema{Msg: fmt.Sprintf(format, args...)}
}
