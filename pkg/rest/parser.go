package rest

import (
	"errors"
	"fmt"
	"io"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/schema"
)

// ParseErrorKind distinguishes why a request body was rejected.
type ParseErrorKind int

const (
	// ParseErrorDecode means the body was not well-formed JSON.
	ParseErrorDecode ParseErrorKind = iota
	// ParseErrorValidation means the body parsed but failed the schema.
	ParseErrorValidation
)

// ParseError is a request body the parser rejected.
type ParseError struct {
	Kind  ParseErrorKind
	cause error
}

func (e *ParseError) Error() string {
	return e.cause.Error()
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

// SchemaParser validates incoming JSON request bodies against a schema. The
// schema comes from the parser's own adapter or from the request context
// under ParserSchemaKey; having neither is a configuration error.
type SchemaParser struct {
	Adapter *adapter.SchemaAdapter
}

// Parse reads and validates a JSON request body.
func (p *SchemaParser) Parse(stream io.Reader, ctx Context) (any, error) {
	a := adapterFromContext(p.Adapter, ctx, ParserSchemaKey, ParserConfigKey)
	if a == nil {
		return nil, &adapter.ImproperlyConfiguredSchema{
			Msg: "schema must be set on the parser or passed in the request context",
		}
	}
	body, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	v, err := a.ValidateJSON(body)
	if err != nil {
		// schema resolution failures are the server's fault, not the client's
		var ice *adapter.ImproperlyConfiguredSchema
		if errors.As(err, &ice) {
			return nil, err
		}
		return nil, &ParseError{Kind: parseErrorKind(err), cause: err}
	}
	return v, nil
}

func parseErrorKind(err error) ParseErrorKind {
	var de *schema.DecodeError
	if errors.As(err, &de) {
		return ParseErrorDecode
	}
	return ParseErrorValidation
}
