// Package forms implements the form boundary: coercing user-entered text or
// form data into validated values, rendering values back for display, and
// change detection by round-trip comparison.
package forms

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/schema"
)

// Form is the owner a form field binds its adapter to. Forms have no
// annotation table or lexical scope of their own; binding only names the
// field for error messages.
type Form struct {
	name  string
	scope *schema.Scope
}

// NewForm creates a form owner. The scope may be nil when the form's fields
// carry concrete schemas.
func NewForm(name string, scope *schema.Scope) *Form {
	return &Form{name: name, scope: scope}
}

func (f *Form) Name() string                  { return f.name }
func (f *Form) Annotation(string) (any, bool) { return nil, false }
func (f *Form) Scope() *schema.Scope          { return f.scope }

// InvalidJSONInput marks raw user input that could not be parsed, so the
// form can re-render what the user typed instead of losing it.
type InvalidJSONInput string

// ErrorKind distinguishes why form input was rejected.
type ErrorKind int

const (
	// ErrInvalidJSON means the input was not well-formed JSON.
	ErrInvalidJSON ErrorKind = iota
	// ErrSchemaMismatch means the input parsed but failed the schema.
	ErrSchemaMismatch
)

// Error is a user-facing form validation failure.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidJSON:
		return fmt.Sprintf("enter a valid JSON value: %s", e.Detail)
	default:
		return fmt.Sprintf("value does not match the schema: %s", e.Detail)
	}
}

// SchemaField validates form input against a schema declaration.
type SchemaField struct {
	adapter  *adapter.SchemaAdapter
	disabled bool
}

type fieldConfig struct {
	disabled    bool
	adapterOpts []adapter.Option
}

// Option configures a form field.
type Option func(*fieldConfig)

// Disabled marks the field as read-only; its value comes from the initial
// data and user input is ignored.
func Disabled(v bool) Option {
	return func(c *fieldConfig) { c.disabled = v }
}

// AllowNull lets empty or null input produce nil instead of a validation
// error.
func AllowNull(v bool) Option {
	return func(c *fieldConfig) {
		c.adapterOpts = append(c.adapterOpts, adapter.AllowNull(v))
	}
}

// WithExportOptions sets the dump options used by PrepareValue and
// HasChanged.
func WithExportOptions(opts adapter.ExportOptions) Option {
	return func(c *fieldConfig) {
		c.adapterOpts = append(c.adapterOpts, adapter.WithExportOptions(opts))
	}
}

// New creates a form field for a schema declaration.
func New(rawSchema any, opts ...Option) *SchemaField {
	var cfg fieldConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SchemaField{
		adapter:  adapter.New(rawSchema, cfg.adapterOpts...),
		disabled: cfg.disabled,
	}
}

// Adapter exposes the field's schema adapter.
func (f *SchemaField) Adapter() *adapter.SchemaAdapter { return f.adapter }

// BindTo attaches the field to its form under a field name, if not already
// bound.
func (f *SchemaField) BindTo(form *Form, name string) {
	if !f.adapter.IsBound() {
		f.adapter.Bind(form, name)
	}
}

// ToValue coerces submitted input into a validated value. Empty input maps
// to nil. The returned error tells invalid JSON apart from schema mismatch
// so templates can show the right message.
func (f *SchemaField) ToValue(value any) (any, error) {
	if isEmpty(value) {
		return nil, nil
	}
	coerced, err := f.tryCoerce(value)
	if err != nil {
		return nil, formError(err)
	}
	return coerced, nil
}

// PrepareValue renders a value as JSON text for display. Input that
// previously failed parsing is echoed back verbatim.
func (f *SchemaField) PrepareValue(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if invalid, ok := value.(InvalidJSONInput); ok {
		return string(invalid), nil
	}
	coerced, err := f.tryCoerce(value)
	if err != nil {
		return "", formError(err)
	}
	data, err := f.adapter.DumpJSON(coerced)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BoundData normalizes submitted data for re-rendering: parse failures keep
// the raw input, disabled fields keep the initial value.
func (f *SchemaField) BoundData(data, initial any) (any, error) {
	if f.disabled {
		return f.adapter.ValidateValue(initial)
	}
	if data == nil {
		return nil, nil
	}
	text, ok := asText(data)
	if !ok {
		return f.adapter.ValidateValue(data)
	}
	v, err := f.adapter.ValidateJSON(text)
	if err != nil {
		if !isInputError(err) {
			return nil, err
		}
		return InvalidJSONInput(text), nil
	}
	return v, nil
}

// HasChanged compares initial and submitted data after coercion, by their
// dumped forms. Values that cannot be coerced count as changed.
func (f *SchemaField) HasChanged(initial, data any) bool {
	if f.disabled {
		return false
	}
	if isEmpty(initial) || isEmpty(data) {
		return isEmpty(initial) != isEmpty(data)
	}
	before, err := f.dumpJSONOf(initial)
	if err != nil {
		return true
	}
	after, err := f.dumpJSONOf(data)
	if err != nil {
		return true
	}
	return !bytes.Equal(before, after)
}

func (f *SchemaField) dumpJSONOf(value any) ([]byte, error) {
	coerced, err := f.tryCoerce(value)
	if err != nil {
		return nil, err
	}
	return f.adapter.DumpJSON(coerced)
}

// tryCoerce parses text input as JSON and validates everything else as an
// object; form data may carry either shape.
func (f *SchemaField) tryCoerce(value any) (any, error) {
	if text, ok := asText(value); ok {
		return f.adapter.ValidateJSON(text)
	}
	return f.adapter.ValidateValue(value)
}

func asText(value any) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	case InvalidJSONInput:
		return []byte(v), true
	default:
		return nil, false
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

// isInputError reports whether the failure is about the submitted value
// rather than the field's configuration. Configuration errors always
// propagate as-is.
func isInputError(err error) bool {
	var de *schema.DecodeError
	var ve *schema.ValidationError
	return errors.As(err, &de) || errors.As(err, &ve)
}

func formError(err error) error {
	var de *schema.DecodeError
	if errors.As(err, &de) {
		return &Error{Kind: ErrInvalidJSON, Detail: de.Msg}
	}
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return &Error{Kind: ErrSchemaMismatch, Detail: ve.Error()}
	}
	return err
}
