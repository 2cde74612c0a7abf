package rest

import (
	"github.com/schemafield/schemafield/pkg/adapter"
)

// Field is a serializer field validating one attribute against a schema.
// It binds its adapter the first time it is attached to a serializer.
type Field struct {
	adapter *adapter.SchemaAdapter
}

// NewField creates a serializer field for a schema declaration.
func NewField(rawSchema any, opts ...adapter.Option) *Field {
	return &Field{adapter: adapter.New(rawSchema, opts...)}
}

// Adapter exposes the field's schema adapter.
func (f *Field) Adapter() *adapter.SchemaAdapter { return f.adapter }

// Bind attaches the field to its serializer under a field name. Rebinding an
// already-bound field is a no-op so copies keep their resolution.
func (f *Field) Bind(owner adapter.Owner, name string) {
	if !f.adapter.IsBound() {
		f.adapter.Bind(owner, name)
	}
}

// ToInternal coerces incoming request data into a validated value. Text
// data parses as JSON; anything else validates as an object.
func (f *Field) ToInternal(data any) (any, error) {
	switch v := data.(type) {
	case string:
		return f.adapter.ValidateJSON([]byte(v))
	case []byte:
		return f.adapter.ValidateJSON(v)
	default:
		return f.adapter.ValidateValue(data)
	}
}

// ToRepresentation converts a validated value to its JSON-safe form for the
// response body, applying the field's export options.
func (f *Field) ToRepresentation(value any) (any, error) {
	prepared, err := f.adapter.ValidateValue(value)
	if err != nil {
		return nil, err
	}
	return f.adapter.DumpValue(prepared)
}
