package forms

import (
	gojson "github.com/goccy/go-json"

	"github.com/schemafield/schemafield/pkg/adapter"
)

// JSONSchemaWidget renders a textarea carrying the field's JSON Schema in a
// data attribute, so client-side editors can validate before submitting.
type JSONSchemaWidget struct {
	adapter *adapter.SchemaAdapter
}

// NewJSONSchemaWidget builds a widget for the field's schema.
func NewJSONSchemaWidget(a *adapter.SchemaAdapter) *JSONSchemaWidget {
	return &JSONSchemaWidget{adapter: a}
}

// Attrs returns the HTML attributes for rendering the widget. The schema is
// serialized once per call; resolution failures surface as errors rather
// than half-rendered markup.
func (w *JSONSchemaWidget) Attrs() (map[string]string, error) {
	doc, err := w.adapter.JSONSchema()
	if err != nil {
		return nil, err
	}
	data, err := gojson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"data-json-schema": string(data),
		"class":            "schemafield-editor",
	}, nil
}
