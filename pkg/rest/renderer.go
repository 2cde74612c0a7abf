package rest

import (
	"errors"

	gojson "github.com/goccy/go-json"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/schema"
)

// SchemaRenderer serializes response data against a schema. The schema comes
// from the renderer's own adapter or from the request context under
// RendererSchemaKey. A bare struct instance renders without an adapter;
// anything else with no adapter is a configuration error.
type SchemaRenderer struct {
	Adapter *adapter.SchemaAdapter
}

// Render validates and serializes data to JSON bytes. A value failing
// validation produces an error body rather than a failed render, so the
// response still carries a diagnostic for the client.
func (r *SchemaRenderer) Render(data any, ctx Context) ([]byte, error) {
	a := adapterFromContext(r.Adapter, ctx, RendererSchemaKey, RendererConfigKey)
	if a == nil {
		if inst, ok := data.(*schema.Instance); ok {
			return schema.EncodeJSON(inst)
		}
		return nil, &adapter.ImproperlyConfiguredSchema{
			Msg: "schema must be set on the renderer or passed in the request context",
		}
	}
	prepared, err := a.ValidateValue(data)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return gojson.Marshal(map[string]string{"error": ve.Error()})
		}
		return nil, err
	}
	return a.DumpJSON(prepared)
}
