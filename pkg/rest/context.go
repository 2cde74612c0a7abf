// Package rest implements the REST boundary: a parser that validates request
// bodies against a schema, a renderer that serializes responses, a serializer
// field, OpenAPI operation introspection, and a chi-mounted resource handler.
package rest

import (
	"github.com/schemafield/schemafield/pkg/adapter"
)

// Context keys under which a handler can pass a schema and export options to
// the parser and renderer for a single request.
const (
	ParserSchemaKey   = "parser_schema"
	ParserConfigKey   = "parser_config"
	RendererSchemaKey = "renderer_schema"
	RendererConfigKey = "renderer_config"
)

// Context carries per-request parser and renderer configuration.
type Context map[string]any

// adapterFromContext resolves the adapter for one request. An explicit
// per-field adapter wins; otherwise the schema key may hold a ready adapter
// or a raw schema declaration, with export options under the config key.
// Returning nil means neither source supplied a schema.
func adapterFromContext(explicit *adapter.SchemaAdapter, ctx Context, schemaKey, configKey string) *adapter.SchemaAdapter {
	if explicit != nil {
		return explicit
	}
	raw, ok := ctx[schemaKey]
	if !ok || raw == nil {
		return nil
	}
	if a, ok := raw.(*adapter.SchemaAdapter); ok {
		return a
	}
	opts := []adapter.Option{}
	if cfg, ok := ctx[configKey].(adapter.ExportOptions); ok {
		opts = append(opts, adapter.WithExportOptions(cfg))
	}
	return adapter.New(raw, opts...)
}
