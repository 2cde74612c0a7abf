package migrate

import (
	"time"

	"github.com/google/uuid"

	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/schema"
)

// Symbols returns the default evaluation namespace: every name generated
// expressions can reference, keyed by qualified name. Callers merge their own
// module namespaces on top for struct references.
func Symbols() map[string]any {
	return map[string]any{
		// primitives
		"schema.Any":    schema.Any,
		"schema.Null":   schema.Null,
		"schema.Bool":   schema.Bool,
		"schema.Int":    schema.Int,
		"schema.Float":  schema.Float,
		"schema.String": schema.String,
		"schema.Time":   schema.Time,
		"schema.UUID":   schema.UUID,

		// origins
		"schema.OriginList":      schema.OriginList,
		"schema.OriginMap":       schema.OriginMap,
		"schema.OriginUnion":     schema.OriginUnion,
		"schema.OriginOr":        schema.OriginOr,
		"schema.OriginLiteral":   schema.OriginLiteral,
		"schema.OriginAnnotated": schema.OriginAnnotated,

		// constructors
		"schema.ListOf":    schema.ListOf,
		"schema.MapOf":     schema.MapOf,
		"schema.UnionOf":   schema.UnionOf,
		"schema.Or":        schema.Or,
		"schema.Optional":  schema.Optional,
		"schema.LiteralOf": schema.LiteralOf,
		"schema.Annotate":  schema.Annotate,
		"schema.NewRef":    schema.NewRef,
		"schema.NewMeta":   schema.NewMeta,

		// containers
		"container.NewGeneric":  container.NewGeneric,
		"container.NewInstance": container.NewInstance,

		// scalar helpers emitted for UUID and timestamp values
		"uuid.MustParse": uuid.MustParse,
		"time.Date":      time.Date,
		"time.UTC":       time.UTC,
	}
}

// ModuleSymbols builds an evaluation namespace from a module's definitions,
// keyed "moduleName.SymbolName" the way serialized struct references are
// qualified.
func ModuleSymbols(mod *schema.Module) map[string]any {
	ns := mod.Namespace()
	out := make(map[string]any, len(ns))
	for name, value := range ns {
		out[mod.Name()+"."+name] = value
	}
	return out
}
