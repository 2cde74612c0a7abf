// Package migrate turns schema declarations into re-evaluable Go source text
// and back. The migration writer regenerates field construction code from
// deconstructed fields; every schema shape that can appear in a field
// declaration must serialize to source that evaluates back to an equal value.
package migrate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/schema"
)

// Import paths emitted alongside generated expressions.
const (
	schemaImport    = "github.com/schemafield/schemafield/pkg/schema"
	containerImport = "github.com/schemafield/schemafield/pkg/container"
	uuidImport      = "github.com/google/uuid"
	timeImport      = "time"
)

// ImportSet collects the imports an expression needs.
type ImportSet map[string]struct{}

func (s ImportSet) Add(path string) {
	s[path] = struct{}{}
}

func (s ImportSet) Merge(other ImportSet) {
	for path := range other {
		s[path] = struct{}{}
	}
}

// Sorted returns the import paths in deterministic order.
func (s ImportSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for path := range s {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Strategy serializes one kind of value into source text, recursing through
// the registry for nested values and recording imports as it goes.
type Strategy func(r *Registry, v any, imports ImportSet) (string, error)

type entry struct {
	match    func(any) bool
	strategy Strategy
}

// Registry dispatches serialization by value shape. Entries are evaluated in
// order and the first matching one wins, so specialized strategies must sit
// before general ones; user registrations are prepended and therefore win
// over the defaults.
type Registry struct {
	entries []entry
}

// NewRegistry creates a registry loaded with the default strategies.
func NewRegistry() *Registry {
	r := &Registry{}
	r.installDefaults()
	return r
}

// Register prepends a strategy so it takes precedence over existing ones.
func (r *Registry) Register(match func(any) bool, strategy Strategy) {
	r.entries = append([]entry{{match: match, strategy: strategy}}, r.entries...)
}

// Serialize renders a value as source text plus the imports it requires.
func (r *Registry) Serialize(v any) (string, ImportSet, error) {
	imports := make(ImportSet)
	src, err := r.serialize(v, imports)
	if err != nil {
		return "", nil, err
	}
	return src, imports, nil
}

func (r *Registry) serialize(v any, imports ImportSet) (string, error) {
	for _, e := range r.entries {
		if e.match(v) {
			return e.strategy(r, v, imports)
		}
	}
	return "", fmt.Errorf("no migration serializer for value %v (%T)", v, v)
}

func (r *Registry) installDefaults() {
	// appended most-specific first; the scalar fallbacks close the list
	r.entries = append(r.entries,
		entry{matchNil, serializeNil},
		entry{matchType[*container.InstanceContainer](), serializeInstanceContainer},
		entry{matchType[*container.GenericContainer](), serializeGenericContainer},
		entry{matchType[*schema.Instance](), serializeInstance},
		entry{matchType[*schema.Meta](), serializeMeta},
		entry{matchType[*schema.Struct](), serializeStruct},
		entry{matchType[schema.Ref](), serializeRef},
		entry{matchType[*schema.Primitive](), serializePrimitive},
		entry{matchGenericType, serializeGenericType},
		entry{matchType[uuid.UUID](), serializeUUID},
		entry{matchType[time.Time](), serializeTime},
		entry{matchType[[]any](), serializeSlice},
		entry{matchType[map[string]any](), serializeMap},
		entry{matchScalar, serializeScalar},
	)
}

func matchNil(v any) bool { return v == nil }

func matchType[T any]() func(any) bool {
	return func(v any) bool {
		_, ok := v.(T)
		return ok
	}
}

// matchGenericType catches concrete parametrized schema types not already
// claimed by a more specific entry.
func matchGenericType(v any) bool {
	_, ok := v.(schema.Generic)
	return ok
}

func matchScalar(v any) bool {
	switch v.(type) {
	case bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func serializeNil(_ *Registry, _ any, _ ImportSet) (string, error) {
	return "nil", nil
}

// serializeInstanceContainer emits keyword construction through the
// container so regenerated source reconstructs by field name.
func serializeInstanceContainer(r *Registry, v any, imports ImportSet) (string, error) {
	c := v.(*container.InstanceContainer)
	class, err := r.serialize(c.Class, imports)
	if err != nil {
		return "", err
	}
	fields, err := r.serializeStringMap(c.Fields, imports)
	if err != nil {
		return "", err
	}
	imports.Add(containerImport)
	return fmt.Sprintf("container.NewInstance(%s, %s)", class, fields), nil
}

// serializeGenericContainer emits positional origin-then-args construction.
// Evaluation unwraps the container, so the bitwise-union origin is rebuilt by
// the ordered Or fold rather than subscription.
func serializeGenericContainer(r *Registry, v any, imports ImportSet) (string, error) {
	c := v.(*container.GenericContainer)
	parts := make([]string, 0, len(c.Args)+1)
	origin, err := serializeOrigin(c.Origin, imports)
	if err != nil {
		// an origin that is itself a serializable value (a bare type)
		origin, err = r.serialize(c.Origin, imports)
		if err != nil {
			return "", err
		}
	}
	parts = append(parts, origin)
	for _, arg := range c.Args {
		src, err := r.serialize(arg, imports)
		if err != nil {
			return "", err
		}
		parts = append(parts, src)
	}
	imports.Add(containerImport)
	return fmt.Sprintf("container.NewGeneric(%s)", strings.Join(parts, ", ")), nil
}

func serializeOrigin(origin any, imports ImportSet) (string, error) {
	var src string
	switch origin.(type) {
	case schema.ListOrigin:
		src = "schema.OriginList"
	case schema.MapOrigin:
		src = "schema.OriginMap"
	case schema.UnionOrigin:
		src = "schema.OriginUnion"
	case schema.OrOrigin:
		src = "schema.OriginOr"
	case schema.LiteralOrigin:
		src = "schema.OriginLiteral"
	case schema.AnnotatedOrigin:
		src = "schema.OriginAnnotated"
	default:
		return "", fmt.Errorf("unknown origin %v (%T)", origin, origin)
	}
	imports.Add(schemaImport)
	return src, nil
}

// serializeInstance wraps first so instances reconstruct by keyword
// construction regardless of how the struct validates.
func serializeInstance(r *Registry, v any, imports ImportSet) (string, error) {
	return r.serialize(container.Wrap(v), imports)
}

// serializeGenericType wraps first so every parametrized form goes out in
// container form, which is guaranteed re-evaluable.
func serializeGenericType(r *Registry, v any, imports ImportSet) (string, error) {
	return r.serialize(container.Wrap(v), imports)
}

func serializeMeta(_ *Registry, v any, imports ImportSet) (string, error) {
	m := v.(*schema.Meta)
	var b strings.Builder
	b.WriteString("schema.NewMeta()")
	for _, arg := range m.Args() {
		switch value := arg.Value.(type) {
		case string:
			fmt.Fprintf(&b, ".%s(%s)", arg.Name, strconv.Quote(value))
		case float64:
			fmt.Fprintf(&b, ".%s(%s)", arg.Name, formatFloat(value))
		case int:
			fmt.Fprintf(&b, ".%s(%d)", arg.Name, value)
		default:
			return "", fmt.Errorf("cannot serialize constraint %s with value %T", arg.Name, arg.Value)
		}
	}
	imports.Add(schemaImport)
	return b.String(), nil
}

// serializeStruct emits the module-qualified name; struct definitions are not
// regenerated, migrations import them from their defining module.
func serializeStruct(_ *Registry, v any, imports ImportSet) (string, error) {
	s := v.(*schema.Struct)
	mod := s.Module()
	if mod == nil {
		return "", fmt.Errorf("struct %s is not registered in a module; migrations cannot import it", s.Name)
	}
	imports.Add(mod.ImportPath())
	return fmt.Sprintf("%s.%s", mod.Name(), s.Name), nil
}

func serializeRef(_ *Registry, v any, imports ImportSet) (string, error) {
	imports.Add(schemaImport)
	return fmt.Sprintf("schema.NewRef(%s)", strconv.Quote(v.(schema.Ref).Name)), nil
}

func serializePrimitive(_ *Registry, v any, imports ImportSet) (string, error) {
	p := v.(*schema.Primitive)
	name := ""
	switch {
	case p.Equals(schema.Any):
		name = "Any"
	case p.Equals(schema.Null):
		name = "Null"
	case p.Equals(schema.Bool):
		name = "Bool"
	case p.Equals(schema.Int):
		name = "Int"
	case p.Equals(schema.Float):
		name = "Float"
	case p.Equals(schema.String):
		name = "String"
	case p.Equals(schema.Time):
		name = "Time"
	case p.Equals(schema.UUID):
		name = "UUID"
	default:
		return "", fmt.Errorf("unknown primitive %v", p)
	}
	imports.Add(schemaImport)
	return "schema." + name, nil
}

func serializeUUID(_ *Registry, v any, imports ImportSet) (string, error) {
	imports.Add(uuidImport)
	return fmt.Sprintf("uuid.MustParse(%s)", strconv.Quote(v.(uuid.UUID).String())), nil
}

func serializeTime(_ *Registry, v any, imports ImportSet) (string, error) {
	t := v.(time.Time)
	imports.Add(timeImport)
	return fmt.Sprintf("time.Date(%d, %d, %d, %d, %d, %d, %d, time.UTC)",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()), nil
}

func serializeSlice(r *Registry, v any, imports ImportSet) (string, error) {
	items := v.([]any)
	parts := make([]string, len(items))
	for i, item := range items {
		src, err := r.serialize(item, imports)
		if err != nil {
			return "", err
		}
		parts[i] = src
	}
	return fmt.Sprintf("[]any{%s}", strings.Join(parts, ", ")), nil
}

func serializeMap(r *Registry, v any, imports ImportSet) (string, error) {
	return r.serializeStringMap(v.(map[string]any), imports)
}

func (r *Registry) serializeStringMap(m map[string]any, imports ImportSet) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		src, err := r.serialize(m[k], imports)
		if err != nil {
			return "", err
		}
		parts[i] = fmt.Sprintf("%s: %s", strconv.Quote(k), src)
	}
	return fmt.Sprintf("map[string]any{%s}", strings.Join(parts, ", ")), nil
}

func serializeScalar(_ *Registry, v any, _ ImportSet) (string, error) {
	switch value := v.(type) {
	case string:
		return strconv.Quote(value), nil
	case bool:
		return strconv.FormatBool(value), nil
	case float32:
		return formatFloat(float64(value)), nil
	case float64:
		return formatFloat(value), nil
	default:
		return fmt.Sprintf("%d", v), nil
	}
}

// formatFloat keeps a decimal point so the evaluated literal stays a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
