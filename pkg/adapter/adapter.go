// Package adapter owns the resolution lifecycle of a schema declaration and
// exposes validate/dump operations over the resolved type. An adapter is
// created at field-declaration time with possibly incomplete information,
// bound when the field attaches to an owning type, and resolved lazily on
// first access; binding again clears all derived state.
package adapter

import (
	"fmt"
	"reflect"

	"github.com/schemafield/schemafield/pkg/conf"
	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/schema"
)

// Owner is the type an adapter binds to. It exposes the declared annotation
// table and the two-level lexical scope forward references resolve against.
type Owner interface {
	// Name identifies the owner in configuration error messages
	Name() string

	// Annotation returns the declared schema annotation for an attribute,
	// looking only at the owner's own table, not inherited ones
	Annotation(attname string) (any, bool)

	// Scope returns the owner's lexical scope, local names before the
	// defining module's globals
	Scope() *schema.Scope
}

// SchemaAdapter resolves a raw schema declaration and validates, converts,
// and dumps values against the resolved type. Not safe for concurrent use
// with Bind; adapters belong to a single field definition.
type SchemaAdapter struct {
	raw       any
	allowNull *bool
	export    ExportOptions
	settings  *conf.Settings

	owner   Owner
	attname string

	// derived state, cleared on Bind
	resolved schema.Type
	encoder  *schema.Encoder
	decoder  *schema.Decoder
}

// Option configures an adapter at construction.
type Option func(*SchemaAdapter)

// AllowNull sets whether null values bypass schema conversion.
func AllowNull(v bool) Option {
	return func(a *SchemaAdapter) { a.allowNull = &v }
}

// WithExportOptions sets the adapter's serialization settings.
func WithExportOptions(o ExportOptions) Option {
	return func(a *SchemaAdapter) { a.export = o }
}

// WithSettings overrides the process-wide settings the adapter falls back to
// for hooks. Tests inject in-memory settings through here.
func WithSettings(s *conf.Settings) Option {
	return func(a *SchemaAdapter) { a.settings = s }
}

// New creates an adapter for a raw schema declaration: a concrete type, a
// string or Ref forward reference, a container, or nil to infer the schema
// from the owner's annotation after binding.
func New(raw any, opts ...Option) *SchemaAdapter {
	a := &SchemaAdapter{raw: raw}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Bind attaches the adapter to an owning type and attribute, clearing the
// cached resolved schema, encoder, and decoder. Safe to call repeatedly.
func (a *SchemaAdapter) Bind(owner Owner, attname string) {
	a.owner = owner
	a.attname = attname
	a.resolved = nil
	a.encoder = nil
	a.decoder = nil
}

// IsBound reports whether both owner and attribute are set.
func (a *SchemaAdapter) IsBound() bool {
	return a.owner != nil && a.attname != ""
}

// RawSchema returns the declaration the adapter was created with.
func (a *SchemaAdapter) RawSchema() any {
	return a.raw
}

// AllowNull reports whether null bypasses conversion. Unset means false.
func (a *SchemaAdapter) AllowNull() bool {
	return a.allowNull != nil && *a.allowNull
}

// AllowNullSet reports whether AllowNull was configured explicitly.
func (a *SchemaAdapter) AllowNullSet() bool {
	return a.allowNull != nil
}

// ExportOptions returns the adapter's serialization settings.
func (a *SchemaAdapter) ExportOptions() ExportOptions {
	return a.export
}

// Attname returns the bound attribute name, or "".
func (a *SchemaAdapter) Attname() string {
	return a.attname
}

// ResolvedSchema resolves the raw declaration to a concrete type. The result
// is cached until the next Bind; failures are not cached, so a resolution
// that starts succeeding (a forward target defined later) is picked up.
func (a *SchemaAdapter) ResolvedSchema() (schema.Type, error) {
	if a.resolved != nil {
		return a.resolved, nil
	}
	resolved, err := a.resolve()
	if err != nil {
		return nil, err
	}
	a.resolved = resolved
	return resolved, nil
}

// ValidateSchema forces resolution as a pre-flight check. Any failure
// surfaces as ImproperlyConfiguredSchema.
func (a *SchemaAdapter) ValidateSchema() error {
	_, err := a.ResolvedSchema()
	if err == nil {
		return nil
	}
	if _, ok := err.(*ImproperlyConfiguredSchema); ok {
		return err
	}
	return &ImproperlyConfiguredSchema{Msg: err.Error(), cause: err}
}

// ValidateValue converts a value into the resolved schema type using the
// adapter's stored strict mode. A nil value short-circuits to nil when the
// adapter allows null, bypassing schema conversion entirely.
func (a *SchemaAdapter) ValidateValue(value any) (any, error) {
	return a.validate(value, a.strictMode())
}

// ValidateValueStrict is ValidateValue with an explicit strict-mode override.
func (a *SchemaAdapter) ValidateValueStrict(value any, strict bool) (any, error) {
	return a.validate(value, strict)
}

func (a *SchemaAdapter) validate(value any, strict bool) (any, error) {
	if value == nil && a.AllowNull() {
		return nil, nil
	}
	resolved, err := a.ResolvedSchema()
	if err != nil {
		return nil, err
	}
	hook, err := a.decodeHook()
	if err != nil {
		return nil, err
	}
	return schema.Convert(value, resolved, schema.ConvertOptions{Strict: strict, Hook: hook})
}

// ValidateJSON decodes JSON text into the resolved schema type through a
// decoder cached per resolution. Malformed syntax yields a DecodeError,
// schema mismatch a ValidationError.
func (a *SchemaAdapter) ValidateJSON(data []byte) (any, error) {
	if a.decoder == nil {
		resolved, err := a.ResolvedSchema()
		if err != nil {
			return nil, err
		}
		hook, err := a.decodeHook()
		if err != nil {
			return nil, err
		}
		typ := resolved
		if a.AllowNull() {
			typ = schema.Optional(resolved)
		}
		a.decoder = schema.NewDecoder(typ, schema.ConvertOptions{Strict: a.strictMode(), Hook: hook})
	}
	return a.decoder.Decode(data)
}

// DumpValue converts a value to JSON-safe builtins and, when the result is a
// mapping, applies field filtering. Per-call options override the stored
// settings; an override given with no names is distinct from no override.
// Nil maps to nil.
func (a *SchemaAdapter) DumpValue(value any, opts ...DumpOption) (any, error) {
	if value == nil {
		return nil, nil
	}
	var ov dumpOverrides
	for _, opt := range opts {
		opt(&ov)
	}

	hook, err := a.encodeHook()
	if err != nil {
		return nil, err
	}
	byAlias := a.export.ByAlias
	if ov.byAlias != nil {
		byAlias = *ov.byAlias
	}
	lowered, err := schema.ToBuiltins(value, schema.BuiltinOptions{Hook: hook, ByAlias: byAlias})
	if err != nil {
		return nil, err
	}

	dict, ok := lowered.(*schema.Dict)
	if !ok {
		return lowered, nil
	}
	return a.filterDict(dict, value, ov, byAlias), nil
}

// DumpJSON is DumpValue followed by JSON encoding. Nil yields literal null.
func (a *SchemaAdapter) DumpJSON(value any, opts ...DumpOption) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}
	dumped, err := a.DumpValue(value, opts...)
	if err != nil {
		return nil, err
	}
	if a.encoder == nil {
		a.encoder = schema.NewEncoder(schema.BuiltinOptions{})
	}
	return a.encoder.Encode(dumped)
}

// JSONSchema renders the resolved schema as a JSON Schema document.
func (a *SchemaAdapter) JSONSchema() (map[string]any, error) {
	resolved, err := a.ResolvedSchema()
	if err != nil {
		return nil, err
	}
	if a.AllowNull() {
		resolved = schema.Optional(resolved)
	}
	return schema.JSONSchema(resolved)
}

// DefaultValue attempts zero-argument construction of the resolved schema
// when it is a struct whose fields all carry defaults. Returns nil when the
// schema has no structural defaults or construction fails.
func (a *SchemaAdapter) DefaultValue() any {
	resolved, err := a.ResolvedSchema()
	if err != nil {
		return nil
	}
	s := structOf(resolved)
	if s == nil {
		return nil
	}
	inst, err := s.New(nil)
	if err != nil {
		return nil
	}
	return inst
}

// structOf digs the struct out of a possibly-optional resolved schema.
func structOf(t schema.Type) *schema.Struct {
	if s, ok := t.(*schema.Struct); ok {
		return s
	}
	switch u := t.(type) {
	case *schema.Union:
		return structOfMembers(u.Members)
	case *schema.OrUnion:
		return structOfMembers(u.Members)
	}
	return nil
}

func structOfMembers(members []schema.Type) *schema.Struct {
	var found *schema.Struct
	for _, m := range members {
		if s, ok := m.(*schema.Struct); ok {
			if found != nil {
				return nil
			}
			found = s
		}
	}
	return found
}

// Equal reports whether two adapters agree on attribute name, export
// options, and resolved schema. When resolution fails on either side the
// comparison falls back to the raw declaration and null-ness, except that
// two bound adapters that both fail to resolve are never equal.
func (a *SchemaAdapter) Equal(other *SchemaAdapter) bool {
	if other == nil {
		return false
	}
	if a.attname != other.attname || !a.export.Equal(other.export) {
		return false
	}
	ra, errA := a.ResolvedSchema()
	rb, errB := other.ResolvedSchema()
	if errA == nil && errB == nil {
		return ra.Equals(rb)
	}
	if a.IsBound() && other.IsBound() {
		return false
	}
	return container.Equal(a.raw, other.raw) && a.AllowNull() == other.AllowNull()
}

// Clone returns an unbound copy carrying the same declaration and settings.
// The copy must be bound before annotation-dependent resolution.
func (a *SchemaAdapter) Clone() *SchemaAdapter {
	clone := &SchemaAdapter{
		raw:      a.raw,
		export:   a.export,
		settings: a.settings,
	}
	if a.allowNull != nil {
		v := *a.allowNull
		clone.allowNull = &v
	}
	return clone
}

func (a *SchemaAdapter) String() string {
	state := "unbound"
	if a.IsBound() {
		state = fmt.Sprintf("bound to %s.%s", a.owner.Name(), a.attname)
	}
	return fmt.Sprintf("SchemaAdapter(%v, %s)", a.raw, state)
}

func (a *SchemaAdapter) strictMode() bool {
	return a.export.Strict != nil && *a.export.Strict
}

// decodeHook returns the export-option hook, falling back to the configured
// process-wide hook.
func (a *SchemaAdapter) decodeHook() (schema.DecodeHook, error) {
	if a.export.DecodeHook != nil {
		return a.export.DecodeHook, nil
	}
	settings, err := a.confSettings()
	if err != nil {
		return nil, err
	}
	return settings.DecodeHook()
}

func (a *SchemaAdapter) encodeHook() (schema.EncodeHook, error) {
	if a.export.EncodeHook != nil {
		return a.export.EncodeHook, nil
	}
	settings, err := a.confSettings()
	if err != nil {
		return nil, err
	}
	return settings.EncodeHook()
}

func (a *SchemaAdapter) confSettings() (*conf.Settings, error) {
	if a.settings != nil {
		return a.settings, nil
	}
	return conf.Default()
}

// filterDict applies the filtered-dump predicates to a lowered mapping,
// preserving key order. All predicates are independent; a key survives only
// if every active predicate keeps it.
func (a *SchemaAdapter) filterDict(d *schema.Dict, original any, ov dumpOverrides, byAlias bool) *schema.Dict {
	include := a.export.Include
	if ov.includeSet {
		include = ov.include
	}
	exclude := a.export.Exclude
	if ov.excludeSet {
		exclude = ov.exclude
	}
	excludeNone := a.export.ExcludeNone
	if ov.excludeNone != nil {
		excludeNone = *ov.excludeNone
	}
	excludeDefaults := a.export.ExcludeDefaults
	if ov.excludeDefaults != nil {
		excludeDefaults = *ov.excludeDefaults
	}

	var defaults map[string]any
	if excludeDefaults {
		defaults = loweredDefaults(original, byAlias)
	}

	out := schema.NewDict()
	for _, p := range d.Pairs() {
		if _, drop := exclude[p.Key]; drop {
			continue
		}
		if len(include) > 0 {
			if _, keep := include[p.Key]; !keep {
				continue
			}
		}
		if excludeNone && p.Value == nil {
			continue
		}
		if excludeDefaults {
			if dv, ok := defaults[p.Key]; ok && reflect.DeepEqual(p.Value, dv) {
				continue
			}
		}
		out.Set(p.Key, p.Value)
	}
	return out
}

// loweredDefaults builds the defaults table for exclude_defaults, keyed the
// same way the dumped mapping is keyed and lowered to the same builtin forms
// so values compare directly.
func loweredDefaults(original any, byAlias bool) map[string]any {
	inst, ok := original.(*schema.Instance)
	if !ok {
		return nil
	}
	defaults := make(map[string]any)
	for _, f := range inst.Schema.Fields() {
		if !f.HasDefault {
			continue
		}
		lowered, err := schema.ToBuiltins(f.Default, schema.BuiltinOptions{ByAlias: byAlias})
		if err != nil {
			continue
		}
		defaults[f.Key(byAlias)] = lowered
	}
	return defaults
}
