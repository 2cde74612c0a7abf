// Package fields implements the persistence boundary: a model field that
// stores schema-validated data as JSON text, survives database round-trips,
// and deconstructs into re-evaluable migration source.
package fields

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/conf"
	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/schema"
)

// ImportPath is emitted in deconstructed output so migrations import the
// field constructor.
const ImportPath = "github.com/schemafield/schemafield/pkg/fields"

// SchemaField stores values validated against a schema declaration. Created
// unbound; attaching to a Model binds the adapter.
type SchemaField struct {
	adapter    *adapter.SchemaAdapter
	export     adapter.ExportOptions
	settings   *conf.Settings
	null       bool
	def        any
	hasDefault bool
	owner      *Model
	attname    string
}

// Option configures a field at construction.
type Option func(*SchemaField)

// Null marks the field as accepting null values.
func Null(v bool) Option {
	return func(f *SchemaField) { f.null = v }
}

// Default sets the field's default value.
func Default(v any) Option {
	return func(f *SchemaField) {
		f.def = v
		f.hasDefault = true
	}
}

// Export sets the field's serialization options.
func Export(o adapter.ExportOptions) Option {
	return func(f *SchemaField) { f.export = o }
}

// Settings overrides the process-wide settings the field's adapter falls
// back to for hooks.
func Settings(s *conf.Settings) Option {
	return func(f *SchemaField) { f.settings = s }
}

// New creates a field for a schema declaration: a concrete type, a string or
// Ref forward reference, a container, or nil to infer from the model's
// annotation after attaching.
func New(rawSchema any, opts ...Option) *SchemaField {
	f := &SchemaField{}
	for _, opt := range opts {
		opt(f)
	}
	adapterOpts := []adapter.Option{
		adapter.AllowNull(f.null),
		adapter.WithExportOptions(f.export),
	}
	if f.settings != nil {
		adapterOpts = append(adapterOpts, adapter.WithSettings(f.settings))
	}
	f.adapter = adapter.New(rawSchema, adapterOpts...)
	return f
}

// Adapter exposes the field's schema adapter.
func (f *SchemaField) Adapter() *adapter.SchemaAdapter { return f.adapter }

// Attname returns the bound attribute name, or "".
func (f *SchemaField) Attname() string { return f.attname }

func (f *SchemaField) attach(m *Model, attname string) {
	f.owner = m
	f.attname = attname
	f.adapter.Bind(m, attname)
}

// ToValue normalizes an incoming value of unknown shape. Text is first tried
// as serialized JSON; when that parse fails the raw value goes through
// object validation instead. This fallback is deliberately narrow: it only
// applies to string and byte input.
func (f *SchemaField) ToValue(value any) (any, error) {
	switch raw := value.(type) {
	case string:
		if v, err := f.adapter.ValidateJSON([]byte(raw)); err == nil {
			return v, nil
		}
	case []byte:
		if v, err := f.adapter.ValidateJSON(raw); err == nil {
			return v, nil
		}
	}
	return f.adapter.ValidateValue(value)
}

// PrepValue prepares a value for storage as JSON text.
func (f *SchemaField) PrepValue(value any) (driver.Value, error) {
	prepared, err := f.prepareRawValue(value)
	if err != nil {
		return nil, err
	}
	data, err := schema.EncodeJSON(prepared)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// prepareRawValue coerces then dumps a value. Coercion failure from a
// validation error or an unbound adapter is tolerated and the original value
// dumps as-is: during migration-time introspection the adapter is not yet
// bound and defaults still have to serialize. Any other failure propagates.
func (f *SchemaField) prepareRawValue(value any, opts ...adapter.DumpOption) (any, error) {
	coerced, err := f.adapter.ValidateValue(value)
	switch {
	case err == nil:
		value = coerced
	case isValidationError(err) || isImproper(err):
		// legitimate: keep the raw value
	default:
		return nil, err
	}
	return f.adapter.DumpValue(value, opts...)
}

func isValidationError(err error) bool {
	var ve *schema.ValidationError
	return errors.As(err, &ve)
}

func isImproper(err error) bool {
	var ic *adapter.ImproperlyConfiguredSchema
	return errors.As(err, &ic)
}

// FromDB converts a database value back into a validated value. Values that
// fail schema decoding fall back to plain JSON decoding, matching backends
// that return pre-extracted key lookups.
func (f *SchemaField) FromDB(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var data []byte
	switch raw := value.(type) {
	case []byte:
		data = raw
	case string:
		data = []byte(raw)
	default:
		return f.adapter.ValidateValue(value)
	}
	if v, err := f.adapter.ValidateJSON(data); err == nil {
		return v, nil
	}
	return schema.DecodeJSON(data, schema.Any)
}

// Default returns the field's validated default value: the declared default
// coerced through the schema, or the schema's own structural default.
func (f *SchemaField) Default() (any, error) {
	if f.hasDefault {
		return f.adapter.ValidateValue(f.def)
	}
	return f.adapter.DefaultValue(), nil
}

// HasDefault reports whether a default was declared.
func (f *SchemaField) HasDefault() bool { return f.hasDefault }

// Deconstructed is the migration-facing decomposition of a field: everything
// needed to regenerate its construction source.
type Deconstructed struct {
	Name   string
	Path   string
	Args   []any
	Kwargs map[string]any
}

// Deconstruct decomposes the field for migration source generation. The
// schema kwarg is the wrapped container form so it always serializes; when
// the declaration was symbolic and the field is bound, the resolved schema is
// preferred so regenerated migrations stop depending on the lexical scope.
func (f *SchemaField) Deconstruct() Deconstructed {
	kwargs := map[string]any{}

	raw := f.adapter.RawSchema()
	if isSymbolic(raw) && f.adapter.IsBound() {
		if resolved, err := f.adapter.ResolvedSchema(); err == nil {
			raw = stripAllowNull(resolved, f.null)
		}
	}
	kwargs["schema"] = container.Wrap(raw)

	if f.null {
		kwargs["null"] = true
	}
	if f.hasDefault {
		// filters cleared: the stored default must round-trip whole
		prepared, err := f.prepareRawValue(f.def, adapter.WithInclude(), adapter.WithExclude())
		if err != nil {
			prepared = f.def
		}
		if d, ok := prepared.(*schema.Dict); ok {
			kwargs["default"] = d.AsMap()
		} else {
			kwargs["default"] = prepared
		}
	}
	addExportKwargs(kwargs, f.export)

	return Deconstructed{
		Name:   f.attname,
		Path:   ImportPath,
		Kwargs: kwargs,
	}
}

func isSymbolic(raw any) bool {
	switch raw.(type) {
	case nil, string, schema.Ref:
		return true
	}
	return false
}

// stripAllowNull removes the null wrapping resolution added, since null-ness
// deconstructs as its own kwarg.
func stripAllowNull(t schema.Type, null bool) schema.Type {
	if !null {
		return t
	}
	u, ok := t.(*schema.Union)
	if !ok {
		return t
	}
	var members []schema.Type
	for _, m := range u.Members {
		if m.Equals(schema.Null) {
			continue
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		return t
	}
	return schema.UnionOf(members...)
}

func addExportKwargs(kwargs map[string]any, o adapter.ExportOptions) {
	if len(o.Include) > 0 {
		kwargs["include"] = sortedKeys(o.Include)
	}
	if len(o.Exclude) > 0 {
		kwargs["exclude"] = sortedKeys(o.Exclude)
	}
	if o.ByAlias {
		kwargs["by_alias"] = true
	}
	if o.ExcludeNone {
		kwargs["exclude_none"] = true
	}
	if o.ExcludeDefaults {
		kwargs["exclude_defaults"] = true
	}
}

func sortedKeys(set map[string]struct{}) []any {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]any, len(names))
	for i, name := range names {
		out[i] = name
	}
	return out
}

// FromDeconstructed rebuilds a field from its deconstructed kwargs, the
// inverse of Deconstruct after a migration round trip.
func FromDeconstructed(d Deconstructed) (*SchemaField, error) {
	rawSchema, ok := d.Kwargs["schema"]
	if !ok {
		return nil, fmt.Errorf("deconstructed field %q has no schema kwarg", d.Name)
	}

	var opts []Option
	if null, ok := d.Kwargs["null"].(bool); ok && null {
		opts = append(opts, Null(true))
	}
	if def, ok := d.Kwargs["default"]; ok {
		opts = append(opts, Default(def))
	}

	export := adapter.ExportOptions{}
	if names, ok := d.Kwargs["include"].([]any); ok {
		export.Include = keySet(names)
	}
	if names, ok := d.Kwargs["exclude"].([]any); ok {
		export.Exclude = keySet(names)
	}
	if v, ok := d.Kwargs["by_alias"].(bool); ok {
		export.ByAlias = v
	}
	if v, ok := d.Kwargs["exclude_none"].(bool); ok {
		export.ExcludeNone = v
	}
	if v, ok := d.Kwargs["exclude_defaults"].(bool); ok {
		export.ExcludeDefaults = v
	}
	opts = append(opts, Export(export))

	return New(rawSchema, opts...), nil
}

func keySet(names []any) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if s, ok := n.(string); ok {
			set[s] = struct{}{}
		}
	}
	return set
}

// Value implements the storage half of the database round trip.
func (f *SchemaField) Value(v any) (driver.Value, error) {
	return f.PrepValue(v)
}

// Scanner adapts a field to sql.Row.Scan destinations.
type Scanner struct {
	Field *SchemaField
	Value any
}

// Scan implements sql.Scanner, decoding the stored JSON through the field.
func (s *Scanner) Scan(src any) error {
	v, err := s.Field.FromDB(src)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}

// Clone returns an unbound copy of the field carrying the same declaration.
func (f *SchemaField) Clone() *SchemaField {
	return &SchemaField{
		adapter:    f.adapter.Clone(),
		export:     f.export,
		settings:   f.settings,
		null:       f.null,
		def:        f.def,
		hasDefault: f.hasDefault,
	}
}
