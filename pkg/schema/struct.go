package schema

import (
	"fmt"
	"strings"
)

// StructField describes one named field of a struct type.
type StructField struct {
	Name       string
	Type       Type
	Alias      string // JSON key override, used when dumping by alias
	Default    any
	HasDefault bool
}

// NewField creates a struct field with a name and type.
func NewField(name string, t Type) StructField {
	return StructField{Name: name, Type: t}
}

// WithDefault returns a copy of the field carrying a declared default value.
func (f StructField) WithDefault(v any) StructField {
	f.Default = v
	f.HasDefault = true
	return f
}

// WithAlias returns a copy of the field carrying a JSON key alias.
func (f StructField) WithAlias(alias string) StructField {
	f.Alias = alias
	return f
}

// Key returns the dump key for the field honoring the alias flag.
func (f StructField) Key(byAlias bool) string {
	if byAlias && f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (f StructField) equals(other StructField) bool {
	if f.Name != other.Name || f.Alias != other.Alias || f.HasDefault != other.HasDefault {
		return false
	}
	if f.HasDefault && !numericEqual(f.Default, other.Default) {
		return false
	}
	if f.Type == nil || other.Type == nil {
		return f.Type == other.Type
	}
	return f.Type.Equals(other.Type)
}

// Struct is a record type with named, typed fields and optional per-field
// defaults. Field types may contain forward references resolved against the
// module the struct is registered in.
type Struct struct {
	Name   string
	fields []StructField
	module *Module
}

// NewStruct creates a struct type from ordered fields.
func NewStruct(name string, fields ...StructField) *Struct {
	return &Struct{Name: name, fields: fields}
}

func (s *Struct) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return fmt.Sprintf("%s{%s}", s.Name, strings.Join(parts, ", "))
}

// Equals compares name and fields structurally.
func (s *Struct) Equals(other Type) bool {
	os, ok := other.(*Struct)
	if !ok {
		return false
	}
	if s == os {
		return true
	}
	if s.Name != os.Name || len(s.fields) != len(os.fields) {
		return false
	}
	for i, f := range s.fields {
		if !f.equals(os.fields[i]) {
			return false
		}
	}
	return true
}

// Fields returns the ordered field list.
func (s *Struct) Fields() []StructField {
	return append([]StructField(nil), s.fields...)
}

// Field looks up a field by name.
func (s *Struct) Field(name string) (StructField, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}

// Defaults returns the declared default values keyed by field name.
func (s *Struct) Defaults() map[string]any {
	defaults := make(map[string]any)
	for _, f := range s.fields {
		if f.HasDefault {
			defaults[f.Name] = f.Default
		}
	}
	return defaults
}

// Module returns the module the struct is registered in, or nil.
func (s *Struct) Module() *Module {
	return s.module
}

// New constructs an instance by keyword values. Unknown keys and missing
// required fields are errors; declared defaults fill absent fields.
func (s *Struct) New(values map[string]any) (*Instance, error) {
	for key := range values {
		if _, ok := s.Field(key); !ok {
			return nil, fmt.Errorf("%s has no field %q", s.Name, key)
		}
	}
	resolved := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if v, ok := values[f.Name]; ok {
			resolved[f.Name] = v
			continue
		}
		if f.HasDefault {
			resolved[f.Name] = f.Default
			continue
		}
		return nil, fmt.Errorf("%s missing required field %q", s.Name, f.Name)
	}
	return &Instance{Schema: s, values: resolved}, nil
}

// Instance is a concrete value of a struct type, reconstructed by keyword
// construction and compared field-wise.
type Instance struct {
	Schema *Struct
	values map[string]any
}

// Get returns a field value by name.
func (i *Instance) Get(name string) (any, bool) {
	v, ok := i.values[name]
	return v, ok
}

// Values returns a shallow snapshot of the field values.
func (i *Instance) Values() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// Equals compares struct identity and field values.
func (i *Instance) Equals(other *Instance) bool {
	if other == nil || !i.Schema.Equals(other.Schema) {
		return false
	}
	for _, f := range i.Schema.fields {
		if !numericEqual(i.values[f.Name], other.values[f.Name]) {
			return false
		}
	}
	return true
}

func (i *Instance) String() string {
	parts := make([]string, 0, len(i.Schema.fields))
	for _, f := range i.Schema.fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Name, i.values[f.Name]))
	}
	return fmt.Sprintf("%s(%s)", i.Schema.Name, strings.Join(parts, ", "))
}
