// Package schema implements the type descriptors and value conversion
// primitives that schemafield validates JSON data against. Types are explicit
// tagged variants rather than reflected Go types, so they can be compared
// structurally, rendered back to source text, and resolved from symbolic
// references at runtime.
package schema

import (
	"fmt"
	"strings"
)

// Type is a schema type descriptor. All descriptors support structural
// equality and a human-readable representation.
type Type interface {
	// String returns the human-readable representation of the type
	String() string

	// Equals checks if two types are structurally equal
	Equals(other Type) bool
}

// Generic is implemented by parametrized type descriptors. A generic type
// decomposes into an origin (the unparametrized marker) and an ordered list
// of arguments, which may be types, metadata objects, or literal values.
type Generic interface {
	Type

	// GenericOrigin returns the unparametrized origin marker
	GenericOrigin() any

	// GenericArgs returns the ordered type arguments
	GenericArgs() []any
}

// Parametric is implemented by origins that can be re-parametrized with a
// list of arguments. The bitwise-union origin deliberately does not implement
// it: that spelling can only be rebuilt by folding with Or.
type Parametric interface {
	Parametrize(args []any) (Type, error)
}

// PrimitiveKind enumerates the built-in scalar types.
type PrimitiveKind int

const (
	KindAny PrimitiveKind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindUUID
)

// Primitive represents a built-in scalar type.
type Primitive struct {
	Kind PrimitiveKind
}

// Built-in primitive singletons.
var (
	Any    = &Primitive{KindAny}
	Null   = &Primitive{KindNull}
	Bool   = &Primitive{KindBool}
	Int    = &Primitive{KindInt}
	Float  = &Primitive{KindFloat}
	String = &Primitive{KindString}
	Time   = &Primitive{KindTime}
	UUID   = &Primitive{KindUUID}
)

func (p *Primitive) String() string {
	switch p.Kind {
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	default:
		return fmt.Sprintf("primitive(%d)", p.Kind)
	}
}

// Equals checks if the other type is the same primitive.
func (p *Primitive) Equals(other Type) bool {
	op, ok := other.(*Primitive)
	return ok && p.Kind == op.Kind
}

// Origin markers. Each parametrized type form has a comparable origin value;
// wrapping decomposes a generic type into its origin plus arguments, and
// unwrapping re-folds them.

// ListOrigin is the origin marker for list types.
type ListOrigin struct{}

// MapOrigin is the origin marker for map types.
type MapOrigin struct{}

// UnionOrigin is the origin marker for the subscripted union spelling.
type UnionOrigin struct{}

// OrOrigin is the origin marker for the bitwise union spelling. It is not
// Parametric: reconstruction must fold with Or.
type OrOrigin struct{}

// LiteralOrigin is the origin marker for literal enumeration types.
type LiteralOrigin struct{}

// AnnotatedOrigin is the origin marker for metadata-annotated types.
type AnnotatedOrigin struct{}

// Origin singletons.
var (
	OriginList      = ListOrigin{}
	OriginMap       = MapOrigin{}
	OriginUnion     = UnionOrigin{}
	OriginOr        = OrOrigin{}
	OriginLiteral   = LiteralOrigin{}
	OriginAnnotated = AnnotatedOrigin{}
)

func (ListOrigin) String() string      { return "list" }
func (MapOrigin) String() string       { return "map" }
func (UnionOrigin) String() string     { return "union" }
func (OrOrigin) String() string        { return "or" }
func (LiteralOrigin) String() string   { return "literal" }
func (AnnotatedOrigin) String() string { return "annotated" }

// Parametrize rebuilds a list type from a single element argument.
func (ListOrigin) Parametrize(args []any) (Type, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("list expects 1 type argument, got %d", len(args))
	}
	elem, ok := args[0].(Type)
	if !ok {
		return nil, fmt.Errorf("list element must be a type, got %T", args[0])
	}
	return ListOf(elem), nil
}

// Parametrize rebuilds a map type from key and value arguments.
func (MapOrigin) Parametrize(args []any) (Type, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("map expects 2 type arguments, got %d", len(args))
	}
	key, ok := args[0].(Type)
	if !ok {
		return nil, fmt.Errorf("map key must be a type, got %T", args[0])
	}
	value, ok := args[1].(Type)
	if !ok {
		return nil, fmt.Errorf("map value must be a type, got %T", args[1])
	}
	return MapOf(key, value), nil
}

// Parametrize rebuilds a subscripted union from member arguments.
func (UnionOrigin) Parametrize(args []any) (Type, error) {
	members := make([]Type, 0, len(args))
	for _, a := range args {
		m, ok := a.(Type)
		if !ok {
			return nil, fmt.Errorf("union member must be a type, got %T", a)
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("union expects at least one member")
	}
	return UnionOf(members...), nil
}

// Parametrize rebuilds a literal type from its values.
func (LiteralOrigin) Parametrize(args []any) (Type, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("literal expects at least one value")
	}
	return LiteralOf(args...), nil
}

// Parametrize rebuilds an annotated type from (base, metadata...) arguments.
func (AnnotatedOrigin) Parametrize(args []any) (Type, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("annotated expects a base type and at least one metadata value")
	}
	base, ok := args[0].(Type)
	if !ok {
		return nil, fmt.Errorf("annotated base must be a type, got %T", args[0])
	}
	return Annotate(base, args[1:]...), nil
}

// List represents a homogeneous list type.
type List struct {
	Elem Type
}

// ListOf creates a list type with the given element type.
func ListOf(elem Type) *List {
	return &List{Elem: elem}
}

func (l *List) String() string {
	return fmt.Sprintf("list<%s>", l.Elem)
}

// Equals checks if two list types carry equal element types.
func (l *List) Equals(other Type) bool {
	ol, ok := other.(*List)
	return ok && l.Elem.Equals(ol.Elem)
}

// GenericOrigin returns the list origin marker.
func (l *List) GenericOrigin() any { return OriginList }

// GenericArgs returns the element type.
func (l *List) GenericArgs() []any { return []any{l.Elem} }

// Map represents a homogeneous map type.
type Map struct {
	Key   Type
	Value Type
}

// MapOf creates a map type with the given key and value types.
func MapOf(key, value Type) *Map {
	return &Map{Key: key, Value: value}
}

func (m *Map) String() string {
	return fmt.Sprintf("map<%s, %s>", m.Key, m.Value)
}

// Equals checks if two map types carry equal key and value types.
func (m *Map) Equals(other Type) bool {
	om, ok := other.(*Map)
	return ok && m.Key.Equals(om.Key) && m.Value.Equals(om.Value)
}

// GenericOrigin returns the map origin marker.
func (m *Map) GenericOrigin() any { return OriginMap }

// GenericArgs returns the key and value types.
func (m *Map) GenericArgs() []any { return []any{m.Key, m.Value} }

// Union represents the subscripted union spelling. Members are flattened and
// deduplicated at construction.
type Union struct {
	Members []Type
}

// UnionOf creates a union from its members, flattening nested unions of both
// spellings. A single distinct member collapses to the member itself.
func UnionOf(members ...Type) Type {
	flat := flattenMembers(members)
	if len(flat) == 1 {
		return flat[0]
	}
	return &Union{Members: flat}
}

func (u *Union) String() string {
	return "union[" + joinTypes(u.Members, ", ") + "]"
}

// Equals compares member sets; the two union spellings with the same members
// compare equal even though their runtime types differ.
func (u *Union) Equals(other Type) bool {
	return sameMembers(u.Members, unionMembers(other))
}

// GenericOrigin returns the subscripted-union origin marker.
func (u *Union) GenericOrigin() any { return OriginUnion }

// GenericArgs returns the union members.
func (u *Union) GenericArgs() []any { return typesToArgs(u.Members) }

// OrUnion represents the bitwise union spelling (A | B). It is a distinct
// runtime type from Union: it can only be built by the ordered Or fold.
type OrUnion struct {
	Members []Type
}

// Or folds types into a bitwise union left-to-right, flattening operands that
// are already unions and dropping duplicate members.
func Or(a, b Type, more ...Type) Type {
	members := flattenMembers(append([]Type{a, b}, more...))
	if len(members) == 1 {
		return members[0]
	}
	return &OrUnion{Members: members}
}

func (u *OrUnion) String() string {
	return joinTypes(u.Members, " | ")
}

// Equals compares member sets across both union spellings.
func (u *OrUnion) Equals(other Type) bool {
	return sameMembers(u.Members, unionMembers(other))
}

// GenericOrigin returns the bitwise-union origin marker.
func (u *OrUnion) GenericOrigin() any { return OriginOr }

// GenericArgs returns the union members in fold order.
func (u *OrUnion) GenericArgs() []any { return typesToArgs(u.Members) }

// Optional wraps a type in a union with null unless it already admits null.
func Optional(t Type) Type {
	for _, m := range unionMembers(t) {
		if m.Equals(Null) {
			return t
		}
	}
	return UnionOf(t, Null)
}

// unionMembers returns the member list of either union spelling, or the type
// itself as a single-element list.
func unionMembers(t Type) []Type {
	switch u := t.(type) {
	case *Union:
		return u.Members
	case *OrUnion:
		return u.Members
	case nil:
		return nil
	default:
		return []Type{t}
	}
}

func flattenMembers(members []Type) []Type {
	var flat []Type
	for _, m := range members {
		for _, inner := range unionMembers(m) {
			dup := false
			for _, seen := range flat {
				if seen.Equals(inner) {
					dup = true
					break
				}
			}
			if !dup {
				flat = append(flat, inner)
			}
		}
	}
	return flat
}

// sameMembers compares two member lists as sets.
func sameMembers(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
	for _, ma := range a {
		found := false
		for i, mb := range b {
			if !matched[i] && ma.Equals(mb) {
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Literal represents an enumeration of allowed scalar values.
type Literal struct {
	Values []any
}

// LiteralOf creates a literal type from its allowed values.
func LiteralOf(values ...any) *Literal {
	return &Literal{Values: values}
}

func (l *Literal) String() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = fmt.Sprintf("%#v", v)
	}
	return "literal[" + strings.Join(parts, ", ") + "]"
}

// Equals checks if two literal types enumerate the same values in order.
func (l *Literal) Equals(other Type) bool {
	ol, ok := other.(*Literal)
	if !ok || len(l.Values) != len(ol.Values) {
		return false
	}
	for i, v := range l.Values {
		if !numericEqual(v, ol.Values[i]) {
			return false
		}
	}
	return true
}

// GenericOrigin returns the literal origin marker.
func (l *Literal) GenericOrigin() any { return OriginLiteral }

// GenericArgs returns the literal values.
func (l *Literal) GenericArgs() []any { return append([]any(nil), l.Values...) }

// Annotated couples a base type with constraint metadata.
type Annotated struct {
	Base     Type
	Metadata []any
}

// Annotate attaches metadata objects (typically *Meta) to a base type.
func Annotate(base Type, metadata ...any) *Annotated {
	return &Annotated{Base: base, Metadata: metadata}
}

func (a *Annotated) String() string {
	return fmt.Sprintf("annotated<%s>", a.Base)
}

// Equals checks base and metadata equality.
func (a *Annotated) Equals(other Type) bool {
	oa, ok := other.(*Annotated)
	if !ok || !a.Base.Equals(oa.Base) || len(a.Metadata) != len(oa.Metadata) {
		return false
	}
	for i, m := range a.Metadata {
		if !metadataEqual(m, oa.Metadata[i]) {
			return false
		}
	}
	return true
}

// GenericOrigin returns the annotated origin marker.
func (a *Annotated) GenericOrigin() any { return OriginAnnotated }

// GenericArgs returns (base, metadata...).
func (a *Annotated) GenericArgs() []any {
	args := make([]any, 0, len(a.Metadata)+1)
	args = append(args, a.Base)
	return append(args, a.Metadata...)
}

func metadataEqual(a, b any) bool {
	if ma, ok := a.(*Meta); ok {
		mb, ok := b.(*Meta)
		return ok && ma.Equals(mb)
	}
	if ta, ok := a.(Type); ok {
		tb, ok := b.(Type)
		return ok && ta.Equals(tb)
	}
	return a == b
}

// ParametrizedAlias is the best-effort fallback for an origin that cannot be
// re-parametrized. It keeps the origin and arguments so the expression still
// compares and prints, but values cannot be validated against it.
type ParametrizedAlias struct {
	Origin any
	Args   []any
}

func (p *ParametrizedAlias) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%v[%s]", p.Origin, strings.Join(parts, ", "))
}

// Equals compares origin and arguments structurally.
func (p *ParametrizedAlias) Equals(other Type) bool {
	op, ok := other.(*ParametrizedAlias)
	if !ok || len(p.Args) != len(op.Args) {
		return false
	}
	if !metadataEqual(p.Origin, op.Origin) {
		return false
	}
	for i, a := range p.Args {
		if !metadataEqual(a, op.Args[i]) {
			return false
		}
	}
	return true
}

// GenericOrigin returns the alias origin.
func (p *ParametrizedAlias) GenericOrigin() any { return p.Origin }

// GenericArgs returns the alias arguments.
func (p *ParametrizedAlias) GenericArgs() []any { return append([]any(nil), p.Args...) }

// Ref is a symbolic forward reference to a type resolved later against a
// lexical scope.
type Ref struct {
	Name string
}

// NewRef creates a forward reference by name.
func NewRef(name string) Ref {
	return Ref{Name: name}
}

func (r Ref) String() string { return r.Name }

// Equals checks if the other type is a reference with the same name.
func (r Ref) Equals(other Type) bool {
	or, ok := other.(Ref)
	return ok && r.Name == or.Name
}

func joinTypes(types []Type, sep string) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

func typesToArgs(types []Type) []any {
	args := make([]any, len(types))
	for i, t := range types {
		args[i] = t
	}
	return args
}
