// Package container turns schema types and instances into a serializable
// intermediate form. Wrapping decomposes a parametrized type into its origin
// and arguments and an instance into its class and field values; unwrapping
// reconstructs the original. Migration source generation serializes
// containers, and evaluation unwraps them back.
package container

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/schemafield/schemafield/pkg/schema"
)

// GenericContainer holds a decomposed parametrized type: an origin marker and
// the wrapped arguments it was parametrized with.
type GenericContainer struct {
	Origin any
	Args   []any
}

// NewGeneric creates a container from an origin and raw arguments.
func NewGeneric(origin any, args ...any) *GenericContainer {
	return &GenericContainer{Origin: origin, Args: args}
}

func (c *GenericContainer) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%v[%s]", c.Origin, strings.Join(parts, ", "))
}

// InstanceContainer holds a decomposed struct instance: the class and its
// field values keyed by field name.
type InstanceContainer struct {
	Class  *schema.Struct
	Fields map[string]any
}

// NewInstance creates a container from a class and keyword field values.
func NewInstance(class *schema.Struct, fields map[string]any) *InstanceContainer {
	return &InstanceContainer{Class: class, Fields: fields}
}

func (c *InstanceContainer) String() string {
	return fmt.Sprintf("%s(%v)", c.Class.Name, c.Fields)
}

// Wrap decomposes a value into container form. Generic types become
// GenericContainers with recursively wrapped arguments, struct instances
// become InstanceContainers with recursively wrapped field values, and
// everything else passes through unchanged.
func Wrap(v any) any {
	switch t := v.(type) {
	case *schema.Instance:
		fields := make(map[string]any, len(t.Values()))
		for name, value := range t.Values() {
			fields[name] = Wrap(value)
		}
		return NewInstance(t.Schema, fields)
	case schema.Generic:
		raw := t.GenericArgs()
		args := make([]any, len(raw))
		for i, a := range raw {
			args[i] = Wrap(a)
		}
		return &GenericContainer{Origin: t.GenericOrigin(), Args: args}
	default:
		return v
	}
}

// Unwrap reconstructs the original value from container form.
//
// A generic container re-parametrizes its origin with the unwrapped
// arguments. The bitwise-union origin has no Parametrize; it is rebuilt by
// folding the members with schema.Or so the spelling survives a round trip.
// An origin that cannot be re-parametrized degrades to a ParametrizedAlias.
// An instance container reconstructs by keyword construction; if that fails
// the container is returned as is.
func Unwrap(v any) any {
	switch t := v.(type) {
	case *GenericContainer:
		return unwrapGeneric(t)
	case *InstanceContainer:
		values := make(map[string]any, len(t.Fields))
		for name, value := range t.Fields {
			values[name] = Unwrap(value)
		}
		inst, err := t.Class.New(values)
		if err != nil {
			return t
		}
		return inst
	default:
		return v
	}
}

func unwrapGeneric(c *GenericContainer) any {
	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		args[i] = Unwrap(a)
	}
	if len(args) == 0 {
		if t, ok := c.Origin.(schema.Type); ok {
			return t
		}
		return c.Origin
	}
	if _, isOr := c.Origin.(schema.OrOrigin); isOr {
		members := make([]schema.Type, 0, len(args))
		for _, a := range args {
			m, ok := a.(schema.Type)
			if !ok {
				return &schema.ParametrizedAlias{Origin: c.Origin, Args: args}
			}
			members = append(members, m)
		}
		switch len(members) {
		case 1:
			return members[0]
		default:
			return schema.Or(members[0], members[1], members[2:]...)
		}
	}
	if p, ok := c.Origin.(schema.Parametric); ok {
		t, err := p.Parametrize(args)
		if err == nil {
			return t
		}
	}
	return &schema.ParametrizedAlias{Origin: c.Origin, Args: args}
}

// Equal compares two values in container form. Containers compare
// structurally; a container on one side compares against the wrapped form of
// the other, so a container and the raw value it wraps are equal.
func Equal(a, b any) bool {
	_, aCont := containerKind(a)
	_, bCont := containerKind(b)
	if aCont != bCont {
		if aCont {
			a, b = b, a
		}
		wrapped := Wrap(a)
		if _, ok := containerKind(wrapped); !ok {
			return false
		}
		return Equal(wrapped, b)
	}

	switch av := a.(type) {
	case *GenericContainer:
		bv, ok := b.(*GenericContainer)
		if !ok || !argEqual(av.Origin, bv.Origin) || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *InstanceContainer:
		bv, ok := b.(*InstanceContainer)
		if !ok || !av.Class.Equals(bv.Class) || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for name, value := range av.Fields {
			other, ok := bv.Fields[name]
			if !ok || !Equal(value, other) {
				return false
			}
		}
		return true
	default:
		return argEqual(a, b)
	}
}

func containerKind(v any) (string, bool) {
	switch v.(type) {
	case *GenericContainer:
		return "generic", true
	case *InstanceContainer:
		return "instance", true
	default:
		return "", false
	}
}

func argEqual(a, b any) bool {
	if at, ok := a.(schema.Type); ok {
		bt, ok := b.(schema.Type)
		return ok && at.Equals(bt)
	}
	if am, ok := a.(*schema.Meta); ok {
		bm, ok := b.(*schema.Meta)
		return ok && am.Equals(bm)
	}
	return reflect.DeepEqual(a, b)
}
