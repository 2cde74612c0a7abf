package adapter

import (
	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/schema"
)

// resolve turns the raw declaration into a concrete type:
//
//  1. nil with a bound adapter falls back to the owner's own annotation
//     table; absence is not an error at this stage.
//  2. A string becomes a forward-reference marker.
//  3. A marker evaluates against the owner's scope, local names before the
//     defining module's globals.
//  4. A container resolves its arguments recursively, then unwraps back into
//     a concrete parametrized type. Concrete generic types pass through the
//     same path so markers nested in their arguments resolve too.
//  5. A nil outcome is a configuration error naming the binding.
//  6. AllowNull wraps the result in a union with null.
func (a *SchemaAdapter) resolve() (schema.Type, error) {
	resolved, err := a.resolveValue(a.raw)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		if a.IsBound() {
			return nil, improperf("no schema could be resolved for %s.%s: declare one explicitly or annotate the attribute", a.owner.Name(), a.attname)
		}
		return nil, improperf("schema adapter accessed before it was bound to an owner")
	}
	t, ok := resolved.(schema.Type)
	if !ok {
		return nil, improperf("resolved schema %v (%T) is not a type", resolved, resolved)
	}
	if a.AllowNull() {
		t = schema.Optional(t)
	}
	return t, nil
}

func (a *SchemaAdapter) resolveValue(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		if !a.IsBound() {
			return nil, nil
		}
		ann, ok := a.owner.Annotation(a.attname)
		if !ok {
			return nil, nil
		}
		return a.resolveValue(ann)
	case string:
		return a.resolveValue(schema.NewRef(v))
	case schema.Ref:
		return a.resolveRef(v)
	case *container.GenericContainer:
		return a.resolveContainer(v)
	case schema.Generic:
		// concrete generics may still hide markers in their arguments
		return a.resolveContainer(container.Wrap(v).(*container.GenericContainer))
	default:
		return raw, nil
	}
}

func (a *SchemaAdapter) resolveRef(ref schema.Ref) (any, error) {
	if a.owner == nil {
		return nil, improperf("cannot resolve forward reference %q on an unbound schema adapter", ref.Name)
	}
	found, ok := a.owner.Scope().Lookup(ref.Name)
	if !ok {
		return nil, improperf("cannot resolve forward reference %q for %s.%s", ref.Name, a.owner.Name(), a.attname)
	}
	// the target itself may be a string alias or another marker
	return a.resolveValue(found)
}

// resolveContainer resolves the origin and every argument, then unwraps the
// container back into a concrete type. Bare strings among the arguments are
// left alone: they are literal values, not references.
func (a *SchemaAdapter) resolveContainer(c *container.GenericContainer) (any, error) {
	origin, err := a.resolveOrigin(c.Origin)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(c.Args))
	for i, arg := range c.Args {
		resolved, err := a.resolveArg(arg)
		if err != nil {
			return nil, err
		}
		args[i] = resolved
	}
	return container.Unwrap(container.NewGeneric(origin, args...)), nil
}

func (a *SchemaAdapter) resolveOrigin(origin any) (any, error) {
	if ref, ok := origin.(schema.Ref); ok {
		return a.resolveRef(ref)
	}
	return origin, nil
}

func (a *SchemaAdapter) resolveArg(arg any) (any, error) {
	switch arg.(type) {
	case schema.Ref, *container.GenericContainer, schema.Generic:
		return a.resolveValue(arg)
	default:
		return arg, nil
	}
}
