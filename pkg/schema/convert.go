package schema

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DecodeHook is consulted when a value cannot be converted into the target
// type directly. It reports whether it handled the value.
type DecodeHook func(target Type, value any) (any, bool, error)

// EncodeHook turns values the encoder does not natively understand into
// JSON-safe builtins.
type EncodeHook func(value any) (any, error)

// ConvertOptions control value conversion.
type ConvertOptions struct {
	// Strict disables lenient coercions such as numeric strings to numbers.
	Strict bool
	// Hook is tried before conversion fails.
	Hook DecodeHook
}

// Convert validates and coerces a value into the target type, returning the
// canonical representation (int64 for ints, float64 for floats, *Instance
// for structs). Failures are ValidationError values carrying the diagnostic.
func Convert(value any, target Type, opts ConvertOptions) (any, error) {
	out, err := convert(value, target, opts)
	if err == nil {
		return out, nil
	}
	if opts.Hook != nil {
		if hooked, ok, hookErr := opts.Hook(target, value); hookErr != nil {
			return nil, hookErr
		} else if ok {
			return hooked, nil
		}
	}
	return nil, err
}

func convert(value any, target Type, opts ConvertOptions) (any, error) {
	switch t := target.(type) {
	case *Primitive:
		return convertPrimitive(value, t, opts)
	case *List:
		return convertList(value, t, opts)
	case *Map:
		return convertMap(value, t, opts)
	case *Union:
		return convertUnion(value, t.Members, opts)
	case *OrUnion:
		return convertUnion(value, t.Members, opts)
	case *Literal:
		return convertLiteral(value, t)
	case *Annotated:
		return convertAnnotated(value, t, opts)
	case *Struct:
		return convertStruct(value, t, opts)
	case Ref:
		return nil, validationErrf("", "unresolved reference %q", t.Name)
	case *ParametrizedAlias:
		return nil, validationErrf("", "cannot validate against unparametrized alias %s", t)
	case nil:
		return nil, validationErrf("", "no schema to validate against")
	default:
		return nil, validationErrf("", "unsupported schema type %T", target)
	}
}

func convertPrimitive(value any, t *Primitive, opts ConvertOptions) (any, error) {
	switch t.Kind {
	case KindAny:
		return value, nil
	case KindNull:
		if value == nil {
			return nil, nil
		}
		return nil, validationErrf("", "expected null, got %T", value)
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		if s, ok := value.(string); ok && !opts.Strict {
			if b, err := strconv.ParseBool(s); err == nil {
				return b, nil
			}
		}
		return nil, validationErrf("", "expected bool, got %v", describe(value))
	case KindInt:
		if n, ok := asInt(value); ok {
			return n, nil
		}
		if s, ok := value.(string); ok && !opts.Strict {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return n, nil
			}
		}
		return nil, validationErrf("", "expected int, got %v", describe(value))
	case KindFloat:
		if f, ok := asFloat(value); ok {
			return f, nil
		}
		if s, ok := value.(string); ok && !opts.Strict {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f, nil
			}
		}
		return nil, validationErrf("", "expected float, got %v", describe(value))
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, validationErrf("", "expected string, got %v", describe(value))
	case KindTime:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, validationErrf("", "expected RFC 3339 timestamp: %v", err)
			}
			return ts, nil
		}
		return nil, validationErrf("", "expected timestamp, got %v", describe(value))
	case KindUUID:
		switch v := value.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, validationErrf("", "expected UUID: %v", err)
			}
			return id, nil
		}
		return nil, validationErrf("", "expected UUID, got %v", describe(value))
	default:
		return nil, validationErrf("", "unknown primitive kind %d", t.Kind)
	}
}

func convertList(value any, t *List, opts ConvertOptions) (any, error) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, validationErrf("", "expected list, got %v", describe(value))
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		converted, err := convert(rv.Index(i).Interface(), t.Elem, opts)
		if err != nil {
			return nil, prefixErr(err, strconv.Itoa(i))
		}
		out[i] = converted
	}
	return out, nil
}

func convertMap(value any, t *Map, opts ConvertOptions) (any, error) {
	if kp, ok := t.Key.(*Primitive); !ok || (kp.Kind != KindString && kp.Kind != KindAny) {
		return nil, validationErrf("", "unsupported map key type %s", t.Key)
	}
	var src map[string]any
	switch v := value.(type) {
	case map[string]any:
		src = v
	case *Dict:
		src = v.AsMap()
	default:
		return nil, validationErrf("", "expected map, got %v", describe(value))
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		converted, err := convert(v, t.Value, opts)
		if err != nil {
			return nil, prefixErr(err, k)
		}
		out[k] = converted
	}
	return out, nil
}

func convertUnion(value any, members []Type, opts ConvertOptions) (any, error) {
	for _, m := range members {
		if value == nil && m.Equals(Null) {
			return nil, nil
		}
	}
	var firstErr error
	for _, m := range members {
		if m.Equals(Null) {
			continue
		}
		converted, err := convert(value, m, opts)
		if err == nil {
			return converted, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, validationErrf("", "no union member matched %v (%v)", describe(value), firstErr)
	}
	return nil, validationErrf("", "expected null, got %v", describe(value))
}

func convertLiteral(value any, t *Literal) (any, error) {
	for _, allowed := range t.Values {
		if numericEqual(value, allowed) {
			return allowed, nil
		}
	}
	return nil, validationErrf("", "expected one of %s, got %v", t, describe(value))
}

func convertAnnotated(value any, t *Annotated, opts ConvertOptions) (any, error) {
	converted, err := convert(value, t.Base, opts)
	if err != nil {
		return nil, err
	}
	for _, md := range t.Metadata {
		if m, ok := md.(*Meta); ok {
			if err := m.Check(converted); err != nil {
				return nil, err
			}
		}
	}
	return converted, nil
}

func convertStruct(value any, t *Struct, opts ConvertOptions) (any, error) {
	if inst, ok := value.(*Instance); ok {
		if inst.Schema.Equals(t) {
			return inst, nil
		}
		return nil, validationErrf("", "expected %s, got %s", t.Name, inst.Schema.Name)
	}

	var src map[string]any
	switch v := value.(type) {
	case map[string]any:
		src = v
	case *Dict:
		src = v.AsMap()
	default:
		return nil, validationErrf("", "expected %s, got %v", t.Name, describe(value))
	}

	values := make(map[string]any, len(t.fields))
	used := make(map[string]struct{}, len(src))
	for _, f := range t.fields {
		raw, key, ok := lookupFieldValue(src, f)
		if !ok {
			if f.HasDefault {
				values[f.Name] = f.Default
				continue
			}
			return nil, validationErrf("", "missing required field %q for %s", f.Name, t.Name)
		}
		used[key] = struct{}{}
		ft, err := t.resolveFieldType(f)
		if err != nil {
			return nil, err
		}
		converted, err := convert(raw, ft, opts)
		if err != nil {
			return nil, prefixErr(err, f.Name)
		}
		values[f.Name] = converted
	}
	if opts.Strict {
		for key := range src {
			if _, ok := used[key]; !ok {
				return nil, validationErrf("", "%s has no field %q", t.Name, key)
			}
		}
	}
	return t.New(values)
}

// lookupFieldValue finds the raw value for a field, accepting the declared
// alias before the field name.
func lookupFieldValue(src map[string]any, f StructField) (any, string, bool) {
	if f.Alias != "" {
		if v, ok := src[f.Alias]; ok {
			return v, f.Alias, true
		}
	}
	v, ok := src[f.Name]
	return v, f.Name, ok
}

// resolveFieldType resolves forward references in a field's type, including
// refs nested inside lists, maps, unions, and annotations, against the module
// the struct was registered in. Struct members terminate the walk; they
// resolve their own fields when converted.
func (s *Struct) resolveFieldType(f StructField) (Type, error) {
	return s.resolveRefs(f.Type)
}

func (s *Struct) resolveRefs(t Type) (Type, error) {
	switch v := t.(type) {
	case Ref:
		if s.module == nil {
			return nil, validationErrf("", "cannot resolve %q: %s is not registered in a module", v.Name, s.Name)
		}
		found, ok := s.module.Lookup(v.Name)
		if !ok {
			return nil, validationErrf("", "cannot resolve %q in module %s", v.Name, s.module.Name())
		}
		rt, ok := found.(Type)
		if !ok {
			return nil, validationErrf("", "%q in module %s is not a type", v.Name, s.module.Name())
		}
		return rt, nil
	case *List:
		elem, err := s.resolveRefs(v.Elem)
		if err != nil {
			return nil, err
		}
		return ListOf(elem), nil
	case *Map:
		key, err := s.resolveRefs(v.Key)
		if err != nil {
			return nil, err
		}
		value, err := s.resolveRefs(v.Value)
		if err != nil {
			return nil, err
		}
		return MapOf(key, value), nil
	case *Union:
		members, err := s.resolveMembers(v.Members)
		if err != nil {
			return nil, err
		}
		return UnionOf(members...), nil
	case *OrUnion:
		members, err := s.resolveMembers(v.Members)
		if err != nil {
			return nil, err
		}
		if len(members) == 1 {
			return members[0], nil
		}
		return Or(members[0], members[1], members[2:]...), nil
	case *Annotated:
		base, err := s.resolveRefs(v.Base)
		if err != nil {
			return nil, err
		}
		return Annotate(base, v.Metadata...), nil
	default:
		return t, nil
	}
}

func (s *Struct) resolveMembers(members []Type) ([]Type, error) {
	out := make([]Type, len(members))
	for i, m := range members {
		resolved, err := s.resolveRefs(m)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func prefixErr(err error, segment string) error {
	if ve, ok := err.(*ValidationError); ok {
		return ve.at(segment)
	}
	return err
}

// asInt accepts Go integer kinds, integral floats, and json.Number values.
func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
		return 0, false
	case float32:
		f := float64(v)
		if f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// asFloat accepts any numeric value.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		if n, ok := asInt(value); ok {
			return float64(n), true
		}
		return 0, false
	}
}

// numericEqual compares two values, treating numeric representations of the
// same quantity as equal.
func numericEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ia, ok := a.(*Instance); ok {
		ib, ok := b.(*Instance)
		return ok && ia.Equals(ib)
	}
	return reflect.DeepEqual(a, b)
}

// describe renders a short diagnostic form of a value for error messages.
func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		if len(v) > 40 {
			v = v[:40] + "..."
		}
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case json.Number:
		return v.String()
	default:
		return reflect.TypeOf(value).String()
	}
}
