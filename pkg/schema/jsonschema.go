package schema

import "fmt"

// JSONSchema renders a type as a JSON Schema document (draft 2020-12
// vocabulary subset). Structs referenced by name, including
// self-referential ones, are collected under $defs.
func JSONSchema(t Type) (map[string]any, error) {
	g := &schemaGen{defs: map[string]any{}, seen: map[string]bool{}}
	root, err := g.render(t)
	if err != nil {
		return nil, err
	}
	if len(g.defs) > 0 {
		root["$defs"] = g.defs
	}
	return root, nil
}

type schemaGen struct {
	defs map[string]any
	seen map[string]bool
}

func (g *schemaGen) render(t Type) (map[string]any, error) {
	switch v := t.(type) {
	case *Primitive:
		return primitiveSchema(v)
	case *List:
		items, err := g.render(v.Elem)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	case *Map:
		values, err := g.render(v.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "object", "additionalProperties": values}, nil
	case *Union:
		return g.renderUnion(v.Members)
	case *OrUnion:
		return g.renderUnion(v.Members)
	case *Literal:
		return map[string]any{"enum": append([]any(nil), v.Values...)}, nil
	case *Annotated:
		base, err := g.render(v.Base)
		if err != nil {
			return nil, err
		}
		for _, md := range v.Metadata {
			if m, ok := md.(*Meta); ok {
				m.applyJSONSchema(base)
			}
		}
		return base, nil
	case *Struct:
		if !g.seen[v.Name] {
			g.seen[v.Name] = true
			def, err := g.renderStruct(v)
			if err != nil {
				return nil, err
			}
			g.defs[v.Name] = def
		}
		return map[string]any{"$ref": "#/$defs/" + v.Name}, nil
	case Ref:
		// Unresolved references still produce a local $ref; the target
		// struct must be rendered by the caller's surrounding schema.
		return map[string]any{"$ref": "#/$defs/" + v.Name}, nil
	default:
		return nil, fmt.Errorf("cannot generate JSON schema for %T", t)
	}
}

func (g *schemaGen) renderUnion(members []Type) (map[string]any, error) {
	variants := make([]any, 0, len(members))
	for _, m := range members {
		rendered, err := g.render(m)
		if err != nil {
			return nil, err
		}
		variants = append(variants, rendered)
	}
	return map[string]any{"anyOf": variants}, nil
}

func (g *schemaGen) renderStruct(s *Struct) (map[string]any, error) {
	props := map[string]any{}
	var required []string
	for _, f := range s.Fields() {
		ft, err := s.resolveFieldType(f)
		if err != nil {
			// Self-references resolve through the module once registered;
			// fall back to a bare $ref when the module is absent.
			if ref, ok := f.Type.(Ref); ok {
				props[f.Key(true)] = map[string]any{"$ref": "#/$defs/" + ref.Name}
				if !f.HasDefault {
					required = append(required, f.Key(true))
				}
				continue
			}
			return nil, err
		}
		rendered, err := g.render(ft)
		if err != nil {
			return nil, err
		}
		if f.HasDefault && f.Default != nil {
			rendered["default"] = f.Default
		}
		props[f.Key(true)] = rendered
		if !f.HasDefault {
			required = append(required, f.Key(true))
		}
	}
	out := map[string]any{
		"type":       "object",
		"title":      s.Name,
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out, nil
}

func primitiveSchema(p *Primitive) (map[string]any, error) {
	switch p.Kind {
	case KindAny:
		return map[string]any{}, nil
	case KindNull:
		return map[string]any{"type": "null"}, nil
	case KindBool:
		return map[string]any{"type": "boolean"}, nil
	case KindInt:
		return map[string]any{"type": "integer"}, nil
	case KindFloat:
		return map[string]any{"type": "number"}, nil
	case KindString:
		return map[string]any{"type": "string"}, nil
	case KindTime:
		return map[string]any{"type": "string", "format": "date-time"}, nil
	case KindUUID:
		return map[string]any{"type": "string", "format": "uuid"}, nil
	default:
		return nil, fmt.Errorf("unknown primitive kind %d", p.Kind)
	}
}

// applyJSONSchema folds constraint metadata into a rendered schema node.
func (m *Meta) applyJSONSchema(node map[string]any) {
	if m.gt != nil {
		node["exclusiveMinimum"] = *m.gt
	}
	if m.ge != nil {
		node["minimum"] = *m.ge
	}
	if m.lt != nil {
		node["exclusiveMaximum"] = *m.lt
	}
	if m.le != nil {
		node["maximum"] = *m.le
	}
	if m.multipleOf != nil {
		node["multipleOf"] = *m.multipleOf
	}
	if m.pattern != "" {
		node["pattern"] = m.pattern
	}
	if m.minLength != nil {
		node["minLength"] = *m.minLength
	}
	if m.maxLength != nil {
		node["maxLength"] = *m.maxLength
	}
	if m.title != "" {
		node["title"] = m.title
	}
	if m.description != "" {
		node["description"] = m.description
	}
}
