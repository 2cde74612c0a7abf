package fields

import (
	"fmt"

	"github.com/schemafield/schemafield/pkg/schema"
)

// Model is the owning type schema fields attach to. It plays the class role:
// it carries its own annotation table, a local member namespace, and the
// defining module whose globals forward references fall back to.
type Model struct {
	name        string
	module      *schema.Module
	locals      schema.Namespace
	annotations map[string]any
	fields      map[string]*SchemaField
}

// NewModel creates a model registered against a defining module. The module
// may be nil for models whose fields never use forward references.
func NewModel(name string, module *schema.Module) *Model {
	return &Model{
		name:        name,
		module:      module,
		locals:      make(schema.Namespace),
		annotations: make(map[string]any),
		fields:      make(map[string]*SchemaField),
	}
}

// Name identifies the model in configuration errors.
func (m *Model) Name() string { return m.name }

// Annotate declares a schema annotation for an attribute, the counterpart of
// an annotated class attribute.
func (m *Model) Annotate(attname string, annotation any) {
	m.annotations[attname] = annotation
}

// Annotation returns the model's own annotation for an attribute.
func (m *Model) Annotation(attname string) (any, bool) {
	v, ok := m.annotations[attname]
	return v, ok
}

// Define adds a name to the model's local namespace, shadowing module
// globals during forward-reference resolution.
func (m *Model) Define(name string, value any) {
	m.locals[name] = value
}

// Scope returns the two-level lexical scope: locals before module globals.
func (m *Model) Scope() *schema.Scope {
	var globals schema.Namespace
	if m.module != nil {
		globals = m.module.Namespace()
	}
	return schema.NewScope(m.locals, globals)
}

// Module returns the defining module, or nil.
func (m *Model) Module() *schema.Module { return m.module }

// AddField attaches a field to the model under an attribute name, binding its
// adapter. Attaching again under the same name rebinds.
func (m *Model) AddField(attname string, f *SchemaField) error {
	if attname == "" {
		return fmt.Errorf("field attribute name must not be empty")
	}
	f.attach(m, attname)
	m.fields[attname] = f
	return nil
}

// Field returns the attached field for an attribute name.
func (m *Model) Field(attname string) (*SchemaField, bool) {
	f, ok := m.fields[attname]
	return f, ok
}
