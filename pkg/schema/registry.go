package schema

import (
	"fmt"
	"sync"
)

// Namespace maps symbol names to types or values.
type Namespace map[string]any

// Scope is an ordered chain of namespaces; lookups walk the chain and the
// first match wins. Owners expose a two-level scope: their own members first,
// then their module's globals.
type Scope struct {
	frames []Namespace
}

// NewScope creates a scope from namespaces ordered most-local-first.
func NewScope(frames ...Namespace) *Scope {
	return &Scope{frames: frames}
}

// Lookup resolves a name against the scope chain.
func (s *Scope) Lookup(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for _, frame := range s.frames {
		if v, ok := frame[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Module is a named symbol table playing the role of a defining module's
// global namespace. Struct types register themselves here so forward
// references and nested field references can resolve.
type Module struct {
	name       string
	importPath string
	mu         sync.RWMutex
	ns         Namespace
}

// NewModule creates an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{name: name, ns: make(Namespace)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// SetImportPath records the Go import path emitted for symbols defined in
// this module when migration source is generated.
func (m *Module) SetImportPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importPath = path
}

// ImportPath returns the configured import path, or the module name.
func (m *Module) ImportPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.importPath != "" {
		return m.importPath
	}
	return m.name
}

// Define binds a name in the module namespace.
func (m *Module) Define(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ns[name]; exists {
		return fmt.Errorf("%s is already defined in module %s", name, m.name)
	}
	m.ns[name] = value
	return nil
}

// RegisterStruct defines a struct type in the module and records the module
// on the struct for nested reference resolution.
func (m *Module) RegisterStruct(s *Struct) error {
	if err := m.Define(s.Name, s); err != nil {
		return err
	}
	s.module = m
	return nil
}

// Lookup resolves a name in the module namespace.
func (m *Module) Lookup(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.ns[name]
	return v, ok
}

// Namespace returns a snapshot of the module's symbol table.
func (m *Module) Namespace() Namespace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(Namespace, len(m.ns))
	for k, v := range m.ns {
		out[k] = v
	}
	return out
}

// Clear removes all definitions. Useful for tests.
func (m *Module) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ns = make(Namespace)
}
