package adapter

import (
	"reflect"

	"github.com/schemafield/schemafield/pkg/schema"
)

// ExportOptions is the fixed set of recognized serialization settings an
// adapter carries. Include, Exclude, ExcludeNone, and ExcludeDefaults drive
// the filtered-dump path; the hooks and Strict feed the validate/encode
// primitives; ExcludeUnset is accepted for forward compatibility but has no
// effect, since reconstructed instances do not track which fields were
// explicitly set.
type ExportOptions struct {
	EncodeHook      schema.EncodeHook
	DecodeHook      schema.DecodeHook
	Strict          *bool
	Include         map[string]struct{}
	Exclude         map[string]struct{}
	ByAlias         bool
	ExcludeNone     bool
	ExcludeDefaults bool
	ExcludeUnset    bool
}

// Keys turns field names into the set form Include and Exclude use.
func Keys(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Equal compares option sets. Hooks compare by function identity.
func (o ExportOptions) Equal(other ExportOptions) bool {
	if funcPtr(o.EncodeHook) != funcPtr(other.EncodeHook) ||
		funcPtr(o.DecodeHook) != funcPtr(other.DecodeHook) {
		return false
	}
	if !boolPtrEqual(o.Strict, other.Strict) {
		return false
	}
	if o.ByAlias != other.ByAlias ||
		o.ExcludeNone != other.ExcludeNone ||
		o.ExcludeDefaults != other.ExcludeDefaults ||
		o.ExcludeUnset != other.ExcludeUnset {
		return false
	}
	return setsEqual(o.Include, other.Include) && setsEqual(o.Exclude, other.Exclude)
}

func funcPtr(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// dumpOverrides collects per-call overrides of the filtered-dump settings.
// Each override is tracked separately from its value so that "not provided"
// (adapter settings apply), "explicitly cleared" (WithInclude with no keys),
// and "explicit value" stay distinct.
type dumpOverrides struct {
	include         map[string]struct{}
	includeSet      bool
	exclude         map[string]struct{}
	excludeSet      bool
	excludeNone     *bool
	excludeDefaults *bool
	byAlias         *bool
}

// DumpOption overrides one filtered-dump setting for a single call.
type DumpOption func(*dumpOverrides)

// WithInclude restricts the dump to the named fields. Calling it with no
// names explicitly clears any include filter the adapter carries.
func WithInclude(names ...string) DumpOption {
	return func(o *dumpOverrides) {
		o.includeSet = true
		if len(names) == 0 {
			o.include = nil
			return
		}
		o.include = Keys(names...)
	}
}

// WithExclude drops the named fields from the dump. Calling it with no names
// explicitly clears any exclude filter the adapter carries.
func WithExclude(names ...string) DumpOption {
	return func(o *dumpOverrides) {
		o.excludeSet = true
		if len(names) == 0 {
			o.exclude = nil
			return
		}
		o.exclude = Keys(names...)
	}
}

// WithExcludeNone overrides whether null-valued fields are dropped.
func WithExcludeNone(v bool) DumpOption {
	return func(o *dumpOverrides) { o.excludeNone = &v }
}

// WithExcludeDefaults overrides whether fields equal to their declared
// default are dropped.
func WithExcludeDefaults(v bool) DumpOption {
	return func(o *dumpOverrides) { o.excludeDefaults = &v }
}

// WithByAlias overrides whether fields are keyed by their declared alias.
func WithByAlias(v bool) DumpOption {
	return func(o *dumpOverrides) { o.byAlias = &v }
}
