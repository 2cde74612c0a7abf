package adapter

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemafield/schemafield/pkg/conf"
	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/schema"
)

// testOwner plays the role of the class a field is declared on: it carries
// the declared annotations and a two-level lexical scope.
type testOwner struct {
	name        string
	annotations map[string]any
	locals      schema.Namespace
	module      *schema.Module
}

func (o *testOwner) Name() string { return o.name }

func (o *testOwner) Annotation(attname string) (any, bool) {
	v, ok := o.annotations[attname]
	return v, ok
}

func (o *testOwner) Scope() *schema.Scope {
	var globals schema.Namespace
	if o.module != nil {
		globals = o.module.Namespace()
	}
	return schema.NewScope(o.locals, globals)
}

func emptySettings() *conf.Settings {
	return conf.FromViper(viper.New())
}

func newTestAdapter(raw any, opts ...Option) *SchemaAdapter {
	return New(raw, append([]Option{WithSettings(emptySettings())}, opts...)...)
}

func pointStruct() *schema.Struct {
	return schema.NewStruct("Point",
		schema.NewField("x", schema.Int),
		schema.NewField("y", schema.Int),
	)
}

func TestResolveExplicitType(t *testing.T) {
	a := newTestAdapter(schema.ListOf(schema.Int))
	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(schema.ListOf(schema.Int)))
}

func TestResolveStringForwardReference(t *testing.T) {
	mod := schema.NewModule("models")
	point := pointStruct()
	require.NoError(t, mod.RegisterStruct(point))

	owner := &testOwner{name: "Drawing", module: mod}
	a := newTestAdapter("Point")
	a.Bind(owner, "origin")

	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(point))
}

func TestResolveLocalShadowsGlobal(t *testing.T) {
	mod := schema.NewModule("models")
	require.NoError(t, mod.Define("Value", schema.Float))

	owner := &testOwner{
		name:   "Record",
		locals: schema.Namespace{"Value": schema.Int},
		module: mod,
	}
	a := newTestAdapter(schema.NewRef("Value"))
	a.Bind(owner, "value")

	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.Same(t, schema.Int, resolved)
}

func TestResolveFromAnnotation(t *testing.T) {
	owner := &testOwner{
		name:        "Config",
		annotations: map[string]any{"payload": schema.MapOf(schema.String, schema.Any)},
	}
	a := newTestAdapter(nil)
	a.Bind(owner, "payload")

	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(schema.MapOf(schema.String, schema.Any)))
}

func TestResolveContainerWithNestedRef(t *testing.T) {
	mod := schema.NewModule("models")
	point := pointStruct()
	require.NoError(t, mod.RegisterStruct(point))

	owner := &testOwner{name: "Drawing", module: mod}
	raw := container.NewGeneric(schema.OriginList, schema.NewRef("Point"))
	a := newTestAdapter(raw)
	a.Bind(owner, "points")

	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(schema.ListOf(point)))
}

func TestResolveForwardRefDefinedAfterFirstAccess(t *testing.T) {
	mod := schema.NewModule("models")
	owner := &testOwner{name: "Drawing", module: mod}

	a := newTestAdapter("Point")
	a.Bind(owner, "origin")

	_, err := a.ResolvedSchema()
	require.Error(t, err)

	// failures are not cached: defining the target later fixes resolution
	point := pointStruct()
	require.NoError(t, mod.RegisterStruct(point))

	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(point))
}

func TestUnboundAdapterSurfacesConfigurationError(t *testing.T) {
	a := newTestAdapter(nil)
	err := a.ValidateSchema()
	require.Error(t, err)

	var improper *ImproperlyConfiguredSchema
	require.ErrorAs(t, err, &improper)
	assert.Contains(t, err.Error(), "before it was bound")
}

func TestBoundAdapterWithoutSchemaNamesBinding(t *testing.T) {
	owner := &testOwner{name: "Config"}
	a := newTestAdapter(nil)
	a.Bind(owner, "payload")

	err := a.ValidateSchema()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.payload")
}

func TestBindClearsCaches(t *testing.T) {
	ownerA := &testOwner{name: "A", annotations: map[string]any{"v": schema.Int}}
	ownerB := &testOwner{name: "B", annotations: map[string]any{"v": schema.String}}

	a := newTestAdapter(nil)
	a.Bind(ownerA, "v")
	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.Same(t, schema.Int, resolved)

	a.Bind(ownerB, "v")
	resolved, err = a.ResolvedSchema()
	require.NoError(t, err)
	assert.Same(t, schema.String, resolved)
}

func TestAllowNullWrapsResolvedSchema(t *testing.T) {
	a := newTestAdapter(schema.Int, AllowNull(true))
	resolved, err := a.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(schema.UnionOf(schema.Int, schema.Null)))
}

func TestNullShortCircuit(t *testing.T) {
	// the raw schema is deliberately unresolvable: the short-circuit must
	// bypass schema conversion entirely
	a := newTestAdapter("Nowhere", AllowNull(true))
	got, err := a.ValidateValue(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	a = newTestAdapter(schema.Int, AllowNull(false))
	_, err = a.ValidateValue(nil)
	assert.Error(t, err)
}

func TestValidateValue(t *testing.T) {
	a := newTestAdapter(pointStruct())
	got, err := a.ValidateValue(map[string]any{"x": 1, "y": 2})
	require.NoError(t, err)
	inst := got.(*schema.Instance)
	x, _ := inst.Get("x")
	assert.Equal(t, int64(1), x)
}

func TestValidateValueStrictOverride(t *testing.T) {
	a := newTestAdapter(schema.Int)

	got, err := a.ValidateValue("42") // lenient by default
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = a.ValidateValueStrict("42", true)
	assert.Error(t, err)
}

func TestValidateJSONErrorKinds(t *testing.T) {
	a := newTestAdapter(pointStruct())

	_, err := a.ValidateJSON([]byte(`{`))
	var de *schema.DecodeError
	require.ErrorAs(t, err, &de)

	_, err = a.ValidateJSON([]byte(`{}`))
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)

	got, err := a.ValidateJSON([]byte(`{"x":1,"y":2}`))
	require.NoError(t, err)
	assert.IsType(t, &schema.Instance{}, got)
}

func TestDumpValueFiltering(t *testing.T) {
	record := schema.NewStruct("Record",
		schema.NewField("a", schema.String),
		schema.NewField("b", schema.Optional(schema.String)).WithDefault(nil),
		schema.NewField("c", schema.Int).WithDefault(int64(7)),
	)
	inst, err := record.New(map[string]any{"a": "x", "b": nil, "c": int64(7)})
	require.NoError(t, err)

	a := newTestAdapter(record, WithExportOptions(ExportOptions{
		ExcludeNone:     true,
		ExcludeDefaults: true,
	}))

	dumped, err := a.DumpValue(inst)
	require.NoError(t, err)
	d := dumped.(*schema.Dict)
	require.Equal(t, 1, d.Len())
	v, _ := d.Get("a")
	assert.Equal(t, "x", v)
}

func TestDumpOverridesAreThreeWay(t *testing.T) {
	record := schema.NewStruct("Record",
		schema.NewField("a", schema.String),
		schema.NewField("b", schema.String),
	)
	inst, err := record.New(map[string]any{"a": "1", "b": "2"})
	require.NoError(t, err)

	a := newTestAdapter(record, WithExportOptions(ExportOptions{
		Include: Keys("a"),
	}))

	// no override: the stored include applies
	dumped, err := a.DumpValue(inst)
	require.NoError(t, err)
	assert.Equal(t, 1, dumped.(*schema.Dict).Len())

	// explicit value: the override replaces the stored include
	dumped, err = a.DumpValue(inst, WithInclude("b"))
	require.NoError(t, err)
	v, _ := dumped.(*schema.Dict).Get("b")
	assert.Equal(t, "2", v)

	// explicitly cleared: no include filtering at all
	dumped, err = a.DumpValue(inst, WithInclude())
	require.NoError(t, err)
	assert.Equal(t, 2, dumped.(*schema.Dict).Len())
}

func TestDumpByAlias(t *testing.T) {
	record := schema.NewStruct("Record",
		schema.NewField("userName", schema.String).WithAlias("user_name"),
	)
	inst, err := record.New(map[string]any{"userName": "ada"})
	require.NoError(t, err)

	a := newTestAdapter(record, WithExportOptions(ExportOptions{ByAlias: true}))
	dumped, err := a.DumpValue(inst)
	require.NoError(t, err)
	_, ok := dumped.(*schema.Dict).Get("user_name")
	assert.True(t, ok)

	dumped, err = a.DumpValue(inst, WithByAlias(false))
	require.NoError(t, err)
	_, ok = dumped.(*schema.Dict).Get("userName")
	assert.True(t, ok)
}

func TestDumpJSON(t *testing.T) {
	a := newTestAdapter(pointStruct())

	data, err := a.DumpJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	inst, err := pointStruct().New(map[string]any{"x": int64(1), "y": int64(2)})
	require.NoError(t, err)
	data, err = a.DumpJSON(inst)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":2}`, string(data))
}

func TestDefaultValue(t *testing.T) {
	withDefaults := schema.NewStruct("Settings",
		schema.NewField("retries", schema.Int).WithDefault(int64(3)),
		schema.NewField("verbose", schema.Bool).WithDefault(false),
	)
	a := newTestAdapter(withDefaults)
	got := a.DefaultValue()
	require.NotNil(t, got)
	retries, _ := got.(*schema.Instance).Get("retries")
	assert.Equal(t, int64(3), retries)

	// a required field blocks zero-argument construction
	a = newTestAdapter(pointStruct())
	assert.Nil(t, a.DefaultValue())

	// the struct member of an optional union still constructs
	a = newTestAdapter(schema.UnionOf(withDefaults, schema.Null))
	assert.NotNil(t, a.DefaultValue())
}

func TestEquality(t *testing.T) {
	point := pointStruct()

	a := newTestAdapter(point)
	b := newTestAdapter(point)
	assert.True(t, a.Equal(b))

	c := newTestAdapter(schema.Int)
	assert.False(t, a.Equal(c))

	// differing export options break equality
	d := newTestAdapter(point, WithExportOptions(ExportOptions{ExcludeNone: true}))
	assert.False(t, a.Equal(d))

	assert.False(t, a.Equal(nil))
}

func TestEqualityFallbackOnUnresolvable(t *testing.T) {
	// unbound and unresolvable on both sides: raw declarations compare
	a := newTestAdapter("Ghost")
	b := newTestAdapter("Ghost")
	assert.True(t, a.Equal(b))

	c := newTestAdapter("Phantom")
	assert.False(t, a.Equal(c))

	// both bound and both unresolvable: never equal
	owner := &testOwner{name: "Spooky"}
	a.Bind(owner, "g")
	b.Bind(owner, "g")
	assert.False(t, a.Equal(b))
}

func TestEqualityContainerAgainstRawFallback(t *testing.T) {
	// an unresolvable wrapped declaration equals the same declaration raw:
	// container comparison bridges the two forms
	wrapped := container.NewGeneric(schema.OriginList, schema.NewRef("Ghost"))
	a := newTestAdapter(wrapped)
	b := newTestAdapter(schema.ListOf(schema.NewRef("Ghost")))
	assert.True(t, a.Equal(b))
}

func TestCloneIsUnbound(t *testing.T) {
	owner := &testOwner{name: "A", annotations: map[string]any{"v": schema.Int}}
	a := newTestAdapter(nil, AllowNull(true))
	a.Bind(owner, "v")
	_, err := a.ResolvedSchema()
	require.NoError(t, err)

	clone := a.Clone()
	assert.False(t, clone.IsBound())
	assert.True(t, clone.AllowNull())

	clone.Bind(owner, "v")
	resolved, err := clone.ResolvedSchema()
	require.NoError(t, err)
	assert.True(t, resolved.Equals(schema.UnionOf(schema.Int, schema.Null)))
}

func TestConfHookFallback(t *testing.T) {
	conf.RegisterDecodeHook("adapter_test_dec", func(target schema.Type, value any) (any, bool, error) {
		if s, ok := value.(string); ok && target.Equals(schema.Int) && s == "seven" {
			return int64(7), true, nil
		}
		return nil, false, nil
	})
	v := viper.New()
	v.Set("schemafield.dec_hook", "adapter_test_dec")
	settings := conf.FromViper(v)

	a := New(schema.Int, WithSettings(settings), WithExportOptions(ExportOptions{
		Strict: boolPtr(true),
	}))
	got, err := a.ValidateValue("seven")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	// an explicit export-option hook wins over the configured one
	own := func(target schema.Type, value any) (any, bool, error) {
		return int64(99), true, nil
	}
	b := New(schema.Int, WithSettings(settings), WithExportOptions(ExportOptions{DecodeHook: own}))
	got, err = b.ValidateValue("anything")
	require.NoError(t, err)
	assert.Equal(t, int64(99), got)
}

func boolPtr(v bool) *bool { return &v }
