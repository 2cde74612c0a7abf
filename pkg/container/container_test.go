package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemafield/schemafield/pkg/schema"
)

func TestWrapPrimitivePassesThrough(t *testing.T) {
	assert.Equal(t, schema.Int, Wrap(schema.Int))
	assert.Equal(t, "hello", Wrap("hello"))
	assert.Nil(t, Wrap(nil))
}

func TestWrapGenericDecomposes(t *testing.T) {
	wrapped := Wrap(schema.ListOf(schema.Int))
	c, ok := wrapped.(*GenericContainer)
	require.True(t, ok)
	assert.Equal(t, schema.OriginList, c.Origin)
	require.Len(t, c.Args, 1)
	assert.Equal(t, schema.Int, c.Args[0])
}

func TestWrapNestedGeneric(t *testing.T) {
	wrapped := Wrap(schema.MapOf(schema.String, schema.ListOf(schema.Int)))
	c := wrapped.(*GenericContainer)
	assert.Equal(t, schema.OriginMap, c.Origin)
	require.Len(t, c.Args, 2)

	inner, ok := c.Args[1].(*GenericContainer)
	require.True(t, ok)
	assert.Equal(t, schema.OriginList, inner.Origin)
}

func TestWrapUnwrapRoundTrips(t *testing.T) {
	point := schema.NewStruct("Point",
		schema.NewField("x", schema.Int),
		schema.NewField("y", schema.Int),
	)
	inst, err := point.New(map[string]any{"x": int64(1), "y": int64(2)})
	require.NoError(t, err)

	tests := []struct {
		name  string
		value any
	}{
		{"primitive", schema.Int},
		{"list", schema.ListOf(schema.String)},
		{"map", schema.MapOf(schema.String, schema.Float)},
		{"subscripted union", schema.UnionOf(schema.Int, schema.Null)},
		{"bitwise union", schema.Or(schema.Int, schema.Null)},
		{"literal", schema.LiteralOf("a", "b")},
		{"annotated", schema.Annotate(schema.Int, schema.NewMeta().Ge(0))},
		{"nested", schema.ListOf(schema.UnionOf(point, schema.Null))},
		{"struct", point},
		{"instance", inst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := Unwrap(Wrap(tt.value))
			assert.True(t, Equal(tt.value, round), "got %v", round)
		})
	}
}

func TestUnwrapPreservesUnionSpelling(t *testing.T) {
	bitwise := schema.Or(schema.Int, schema.Null)
	round := Unwrap(Wrap(bitwise))
	require.IsType(t, &schema.OrUnion{}, round)

	subscripted := schema.UnionOf(schema.Int, schema.Null)
	round = Unwrap(Wrap(subscripted))
	require.IsType(t, &schema.Union{}, round)
}

func TestUnwrapInstanceReconstructs(t *testing.T) {
	point := schema.NewStruct("Point",
		schema.NewField("x", schema.Int),
		schema.NewField("y", schema.Int),
	)
	c := NewInstance(point, map[string]any{"x": int64(3), "y": int64(4)})

	got := Unwrap(c)
	inst, ok := got.(*schema.Instance)
	require.True(t, ok)
	x, _ := inst.Get("x")
	assert.Equal(t, int64(3), x)
}

func TestUnwrapInstanceFailureReturnsContainer(t *testing.T) {
	point := schema.NewStruct("Point", schema.NewField("x", schema.Int))
	c := NewInstance(point, map[string]any{"bogus": 1})

	got := Unwrap(c)
	assert.Same(t, c, got)
}

func TestUnwrapUnknownOriginDegradesToAlias(t *testing.T) {
	type exoticOrigin struct{}
	c := NewGeneric(exoticOrigin{}, schema.Int)

	got := Unwrap(c)
	alias, ok := got.(*schema.ParametrizedAlias)
	require.True(t, ok)
	assert.Equal(t, exoticOrigin{}, alias.Origin)
}

func TestUnwrapBareOrigin(t *testing.T) {
	// a no-argument container yields the origin itself
	assert.Equal(t, schema.OriginList, Unwrap(NewGeneric(schema.OriginList)))
	assert.Equal(t, schema.Int, Unwrap(NewGeneric(schema.Int)))
}

func TestEqualContainerAgainstRaw(t *testing.T) {
	raw := schema.ListOf(schema.Int)
	wrapped := Wrap(raw)

	assert.True(t, Equal(wrapped, raw))
	assert.True(t, Equal(raw, wrapped))
	assert.False(t, Equal(wrapped, schema.ListOf(schema.String)))
	assert.False(t, Equal(wrapped, "not a type"))
}

func TestEqualInstanceContainers(t *testing.T) {
	point := schema.NewStruct("Point", schema.NewField("x", schema.Int))
	a := NewInstance(point, map[string]any{"x": int64(1)})
	b := NewInstance(point, map[string]any{"x": int64(1)})
	c := NewInstance(point, map[string]any{"x": int64(2)})

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}
