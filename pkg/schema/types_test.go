package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveEquality(t *testing.T) {
	assert.True(t, Int.Equals(Int))
	assert.True(t, Int.Equals(&Primitive{KindInt}))
	assert.False(t, Int.Equals(Float))
	assert.False(t, Int.Equals(ListOf(Int)))
}

func TestUnionFlattening(t *testing.T) {
	tests := []struct {
		name string
		got  Type
		want []Type
	}{
		{
			name: "nested subscripted unions flatten",
			got:  UnionOf(Int, UnionOf(String, Bool)),
			want: []Type{Int, String, Bool},
		},
		{
			name: "duplicates collapse",
			got:  UnionOf(Int, Int, String),
			want: []Type{Int, String},
		},
		{
			name: "or fold flattens union operands",
			got:  Or(UnionOf(Int, String), Bool),
			want: []Type{Int, String, Bool},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := unionMembers(tt.got)
			require.Len(t, members, len(tt.want))
			for i, want := range tt.want {
				assert.True(t, members[i].Equals(want), "member %d: got %s", i, members[i])
			}
		})
	}
}

func TestUnionSingleMemberCollapses(t *testing.T) {
	assert.Same(t, Int, UnionOf(Int))
	assert.Same(t, Int, UnionOf(Int, Int))
	assert.Same(t, Int, Or(Int, Int))
}

func TestUnionSpellingsDistinctButEqual(t *testing.T) {
	subscripted := UnionOf(Int, String)
	bitwise := Or(Int, String)

	require.IsType(t, &Union{}, subscripted)
	require.IsType(t, &OrUnion{}, bitwise)

	assert.True(t, subscripted.Equals(bitwise))
	assert.True(t, bitwise.Equals(subscripted))

	// set semantics, not order
	assert.True(t, UnionOf(String, Int).Equals(subscripted))
	assert.False(t, UnionOf(Int, Bool).Equals(subscripted))
}

func TestOptional(t *testing.T) {
	opt := Optional(Int)
	assert.True(t, opt.Equals(UnionOf(Int, Null)))

	// already nullable types pass through untouched
	assert.Same(t, opt, Optional(opt))
	assert.Same(t, Null, Optional(Null))
}

func TestLiteralEquality(t *testing.T) {
	assert.True(t, LiteralOf("a", "b").Equals(LiteralOf("a", "b")))
	assert.False(t, LiteralOf("a", "b").Equals(LiteralOf("b", "a")))
	// numeric values compare by quantity, not representation
	assert.True(t, LiteralOf(1, 2).Equals(LiteralOf(int64(1), float64(2))))
}

func TestAnnotatedEquality(t *testing.T) {
	a := Annotate(Int, NewMeta().Ge(0))
	b := Annotate(Int, NewMeta().Ge(0))
	c := Annotate(Int, NewMeta().Ge(1))

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(Annotate(Float, NewMeta().Ge(0))))
}

func TestOriginParametrize(t *testing.T) {
	lst, err := OriginList.Parametrize([]any{Int})
	require.NoError(t, err)
	assert.True(t, lst.Equals(ListOf(Int)))

	m, err := OriginMap.Parametrize([]any{String, Float})
	require.NoError(t, err)
	assert.True(t, m.Equals(MapOf(String, Float)))

	u, err := OriginUnion.Parametrize([]any{Int, Null})
	require.NoError(t, err)
	assert.True(t, u.Equals(UnionOf(Int, Null)))

	_, err = OriginList.Parametrize([]any{Int, String})
	assert.Error(t, err)
	_, err = OriginList.Parametrize([]any{"not a type"})
	assert.Error(t, err)
}

func TestOrOriginIsNotParametric(t *testing.T) {
	_, ok := any(OriginOr).(Parametric)
	assert.False(t, ok, "the bitwise spelling must be rebuilt by folding with Or")

	_, ok = any(OriginUnion).(Parametric)
	assert.True(t, ok)
}

func TestParametrizedAlias(t *testing.T) {
	a := &ParametrizedAlias{Origin: OriginList, Args: []any{Int}}
	b := &ParametrizedAlias{Origin: OriginList, Args: []any{Int}}
	c := &ParametrizedAlias{Origin: OriginMap, Args: []any{Int}}

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.Equal(t, OriginList, a.GenericOrigin())
}

func TestRef(t *testing.T) {
	assert.True(t, NewRef("Point").Equals(NewRef("Point")))
	assert.False(t, NewRef("Point").Equals(NewRef("Line")))
	assert.Equal(t, "Point", NewRef("Point").String())
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "list<int>", ListOf(Int).String())
	assert.Equal(t, "map<string, float>", MapOf(String, Float).String())
	assert.Equal(t, "union[int, null]", UnionOf(Int, Null).String())
	assert.Equal(t, "int | null", Or(Int, Null).String())
}
