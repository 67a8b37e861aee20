package table

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"NullNull", Null(), Null(), true},
		{"IntInt", Int(5), Int(5), true},
		{"IntDiffers", Int(5), Int(6), false},
		{"IntVsUint", Int(5), Uint(5), false},
		{"StringString", String("a"), String("a"), true},
		{"NaN", Float(math.NaN()), Float(math.NaN()), true},
		{"NullVsEmpty", Null(), String(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestValue_Conversions(t *testing.T) {
	u, ok := Int(-1).Uint64()
	assert.False(t, ok)
	assert.Zero(t, u)

	i, ok := Uint(math.MaxUint64).Int64()
	assert.False(t, ok)
	assert.Zero(t, i)

	i, ok = Float(12).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(12), i)

	_, ok = Float(1.5).Int64()
	assert.False(t, ok)

	_, ok = String("1").Int64()
	assert.False(t, ok)

	assert.Equal(t, "42", Uint(42).String())
	assert.Equal(t, "-3", Int(-3).String())
	assert.Equal(t, "", Null().String())
}

func TestValue_JSONKeepsKind(t *testing.T) {
	row := Row{
		"a": Int(-7),
		"b": Uint(math.MaxUint64),
		"c": Float(0.25),
		"d": String("x"),
		"e": Null(),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var back Row
	require.NoError(t, json.Unmarshal(data, &back))
	for k, v := range row {
		assert.True(t, v.Equal(back[k]), "column %s: %v vs %v", k, v, back[k])
	}
	assert.Equal(t, KindUint, back["b"].Kind())
}

func TestValue_JSONNonFiniteFloat(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000123)
	for _, f := range []float64{nan, math.Inf(1), math.Inf(-1)} {
		data, err := json.Marshal(Float(f))
		require.NoError(t, err)

		var got Value
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, KindFloat, got.Kind())
		g, _ := got.Float64()
		assert.Equal(t, math.Float64bits(f), math.Float64bits(g))
	}
}

func TestVisibility(t *testing.T) {
	shared := Shared()
	a := RestrictedTo("a")
	ab := a.With("b")

	assert.True(t, shared.IsShared())
	assert.True(t, shared.Includes("anything"))
	assert.True(t, a.Includes("a"))
	assert.False(t, a.Includes("b"))
	assert.Equal(t, []string{"a", "b"}, ab.Envs())
	assert.True(t, a.Overlaps(shared))
	assert.True(t, ab.Overlaps(RestrictedTo("b", "c")))
	assert.False(t, a.Overlaps(RestrictedTo("b", "c")))
	assert.True(t, shared.With("a").IsShared())
	assert.True(t, RestrictedTo().IsShared())
	assert.True(t, ab.Equal(RestrictedTo("b", "a")))
}

func TestVisibility_JSON(t *testing.T) {
	in := []Visibility{Shared(), RestrictedTo("client"), RestrictedTo("server", "client")}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[null,["client"],["client","server"]]`, string(data))

	var out []Visibility
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 3)
	for i := range in {
		assert.True(t, in[i].Equal(out[i]))
	}
}

func TestColumn_SameLayout(t *testing.T) {
	a := Column{Name: "N", Type: TypeString, Length: 32, SourceTypeCode: TypeCode(9)}
	assert.True(t, a.SameLayout(a.Clone()))

	b := a.Clone()
	b.Length = 64
	assert.False(t, a.SameLayout(b))

	c := a.Clone()
	c.SourceTypeCode = TypeCode(24)
	assert.False(t, a.SameLayout(c))

	d := a.Clone()
	d.SourceTypeCode = nil
	assert.False(t, a.SameLayout(d))
}

func TestSemanticType_Text(t *testing.T) {
	data, err := json.Marshal(TypeUInt16)
	require.NoError(t, err)
	assert.Equal(t, `"UInt16"`, string(data))

	var back SemanticType
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, TypeUInt16, back)

	assert.Error(t, json.Unmarshal([]byte(`"Decimal"`), &back))
}
