package rill_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill"
)

func TestValue_String(t *testing.T) {
	require.Equal(t, "()", rill.Unit{}.String())
	require.Equal(t, "true", rill.Bool(true).String())
	require.Equal(t, "42", rill.NewInt(42).String())
	require.Equal(t, "1.5", rill.Float(1.5).String())
	require.Equal(t, "42.0", rill.Float(42).String())
	require.Equal(t, `"a"`, rill.NewString("a").String())
	require.Equal(t, `[1, "a"]`, rill.NewVec([]rill.Value{
		rill.NewInt(1),
		rill.NewString("a"),
	}).String())
	require.Equal(t, "(1,)", rill.NewTuple([]rill.Value{rill.NewInt(1)}).String())
	require.Equal(t, "(1, 2)", rill.NewTuple([]rill.Value{
		rill.NewInt(1),
		rill.NewInt(2),
	}).String())
	require.Equal(t, "#{a: 1, b: 2}", rill.NewObject(map[string]rill.Value{
		"b": rill.NewInt(2),
		"a": rill.NewInt(1),
	}).String())
	require.Equal(t, "#{}", rill.NewObject(nil).String())
}

func TestInt_Arith(t *testing.T) {
	a, b := rill.NewInt(10), rill.NewInt(3)

	require.Equal(t, "13", a.Add(b).String())
	require.Equal(t, "7", a.Sub(b).String())
	require.Equal(t, "30", a.Mul(b).String())

	quo, ok := a.CheckedDiv(b)
	require.True(t, ok)
	require.Equal(t, "3", quo.String())

	// truncated towards zero
	quo, ok = rill.NewInt(-7).CheckedDiv(rill.NewInt(2))
	require.True(t, ok)
	require.Equal(t, "-3", quo.String())

	_, ok = a.CheckedDiv(rill.NewInt(0))
	require.False(t, ok)

	require.Equal(t, "1024", rill.NewInt(1).Shl(10).String())
	require.Equal(t, "-2", rill.NewInt(-8).Shr(2).String())
}

func TestInt_AsShift(t *testing.T) {
	shift, ok := rill.NewInt(math.MaxUint32).AsShift()
	require.True(t, ok)
	require.Equal(t, uint(math.MaxUint32), shift)

	_, ok = rill.NewInt(math.MaxUint32 + 1).AsShift()
	require.False(t, ok)

	_, ok = rill.NewInt(-1).AsShift()
	require.False(t, ok)
}

func TestInt_Big(t *testing.T) {
	huge, err := rill.ParseInt("123456789012345678901234567890", 10)
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", huge.String())

	_, ok := huge.Int64()
	require.False(t, ok)

	x := new(big.Int).Lsh(big.NewInt(1), 100)
	require.Equal(t, x.String(), rill.NewInt(1).Shl(100).String())
}

func TestEqual(t *testing.T) {
	equal := func(x, y rill.Value) bool {
		eq, err := rill.Equal(x, y)
		require.NoError(t, err)
		return eq
	}

	require.True(t, equal(rill.Unit{}, rill.Unit{}))
	require.True(t, equal(rill.NewInt(5), rill.NewInt(5)))
	require.False(t, equal(rill.NewInt(5), rill.NewInt(6)))
	require.False(t, equal(rill.NewInt(5), rill.Float(5)))
	require.True(t, equal(rill.NewString("a"), rill.NewString("a")))
	require.False(t, equal(rill.NewString("a"), rill.NewString("b")))

	// NaN is not equal to itself
	require.False(t, equal(rill.Float(math.NaN()), rill.Float(math.NaN())))

	vec := func(items ...int64) rill.Vec {
		values := make([]rill.Value, 0, len(items))
		for _, item := range items {
			values = append(values, rill.NewInt(item))
		}
		return rill.NewVec(values)
	}
	require.True(t, equal(vec(1, 2), vec(1, 2)))
	require.False(t, equal(vec(1, 2), vec(1, 3)))
	require.False(t, equal(vec(1, 2), vec(1)))
	require.False(t, equal(vec(1), rill.NewTuple([]rill.Value{rill.NewInt(1)})))

	require.True(t, equal(
		rill.NewObject(map[string]rill.Value{"a": rill.NewInt(1)}),
		rill.NewObject(map[string]rill.Value{"a": rill.NewInt(1)}),
	))
	require.False(t, equal(
		rill.NewObject(map[string]rill.Value{"a": rill.NewInt(1)}),
		rill.NewObject(map[string]rill.Value{"b": rill.NewInt(1)}),
	))
}

func TestFormatFloat(t *testing.T) {
	require.Equal(t, "1.5", rill.FormatFloat(1.5))
	require.Equal(t, "42.0", rill.FormatFloat(42))
	require.Equal(t, "-0.5", rill.FormatFloat(-0.5))
	require.Equal(t, "1e+21", rill.FormatFloat(1e21))
	require.Equal(t, "NaN", rill.FormatFloat(math.NaN()))
	require.Equal(t, "+Inf", rill.FormatFloat(math.Inf(1)))
}

func TestUnwrap(t *testing.T) {
	value := rill.NewObject(map[string]rill.Value{
		"id":    rill.NewInt(7),
		"name":  rill.NewString("probe"),
		"tags":  rill.NewVec([]rill.Value{rill.NewString("a")}),
		"ratio": rill.Float(0.5),
		"none":  rill.Unit{},
	})

	got, err := rill.Unwrap(value)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"id":    int64(7),
		"name":  "probe",
		"tags":  []any{"a"},
		"ratio": 0.5,
		"none":  nil,
	}, got)
}
