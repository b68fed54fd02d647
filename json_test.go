package rill_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill"
)

func TestMarshalJSON(t *testing.T) {
	marshal := func(v rill.Value) string {
		data, err := rill.MarshalJSON(v)
		require.NoError(t, err)
		return string(data)
	}

	require.Equal(t, "null", marshal(rill.Unit{}))
	require.Equal(t, "true", marshal(rill.Bool(true)))
	require.Equal(t, "42", marshal(rill.NewInt(42)))
	require.Equal(t, "1.5", marshal(rill.Float(1.5)))
	require.Equal(t, `"a\nb"`, marshal(rill.NewString("a\nb")))
	require.Equal(t, `[1,"a"]`, marshal(rill.NewVec([]rill.Value{
		rill.NewInt(1),
		rill.NewString("a"),
	})))
	require.Equal(t, `[1,2]`, marshal(rill.NewTuple([]rill.Value{
		rill.NewInt(1),
		rill.NewInt(2),
	})))
	require.Equal(t, `{"a":1,"b":[]}`, marshal(rill.NewObject(map[string]rill.Value{
		"b": rill.NewVec(nil),
		"a": rill.NewInt(1),
	})))

	huge, err := rill.ParseInt("123456789012345678901234567890", 10)
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", marshal(huge))
}

func TestUnmarshalJSON(t *testing.T) {
	roundTrip := func(data string, want rill.Value) {
		got, err := rill.UnmarshalJSON([]byte(data))
		require.NoError(t, err)
		eq, err := rill.Equal(want, got)
		require.NoError(t, err)
		require.True(t, eq, "want %s, got %s", want, got)
	}

	roundTrip("null", rill.Unit{})
	roundTrip("false", rill.Bool(false))
	roundTrip("42", rill.NewInt(42))
	roundTrip("1.5", rill.Float(1.5))
	roundTrip(`"a"`, rill.NewString("a"))
	roundTrip(`[1,2]`, rill.NewVec([]rill.Value{rill.NewInt(1), rill.NewInt(2)}))
	roundTrip(`{"a":{"b":[true]}}`, rill.NewObject(map[string]rill.Value{
		"a": rill.NewObject(map[string]rill.Value{
			"b": rill.NewVec([]rill.Value{rill.Bool(true)}),
		}),
	}))

	huge, err := rill.ParseInt("-123456789012345678901234567890", 10)
	require.NoError(t, err)
	roundTrip("-123456789012345678901234567890", huge)

	_, err = rill.UnmarshalJSON([]byte("{"))
	require.Error(t, err)
}
