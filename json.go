package rill

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/go-faster/jx"
)

// MarshalJSON encodes a value as JSON.
//
// Unit encodes as null, which decodes back as Unit. Tuple encodes as an
// array, which decodes as Vec, so decoding is not an exact inverse for
// tuples. Integers are encoded as JSON numbers of
// arbitrary precision. Object keys are encoded in sorted order.
func MarshalJSON(v Value) ([]byte, error) {
	enc := jx.GetEncoder()
	defer jx.PutEncoder(enc)

	enc.Reset()
	if err := encodeJSON(enc, v); err != nil {
		return nil, err
	}
	return slices.Clone(enc.Bytes()), nil
}

func encodeJSON(enc *jx.Encoder, v Value) error {
	switch v := v.(type) {
	case Unit:
		enc.Null()
		return nil
	case Bool:
		enc.Bool(bool(v))
		return nil
	case Int:
		if i, ok := v.Int64(); ok {
			enc.Int64(i)
			return nil
		}
		enc.Num(jx.Num(v.String()))
		return nil
	case Float:
		enc.Float64(float64(v))
		return nil
	case String:
		ref, err := v.BorrowRef()
		if err != nil {
			return err
		}
		defer ref.Release()
		enc.Str(*ref.Get())
		return nil
	case Vec:
		return encodeItemsJSON(enc, v.Shared)
	case Tuple:
		return encodeItemsJSON(enc, v.Shared)
	case Object:
		ref, err := v.BorrowRef()
		if err != nil {
			return err
		}
		defer ref.Release()
		fields := *ref.Get()
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		enc.ObjStart()
		for _, key := range keys {
			enc.FieldStart(key)
			if err := encodeJSON(enc, fields[key]); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		enc.ObjEnd()
		return nil
	}
	return fmt.Errorf("unsupported value type: %T", v)
}

func encodeItemsJSON(enc *jx.Encoder, cell *Shared[[]Value]) error {
	ref, err := cell.BorrowRef()
	if err != nil {
		return err
	}
	defer ref.Release()
	enc.ArrStart()
	for i, item := range *ref.Get() {
		if err := encodeJSON(enc, item); err != nil {
			return fmt.Errorf("%d: %w", i, err)
		}
	}
	enc.ArrEnd()
	return nil
}

// UnmarshalJSON decodes JSON data into a value.
// null becomes Unit, arrays become Vec, and objects become Object.
func UnmarshalJSON(data []byte) (Value, error) {
	dec := jx.GetDecoder()
	defer jx.PutDecoder(dec)

	dec.ResetBytes(data)
	return decodeJSON(dec)
}

func decodeJSON(dec *jx.Decoder) (Value, error) {
	switch dec.Next() {
	case jx.Number:
		num, err := dec.Num()
		if err != nil {
			return nil, err
		}
		s := string(num)
		if strings.ContainsAny(s, ".eE") {
			f, err := num.Float64()
			if err != nil {
				return nil, err
			}
			return Float(f), nil
		}
		x, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid number: %q", s)
		}
		return IntFromBig(x), nil
	case jx.String:
		str, err := dec.Str()
		if err != nil {
			return nil, err
		}
		return NewString(str), nil
	case jx.Bool:
		b, err := dec.Bool()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case jx.Null:
		if err := dec.Null(); err != nil {
			return nil, err
		}
		return Unit{}, nil
	case jx.Array:
		var items []Value
		if err := dec.Arr(func(d *jx.Decoder) error {
			item, err := decodeJSON(d)
			if err != nil {
				return err
			}
			items = append(items, item)
			return nil
		}); err != nil {
			return nil, err
		}
		return NewVec(items), nil
	case jx.Object:
		fields := make(map[string]Value)
		if err := dec.Obj(func(d *jx.Decoder, key string) error {
			value, err := decodeJSON(d)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			fields[key] = value
			return nil
		}); err != nil {
			return nil, err
		}
		return NewObject(fields), nil
	}
	if err := dec.Skip(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("unexpected JSON value")
}
