// Package rill implements the compile-time value model of the rill
// toolchain: the Value sum type and the Shared cell, a heap-allocated
// mutable box whose aliasing is checked at runtime by an access counter.
package rill

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
)

// Value represents a constant value.
//
// Scalar variants (Unit, Bool, Int, Float) are plain immutable values.
// Heap variants (String, Vec, Tuple, Object) hold a handle to a Shared cell;
// copying such a value aliases the same cell.
type Value interface {
	// TypeName returns the name of the value's type.
	TypeName() string
	// String returns a string representation of the value.
	String() string
}

// Unit represents the unit value.
type Unit struct{}

func (v Unit) TypeName() string { return "unit" }
func (v Unit) String() string   { return "()" }

// Bool represents a boolean value.
type Bool bool

func (v Bool) TypeName() string { return "bool" }
func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }

// Int represents an arbitrary-precision integer value.
type Int struct {
	x *big.Int
}

// NewInt creates an integer value from an int64.
func NewInt(x int64) Int {
	return Int{x: big.NewInt(x)}
}

// IntFromBig creates an integer value holding a copy of x.
func IntFromBig(x *big.Int) Int {
	return Int{x: new(big.Int).Set(x)}
}

// ParseInt creates an integer value from a string in the given base.
// Base 0 accepts the 0x, 0o and 0b prefixes and underscore separators.
func ParseInt(s string, base int) (Int, error) {
	x, ok := new(big.Int).SetString(s, base)
	if !ok {
		return Int{}, fmt.Errorf("invalid integer literal: %q", s)
	}
	return Int{x: x}, nil
}

func (v Int) big() *big.Int {
	if v.x == nil {
		return new(big.Int)
	}
	return v.x
}

func (v Int) TypeName() string { return "int" }
func (v Int) String() string   { return v.big().Text(10) }

// Int64 returns the value as an int64 if it fits.
func (v Int) Int64() (int64, bool) {
	if !v.big().IsInt64() {
		return 0, false
	}
	return v.big().Int64(), true
}

// BigInt returns a copy of the value as a big integer.
func (v Int) BigInt() *big.Int {
	return new(big.Int).Set(v.big())
}

// Sign returns -1, 0 or 1 depending on the sign of the value.
func (v Int) Sign() int { return v.big().Sign() }

// Cmp compares v and y and returns -1, 0 or 1.
func (v Int) Cmp(y Int) int { return v.big().Cmp(y.big()) }

// Add returns v + y.
func (v Int) Add(y Int) Int { return Int{x: new(big.Int).Add(v.big(), y.big())} }

// Sub returns v - y.
func (v Int) Sub(y Int) Int { return Int{x: new(big.Int).Sub(v.big(), y.big())} }

// Mul returns v * y.
func (v Int) Mul(y Int) Int { return Int{x: new(big.Int).Mul(v.big(), y.big())} }

// CheckedDiv returns v / y truncated towards zero.
// Returns false if y is zero.
func (v Int) CheckedDiv(y Int) (Int, bool) {
	if y.big().Sign() == 0 {
		return Int{}, false
	}
	return Int{x: new(big.Int).Quo(v.big(), y.big())}, true
}

// Shl returns v << n.
func (v Int) Shl(n uint) Int { return Int{x: new(big.Int).Lsh(v.big(), n)} }

// Shr returns v >> n. The shift is arithmetic: negative values sign-extend.
func (v Int) Shr(n uint) Int { return Int{x: new(big.Int).Rsh(v.big(), n)} }

// AsShift returns the value as a shift amount.
// Returns false unless 0 <= v <= math.MaxUint32.
func (v Int) AsShift() (uint, bool) {
	if v.big().Sign() < 0 || !v.big().IsUint64() {
		return 0, false
	}
	n := v.big().Uint64()
	if n > math.MaxUint32 {
		return 0, false
	}
	return uint(n), true
}

// Float represents a floating point value.
type Float float64

func (v Float) TypeName() string { return "float" }
func (v Float) String() string   { return FormatFloat(float64(v)) }

// FormatFloat formats a float using the shortest decimal representation
// that parses back to the same value. Finite values always carry a decimal
// point or an exponent.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// String represents a string value.
type String struct {
	*Shared[string]
}

// NewString creates a string value in a fresh cell.
func NewString(s string) String {
	return String{Shared: NewShared(s)}
}

func (v String) TypeName() string { return "string" }

func (v String) String() string {
	ref, err := v.BorrowRef()
	if err != nil {
		return "<string " + v.Snapshot().String() + ">"
	}
	defer ref.Release()
	return strconv.Quote(*ref.Get())
}

// Vec represents a vector of values.
type Vec struct {
	*Shared[[]Value]
}

// NewVec creates a vector value in a fresh cell.
func NewVec(items []Value) Vec {
	return Vec{Shared: NewShared(items)}
}

func (v Vec) TypeName() string { return "vec" }

func (v Vec) String() string {
	ref, err := v.BorrowRef()
	if err != nil {
		return "<vec " + v.Snapshot().String() + ">"
	}
	defer ref.Release()
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range *ref.Get() {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Tuple represents a fixed-arity sequence of values.
type Tuple struct {
	*Shared[[]Value]
}

// NewTuple creates a tuple value in a fresh cell.
func NewTuple(items []Value) Tuple {
	return Tuple{Shared: NewShared(items)}
}

func (v Tuple) TypeName() string { return "tuple" }

func (v Tuple) String() string {
	ref, err := v.BorrowRef()
	if err != nil {
		return "<tuple " + v.Snapshot().String() + ">"
	}
	defer ref.Release()
	items := *ref.Get()
	var b strings.Builder
	b.WriteByte('(')
	for i, item := range items {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	if len(items) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

// Object represents a mapping from string keys to values.
type Object struct {
	*Shared[map[string]Value]
}

// NewObject creates an object value in a fresh cell.
func NewObject(fields map[string]Value) Object {
	if fields == nil {
		fields = make(map[string]Value)
	}
	return Object{Shared: NewShared(fields)}
}

func (v Object) TypeName() string { return "object" }

func (v Object) String() string {
	ref, err := v.BorrowRef()
	if err != nil {
		return "<object " + v.Snapshot().String() + ">"
	}
	defer ref.Release()
	fields := *ref.Get()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	var b strings.Builder
	b.WriteString("#{")
	for i, key := range keys {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(fields[key].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Equal reports whether two values are deeply equal.
// Heap values are compared through shared borrows; a failed borrow is
// returned as an error. Values of different types are unequal.
func Equal(x, y Value) (bool, error) {
	switch x := x.(type) {
	case Unit:
		_, ok := y.(Unit)
		return ok, nil
	case Bool:
		b, ok := y.(Bool)
		return ok && x == b, nil
	case Int:
		i, ok := y.(Int)
		return ok && x.Cmp(i) == 0, nil
	case Float:
		f, ok := y.(Float)
		return ok && x == f, nil
	case String:
		s, ok := y.(String)
		if !ok {
			return false, nil
		}
		return equalStrings(x, s)
	case Vec:
		v, ok := y.(Vec)
		if !ok {
			return false, nil
		}
		return equalItems(x.Shared, v.Shared)
	case Tuple:
		t, ok := y.(Tuple)
		if !ok {
			return false, nil
		}
		return equalItems(x.Shared, t.Shared)
	case Object:
		o, ok := y.(Object)
		if !ok {
			return false, nil
		}
		return equalObjects(x, o)
	}
	return false, fmt.Errorf("unsupported value type: %T", x)
}

func equalStrings(x, y String) (bool, error) {
	xref, err := x.BorrowRef()
	if err != nil {
		return false, err
	}
	defer xref.Release()
	yref, err := y.BorrowRef()
	if err != nil {
		return false, err
	}
	defer yref.Release()
	return *xref.Get() == *yref.Get(), nil
}

func equalItems(x, y *Shared[[]Value]) (bool, error) {
	if x == y {
		return true, nil
	}
	xref, err := x.BorrowRef()
	if err != nil {
		return false, err
	}
	defer xref.Release()
	yref, err := y.BorrowRef()
	if err != nil {
		return false, err
	}
	defer yref.Release()
	xs, ys := *xref.Get(), *yref.Get()
	if len(xs) != len(ys) {
		return false, nil
	}
	for i := range xs {
		eq, err := Equal(xs[i], ys[i])
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func equalObjects(x, y Object) (bool, error) {
	if x.Shared == y.Shared {
		return true, nil
	}
	xref, err := x.BorrowRef()
	if err != nil {
		return false, err
	}
	defer xref.Release()
	yref, err := y.BorrowRef()
	if err != nil {
		return false, err
	}
	defer yref.Release()
	xs, ys := *xref.Get(), *yref.Get()
	if len(xs) != len(ys) {
		return false, nil
	}
	for key, xv := range xs {
		yv, ok := ys[key]
		if !ok {
			return false, nil
		}
		eq, err := Equal(xv, yv)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

// Unwrap converts a value into plain Go data: nil, bool, int64 (or a decimal
// string when the integer does not fit), float64, string, []any and
// map[string]any.
func Unwrap(v Value) (any, error) {
	switch v := v.(type) {
	case Unit:
		return nil, nil
	case Bool:
		return bool(v), nil
	case Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		return v.String(), nil
	case Float:
		return float64(v), nil
	case String:
		ref, err := v.BorrowRef()
		if err != nil {
			return nil, err
		}
		defer ref.Release()
		return *ref.Get(), nil
	case Vec:
		return unwrapItems(v.Shared)
	case Tuple:
		return unwrapItems(v.Shared)
	case Object:
		ref, err := v.BorrowRef()
		if err != nil {
			return nil, err
		}
		defer ref.Release()
		fields := make(map[string]any, len(*ref.Get()))
		for key, item := range *ref.Get() {
			u, err := Unwrap(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			fields[key] = u
		}
		return fields, nil
	}
	return nil, fmt.Errorf("unsupported value type: %T", v)
}

func unwrapItems(cell *Shared[[]Value]) (any, error) {
	ref, err := cell.BorrowRef()
	if err != nil {
		return nil, err
	}
	defer ref.Release()
	items := make([]any, 0, len(*ref.Get()))
	for i, item := range *ref.Get() {
		u, err := Unwrap(item)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", i, err)
		}
		items = append(items, u)
	}
	return items, nil
}
