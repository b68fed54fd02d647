package rill_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill"
)

func TestShared_BorrowRef(t *testing.T) {
	cell := rill.NewShared(5)
	require.Equal(t, "fully accessible", cell.Snapshot().String())

	r1, err := cell.BorrowRef()
	require.NoError(t, err)
	require.Equal(t, 5, *r1.Get())
	require.Equal(t, "shared by 1", cell.Snapshot().String())

	r2, err := cell.BorrowRef()
	require.NoError(t, err)
	require.Equal(t, "shared by 2", cell.Snapshot().String())

	r1.Release()
	require.Equal(t, "shared by 1", cell.Snapshot().String())
	r2.Release()
	require.Equal(t, "fully accessible", cell.Snapshot().String())

	// releasing again is a no-op
	r2.Release()
	require.Equal(t, "fully accessible", cell.Snapshot().String())
}

func TestShared_BorrowMut(t *testing.T) {
	cell := rill.NewShared(5)

	m, err := cell.BorrowMut()
	require.NoError(t, err)
	require.Equal(t, "exclusively accessed", cell.Snapshot().String())

	*m.Get() = 7

	_, err = cell.BorrowMut()
	var notMut *rill.NotAccessibleMut
	require.True(t, errors.As(err, &notMut))
	require.EqualError(t, err, "cannot write, value is exclusively accessed")
	require.Equal(t, rill.Snapshot(1), notMut.Snapshot)

	_, err = cell.BorrowRef()
	var notRef *rill.NotAccessibleRef
	require.True(t, errors.As(err, &notRef))
	require.EqualError(t, err, "cannot read, value is exclusively accessed")

	_, err = cell.Take()
	var notTake *rill.NotAccessibleTake
	require.True(t, errors.As(err, &notTake))
	require.EqualError(t, err, "cannot take, value is exclusively accessed")

	m.Release()

	r, err := cell.BorrowRef()
	require.NoError(t, err)
	require.Equal(t, 7, *r.Get())
	r.Release()
}

func TestShared_SharedThenExclusive(t *testing.T) {
	cell := rill.NewShared("x")

	r, err := cell.BorrowRef()
	require.NoError(t, err)

	_, err = cell.BorrowMut()
	require.EqualError(t, err, "cannot write, value is shared by 1")

	_, err = cell.Take()
	require.EqualError(t, err, "cannot take, value is shared by 1")

	r.Release()

	_, err = cell.BorrowMut()
	require.NoError(t, err)
}

func TestShared_Take(t *testing.T) {
	cell := rill.NewShared(42)

	g, err := cell.Take()
	require.NoError(t, err)
	require.Equal(t, "moved", cell.Snapshot().String())
	require.Equal(t, 42, *g.Get())

	_, err = cell.BorrowRef()
	require.EqualError(t, err, "cannot read, value is moved")
	_, err = cell.Take()
	require.EqualError(t, err, "cannot take, value is moved")

	// releasing undoes the take
	g.Release()
	require.Equal(t, "fully accessible", cell.Snapshot().String())

	// consuming makes it permanent
	g, err = cell.Take()
	require.NoError(t, err)
	require.Equal(t, 42, g.Consume())
	require.Equal(t, "moved", cell.Snapshot().String())

	_, err = cell.BorrowMut()
	require.EqualError(t, err, "cannot write, value is moved")
}

func TestShared_TryMapRef(t *testing.T) {
	cell := rill.NewShared([]int{1, 2, 3})

	ref, err := cell.BorrowRef()
	require.NoError(t, err)

	elem, err := rill.TryMapRef(ref, func(s *[]int) (*int, error) {
		return &(*s)[1], nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, *elem.Get())
	// the projection retains the original obligation
	require.Equal(t, "shared by 1", cell.Snapshot().String())

	elem.Release()
	require.Equal(t, "fully accessible", cell.Snapshot().String())

	// a failed projection releases the guard
	ref, err = cell.BorrowRef()
	require.NoError(t, err)
	_, err = rill.TryMapRef(ref, func(s *[]int) (*int, error) {
		return nil, errors.New("no such element")
	})
	require.EqualError(t, err, "no such element")
	require.Equal(t, "fully accessible", cell.Snapshot().String())
}

func TestShared_TryMapMut(t *testing.T) {
	cell := rill.NewShared(map[string]int{"a": 1})

	mut, err := cell.BorrowMut()
	require.NoError(t, err)

	_, err = rill.TryMapMut(mut, func(m *map[string]int) (*int, error) {
		return nil, errors.New("no such key")
	})
	require.EqualError(t, err, "no such key")
	require.Equal(t, "fully accessible", cell.Snapshot().String())
}

func TestShared_UseAfterRelease(t *testing.T) {
	cell := rill.NewShared(1)

	r, err := cell.BorrowRef()
	require.NoError(t, err)
	r.Release()
	require.Panics(t, func() { r.Get() })

	m, err := cell.BorrowMut()
	require.NoError(t, err)
	m.Release()
	require.Panics(t, func() { m.Get() })
}

func TestSnapshot_String(t *testing.T) {
	require.Equal(t, "fully accessible", rill.Snapshot(0).String())
	require.Equal(t, "exclusively accessed", rill.Snapshot(1).String())
	require.Equal(t, "shared by 3", rill.Snapshot(-3).String())
	require.Equal(t, "invalidly marked (2)", rill.Snapshot(2).String())
}
