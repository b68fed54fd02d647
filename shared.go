package rill

// Shared is a heap-allocated mutable cell guarded by an access counter.
//
// Handles to the same cell are ordinary pointers; copying a handle aliases
// the same allocation. All aliasing of the contained value is checked at
// runtime: readers and writers obtain scoped guards, and a borrow that
// conflicts with an outstanding guard fails with a snapshot of the counter
// instead of blocking. Shared is strictly single-threaded.
type Shared[T any] struct {
	access access
	value  T
}

// NewShared creates a new cell containing the given value.
func NewShared[T any](value T) *Shared[T] {
	return &Shared[T]{value: value}
}

// Snapshot captures the current state of the cell's access counter.
func (s *Shared[T]) Snapshot() Snapshot {
	return s.access.snapshot()
}

// BorrowRef acquires shared access to the cell.
// Any number of shared guards may be outstanding at the same time.
func (s *Shared[T]) BorrowRef() (*Ref[T], error) {
	if err := s.access.acquireShared(); err != nil {
		return nil, err
	}
	return &Ref[T]{value: &s.value, access: &s.access}, nil
}

// BorrowMut acquires exclusive access to the cell.
func (s *Shared[T]) BorrowMut() (*Mut[T], error) {
	if err := s.access.acquireExclusive(); err != nil {
		return nil, err
	}
	return &Mut[T]{value: &s.value, access: &s.access}, nil
}

// Take moves the value out of the cell, leaving a placeholder behind.
// Until the guard is released the cell reports itself as moved; releasing
// the guard undoes the take, while Consume makes it permanent.
func (s *Shared[T]) Take() (*TakeGuard[T], error) {
	if err := s.access.acquireTake(); err != nil {
		return nil, err
	}
	return &TakeGuard[T]{cell: s}, nil
}

// Ref is a guard holding shared access to a cell.
// Releasing the guard releases the access.
type Ref[T any] struct {
	value  *T
	access *access
}

// Get returns the borrowed value.
// The pointer must not be used after the guard has been released.
func (r *Ref[T]) Get() *T {
	if r.access == nil {
		panic("rill: use of a released shared guard")
	}
	return r.value
}

// Release releases the borrow. Releasing an already released guard is a no-op.
func (r *Ref[T]) Release() {
	if r.access != nil {
		r.access.releaseShared()
		r.access = nil
	}
}

// Mut is a guard holding exclusive access to a cell.
// Releasing the guard releases the access.
type Mut[T any] struct {
	value  *T
	access *access
}

// Get returns the borrowed value.
// The pointer must not be used after the guard has been released.
func (m *Mut[T]) Get() *T {
	if m.access == nil {
		panic("rill: use of a released exclusive guard")
	}
	return m.value
}

// Release releases the borrow. Releasing an already released guard is a no-op.
func (m *Mut[T]) Release() {
	if m.access != nil {
		m.access.releaseExclusive()
		m.access = nil
	}
}

// TakeGuard holds a value that has been moved out of its cell.
type TakeGuard[T any] struct {
	cell *Shared[T]
}

// Get returns the taken value.
// The pointer must not be used after the guard has been released or consumed.
func (g *TakeGuard[T]) Get() *T {
	if g.cell == nil {
		panic("rill: use of a dead take guard")
	}
	return &g.cell.value
}

// Release undoes the take, making the cell fully accessible again.
// Releasing an already released or consumed guard is a no-op.
func (g *TakeGuard[T]) Release() {
	if g.cell != nil {
		g.cell.access.releaseTake()
		g.cell = nil
	}
}

// Consume makes the take permanent: the value is moved out and returned,
// a zero placeholder remains, and the cell stays marked as moved.
func (g *TakeGuard[T]) Consume() T {
	if g.cell == nil {
		panic("rill: use of a dead take guard")
	}
	var placeholder T
	value := g.cell.value
	g.cell.value = placeholder
	g.cell = nil
	return value
}

// TryMapRef projects a shared guard to a component of the borrowed value.
// The resulting guard carries the original release obligation. If fn fails,
// the guard is released and the error is returned.
func TryMapRef[T, U any](r *Ref[T], fn func(*T) (*U, error)) (*Ref[U], error) {
	u, err := fn(r.Get())
	if err != nil {
		r.Release()
		return nil, err
	}
	mapped := &Ref[U]{value: u, access: r.access}
	r.access = nil
	return mapped, nil
}

// TryMapMut projects an exclusive guard to a component of the borrowed value.
// The resulting guard carries the original release obligation. If fn fails,
// the guard is released and the error is returned.
func TryMapMut[T, U any](m *Mut[T], fn func(*T) (*U, error)) (*Mut[U], error) {
	u, err := fn(m.Get())
	if err != nil {
		m.Release()
		return nil, err
	}
	mapped := &Mut[U]{value: u, access: m.access}
	m.access = nil
	return mapped, nil
}
