package ir

import (
	"fmt"

	"github.com/rill-lang/rill"
	"github.com/rill-lang/rill/token"
)

// Scopes is a stack of lexical scope frames holding named bindings.
type Scopes struct {
	frames []*frame
}

type frame struct {
	bindings map[string]rill.Value
}

func newFrame() *frame {
	return &frame{bindings: make(map[string]rill.Value)}
}

// ScopeGuard identifies a pushed scope frame. The frame must be popped with
// the guard returned by the push that created it.
type ScopeGuard struct {
	depth int
}

// NewScopes creates a scope stack with a single root frame.
func NewScopes() *Scopes {
	return &Scopes{frames: []*frame{newFrame()}}
}

// Depth returns the current number of frames.
func (s *Scopes) Depth() int {
	return len(s.frames)
}

// Push opens a new scope frame and returns its guard.
func (s *Scopes) Push() ScopeGuard {
	s.frames = append(s.frames, newFrame())
	return ScopeGuard{depth: len(s.frames) - 1}
}

// Pop closes the frame identified by the guard, together with any frames an
// unwinding evaluation abandoned above it. Popping a frame that is no longer
// on the stack is an invariant violation.
func (s *Scopes) Pop(guard ScopeGuard) {
	if guard.depth < 1 || guard.depth >= len(s.frames) {
		panic(fmt.Sprintf("ir: scope pop out of order (depth %d, guard %d)",
			len(s.frames), guard.depth))
	}
	s.frames = s.frames[:guard.depth]
}

// Decl binds a name in the current frame. Re-declaration in the same frame
// replaces the prior binding.
func (s *Scopes) Decl(name string, value rill.Value) {
	s.frames[len(s.frames)-1].bindings[name] = value
}

// Get looks an identifier up, walking the scope stack from the innermost
// frame. Shadowing is permitted.
func (s *Scopes) Get(name string) (rill.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if value, ok := s.frames[i].bindings[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// ClearCurrent drops every binding declared in the topmost frame since its
// push. Loop conditions use it so pattern bindings do not leak across
// iterations.
func (s *Scopes) ClearCurrent() {
	s.frames[len(s.frames)-1] = newFrame()
}

// Names returns every name visible from the current scope.
func (s *Scopes) Names() []string {
	var names []string
	for _, f := range s.frames {
		for name := range f.bindings {
			names = append(names, name)
		}
	}
	return names
}

func (s *Scopes) missing(at token.Span, name string) *Error {
	return errAt(at, &MissingBindingError{
		Name:       name,
		Suggestion: closestName(name, s.Names()),
	})
}

// GetTarget resolves a target path and returns the value it refers to.
func (s *Scopes) GetTarget(t *Target) (rill.Value, *Error) {
	switch kind := t.Kind.(type) {
	case TargetName:
		value, ok := s.Get(kind.Name)
		if !ok {
			return nil, s.missing(t.At, kind.Name)
		}
		return value, nil
	case TargetField:
		parent, err := s.GetTarget(kind.Target)
		if err != nil {
			return nil, err
		}
		object, ok := parent.(rill.Object)
		if !ok {
			return nil, errAt(t.At, &UnexpectedTypeError{Expected: "object", Actual: parent.TypeName()})
		}
		ref, berr := object.BorrowRef()
		if berr != nil {
			return nil, errAt(t.At, berr)
		}
		defer ref.Release()
		value, ok := (*ref.Get())[kind.Name]
		if !ok {
			return nil, errAt(t.At, &MissingFieldError{Field: kind.Name})
		}
		return value, nil
	case TargetIndex:
		parent, err := s.GetTarget(kind.Target)
		if err != nil {
			return nil, err
		}
		cell, cerr := sequenceCell(t.At, parent)
		if cerr != nil {
			return nil, cerr
		}
		ref, berr := cell.BorrowRef()
		if berr != nil {
			return nil, errAt(t.At, berr)
		}
		defer ref.Release()
		items := *ref.Get()
		if kind.Index < 0 || kind.Index >= len(items) {
			return nil, errAt(t.At, &IndexOutOfBoundsError{Index: kind.Index, Len: len(items)})
		}
		return items[kind.Index], nil
	}
	panic(fmt.Sprintf("ir: unknown target kind %T", t.Kind))
}

// SetTarget writes a value to the location a target path refers to. Writing
// through a missing intermediate location is an error; the final field of an
// object path is created if absent.
func (s *Scopes) SetTarget(t *Target, value rill.Value) *Error {
	switch kind := t.Kind.(type) {
	case TargetName:
		for i := len(s.frames) - 1; i >= 0; i-- {
			if _, ok := s.frames[i].bindings[kind.Name]; ok {
				s.frames[i].bindings[kind.Name] = value
				return nil
			}
		}
		return s.missing(t.At, kind.Name)
	case TargetField:
		parent, err := s.GetTarget(kind.Target)
		if err != nil {
			return err
		}
		object, ok := parent.(rill.Object)
		if !ok {
			return errAt(t.At, &UnexpectedTypeError{Expected: "object", Actual: parent.TypeName()})
		}
		mut, berr := object.BorrowMut()
		if berr != nil {
			return errAt(t.At, berr)
		}
		defer mut.Release()
		(*mut.Get())[kind.Name] = value
		return nil
	case TargetIndex:
		parent, err := s.GetTarget(kind.Target)
		if err != nil {
			return err
		}
		cell, cerr := sequenceCell(t.At, parent)
		if cerr != nil {
			return cerr
		}
		mut, berr := cell.BorrowMut()
		if berr != nil {
			return errAt(t.At, berr)
		}
		defer mut.Release()
		items := *mut.Get()
		if kind.Index < 0 || kind.Index >= len(items) {
			return errAt(t.At, &IndexOutOfBoundsError{Index: kind.Index, Len: len(items)})
		}
		items[kind.Index] = value
		return nil
	}
	panic(fmt.Sprintf("ir: unknown target kind %T", t.Kind))
}

// MutTarget applies fn to the location a target path refers to, observing
// and replacing the value in place.
func (s *Scopes) MutTarget(t *Target, fn func(value *rill.Value) Outcome) Outcome {
	switch kind := t.Kind.(type) {
	case TargetName:
		for i := len(s.frames) - 1; i >= 0; i-- {
			bindings := s.frames[i].bindings
			if value, ok := bindings[kind.Name]; ok {
				if outcome := fn(&value); outcome != nil {
					return outcome
				}
				bindings[kind.Name] = value
				return nil
			}
		}
		return s.missing(t.At, kind.Name)
	case TargetField:
		parent, err := s.GetTarget(kind.Target)
		if err != nil {
			return err
		}
		object, ok := parent.(rill.Object)
		if !ok {
			return errAt(t.At, &UnexpectedTypeError{Expected: "object", Actual: parent.TypeName()})
		}
		mut, berr := object.BorrowMut()
		if berr != nil {
			return errAt(t.At, berr)
		}
		defer mut.Release()
		fields := *mut.Get()
		value, ok := fields[kind.Name]
		if !ok {
			return errAt(t.At, &MissingFieldError{Field: kind.Name})
		}
		if outcome := fn(&value); outcome != nil {
			return outcome
		}
		fields[kind.Name] = value
		return nil
	case TargetIndex:
		parent, err := s.GetTarget(kind.Target)
		if err != nil {
			return err
		}
		cell, cerr := sequenceCell(t.At, parent)
		if cerr != nil {
			return cerr
		}
		mut, berr := cell.BorrowMut()
		if berr != nil {
			return errAt(t.At, berr)
		}
		defer mut.Release()
		items := *mut.Get()
		if kind.Index < 0 || kind.Index >= len(items) {
			return errAt(t.At, &IndexOutOfBoundsError{Index: kind.Index, Len: len(items)})
		}
		if outcome := fn(&items[kind.Index]); outcome != nil {
			return outcome
		}
		return nil
	}
	panic(fmt.Sprintf("ir: unknown target kind %T", t.Kind))
}

func sequenceCell(at token.Span, value rill.Value) (*rill.Shared[[]rill.Value], *Error) {
	switch value := value.(type) {
	case rill.Vec:
		return value.Shared, nil
	case rill.Tuple:
		return value.Shared, nil
	}
	return nil, errAt(at, &UnexpectedTypeError{Expected: "vec or tuple", Actual: value.TypeName()})
}
