package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// itemNamespace is the UUID namespace item ids are derived in.
var itemNamespace = uuid.MustParse("8c7a1f76-2f9b-4f30-9d3e-52a86f0c2b41")

// ItemID is the stable identity of a registered item: a version 5 UUID of
// the item path, deterministic across runs and hosts.
type ItemID uuid.UUID

// ItemIDFor derives the id of the item with the given path.
func ItemIDFor(path string) ItemID {
	return ItemID(uuid.NewSHA1(itemNamespace, []byte(path)))
}

func (id ItemID) String() string {
	return uuid.UUID(id).String()
}

// ConstFn is a registered constant function: a parameter list and a body to
// be evaluated in a fresh scope stack on every invocation.
type ConstFn struct {
	ID     ItemID
	Path   string
	Params []string
	Body   Ir
}

// Query resolves constant function bodies for the interpreter and records
// which items an evaluation depended on.
type Query interface {
	// ConstFn returns the constant function registered under the given
	// item path.
	ConstFn(path string) (*ConstFn, bool)
	// MarkUsed records that the item is used for compilation, as opposed
	// to being evaluated speculatively.
	MarkUsed(id ItemID)
	// Paths returns every registered item path.
	Paths() []string
}

// Registry is an in-memory Query implementation.
type Registry struct {
	fns   map[ItemID]*ConstFn
	paths []string
	used  []ItemID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[ItemID]*ConstFn)}
}

// Register adds a constant function under the given item path.
func (r *Registry) Register(path string, params []string, body Ir) (*ConstFn, error) {
	id := ItemIDFor(path)
	if _, ok := r.fns[id]; ok {
		return nil, fmt.Errorf("item %q is already registered", path)
	}
	fn := &ConstFn{ID: id, Path: path, Params: params, Body: body}
	r.fns[id] = fn
	r.paths = append(r.paths, path)
	return fn, nil
}

// ConstFn returns the constant function registered under the given path.
func (r *Registry) ConstFn(path string) (*ConstFn, bool) {
	fn, ok := r.fns[ItemIDFor(path)]
	return fn, ok
}

// ConstFnByID returns the constant function with the given id.
func (r *Registry) ConstFnByID(id ItemID) (*ConstFn, bool) {
	fn, ok := r.fns[id]
	return fn, ok
}

// MarkUsed records a compilation dependency on the item.
func (r *Registry) MarkUsed(id ItemID) {
	for _, used := range r.used {
		if used == id {
			return
		}
	}
	r.used = append(r.used, id)
}

// Used returns the ids of items used for compilation, in first-use order.
func (r *Registry) Used() []ItemID {
	return r.used
}

// Paths returns every registered item path, in registration order.
func (r *Registry) Paths() []string {
	return r.paths
}
