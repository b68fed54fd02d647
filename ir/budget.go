package ir

import "github.com/rill-lang/rill/token"

// Budget bounds the total amount of work a constant evaluation may perform.
// One unit is charged for every visited IR node, before descending into it,
// so even malformed trees cannot recurse for free.
type Budget struct {
	remaining int
}

// NewBudget creates a budget allowing n node visits.
func NewBudget(n int) *Budget {
	return &Budget{remaining: n}
}

// Remaining returns the number of node visits left.
func (b *Budget) Remaining() int {
	return b.remaining
}

// Take charges one unit. Once the budget is exhausted every subsequent call
// fails, carrying the span of the node being visited.
func (b *Budget) Take(at token.Span) *Error {
	if b.remaining <= 0 {
		return errAt(at, ErrBudgetExceeded)
	}
	b.remaining--
	return nil
}
