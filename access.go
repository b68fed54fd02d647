package rill

import (
	"fmt"
	"math"
)

// accessTaken is the counter state marking the value as moved out.
const accessTaken = math.MaxInt

// Snapshot is a capture of an access counter at the moment of a failed
// borrow, used to describe the state of a value in error messages.
type Snapshot int

func (s Snapshot) String() string {
	switch {
	case s == 0:
		return "fully accessible"
	case s == 1:
		return "exclusively accessed"
	case s == accessTaken:
		return "moved"
	case s < 0:
		return fmt.Sprintf("shared by %d", -s)
	default:
		return fmt.Sprintf("invalidly marked (%d)", int(s))
	}
}

// NotAccessibleRef is an error raised when shared access was requested but
// the value was not accessible.
type NotAccessibleRef struct {
	Snapshot Snapshot
}

func (e *NotAccessibleRef) Error() string {
	return fmt.Sprintf("cannot read, value is %s", e.Snapshot)
}

// NotAccessibleMut is an error raised when exclusive access was requested
// but the value was not accessible.
type NotAccessibleMut struct {
	Snapshot Snapshot
}

func (e *NotAccessibleMut) Error() string {
	return fmt.Sprintf("cannot write, value is %s", e.Snapshot)
}

// NotAccessibleTake is an error raised when the value was about to be moved
// out but was not accessible.
//
// Taking requires exclusive access, but it's a scenario we structure
// separately for diagnostics purposes.
type NotAccessibleTake struct {
	Snapshot Snapshot
}

func (e *NotAccessibleTake) Error() string {
	return fmt.Sprintf("cannot take, value is %s", e.Snapshot)
}

// access is a single-threaded dynamic borrow counter.
//
// The state is one machine word: 0 means the value is idle, 1 means it is
// exclusively accessed, a negative value -n means it is shared by n readers,
// and accessTaken means the value has been moved out. The counter is a plain
// integer: Shared handles must not cross goroutines.
type access struct {
	state int
}

// snapshot captures the current state.
func (a *access) snapshot() Snapshot {
	return Snapshot(a.state)
}

// isShared returns true if shared access can be acquired.
func (a *access) isShared() bool {
	return a.state-1 < 0
}

// isExclusive returns true if exclusive access can be acquired.
func (a *access) isExclusive() bool {
	return a.state == 0
}

// isTaken returns true if the value has been moved out.
func (a *access) isTaken() bool {
	return a.state == accessTaken
}

// acquireShared marks one more reader, or fails with a snapshot of the
// current state.
func (a *access) acquireShared() error {
	n := a.state - 1
	if n >= 0 {
		return &NotAccessibleRef{Snapshot: Snapshot(a.state)}
	}
	a.state = n
	return nil
}

// acquireExclusive marks the sole writer, or fails with a snapshot of the
// current state.
func (a *access) acquireExclusive() error {
	n := a.state + 1
	if n != 1 {
		return &NotAccessibleMut{Snapshot: Snapshot(a.state)}
	}
	a.state = n
	return nil
}

// acquireTake marks the value as moved out, or fails with a snapshot of the
// current state.
func (a *access) acquireTake() error {
	if a.state != 0 {
		return &NotAccessibleTake{Snapshot: Snapshot(a.state)}
	}
	a.state = accessTaken
	return nil
}

func (a *access) releaseShared() {
	b := a.state + 1
	if b > 0 {
		panic("rill: release of a shared borrow that was not held")
	}
	a.state = b
}

func (a *access) releaseExclusive() {
	b := a.state - 1
	if b != 0 {
		panic("rill: release of an exclusive borrow that was not held")
	}
	a.state = b
}

func (a *access) releaseTake() {
	if a.state != accessTaken {
		panic("rill: release of a take that was not held")
	}
	a.state = 0
}
