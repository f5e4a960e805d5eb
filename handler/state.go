package handler

import "sync/atomic"

// State captures where a connection is in the lifecycle of spec.md §4.2:
// Greet, AwaitName, Challenged, Registered, Terminating.
type State uint32

const (
	// Greet is entered the instant a socket is accepted, before the
	// banner has been written.
	Greet State = iota
	// AwaitName is entered once the banner has been sent; the Handler is
	// waiting for the candidate name line.
	AwaitName
	// Challenged is entered once a name has been accepted and a
	// challenge has been issued; the Handler is waiting for the response.
	Challenged
	// Registered is entered once the challenge response has verified and
	// the node has been inserted into the Directory.
	Registered
	// Terminating is entered as soon as the connection is being torn
	// down, by any path, so cleanup only ever runs once.
	Terminating
)

func (s State) String() string {
	switch s {
	case Greet:
		return "Greet"
	case AwaitName:
		return "AwaitName"
	case Challenged:
		return "Challenged"
	case Registered:
		return "Registered"
	case Terminating:
		return "Terminating"
	default:
		return "Unknown"
	}
}

// atomicState wraps the uint32 state word, grounded on the teacher's
// src/node/state.go getState/setState pair.
type atomicState struct {
	v uint32
}

func (a *atomicState) get() State {
	return State(atomic.LoadUint32(&a.v))
}

func (a *atomicState) set(s State) {
	atomic.StoreUint32(&a.v, uint32(s))
}
