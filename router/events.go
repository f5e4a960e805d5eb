package router

import "time"

// EventKind identifies the shape of an Event, mirroring the three
// variants of original_source/src/events.rs's ServerEvent enum
// (NodeConnected, NodeDisconnected, MessageRouted).
type EventKind string

const (
	EventNodeConnected    EventKind = "connected"
	EventNodeDisconnected EventKind = "disconnected"
	EventMessageRouted    EventKind = "routed"
)

// Event is one occurrence on the Command Router worth surfacing to an
// external observer: a node arriving or departing the Directory, or one
// message being routed between two nodes. Grounded on
// original_source/src/events.rs's ServerEvent, which the original fed
// to a Bevy node-graph visualization over an mpsc channel; here it feeds
// monitor.Run's structured-log consumer instead (see DESIGN.md).
type Event struct {
	Kind EventKind
	Name string // set for EventNodeConnected / EventNodeDisconnected
	From string // set for EventMessageRouted
	To   string // set for EventMessageRouted
	At   time.Time
}

// emit delivers e to Events if a consumer is attached, without ever
// blocking the caller. Router.Events is nil by default, so routing and
// the handshake broadcast work identically whether or not anything is
// watching the stream.
func (r *Router) emit(e Event) {
	if r.Events == nil {
		return
	}
	e.At = time.Now()
	select {
	case r.Events <- e:
	default:
	}
}
