package common

import "fmt"

// ErrKind identifies one of the error categories a connection or the
// server startup sequence can fail with.
type ErrKind uint32

const (
	// ConfigLoad is a malformed pattern file or a missing required file.
	ConfigLoad ErrKind = iota
	// Bind means the listener could not be opened.
	Bind
	// HostRejected means the peer's host matched no allow pattern.
	HostRejected
	// NameInvalid means the candidate node name failed syntax validation.
	NameInvalid
	// NameInUse means the candidate name collided with a live registration
	// with no reconnect right.
	NameInUse
	// AuthFailed means the challenge response did not match.
	AuthFailed
	// PolicyDenied means a command matched a deny pattern, or failed to
	// match any allow pattern while allow patterns exist.
	PolicyDenied
	// DestinationUnknown means the resolved destination is not registered.
	DestinationUnknown
	// Malformed means a wire message had fewer than two tokens.
	Malformed
	// PeerWriteFailed means delivery to a peer's socket failed.
	PeerWriteFailed
	// IoTransient covers read/write errors, EOF and timeouts on a socket.
	IoTransient
)

// String returns the stable reason token used in "Er." replies.
func (k ErrKind) String() string {
	switch k {
	case ConfigLoad:
		return "ConfigLoad"
	case Bind:
		return "Bind"
	case HostRejected:
		return "HostRejected"
	case NameInvalid:
		return "NameInvalid"
	case NameInUse:
		return "NameInUse"
	case AuthFailed:
		return "AuthFailed"
	case PolicyDenied:
		return "PolicyDenied"
	case DestinationUnknown:
		return "DestinationUnknown"
	case Malformed:
		return "Malformed"
	case PeerWriteFailed:
		return "PeerWriteFailed"
	case IoTransient:
		return "IoTransient"
	default:
		return "Unknown"
	}
}

// Error is a typed error carrying one of the ErrKind categories along with
// the node it concerns and a human-readable reason.
type Error struct {
	Kind   ErrKind
	Node   string
	Reason string
}

// NewError builds an *Error for the given kind.
func NewError(kind ErrKind, node, reason string) *Error {
	return &Error{Kind: kind, Node: node, Reason: reason}
}

func (e *Error) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Node, e.Reason)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind ErrKind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}
