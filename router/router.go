package router

import (
	"fmt"
	"strings"

	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/policy"
	"github.com/sirupsen/logrus"
)

// Router is the Command Router: it parses one already-newline-trimmed
// wire line from a registered node, resolves aliases, applies the
// Access Policy Evaluator, and either dispatches to a built-in, delivers
// to a peer, or rejects with a stable "Er." reason token.
type Router struct {
	Dir        *directory.Directory
	Cfg        *policy.Config
	ServerName string
	Logger     *logrus.Entry

	// Shutdown is invoked when a registered node with shutdown rights
	// issues shutdownserver. It is provided by the engine wiring layer
	// (stars/acceptor), which owns the Acceptor Loop's lifecycle.
	Shutdown func()

	// Events, if non-nil, receives an Event for every node arrival,
	// departure, and routed message. Optional observability surface;
	// see monitor.Run.
	Events chan<- Event
}

// Route processes one line received from sender in the Registered state.
// Empty lines must be filtered out by the caller before this is reached
// (spec.md §8: "Empty lines are ignored, not errors").
func (r *Router) Route(sender *directory.NodeEntry, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		r.replyErr(sender, "Malformed")
		return
	}

	destRaw := fields[0]
	cmd := fields[1]
	arg := strings.Join(fields[2:], " ")

	dest := r.Cfg.Aliases.Resolve(destRaw)

	if !r.Cfg.CommandPermitted(cmd) {
		r.replyErr(sender, "PolicyDenied")
		return
	}

	switch {
	case dest == r.ServerName:
		r.dispatchBuiltin(sender, cmd, arg)
	case strings.HasPrefix(dest, ">"):
		r.broadcast(sender, dest[1:], cmd, arg)
	default:
		r.deliver(sender, dest, cmd, arg)
	}
}

func (r *Router) deliver(sender *directory.NodeEntry, dest, cmd, arg string) {
	peer, ok := r.Dir.Lookup(dest)
	if !ok {
		r.replyErr(sender, "DestinationUnknown")
		return
	}

	line := formatLine(sender.Name, cmd, arg)
	if err := peer.Send(line); err != nil {
		r.Logger.WithFields(logrus.Fields{
			"to":   dest,
			"from": sender.Name,
		}).Warn("peer write failed, terminating peer")
		// PeerWriteFailed does not notify the sender (spec.md §7); it
		// only causes the failing peer's own termination, driven by
		// its read loop observing the now-closed socket.
		_ = peer.Close()
		return
	}

	r.emit(Event{Kind: EventMessageRouted, From: sender.Name, To: dest})
}

func (r *Router) broadcast(sender *directory.NodeEntry, pattern, cmd, arg string) {
	re, err := policy.CompileGlob(pattern)
	if err != nil {
		r.replyErr(sender, "Malformed")
		return
	}

	line := formatLine(sender.Name, cmd, arg)
	for _, peer := range r.Dir.Snapshot() {
		if peer == sender {
			continue
		}
		if !re.MatchString(peer.Name) {
			continue
		}
		if err := peer.Send(line); err != nil {
			_ = peer.Close()
		}
	}
}

func (r *Router) replyErr(to *directory.NodeEntry, reason string) {
	_ = to.Send(fmt.Sprintf("%s Er. %s\n", r.ServerName, reason))
}

func (r *Router) replyOK(to *directory.NodeEntry, cmd, arg string) {
	_ = to.Send(formatLine(r.ServerName, cmd, arg))
}

func formatLine(sender, cmd, arg string) string {
	if arg == "" {
		return fmt.Sprintf("%s %s\n", sender, cmd)
	}
	return fmt.Sprintf("%s %s %s\n", sender, cmd, arg)
}

// BroadcastEvent delivers a System event (node arrival/departure) to
// every currently registered, verbose node except the one the event is
// about. The argument names the affected node as "@<name>" (spec.md
// §4.2: "emit a System event @<name> ... indicating arrival"). It is
// called by the Connection Handler after a Directory mutation
// completes, satisfying the ordering guarantee that a node listed by
// listnodes has already had its arrival event broadcast (spec.md §5,
// invariant 3).
func (r *Router) BroadcastEvent(about *directory.NodeEntry, cmd string) {
	line := formatLine(r.ServerName, cmd, "@"+about.Name)
	for _, peer := range r.Dir.Snapshot() {
		if peer == about || !peer.Verbose() {
			continue
		}
		if err := peer.Send(line); err != nil {
			_ = peer.Close()
		}
	}

	kind := EventNodeConnected
	if cmd == "departed" {
		kind = EventNodeDisconnected
	}
	r.emit(Event{Kind: kind, Name: about.Name})
}
