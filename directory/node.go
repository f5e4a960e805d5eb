package directory

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Conn is the minimal surface a Node Entry needs from its underlying
// socket: write the outbound bytes, and close the connection to cancel
// the owning handler's read loop. Any *transport.Conn satisfies this
// structurally, with no import-time coupling between the two packages.
type Conn interface {
	io.Writer
	Close() error
}

// Host describes a connected peer's network identity, as resolved by the
// Acceptor Loop.
type Host struct {
	IP       string
	Hostname string
}

// NodeEntry is one live, registered node: its name, its remote host, its
// 16-bit correlation key, and the write half of its socket behind a
// per-entry mutex so that writes from concurrent senders are serialized
// without ever taking the Directory's global lock across network I/O.
type NodeEntry struct {
	Name      string
	Host      Host
	Key       uint16
	CreatedAt time.Time

	writeMu sync.Mutex
	conn    Conn

	verbose atomic.Bool
}

// NewNodeEntry constructs a NodeEntry. Nodes receive System
// arrival/departure broadcasts by default (verbose=true); flgoff turns
// that off.
func NewNodeEntry(name string, host Host, key uint16, conn Conn) *NodeEntry {
	e := &NodeEntry{
		Name:      name,
		Host:      host,
		Key:       key,
		CreatedAt: time.Now(),
		conn:      conn,
	}
	e.verbose.Store(true)
	return e
}

// Send writes one already-newline-terminated line to the node's socket,
// serialized against concurrent senders by the entry's own mutex. The
// Directory's global lock is never held during this call.
func (e *NodeEntry) Send(line string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	_, err := e.conn.Write([]byte(line))
	return err
}

// Close shuts down the node's socket. It is safe to call more than once;
// callers should treat a second Close as a no-op success.
func (e *NodeEntry) Close() error {
	return e.conn.Close()
}

// SetVerbose toggles whether this node receives System arrival/departure
// broadcasts (the flgon/flgoff built-ins).
func (e *NodeEntry) SetVerbose(v bool) { e.verbose.Store(v) }

// Verbose reports the current flgon/flgoff state.
func (e *NodeEntry) Verbose() bool { return e.verbose.Load() }
