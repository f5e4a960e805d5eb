package transport

import "net"

// Pipe returns a connected pair of in-memory net.Conns, for tests that
// want to exercise the Connection Handler or Command Router without
// opening a real socket. Grounded in spirit on the teacher's
// net/inmem_transport.go, which exists for the same reason (exercising
// Babble's transport layer without a real listener); STARS's line
// protocol needs no message-framing of its own, so a plain net.Pipe
// stands in for the channel-based plumbing that file uses for RPC
// framing.
func Pipe() (net.Conn, net.Conn) {
	return net.Pipe()
}
