package transport

import (
	"bufio"
	"net"
	"strings"
	"time"
)

// Conn wraps a net.Conn with a buffered reader and the newline-framing
// rules of the STARS wire protocol: lines are '\n'-terminated on output,
// and a '\r\n' on input is normalized to '\n' before the caller ever sees
// it. It is grounded on the netConn type in the teacher's
// net/net_transport.go, minus the RPC framing that package layers on top
// (STARS has no byte-prefixed message types; it is a line protocol).
type Conn struct {
	net.Conn
	r *bufio.Reader
}

// Wrap constructs a Conn around an already-accepted socket.
func Wrap(c net.Conn) *Conn {
	return &Conn{Conn: c, r: bufio.NewReader(c)}
}

// ReadLine reads one newline-terminated line, applying timeout as the
// read deadline (a zero timeout disables the deadline entirely, per
// spec.md §4.2/§8). The trailing "\n" and any "\r" immediately before it
// are stripped.
func (c *Conn) ReadLine(timeout time.Duration) (string, error) {
	if timeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return "", err
		}
	} else {
		if err := c.SetReadDeadline(time.Time{}); err != nil {
			return "", err
		}
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine writes s followed by a single '\n'.
func (c *Conn) WriteLine(s string) error {
	_, err := c.Write([]byte(s + "\n"))
	return err
}
