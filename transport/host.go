package transport

import (
	"net"
	"strings"
)

// Host is a resolved peer identity: the IP literal and, where reverse DNS
// succeeds, the hostname. When resolution fails the IP literal is reused
// as the hostname, per spec.md §4.1 step 1.
type Host struct {
	IP       string
	Hostname string
}

// ResolveHost performs the reverse-DNS lookup spec.md §4.1 asks the
// Acceptor Loop to do before anything else on a freshly accepted socket.
func ResolveHost(conn net.Conn) Host {
	addr := conn.RemoteAddr()
	ip := addr.String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	hostname := ip
	if names, err := net.LookupAddr(ip); err == nil && len(names) > 0 {
		hostname = strings.TrimSuffix(names[0], ".")
	}

	return Host{IP: ip, Hostname: hostname}
}
