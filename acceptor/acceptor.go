package acceptor

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/handler"
	"github.com/kektsukuba/stars/policy"
	"github.com/kektsukuba/stars/router"
	"github.com/kektsukuba/stars/transport"
	"github.com/sirupsen/logrus"
)

// Acceptor is the Acceptor Loop of spec.md §4.1: it owns the listening
// socket, resolves and host-checks every connection before it is ever
// handed a node key, and tracks outstanding handler goroutines so
// Shutdown can close them all. Grounded on the accept-loop shape of the
// teacher's src/net/net_transport.go (NewNetworkTransport + its
// background listen routine), replacing RPC-stream framing with the
// STARS handshake handed off to handler.Handler.
type Acceptor struct {
	listener net.Listener
	keys     *transport.KeySpace

	dir    *directory.Directory
	cfg    *policy.Config
	secret []byte
	router *router.Router

	readTimeout time.Duration
	serverName  string

	log *logrus.Entry

	closing chan struct{}
	wg      sync.WaitGroup
}

// New binds a TCP listener on addr (host:port, or ":port" for all
// interfaces) and returns an Acceptor ready to Serve.
func New(
	addr string,
	dir *directory.Directory,
	cfg *policy.Config,
	serverSecret []byte,
	r *router.Router,
	readTimeout time.Duration,
	serverName string,
	logger *logrus.Logger,
) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}

	return &Acceptor{
		listener:    ln,
		keys:        transport.NewKeySpace(),
		dir:         dir,
		cfg:         cfg,
		secret:      serverSecret,
		router:      r,
		readTimeout: readTimeout,
		serverName:  serverName,
		log:         logger.WithField("component", "acceptor"),
		closing:     make(chan struct{}),
	}, nil
}

// Addr returns the bound listener's network address.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Serve accepts connections until the listener is closed by Shutdown. It
// blocks; callers run it in its own goroutine.
func (a *Acceptor) Serve() error {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			select {
			case <-a.closing:
				return nil
			default:
				return err
			}
		}
		go a.handle(conn)
	}
}

// handle implements spec.md §4.1: resolve the peer's host, reject it
// immediately if the global host_allow check fails, otherwise hand it a
// node key and spawn its Handler.
func (a *Acceptor) handle(conn net.Conn) {
	host := transport.ResolveHost(conn)

	if !a.cfg.HostAllowedGlobal(host.IP, host.Hostname) {
		a.log.WithFields(logrus.Fields{"ip": host.IP, "hostname": host.Hostname}).
			Info("rejecting connection: host not allowed")
		_, _ = conn.Write([]byte(fmt.Sprintf("%s Er. HostRejected\n", a.serverName)))
		_ = conn.Close()
		return
	}

	key, err := a.keys.Acquire()
	if err != nil {
		a.log.WithError(err).Error("failed to acquire node key")
		_ = conn.Close()
		return
	}

	wrapped := transport.Wrap(conn)
	h := handler.New(wrapped, key, host, a.dir, a.cfg, a.secret, a.router, a.readTimeout, a.serverName, a.loggerForHandler(), func() {
		a.keys.Release(key)
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		h.Run()
	}()
}

func (a *Acceptor) loggerForHandler() *logrus.Logger {
	return a.log.Logger
}

// Shutdown stops accepting new connections, closes every currently
// registered node's socket to unblock each handler's read loop, and
// waits for every handler goroutine to finish running its own
// termination path and drain out of the Directory before returning
// (spec.md §4.4: "stop accepting, signal all handlers to terminate,
// wait for Directory to drain, exit"). It is invoked by the
// shutdownserver built-in through the engine wiring layer.
func (a *Acceptor) Shutdown() {
	close(a.closing)
	_ = a.listener.Close()

	for _, entry := range a.dir.Snapshot() {
		_ = entry.Close()
	}

	a.wg.Wait()
}
