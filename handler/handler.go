package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/kektsukuba/stars/common"
	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/policy"
	"github.com/kektsukuba/stars/router"
	"github.com/kektsukuba/stars/secret"
	"github.com/kektsukuba/stars/transport"
	"github.com/kektsukuba/stars/version"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler is the per-socket goroutine that drives one connection through
// Greet, AwaitName, Challenged and Registered, and cleans up on
// Terminating (spec.md §4.2). It is grounded on the teacher's per-node
// Run loop in src/node/node.go, replacing gossip round logic with the
// STARS handshake and command loop.
type Handler struct {
	state atomicState

	conn *transport.Conn
	key  uint16
	host transport.Host

	dir         *directory.Directory
	cfg         *policy.Config
	secret      []byte
	router      *router.Router
	readTimeout time.Duration
	serverName  string

	log *logrus.Entry

	release func()

	entry *directory.NodeEntry
}

// New constructs a Handler for a freshly accepted, host-allow-checked
// socket. release is called exactly once, on termination, so the
// Acceptor Loop's KeySpace can free key for reuse.
func New(
	conn *transport.Conn,
	key uint16,
	host transport.Host,
	dir *directory.Directory,
	cfg *policy.Config,
	serverSecret []byte,
	r *router.Router,
	readTimeout time.Duration,
	serverName string,
	logger *logrus.Logger,
	release func(),
) *Handler {
	log := logger.WithFields(logrus.Fields{
		"correlation_id": uuid.NewString(),
		"remote_ip":      host.IP,
		"node_key":       common.NodeKeyHex(key),
	})

	return &Handler{
		conn:        conn,
		key:         key,
		host:        host,
		dir:         dir,
		cfg:         cfg,
		secret:      serverSecret,
		router:      r,
		readTimeout: readTimeout,
		serverName:  serverName,
		log:         log,
		release:     release,
	}
}

// Run drives the connection to completion. It never returns until the
// socket has been fully torn down; callers invoke it in its own
// goroutine.
func (h *Handler) Run() {
	defer h.terminate()
	defer func() {
		if p := recover(); p != nil {
			h.log.WithField("panic", p).Error("handler panicked, terminating connection")
		}
	}()

	name, ok := h.greetAndAwaitName()
	if !ok {
		return
	}

	if !h.challengeAndAuthenticate(name) {
		return
	}

	h.serve()
}

// greetAndAwaitName sends the banner and collects a syntactically valid,
// currently registrable name. Handshake reads carry no deadline: the
// read-timeout of spec.md §4.2/§8 is scoped to the Registered read loop
// only, not to the handshake.
func (h *Handler) greetAndAwaitName() (string, bool) {
	h.state.set(Greet)
	banner := fmt.Sprintf("%s %s\n", version.ServerID, common.NodeKeyHex(h.key))
	if err := h.writeRaw(banner); err != nil {
		h.log.WithError(err).Debug("banner write failed")
		return "", false
	}

	h.state.set(AwaitName)
	line, err := h.conn.ReadLine(0)
	if err != nil {
		h.log.WithError(err).Debug("no name received")
		return "", false
	}
	name := strings.TrimSpace(line)

	if !directory.ValidName(name) {
		h.replyErr("NameInvalid")
		return "", false
	}

	hostOK, err := h.cfg.HostAllowedForNode(name, h.host.IP, h.host.Hostname)
	if err != nil {
		h.log.WithError(err).Warn("per-node host check failed")
		h.replyErr("HostRejected")
		return "", false
	}
	if !hostOK {
		h.replyErr("HostRejected")
		return "", false
	}

	reconnectAllowed := h.cfg.Reconnectable(h.host.IP, h.host.Hostname, name)
	evicted, ok := h.dir.Collide(name, reconnectAllowed)
	if !ok {
		h.replyErr("NameInUse")
		return "", false
	}
	if evicted != nil {
		h.log.WithField("name", name).Info("evicting existing registration for reconnect")
		_ = evicted.Close()
	}

	return name, true
}

// challengeAndAuthenticate issues a blake2b-keyed challenge over the
// server secret and verifies the client's response in constant time
// (spec.md §4.2). On success the node is inserted into the Directory and
// its arrival is broadcast.
func (h *Handler) challengeAndAuthenticate(name string) bool {
	h.state.set(Challenged)

	nonce, err := secret.NewNonce()
	if err != nil {
		h.log.WithError(err).Error("nonce generation failed")
		return false
	}

	expected, err := secret.Digest(h.secret, h.key, nonce)
	if err != nil {
		h.log.WithError(err).Error("digest computation failed")
		return false
	}

	if err := h.writeRaw(secret.EncodeNonce(nonce) + "\n"); err != nil {
		h.log.WithError(err).Debug("challenge write failed")
		return false
	}

	line, err := h.conn.ReadLine(0)
	if err != nil {
		h.log.WithError(err).Debug("no challenge response received")
		return false
	}

	response, err := secret.DecodeResponse(strings.TrimSpace(line))
	if err != nil || !secret.Equal(expected, response) {
		h.replyErr("AuthFailed")
		return false
	}

	entry := directory.NewNodeEntry(name, directory.Host{IP: h.host.IP, Hostname: h.host.Hostname}, h.key, h.conn)
	if err := h.dir.Insert(entry); err != nil {
		h.replyErr("NameInUse")
		return false
	}

	h.entry = entry
	h.state.set(Registered)

	_ = entry.Send(fmt.Sprintf("%s Ok. %s\n", h.serverName, name))
	h.router.BroadcastEvent(entry, "arrived")
	h.log.WithField("name", name).Info("node registered")
	return true
}

// serve runs the Registered read loop: every non-empty line is handed to
// the Command Router until the socket yields EOF, an error, or the
// configured read-timeout elapses with no data (spec.md §4.2).
func (h *Handler) serve() {
	for {
		line, err := h.conn.ReadLine(h.readTimeout)
		if err != nil {
			h.log.WithError(err).Debug("registered read loop ending")
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.router.Route(h.entry, line)
	}
}

// terminate runs exactly once, via Run's deferred call, regardless of
// which path through the state machine got here.
func (h *Handler) terminate() {
	h.state.set(Terminating)

	if h.entry != nil {
		if h.dir.RemoveIfCurrent(h.entry.Name, h.entry) {
			h.router.BroadcastEvent(h.entry, "departed")
		}
		// A false result means this entry was already evicted out from
		// under it by a reconnecting peer (directory.Collide); the
		// reconnect's own "arrived" event covers the transition, so no
		// separate departure is announced here.
	}

	_ = h.conn.Close()
	if h.release != nil {
		h.release()
	}
}

func (h *Handler) writeRaw(s string) error {
	_, err := h.conn.Write([]byte(s))
	return err
}

func (h *Handler) replyErr(reason string) {
	_ = h.writeRaw(fmt.Sprintf("%s Er. %s\n", h.serverName, reason))
}
