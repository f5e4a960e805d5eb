package router

import (
	"strings"
	"testing"
	"time"

	"github.com/kektsukuba/stars/common"
	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/policy"
	"github.com/stretchr/testify/require"
)

type captureConn struct {
	lines  []string
	closed bool
}

func (c *captureConn) Write(p []byte) (int, error) {
	c.lines = append(c.lines, string(p))
	return len(p), nil
}

func (c *captureConn) Close() error {
	c.closed = true
	return nil
}

func newTestConfig(t *testing.T) *policy.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := policy.LoadConfig(dir)
	require.NoError(t, err)
	return cfg
}

func newRouter(t *testing.T) (*Router, *directory.Directory) {
	t.Helper()
	dir := directory.New()
	cfg := newTestConfig(t)
	log := common.NewTestLogger(t).WithField("test", t.Name())
	return &Router{Dir: dir, Cfg: cfg, ServerName: "System", Logger: log}, dir
}

func register(t *testing.T, dir *directory.Directory, name string, key uint16) (*directory.NodeEntry, *captureConn) {
	t.Helper()
	conn := &captureConn{}
	entry := directory.NewNodeEntry(name, directory.Host{IP: "127.0.0.1"}, key, conn)
	require.NoError(t, dir.Insert(entry))
	return entry, conn
}

func TestRouteMalformedLineIsRejected(t *testing.T) {
	r, dir := newRouter(t)
	sender, conn := register(t, dir, "alice", 1)

	r.Route(sender, "onlyonetoken")
	require.Equal(t, []string{"System Er. Malformed\n"}, conn.lines)
}

func TestRouteDeliversToKnownPeer(t *testing.T) {
	r, dir := newRouter(t)
	sender, _ := register(t, dir, "alice", 1)
	_, bobConn := register(t, dir, "bob", 2)

	r.Route(sender, "bob move 10")
	require.Equal(t, []string{"alice move 10\n"}, bobConn.lines)
}

func TestRouteUnknownDestination(t *testing.T) {
	r, dir := newRouter(t)
	sender, conn := register(t, dir, "alice", 1)

	r.Route(sender, "ghost move 10")
	require.Equal(t, []string{"System Er. DestinationUnknown\n"}, conn.lines)
}

func TestRouteResolvesAliasBeforeDelivery(t *testing.T) {
	r, dir := newRouter(t)
	aliases, err := policy.NewAliasTable([][2]string{{"b", "bob"}})
	require.NoError(t, err)
	r.Cfg.Aliases = aliases

	sender, _ := register(t, dir, "alice", 1)
	_, bobConn := register(t, dir, "bob", 2)

	r.Route(sender, "b move 10")
	require.Equal(t, []string{"alice move 10\n"}, bobConn.lines)
}

func TestBroadcastExcludesSenderAndMatchesGlob(t *testing.T) {
	r, dir := newRouter(t)
	sender, _ := register(t, dir, "sensor1", 1)
	_, sensor2Conn := register(t, dir, "sensor2", 2)
	_, otherConn := register(t, dir, "controller", 3)

	r.Route(sender, ">sensor* tick 1")
	require.Equal(t, []string{"sensor1 tick 1\n"}, sensor2Conn.lines)
	require.Empty(t, otherConn.lines)
}

func TestPolicyDeniedCommand(t *testing.T) {
	r, dir := newRouter(t)
	denyOnly, err := policy.CompilePatterns([]string{"shutdownserver"})
	require.NoError(t, err)
	r.Cfg.CommandDeny = denyOnly

	sender, conn := register(t, dir, "alice", 1)
	r.Route(sender, "System shutdownserver")
	require.Equal(t, []string{"System Er. PolicyDenied\n"}, conn.lines)
}

func TestBuiltinListnodesIsSorted(t *testing.T) {
	r, dir := newRouter(t)
	sender, conn := register(t, dir, "alice", 1)
	register(t, dir, "zeta", 2)
	register(t, dir, "bob", 3)

	r.Route(sender, "System listnodes")
	require.Len(t, conn.lines, 1)
	require.True(t, strings.HasPrefix(conn.lines[0], "System listnodes "))
	require.Contains(t, conn.lines[0], "alice bob zeta")
}

func TestBuiltinDisconnectClosesTarget(t *testing.T) {
	r, dir := newRouter(t)
	sender, senderConn := register(t, dir, "alice", 1)
	_, bobConn := register(t, dir, "bob", 2)

	r.Route(sender, "System disconnect bob")
	require.Equal(t, []string{"System disconnect bob\n"}, senderConn.lines)
	require.True(t, bobConn.closed)
}

func TestBuiltinShutdownRequiresPermission(t *testing.T) {
	r, dir := newRouter(t)
	sender, conn := register(t, dir, "alice", 1)

	called := false
	r.Shutdown = func() { called = true }

	r.Route(sender, "System shutdownserver")
	require.Equal(t, []string{"System Er. PolicyDenied\n"}, conn.lines)
	require.False(t, called)
}

func TestBuiltinShutdownWithPermission(t *testing.T) {
	r, dir := newRouter(t)
	allow, err := policy.CompilePatterns([]string{"alice"})
	require.NoError(t, err)
	r.Cfg.ShutdownAllow = allow

	sender, conn := register(t, dir, "alice", 1)

	done := make(chan struct{})
	r.Shutdown = func() { close(done) }

	r.Route(sender, "System shutdownserver")
	require.Equal(t, []string{"System shutdownserver SYSTEMSHUTDOWN\n"}, conn.lines)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback was not invoked")
	}
}

func TestBroadcastEventSkipsNonVerbosePeers(t *testing.T) {
	r, dir := newRouter(t)
	about, _ := register(t, dir, "alice", 1)
	_, quietConn := register(t, dir, "bob", 2)
	loud, loudConn := register(t, dir, "carol", 3)
	loud.SetVerbose(true)
	_ = quietConn

	peer, _ := dir.Lookup("bob")
	peer.SetVerbose(false)

	r.BroadcastEvent(about, "arrived")
	require.Empty(t, quietConn.lines)
	require.Equal(t, []string{"System arrived @alice\n"}, loudConn.lines)
}

func TestBroadcastEventPublishesToEventStream(t *testing.T) {
	r, dir := newRouter(t)
	events := make(chan Event, 4)
	r.Events = events

	about, _ := register(t, dir, "alice", 1)
	r.BroadcastEvent(about, "arrived")
	r.BroadcastEvent(about, "departed")

	connected := <-events
	require.Equal(t, EventNodeConnected, connected.Kind)
	require.Equal(t, "alice", connected.Name)

	disconnected := <-events
	require.Equal(t, EventNodeDisconnected, disconnected.Kind)
	require.Equal(t, "alice", disconnected.Name)
}

func TestRouteDeliveryPublishesToEventStream(t *testing.T) {
	r, dir := newRouter(t)
	events := make(chan Event, 4)
	r.Events = events

	sender, _ := register(t, dir, "alice", 1)
	register(t, dir, "bob", 2)

	r.Route(sender, "bob move 10")

	routed := <-events
	require.Equal(t, EventMessageRouted, routed.Kind)
	require.Equal(t, "alice", routed.From)
	require.Equal(t, "bob", routed.To)
}
