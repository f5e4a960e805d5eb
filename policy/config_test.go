package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCfgFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0600))
}

func TestLoadConfigMissingFilesAreEmptySets(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.True(t, cfg.HostAllow.Empty())
	require.True(t, cfg.CommandAllow.Empty())
	require.False(t, cfg.HostAllowedGlobal("1.2.3.4", "host"))
	require.True(t, cfg.CommandPermitted("anything"))
}

func TestLoadConfigSkipsBlankAndCommentLines(t *testing.T) {
	dir := t.TempDir()
	writeCfgFile(t, dir, "allow.cfg", "# comment\n\n10.0.0.*\n  \nexample.com\n")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.*", "example.com"}, cfg.HostAllow.Raw())
}

func TestLoadConfigRejectsMalformedAliasLine(t *testing.T) {
	dir := t.TempDir()
	writeCfgFile(t, dir, "aliases.cfg", "onlyonefield\n")
	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestCommandPermittedDenyBeatsAllow(t *testing.T) {
	dir := t.TempDir()
	writeCfgFile(t, dir, "command_allow.cfg", "*\n")
	writeCfgFile(t, dir, "command_deny.cfg", "shutdownserver\n")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.True(t, cfg.CommandPermitted("listnodes"))
	require.False(t, cfg.CommandPermitted("shutdownserver"))
}

func TestHostAllowedForNodeIsAdditive(t *testing.T) {
	dir := t.TempDir()
	writeCfgFile(t, dir, "allow.cfg", "*\n")
	writeCfgFile(t, dir, "alice.allow", "10.0.0.1\n")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	ok, err := cfg.HostAllowedForNode("alice", "10.0.0.1", "host1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = cfg.HostAllowedForNode("alice", "10.0.0.2", "host2")
	require.NoError(t, err)
	require.False(t, ok)

	// bob has no per-node file, so the global allow is sufficient.
	ok, err = cfg.HostAllowedForNode("bob", "10.0.0.2", "host2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReconnectableRequiresBothHostAndName(t *testing.T) {
	dir := t.TempDir()
	writeCfgFile(t, dir, "reconnectable_from.cfg", "10.0.0.1\n")
	writeCfgFile(t, dir, "reconnectable_name.cfg", "alice\n")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.True(t, cfg.Reconnectable("10.0.0.1", "host1", "alice"))
	require.False(t, cfg.Reconnectable("10.0.0.2", "host2", "alice"))
	require.False(t, cfg.Reconnectable("10.0.0.1", "host1", "bob"))
}

func TestShutdownAllowed(t *testing.T) {
	dir := t.TempDir()
	writeCfgFile(t, dir, "shutdown_allow.cfg", "admin\n")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.True(t, cfg.ShutdownAllowed("admin"))
	require.False(t, cfg.ShutdownAllowed("alice"))
}
