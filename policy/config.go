package policy

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kektsukuba/stars/common"
)

// Config is the Configuration Snapshot: an immutable-after-load collection
// of compiled patterns and tables. It never mutates once LoadConfig
// returns, satisfying the invariant that two policy queries with the same
// inputs return the same result for the life of the process.
type Config struct {
	HostAllow         *PatternSet
	CommandAllow      *PatternSet
	CommandDeny       *PatternSet
	Aliases           *AliasTable
	ReconnectableFrom *PatternSet
	ReconnectableName *PatternSet
	ShutdownAllow     *PatternSet

	libdir string

	perNodeMu    sync.Mutex
	perNodeCache map[string]perNodeEntry
}

type perNodeEntry struct {
	set    *PatternSet
	exists bool
}

// LoadConfig reads every pattern file under libdir and compiles the
// Configuration Snapshot. A malformed pattern aborts with a ConfigLoad
// error; a missing file is treated as an empty pattern set.
func LoadConfig(libdir string) (*Config, error) {
	hostAllow, err := loadPatternFile(libdir, "allow.cfg")
	if err != nil {
		return nil, err
	}
	cmdAllow, err := loadPatternFile(libdir, "command_allow.cfg")
	if err != nil {
		return nil, err
	}
	cmdDeny, err := loadPatternFile(libdir, "command_deny.cfg")
	if err != nil {
		return nil, err
	}
	reconnFrom, err := loadPatternFile(libdir, "reconnectable_from.cfg")
	if err != nil {
		return nil, err
	}
	reconnName, err := loadPatternFile(libdir, "reconnectable_name.cfg")
	if err != nil {
		return nil, err
	}
	shutAllow, err := loadPatternFile(libdir, "shutdown_allow.cfg")
	if err != nil {
		return nil, err
	}
	aliases, err := loadAliases(libdir)
	if err != nil {
		return nil, err
	}

	return &Config{
		HostAllow:         hostAllow,
		CommandAllow:      cmdAllow,
		CommandDeny:       cmdDeny,
		Aliases:           aliases,
		ReconnectableFrom: reconnFrom,
		ReconnectableName: reconnName,
		ShutdownAllow:     shutAllow,
		libdir:            libdir,
		perNodeCache:      make(map[string]perNodeEntry),
	}, nil
}

// readLines returns the non-comment, non-blank lines of path. A missing
// file yields an empty slice, not an error.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("reading %s: %s", path, err))
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("reading %s: %s", path, err))
	}
	return lines, nil
}

func loadPatternFile(libdir, name string) (*PatternSet, error) {
	lines, err := readLines(filepath.Join(libdir, name))
	if err != nil {
		return nil, err
	}
	return CompilePatterns(lines)
}

func loadAliases(libdir string) (*AliasTable, error) {
	lines, err := readLines(filepath.Join(libdir, "aliases.cfg"))
	if err != nil {
		return nil, err
	}

	pairs := make([][2]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("malformed alias line %q", line))
		}
		pairs = append(pairs, [2]string{fields[0], fields[1]})
	}

	return NewAliasTable(pairs)
}

// perNodeAllow lazily loads and caches <name>.allow from libdir.
func (c *Config) perNodeAllow(name string) (*PatternSet, bool, error) {
	c.perNodeMu.Lock()
	defer c.perNodeMu.Unlock()

	if cached, ok := c.perNodeCache[name]; ok {
		return cached.set, cached.exists, nil
	}

	path := filepath.Join(c.libdir, name+".allow")
	_, statErr := os.Stat(path)
	exists := statErr == nil

	var set *PatternSet
	if exists {
		lines, err := readLines(path)
		if err != nil {
			return nil, false, err
		}
		set, err = CompilePatterns(lines)
		if err != nil {
			return nil, false, err
		}
	}

	c.perNodeCache[name] = perNodeEntry{set: set, exists: exists}
	return set, exists, nil
}

// HostAllowedGlobal implements the Acceptor-time host check (spec.md
// §4.1 step 2): the peer must match at least one host_allow pattern by
// either its hostname or its IP literal. An empty host_allow set matches
// nothing, so it denies every connection -- this is the one place where
// emptiness means deny-all rather than allow-all, mirroring the literal
// wording of the Acceptor Loop component.
func (c *Config) HostAllowedGlobal(ip, hostname string) bool {
	return c.HostAllow.MatchAny(ip) || c.HostAllow.MatchAny(hostname)
}

// HostAllowedForNode implements the additive per-node host check of
// spec.md §4.5: H is permitted for name N iff H matches host_allow AND
// (no per-node file exists for N OR H matches the per-node patterns).
func (c *Config) HostAllowedForNode(name, ip, hostname string) (bool, error) {
	if !c.HostAllowedGlobal(ip, hostname) {
		return false, nil
	}
	set, exists, err := c.perNodeAllow(name)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	return set.MatchAny(ip) || set.MatchAny(hostname), nil
}

// CommandPermitted implements spec.md §4.3 step 4: a command is
// permitted iff it matches no deny pattern AND (no allow patterns exist
// OR it matches at least one allow pattern). Deny is evaluated first.
func (c *Config) CommandPermitted(cmd string) bool {
	if c.CommandDeny.MatchAny(cmd) {
		return false
	}
	if c.CommandAllow.Empty() {
		return true
	}
	return c.CommandAllow.MatchAny(cmd)
}

// Reconnectable implements the reconnection policy of spec.md §4.2: a
// colliding registration may evict the existing one only if the new
// peer's host matches reconnectable_from AND the candidate name matches
// reconnectable_name. Both sets default to deny when empty.
func (c *Config) Reconnectable(ip, hostname, name string) bool {
	hostMatch := c.ReconnectableFrom.MatchAny(ip) || c.ReconnectableFrom.MatchAny(hostname)
	nameMatch := c.ReconnectableName.MatchAny(name)
	return hostMatch && nameMatch
}

// ShutdownAllowed implements spec.md §4.4's shutdownserver gate.
func (c *Config) ShutdownAllowed(name string) bool {
	return c.ShutdownAllow.MatchAny(name)
}
