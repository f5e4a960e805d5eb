package policy

import (
	"fmt"
	"sort"

	"github.com/kektsukuba/stars/common"
)

// AliasTable is a bijection between alias names and real node names. Both
// directions are O(1) lookups; no alias may chain to another alias, and no
// alias may equal the real name of a different entry.
type AliasTable struct {
	aliasToReal map[string]string
	realToAlias map[string]string
}

// NewAliasTable validates and compiles a list of "<alias> <real>" pairs as
// read from aliases.cfg.
func NewAliasTable(pairs [][2]string) (*AliasTable, error) {
	t := &AliasTable{
		aliasToReal: make(map[string]string, len(pairs)),
		realToAlias: make(map[string]string, len(pairs)),
	}

	reals := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		reals[p[1]] = true
	}

	for _, p := range pairs {
		alias, real := p[0], p[1]

		if alias == real {
			return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("alias %q resolves to itself", alias))
		}
		if _, isAlias := t.aliasToReal[alias]; isAlias {
			return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("duplicate alias %q", alias))
		}
		if reals[alias] {
			return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("alias %q equals a real node name", alias))
		}
		if _, aliasIsReal := t.realToAlias[real]; !aliasIsReal {
			t.realToAlias[real] = alias
		}

		t.aliasToReal[alias] = real
	}

	return t, nil
}

// Resolve returns the real name for name if it is a known alias, and name
// unchanged otherwise. Resolution is applied once; it never chains.
func (t *AliasTable) Resolve(name string) string {
	if t == nil {
		return name
	}
	if real, ok := t.aliasToReal[name]; ok {
		return real
	}
	return name
}

// IsAlias reports whether name is a registered alias.
func (t *AliasTable) IsAlias(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.aliasToReal[name]
	return ok
}

// List returns every "<alias>=<real>" pair, sorted by alias, as used by
// the listaliases built-in.
func (t *AliasTable) List() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.aliasToReal))
	for alias, real := range t.aliasToReal {
		out = append(out, fmt.Sprintf("%s=%s", alias, real))
	}
	sort.Strings(out)
	return out
}
