package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kektsukuba/stars/common"
)

// PatternSet is a compiled, full-anchored set of wildcard patterns over
// hosts, commands, or node names. '*' matches any run of characters; every
// other regex metacharacter in the source pattern is escaped.
type PatternSet struct {
	raw     []string
	compiled []*regexp.Regexp
}

// CompileGlob turns one glob-style pattern into a fully-anchored regexp.
// '*' maps to '.*'; everything else is escaped.
func CompileGlob(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		if r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// CompilePatterns compiles every line it is given into a PatternSet;
// blank and comment lines are dropped earlier, by the file loader. A
// pattern that fails to compile is a ConfigLoad error.
func CompilePatterns(lines []string) (*PatternSet, error) {
	ps := &PatternSet{}
	for _, line := range lines {
		re, err := CompileGlob(line)
		if err != nil {
			return nil, common.NewError(common.ConfigLoad, "", fmt.Sprintf("bad pattern %q: %s", line, err))
		}
		ps.raw = append(ps.raw, line)
		ps.compiled = append(ps.compiled, re)
	}
	return ps, nil
}

// MatchAny reports whether s fully matches any pattern in the set. An
// empty set matches nothing.
func (p *PatternSet) MatchAny(s string) bool {
	if p == nil {
		return false
	}
	for _, re := range p.compiled {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no patterns at all.
func (p *PatternSet) Empty() bool {
	return p == nil || len(p.compiled) == 0
}

// Raw returns the original pattern strings, in file order.
func (p *PatternSet) Raw() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.raw...)
}
