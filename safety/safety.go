// Package safety flags translated commands that look destructive before they
// reach the confirmation prompt. It never blocks anything; the decision stays
// with the user.
package safety

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/phildougherty/llmsh/config"
	"github.com/phildougherty/llmsh/errors"
)

// Checker evaluates command lines against configured danger patterns and
// protected path globs.
type Checker struct {
	patterns  []*regexp.Regexp
	protected []string
}

// NewChecker compiles the configured patterns. A bad regex or glob is a
// configuration error and fails startup.
func NewChecker(cfg config.Safety) (*Checker, error) {
	c := &Checker{protected: cfg.ProtectedPaths}
	for _, p := range cfg.DangerPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "bad danger pattern %q", p)
		}
		c.patterns = append(c.patterns, re)
	}
	for _, g := range cfg.ProtectedPaths {
		if !doublestar.ValidatePattern(g) {
			return nil, errors.New("bad protected path pattern %q", g)
		}
	}
	return c, nil
}

// Check returns the reasons a command line was flagged, or nil when the
// command looks harmless.
func (c *Checker) Check(command string) []string {
	var reasons []string

	trimmed := strings.TrimSpace(command)
	for _, re := range c.patterns {
		if re.MatchString(trimmed) {
			reasons = append(reasons, "may modify or delete data")
			break
		}
	}

	for _, word := range strings.Fields(trimmed) {
		path := strings.Trim(word, `"'`)
		if !strings.HasPrefix(path, "/") {
			continue
		}
		for _, g := range c.protected {
			if ok, _ := doublestar.Match(g, path); ok {
				reasons = append(reasons, "touches protected path "+path)
				break
			}
		}
	}

	return reasons
}

// Dangerous reports whether Check would flag the command.
func (c *Checker) Dangerous(command string) bool {
	return len(c.Check(command)) > 0
}
