package session

import (
	"sort"
	"strings"
)

// aliasDepthLimit guards against alias definitions that expand to each other.
const aliasDepthLimit = 10

// SetAlias defines or replaces an alias.
func (s *Session) SetAlias(name, expansion string) { s.aliases[name] = expansion }

// RemoveAlias deletes an alias, reporting whether it existed.
func (s *Session) RemoveAlias(name string) bool {
	_, ok := s.aliases[name]
	delete(s.aliases, name)
	return ok
}

// Alias looks up one alias.
func (s *Session) Alias(name string) (string, bool) {
	v, ok := s.aliases[name]
	return v, ok
}

// IsAlias reports whether name is aliased.
func (s *Session) IsAlias(name string) bool {
	_, ok := s.aliases[name]
	return ok
}

// Aliases returns all alias names in sorted order.
func (s *Session) Aliases() []string {
	names := make([]string, 0, len(s.aliases))
	for name := range s.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpandAliases rewrites the first word of a line through the alias table,
// iterating so an alias may resolve to another alias, bounded to avoid
// cycles. Text after the first word is preserved verbatim.
func (s *Session) ExpandAliases(line string) string {
	for i := 0; i < aliasDepthLimit; i++ {
		first, rest, hasRest := cutFirstWord(line)
		if first == "" {
			return line
		}
		expansion, ok := s.aliases[first]
		if !ok {
			return line
		}
		if hasRest {
			line = expansion + " " + rest
		} else {
			line = expansion
		}
		// A self-referential alias (alias ls='ls --color') expands once.
		newFirst, _, _ := cutFirstWord(line)
		if newFirst == first {
			return line
		}
	}
	return line
}

func cutFirstWord(line string) (first, rest string, hasRest bool) {
	trimmed := strings.TrimLeft(line, " \t")
	idx := strings.IndexAny(trimmed, " \t")
	if idx < 0 {
		return trimmed, "", false
	}
	return trimmed[:idx], strings.TrimLeft(trimmed[idx:], " \t"), true
}
