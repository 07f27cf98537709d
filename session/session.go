// Package session holds the mutable state owned by one running shell:
// working directory, environment, aliases, and the bounded command history.
// Builtins mutate it in-process; nothing else writes to it.
package session

import (
	"os"
	"sort"
	"strings"

	"github.com/phildougherty/llmsh/errors"
)

// EnvEntry is one environment mapping. Only exported entries materialize in
// spawned-process environments.
type EnvEntry struct {
	Value    string
	Exported bool
}

type Session struct {
	workingDir string
	env        map[string]EnvEntry
	aliases    map[string]string
	history    *History
	lastStatus int
}

// New builds session state seeded from the process environment. Inherited
// variables count as exported. PATH, HOME, and TERM get working defaults when
// the environment lacks them.
func New(historySize int) (*Session, error) {
	s := &Session{
		env:     make(map[string]EnvEntry),
		aliases: make(map[string]string),
		history: NewHistory(historySize),
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		s.env[name] = EnvEntry{Value: value, Exported: true}
	}
	if _, ok := s.env["PATH"]; !ok {
		s.env["PATH"] = EnvEntry{Value: "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin", Exported: true}
	}
	if _, ok := s.env["HOME"]; !ok {
		if home, err := os.UserHomeDir(); err == nil {
			s.env["HOME"] = EnvEntry{Value: home, Exported: true}
		}
	}
	if _, ok := s.env["TERM"]; !ok {
		s.env["TERM"] = EnvEntry{Value: "xterm-256color", Exported: true}
	}
	if exe, err := os.Executable(); err == nil {
		s.env["SHELL"] = EnvEntry{Value: exe, Exported: true}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not determine working directory")
	}
	s.workingDir = wd

	s.seedDefaultAliases()
	return s, nil
}

func (s *Session) seedDefaultAliases() {
	s.aliases["ll"] = "ls -la"
	s.aliases["la"] = "ls -A"
	s.aliases[".."] = "cd .."
}

func (s *Session) WorkingDir() string { return s.workingDir }

// SetWorkingDir records a directory change. Callers verify the target first;
// the cd builtin only calls this after a successful chdir.
func (s *Session) SetWorkingDir(dir string) { s.workingDir = dir }

// Lookup resolves a variable for expansion. Unset names yield "".
func (s *Session) Lookup(name string) string { return s.env[name].Value }

// Get returns an environment entry and whether it exists.
func (s *Session) Get(name string) (EnvEntry, bool) {
	e, ok := s.env[name]
	return e, ok
}

// Export sets one entry and marks it exported. The process environment is
// kept in sync so PATH lookups and spawned children observe the change.
func (s *Session) Export(name, value string) {
	s.env[name] = EnvEntry{Value: value, Exported: true}
	_ = os.Setenv(name, value)
}

// Unset removes an entry.
func (s *Session) Unset(name string) {
	delete(s.env, name)
	_ = os.Unsetenv(name)
}

// Environ returns the exported entries in NAME=VALUE form, sorted, for
// spawned processes.
func (s *Session) Environ() []string {
	var out []string
	for name, e := range s.env {
		if e.Exported {
			out = append(out, name+"="+e.Value)
		}
	}
	sort.Strings(out)
	return out
}

// ExportedNames returns exported entry names in sorted order.
func (s *Session) ExportedNames() []string {
	var names []string
	for name, e := range s.env {
		if e.Exported {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Session) History() *History { return s.history }

// LastStatus is the exit code of the most recent foreground pipeline. It
// becomes the session exit status unless an explicit exit code overrides it.
func (s *Session) LastStatus() int        { return s.lastStatus }
func (s *Session) SetLastStatus(code int) { s.lastStatus = code }
