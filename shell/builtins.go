package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/phildougherty/llmsh/errors"
	"github.com/phildougherty/llmsh/jobs"
)

// builtin handlers run in-process and mutate session state directly. They
// never see redirections; a builtin inside a pipeline goes to the spawn path
// and fails there like any unknown binary.
type builtin func(s *Shell, args []string) error

// exitRequest is the sentinel a successful `exit` returns; the loop catches
// it and shuts down with the carried code.
type exitRequest struct {
	code int
}

func (e exitRequest) Error() string { return fmt.Sprintf("exit %d", e.code) }

func (s *Shell) registerBuiltins() {
	s.builtins = map[string]builtin{
		"cd":      builtinCd,
		"pwd":     builtinPwd,
		"exit":    builtinExit,
		"export":  builtinExport,
		"unset":   builtinUnset,
		"alias":   builtinAlias,
		"unalias": builtinUnalias,
		"history": builtinHistory,
		"jobs":    builtinJobs,
		"fg":      builtinFg,
		"bg":      builtinBg,
		"kill":    builtinKill,
		"type":    builtinType,
		"help":    builtinHelp,
	}
}

func builtinCd(s *Shell, args []string) error {
	var target string
	if len(args) == 0 {
		home, err := s.cfg.HomeDir()
		if err != nil {
			return err
		}
		target = home
	} else {
		target = args[0]
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return errors.WithKind(errors.KindPathNotFound, "cd: %s: no such directory", target)
	}
	if err := os.Chdir(target); err != nil {
		return errors.WrapKind(err, errors.KindPathNotFound, "cd: %s", target)
	}
	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrapf(err, "cd: could not resolve new directory")
	}
	s.sess.SetWorkingDir(wd)
	s.sess.Export("PWD", wd)
	return nil
}

func builtinPwd(s *Shell, args []string) error {
	fmt.Fprintln(s.out, s.sess.WorkingDir())
	return nil
}

func builtinExit(s *Shell, args []string) error {
	code := s.sess.LastStatus()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("exit: %s: numeric argument required", args[0])
		}
		code = n
	}
	return exitRequest{code: code}
}

func builtinExport(s *Shell, args []string) error {
	if len(args) == 0 {
		for _, kv := range s.sess.Environ() {
			fmt.Fprintln(s.out, kv)
		}
		return nil
	}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if name == "" {
			return errors.New("export: invalid name in %q", arg)
		}
		if !ok {
			// Bare name: mark an existing entry exported, empty otherwise.
			if e, exists := s.sess.Get(name); exists {
				value = e.Value
			}
		}
		s.sess.Export(name, strings.Trim(value, `"'`))
	}
	return nil
}

func builtinUnset(s *Shell, args []string) error {
	if len(args) == 0 {
		return errors.New("unset: missing variable name")
	}
	for _, name := range args {
		s.sess.Unset(name)
	}
	return nil
}

func builtinAlias(s *Shell, args []string) error {
	if len(args) == 0 {
		for _, name := range s.sess.Aliases() {
			expansion, _ := s.sess.Alias(name)
			fmt.Fprintf(s.out, "alias %s='%s'\n", name, expansion)
		}
		return nil
	}
	if len(args) == 1 && !strings.Contains(args[0], "=") {
		expansion, ok := s.sess.Alias(args[0])
		if !ok {
			return errors.New("alias: %s: not found", args[0])
		}
		fmt.Fprintf(s.out, "alias %s='%s'\n", args[0], expansion)
		return nil
	}
	def := strings.Join(args, " ")
	name, value, ok := strings.Cut(def, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return errors.New("alias: invalid format, use: alias name='value'")
	}
	s.sess.SetAlias(strings.TrimSpace(name), strings.Trim(value, `"'`))
	return nil
}

func builtinUnalias(s *Shell, args []string) error {
	if len(args) == 0 {
		return errors.New("unalias: missing alias name")
	}
	for _, name := range args {
		if !s.sess.RemoveAlias(name) {
			return errors.New("unalias: %s: not found", name)
		}
	}
	return nil
}

func builtinHistory(s *Shell, args []string) error {
	entries := s.sess.History().Entries()
	count := len(entries)
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return errors.New("history: %s: invalid count", args[0])
		}
		if n < count {
			count = n
		}
	}
	for _, e := range entries[len(entries)-count:] {
		line := e.Raw
		if e.Resolved != "" {
			line += "  -> " + e.Resolved
		} else if e.Rejected {
			line += "  (rejected)"
		}
		fmt.Fprintf(s.out, "%5d  %s\n", e.Seq, line)
	}
	return nil
}

func builtinJobs(s *Shell, args []string) error {
	for _, job := range s.jobs.Snapshot() {
		fmt.Fprintf(s.out, "[%d]  %-10s  %s\n", job.ID, job.Status, job.Command)
	}
	return nil
}

// resolveJob turns an optional `%n`/`n` argument into a job, defaulting to
// the most recent one.
func (s *Shell) resolveJob(args []string) (*jobs.Job, error) {
	if len(args) == 0 {
		job, ok := s.jobs.Latest()
		if !ok {
			return nil, errors.New("no current job")
		}
		return job, nil
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
	if err != nil {
		return nil, errors.New("%s: invalid job spec", args[0])
	}
	job, ok := s.jobs.Get(id)
	if !ok {
		return nil, errors.New("%%%d: no such job", id)
	}
	return job, nil
}

func builtinFg(s *Shell, args []string) error {
	job, err := s.resolveJob(args)
	if err != nil {
		return errors.Wrapf(err, "fg")
	}
	fmt.Fprintln(s.out, job.Command)
	code, err := s.jobs.ContinueForeground(job, s.out)
	if err != nil {
		return err
	}
	s.sess.SetLastStatus(code)
	return nil
}

func builtinBg(s *Shell, args []string) error {
	job, err := s.resolveJob(args)
	if err != nil {
		return errors.Wrapf(err, "bg")
	}
	if err := s.jobs.ContinueBackground(job); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "[%d] %s &\n", job.ID, job.Command)
	return nil
}

func builtinKill(s *Shell, args []string) error {
	sig := "TERM"
	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		sig = strings.TrimPrefix(args[0], "-")
		args = args[1:]
	}
	if len(args) == 0 {
		return errors.New("kill: usage: kill [-SIG] jobspec|pid")
	}
	for _, spec := range args {
		if strings.HasPrefix(spec, "%") {
			job, err := s.resolveJob([]string{spec})
			if err != nil {
				return errors.Wrapf(err, "kill")
			}
			if err := s.jobs.Signal(job, sig); err != nil {
				return err
			}
			continue
		}
		pid, err := strconv.Atoi(spec)
		if err != nil {
			return errors.New("kill: %s: invalid process id", spec)
		}
		// A bare number names a job when one matches, a pid otherwise.
		if job, ok := s.jobs.Get(pid); ok {
			if err := s.jobs.Signal(job, sig); err != nil {
				return err
			}
			continue
		}
		if err := s.jobs.SignalPid(pid, sig); err != nil {
			return err
		}
	}
	return nil
}

func builtinType(s *Shell, args []string) error {
	if len(args) == 0 {
		return errors.New("type: missing argument")
	}
	var missing []string
	for _, name := range args {
		switch {
		case s.IsBuiltin(name):
			fmt.Fprintf(s.out, "%s is a shell builtin\n", name)
		case s.sess.IsAlias(name):
			expansion, _ := s.sess.Alias(name)
			fmt.Fprintf(s.out, "%s is aliased to '%s'\n", name, expansion)
		default:
			if path, ok := s.LookPath(name); ok {
				fmt.Fprintf(s.out, "%s is %s\n", name, path)
			} else {
				fmt.Fprintf(s.out, "%s: not found\n", name)
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		return errors.New("type: %s: not found", strings.Join(missing, ", "))
	}
	return nil
}

func builtinHelp(s *Shell, args []string) error {
	fmt.Fprintln(s.out, helpText())
	return nil
}

// IsBuiltin reports whether name has a registered builtin handler.
func (s *Shell) IsBuiltin(name string) bool {
	_, ok := s.builtins[name]
	return ok
}

// IsAlias reports whether name is aliased in the session.
func (s *Shell) IsAlias(name string) bool { return s.sess.IsAlias(name) }

// LookPath resolves name against PATH.
func (s *Shell) LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
