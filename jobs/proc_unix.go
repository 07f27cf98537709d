//go:build unix

package jobs

import (
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/phildougherty/llmsh/errors"
	"github.com/phildougherty/llmsh/parser"
)

var (
	sigContinue  = unix.SIGCONT
	sigTerminate = unix.SIGTERM
)

type spawnedProc struct {
	pid  int
	name string
}

// spawnPipeline starts one process per pipeline member, wiring pipes and
// redirections, with every member in the process group of the first. On a
// mid-pipeline failure it returns the launched prefix together with the
// error; the unlaunched tail is abandoned and upstream members keep running
// into a closed pipe.
func spawnPipeline(p *parser.Pipeline, opts LaunchOptions) ([]spawnedProc, error) {
	var procs []spawnedProc
	var prevRead *os.File
	pgid := 0

	for i, c := range p.Commands {
		last := i == len(p.Commands)-1

		stdin, stdout, stderr := os.Stdin, os.Stdout, os.Stderr
		var parentCloses []*os.File

		if prevRead != nil {
			stdin = prevRead
			parentCloses = append(parentCloses, prevRead)
			prevRead = nil
		}

		var nextRead *os.File
		if !last {
			r, w, err := os.Pipe()
			if err != nil {
				closeAll(parentCloses)
				return procs, errors.Wrapf(err, "could not create pipe")
			}
			stdout = w
			nextRead = r
			parentCloses = append(parentCloses, w)
		}

		for _, rd := range c.Redirs {
			f, err := openRedirection(rd)
			if err != nil {
				closeAll(parentCloses)
				if nextRead != nil {
					nextRead.Close()
				}
				return procs, err
			}
			parentCloses = append(parentCloses, f)
			switch rd.Kind {
			case parser.RedirIn:
				stdin = f
			case parser.RedirOut, parser.RedirAppend:
				stdout = f
			case parser.RedirErr, parser.RedirErrAppend:
				stderr = f
			}
		}

		cmd := exec.Command(c.Args[0], c.Args[1:]...)
		cmd.Env = opts.Env
		cmd.Dir = opts.Dir
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}

		if err := cmd.Start(); err != nil {
			closeAll(parentCloses)
			if nextRead != nil {
				nextRead.Close()
			}
			return procs, errors.Wrapf(err, "%s", c.Args[0])
		}
		if i == 0 {
			pgid = cmd.Process.Pid
		}
		// The children hold their own copies now.
		closeAll(parentCloses)
		prevRead = nextRead
		procs = append(procs, spawnedProc{pid: cmd.Process.Pid, name: c.Args[0]})
	}
	return procs, nil
}

func openRedirection(rd parser.Redirection) (*os.File, error) {
	switch rd.Kind {
	case parser.RedirIn:
		f, err := os.Open(rd.Target)
		return f, errors.Wrapf(err, "cannot open %s", rd.Target)
	case parser.RedirAppend, parser.RedirErrAppend:
		f, err := os.OpenFile(rd.Target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		return f, errors.Wrapf(err, "cannot open %s for append", rd.Target)
	default:
		f, err := os.Create(rd.Target)
		return f, errors.Wrapf(err, "cannot create %s", rd.Target)
	}
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

// watchMember reaps state changes for one child and feeds them to the job
// table. It exits once the child is gone for good.
func (m *Manager) watchMember(pid int) {
	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// Lost track of the child; close out the member so the job
			// cannot hang.
			m.log.Error().Int("pid", pid).Err(err).Msg("wait failed")
			m.childStateChanged(pid, procExited, 1)
			return
		}
		switch {
		case ws.Exited():
			m.childStateChanged(pid, procExited, ws.ExitStatus())
			return
		case ws.Signaled():
			m.childStateChanged(pid, procSignaled, 128+int(ws.Signal()))
			return
		case ws.Stopped():
			m.childStateChanged(pid, procStopped, 0)
		case ws.Continued():
			m.childStateChanged(pid, procRunning, 0)
		}
	}
}

// terminal mediates controlling-terminal ownership between the shell and
// foreground process groups. On a non-interactive stdin every handoff is a
// no-op.
type terminal struct {
	fd          int
	shellPgid   int
	interactive bool
}

func newTerminal() terminal {
	fd := int(os.Stdin.Fd())
	t := terminal{
		fd:          fd,
		shellPgid:   unix.Getpgrp(),
		interactive: term.IsTerminal(fd),
	}
	if t.interactive {
		// Reclaiming the terminal from inside the shell raises TTOU; the
		// shell itself must also never suspend on TSTP.
		signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN, syscall.SIGTSTP)
	}
	return t
}

func (t terminal) give(pgid int) {
	if !t.interactive {
		return
	}
	_ = unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid)
}

func (t terminal) reclaim() { t.give(t.shellPgid) }

func signalGroup(pgid int, sig unix.Signal) error {
	return unix.Kill(-pgid, sig)
}

func signalProcess(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}

var signalNames = map[string]unix.Signal{
	"HUP":  unix.SIGHUP,
	"INT":  unix.SIGINT,
	"QUIT": unix.SIGQUIT,
	"KILL": unix.SIGKILL,
	"TERM": unix.SIGTERM,
	"STOP": unix.SIGSTOP,
	"CONT": unix.SIGCONT,
	"USR1": unix.SIGUSR1,
	"USR2": unix.SIGUSR2,
}

// lookupSignal resolves "TERM", "SIGTERM", "15", or "-15" style names.
func lookupSignal(name string) (unix.Signal, error) {
	cleaned := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(name, "-"), "SIG"))
	if s, ok := signalNames[cleaned]; ok {
		return s, nil
	}
	if n, err := strconv.Atoi(cleaned); err == nil && n > 0 && n < 65 {
		return unix.Signal(n), nil
	}
	return 0, errors.New("unknown signal %q", name)
}
