// Package jobs owns process spawning and the job table. Pipelines launch
// into fresh process groups; child state changes arrive as events from
// per-member watcher goroutines and merge into the table under one mutex.
// The manager is the table's only mutator.
package jobs

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/phildougherty/llmsh/errors"
	"github.com/phildougherty/llmsh/parser"
)

// LaunchOptions carries the session context a pipeline spawns with.
type LaunchOptions struct {
	Env []string
	Dir string
}

type Manager struct {
	mu   sync.Mutex
	cond *sync.Cond

	jobs   map[int]*Job
	byPid  map[int]*Job
	nextID int
	fg     *Job
	term   terminal
	log    zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	m := &Manager{
		jobs:   make(map[int]*Job),
		byPid:  make(map[int]*Job),
		nextID: 1,
		term:   newTerminal(),
		log:    log,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Launch spawns every member of the pipeline into one new process group and
// registers a Job. A spawn failure mid-pipeline aborts the unlaunched tail
// but leaves already-running members alone; the partial job stays registered
// so they are still reaped. Callers run foreground jobs to completion with
// WaitForeground.
func (m *Manager) Launch(p *parser.Pipeline, raw string, opts LaunchOptions) (*Job, error) {
	if p.Empty() {
		return nil, nil
	}

	procs, spawnErr := spawnPipeline(p, opts)
	if len(procs) == 0 {
		return nil, errors.WrapKind(spawnErr, errors.KindSpawnFailed, "%q", raw)
	}

	m.mu.Lock()
	job := &Job{
		ID:         m.nextID,
		Pgid:       procs[0].pid,
		Command:    raw,
		Background: p.Background,
		Status:     Running,
		started:    time.Now(),
	}
	m.nextID++
	for _, proc := range procs {
		mem := &member{pid: proc.pid, name: proc.name}
		job.members = append(job.members, mem)
		m.byPid[proc.pid] = job
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()

	for _, proc := range procs {
		go m.watchMember(proc.pid)
	}

	m.log.Debug().Int("job", job.ID).Int("pgid", job.Pgid).Str("cmd", raw).
		Bool("background", p.Background).Msg("pipeline launched")

	if spawnErr != nil {
		return job, errors.WrapKind(spawnErr, errors.KindSpawnFailed, "%q", raw)
	}
	return job, nil
}

// childStateChanged merges one child notification into the job table. This
// is the single entry point for the asynchronous delivery side; all mutation
// happens under m.mu.
func (m *Manager) childStateChanged(pid int, state procState, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.byPid[pid]
	if !ok {
		m.log.Error().Int("pid", pid).Msg("state change for unknown pid")
		return
	}
	var mem *member
	for _, candidate := range job.members {
		if candidate.pid == pid {
			mem = candidate
			break
		}
	}
	if mem == nil || mem.finished() {
		// A finished member must not change state again; the job table no
		// longer reflects reality, so give up on this job but not the shell.
		m.log.Error().Int("job", job.ID).Int("pid", pid).
			Msg("job table inconsistency, forcing job to Terminated")
		job.Status = Terminated
		job.ExitCode = 1
		m.cond.Broadcast()
		return
	}

	mem.state = state
	if state == procExited || state == procSignaled {
		mem.exitCode = code
		delete(m.byPid, pid)
	}
	job.recompute()
	m.cond.Broadcast()
}

// WaitForeground hands the terminal to the job's process group and blocks
// until the job stops or finishes, then reclaims the terminal. Finished jobs
// leave the table here; stopped jobs persist for fg/bg. Returns the job's
// aggregate exit code.
func (m *Manager) WaitForeground(job *Job, out io.Writer) int {
	m.term.give(job.Pgid)

	m.mu.Lock()
	m.fg = job
	for job.Status == Running {
		m.cond.Wait()
	}
	status := job.Status
	code := job.ExitCode
	m.fg = nil
	if job.finished() {
		m.remove(job)
	}
	m.mu.Unlock()

	m.term.reclaim()

	if status == Stopped {
		fmt.Fprintf(out, "[%d]  Stopped  %s\n", job.ID, job.Command)
	}
	return code
}

// ReportFinished prints and removes background jobs that completed since the
// last prompt. Stopped jobs persist until resumed or killed.
func (m *Manager) ReportFinished(out io.Writer) {
	m.mu.Lock()
	var finished []*Job
	for _, job := range m.jobs {
		if job.finished() {
			finished = append(finished, job)
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].ID < finished[j].ID })
	for _, job := range finished {
		m.remove(job)
	}
	m.mu.Unlock()

	for _, job := range finished {
		if job.Status == Terminated {
			fmt.Fprintf(out, "[%d]  Terminated  %s\n", job.ID, job.Command)
		} else {
			fmt.Fprintf(out, "[%d]  Done (%d)  %s\n", job.ID, job.ExitCode, job.Command)
		}
	}
}

// remove drops a job from the table. Caller holds m.mu. Member pids stay in
// byPid only while unreaped, so group ids cannot be confused across jobs.
func (m *Manager) remove(job *Job) {
	for _, mem := range job.members {
		delete(m.byPid, mem.pid)
	}
	delete(m.jobs, job.ID)
}

// Get returns a job by id.
func (m *Manager) Get(id int) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	return job, ok
}

// Latest returns the most recently launched job still in the table.
func (m *Manager) Latest() (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := 0
	for id := range m.jobs {
		if id > best {
			best = id
		}
	}
	if best == 0 {
		return nil, false
	}
	return m.jobs[best], true
}

// Snapshot returns the current jobs ordered by id, for the jobs builtin.
func (m *Manager) Snapshot() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.jobs[id])
	}
	return out
}

// ContinueBackground resumes a stopped job without giving it the terminal.
func (m *Manager) ContinueBackground(job *Job) error {
	if err := signalGroup(job.Pgid, sigContinue); err != nil {
		return errors.Wrapf(err, "could not resume job %d", job.ID)
	}
	m.markResumed(job)
	return nil
}

// ContinueForeground resumes a job and waits on it in the foreground.
func (m *Manager) ContinueForeground(job *Job, out io.Writer) (int, error) {
	if err := signalGroup(job.Pgid, sigContinue); err != nil {
		return 0, errors.Wrapf(err, "could not resume job %d", job.ID)
	}
	m.markResumed(job)
	return m.WaitForeground(job, out), nil
}

func (m *Manager) markResumed(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range job.members {
		if mem.state == procStopped {
			mem.state = procRunning
		}
	}
	job.recompute()
}

// Signal delivers a named signal to the job's whole process group.
func (m *Manager) Signal(job *Job, sig string) error {
	s, err := lookupSignal(sig)
	if err != nil {
		return err
	}
	return errors.Wrapf(signalGroup(job.Pgid, s), "could not signal job %d", job.ID)
}

// SignalPid delivers a named signal to one process outside the job table.
func (m *Manager) SignalPid(pid int, sig string) error {
	s, err := lookupSignal(sig)
	if err != nil {
		return err
	}
	return errors.Wrapf(signalProcess(pid, s), "could not signal pid %d", pid)
}

// Shutdown terminates every remaining job. Called once when the session
// ends.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if !job.finished() {
			_ = signalGroup(job.Pgid, sigTerminate)
		}
	}
}
