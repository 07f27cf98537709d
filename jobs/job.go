package jobs

import "time"

type Status int

const (
	Running Status = iota
	Stopped
	Done
	Terminated
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	case Terminated:
		return "Terminated"
	}
	return "Unknown"
}

type procState int

const (
	procRunning procState = iota
	procStopped
	procExited
	procSignaled
)

// member tracks one process of a pipeline.
type member struct {
	pid      int
	name     string
	state    procState
	exitCode int // valid once exited; 128+signal when killed by a signal
}

func (m *member) finished() bool {
	return m.state == procExited || m.state == procSignaled
}

// Job is the shell's record of one in-flight pipeline: every member shares
// the process group identified by Pgid. The aggregate exit code follows the
// last pipeline member.
type Job struct {
	ID         int
	Pgid       int
	Command    string
	Background bool
	Status     Status
	ExitCode   int

	members []*member
	started time.Time
}

// recompute derives the job status from its members. Called with the
// manager's lock held.
func (j *Job) recompute() {
	allFinished := true
	anyStopped := false
	for _, m := range j.members {
		switch m.state {
		case procRunning:
			allFinished = false
		case procStopped:
			allFinished = false
			anyStopped = true
		}
	}
	switch {
	case allFinished:
		last := j.members[len(j.members)-1]
		if last.state == procSignaled {
			j.Status = Terminated
		} else {
			j.Status = Done
		}
		j.ExitCode = last.exitCode
	case anyStopped:
		j.Status = Stopped
	default:
		j.Status = Running
	}
}

func (j *Job) finished() bool { return j.Status == Done || j.Status == Terminated }

// Runtime reports how long the job has been alive.
func (j *Job) Runtime() time.Duration { return time.Since(j.started) }
