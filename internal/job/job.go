// Package job implements the shell-scoped job table: stable small-integer
// identifiers, per-process liveness, and the stopped/running/background
// state every Pipeline's process group carries once launched.
package job

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Job is a single registered pipeline: its group, its displayable label
// (the original input line), its running/stopped/background state, and
// the member process identifiers launched in pipeline order.
type Job struct {
	ID         int
	PGID       int
	Label      string
	Stopped    bool
	Background bool
	PIDs       []int
}

// State renders the STATE column used by the jobs built-in.
func (j *Job) State() string {
	if j.Stopped {
		return "stopped"
	}
	return "running"
}

// Table is the shell's job table. It is mutated only by the Executor (on
// creation), the reaper (on child status transitions), and the fg/bg
// built-ins (on user request); a zero Table is ready to use.
type Table struct {
	mu     sync.Mutex
	jobs   []*Job
	nextID int
}

// NewTable returns an empty job table with identifiers starting at 1.
func NewTable() *Table {
	return &Table{nextID: 1}
}

// Add registers pgid/pids under a new monotonic identifier and returns
// the created Job. Invariant: pgid equals pids[0] at registration time
// (spec.md §3); callers are responsible for that equality.
func (t *Table) Add(pgid int, label string, background bool, pids []int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nextID == 0 {
		t.nextID = 1
	}
	j := &Job{
		ID:         t.nextID,
		PGID:       pgid,
		Label:      label,
		Background: background,
		PIDs:       append([]int(nil), pids...),
	}
	t.nextID++
	t.jobs = append(t.jobs, j)
	return j
}

// Remove deletes the job with the given id, if present.
func (t *Table) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, j := range t.jobs {
		if j.ID == id {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			return
		}
	}
}

// Find looks up a job by its shell-scoped identifier.
func (t *Table) Find(id int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// FindByPID returns the job owning pid, if any.
func (t *Table) FindByPID(pid int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		for _, p := range j.PIDs {
			if p == pid {
				return j
			}
		}
	}
	return nil
}

// List returns a stable snapshot of the table, ordered by ID, for
// printing by the jobs built-in. Calling it twice with no intervening
// reap produces identical output (spec.md §8 idempotence law).
func (t *Table) List() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// alive reports whether pid still exists, using the same zero-signal
// kill(pid, 0) probe original_source/Assignment2.cpp's remove_done_jobs
// relies on.
func alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

// Sweep removes every job with no surviving member process. It is the
// second half of a reap cycle (spec.md §4.5): classification first,
// sweep second.
func (t *Table) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.jobs[:0]
	for _, j := range t.jobs {
		anyAlive := false
		for _, p := range j.PIDs {
			if alive(p) {
				anyAlive = true
				break
			}
		}
		if anyAlive {
			kept = append(kept, j)
		}
	}
	t.jobs = kept
}

// SetStopped updates the stopped flag for the job owning pid, if any.
func (t *Table) SetStopped(pid int, stopped bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		for _, p := range j.PIDs {
			if p == pid {
				j.Stopped = stopped
				return
			}
		}
	}
}

// ParseRef parses a job-identifier argument as fg/bg accept it: an
// optional leading '%' followed by decimal digits only.
func ParseRef(arg string) (int, error) {
	s := strings.TrimPrefix(arg, "%")
	if s == "" {
		return 0, fmt.Errorf("job: empty identifier")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("job: %q is not a job identifier", arg)
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("job: %q is not a job identifier", arg)
	}
	return id, nil
}
