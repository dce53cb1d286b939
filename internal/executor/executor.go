// Package executor implements the Pipeline Executor of spec.md §4.4:
// it builds inter-command pipes, spawns each command as a child, places
// every member of a Pipeline into a single process group, arranges
// terminal ownership, and either waits on a foreground Pipeline or
// registers it as a background Job.
package executor

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/arvandutta/minish/internal/job"
	"github.com/arvandutta/minish/internal/parser"
	"github.com/arvandutta/minish/internal/reaper"
	"github.com/arvandutta/minish/internal/redirect"
	"github.com/arvandutta/minish/internal/term"
)

// Engine owns everything the Executor needs across calls: the job
// table and the terminal session used to hand off and reclaim
// ownership. It is constructed once per shell and threaded explicitly
// rather than kept in package globals (REDESIGN FLAGS, spec.md §9).
type Engine struct {
	Jobs    *job.Table
	Session *term.Session
}

// New returns an Engine bound to the given job table and terminal
// session.
func New(tbl *job.Table, sess *term.Session) *Engine {
	return &Engine{Jobs: tbl, Session: sess}
}

// Execute launches pl. For a foreground Pipeline it blocks until every
// member has exited or the Pipeline has stopped, reclaiming the
// terminal on every exit path; for a background Pipeline it registers
// the Job and returns immediately after printing the announcement line.
func (e *Engine) Execute(pl *parser.Pipeline) error {
	n := len(pl.Commands)
	if n == 0 {
		return nil
	}

	pipes, err := makePipes(n - 1)
	if err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	// Covers the error returns below; the parent's own explicit close,
	// once every child has inherited the pipes, happens before this
	// fires and closeAll is idempotent against the repeat.
	defer closeAll(pipes)

	stdin, stdout, stderr, closers, err := resolveRedirections(pl.Redir)
	defer closeFiles(closers)
	if err != nil {
		fmt.Fprintln(os.Stderr, "minish:", err)
		return nil
	}

	var pgid int
	var pids []int

	for i, c := range pl.Commands {
		cmd := exec.Command(c.Args[0], c.Args[1:]...)
		cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true, Pgid: pgid}

		switch {
		case i == 0 && stdin != nil:
			cmd.Stdin = stdin
		case i > 0:
			cmd.Stdin = pipes[i-1].r
		default:
			cmd.Stdin = os.Stdin
		}

		switch {
		case i == n-1 && stdout != nil:
			cmd.Stdout = stdout
		case i < n-1:
			cmd.Stdout = pipes[i].w
		default:
			cmd.Stdout = os.Stdout
		}

		if i == n-1 && stderr != nil {
			cmd.Stderr = stderr
		} else {
			cmd.Stderr = os.Stderr
		}

		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "minish: %s: %v\n", c.Args[0], err)
			// Abandon the rest of the pipeline; already-started
			// siblings are left to be reaped normally (spec.md §7).
			break
		}

		pid := cmd.Process.Pid
		if pgid == 0 {
			pgid = pid
		}
		// Defensive duplicate: both parent and child assign the group,
		// closing the fork/setpgid ordering race (spec.md §4.4 step 2b/e).
		_ = unix.Setpgid(pid, pgid)

		pids = append(pids, pid)
	}

	// Parent no longer needs either end of any pipe once every child
	// has inherited its copy.
	closeAll(pipes)

	if len(pids) == 0 {
		return nil
	}
	pl.PGID, pl.PIDs = pgid, pids

	j := e.Jobs.Add(pgid, pl.Raw, pl.Background, pids)

	if pl.Background {
		fmt.Printf("[%d] %d\n", j.ID, pgid)
		// No dedicated waiter here: the child becomes a zombie until
		// the central reaper's non-blocking wait4(-1, ...) drain picks
		// it up at the next quiescent point (spec.md §4.5) — any
		// thread in the process may reap any child, not just the one
		// that started it.
		return nil
	}

	if err := e.Session.Enter(pgid); err != nil {
		fmt.Fprintln(os.Stderr, "minish:", err)
	}
	stopped := reaper.WaitForeground(pids)
	e.Session.Leave()

	if stopped {
		// WaitForeground already consumed the stop transition via its own
		// Wait4(pid, WUNTRACED), so the central reaper's Drain cannot
		// observe it again: mark the job stopped here, the same way fg
		// does after its own WaitForeground call.
		j.Stopped = true
		return nil
	}
	e.Jobs.Remove(j.ID)
	return nil
}

type pipePair struct{ r, w *os.File }

func makePipes(n int) ([]pipePair, error) {
	pipes := make([]pipePair, 0, n)
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return pipes, err
		}
		pipes = append(pipes, pipePair{r: r, w: w})
	}
	return pipes, nil
}

// closeAll closes every pipe end still open and clears it, so a second
// call (the parent explicitly closes its ends before the foreground
// wait, after which the deferred call from Execute's error paths fires
// too) is a no-op rather than a silent EBADF.
func closeAll(pipes []pipePair) {
	for i := range pipes {
		if pipes[i].r != nil {
			pipes[i].r.Close()
			pipes[i].r = nil
		}
		if pipes[i].w != nil {
			pipes[i].w.Close()
			pipes[i].w = nil
		}
	}
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}

// resolveRedirections opens the pipeline-wide redirection targets
// before any child is spawned (spec.md §4.3): Go's os/exec has no
// post-fork/pre-exec hook, so the open necessarily happens in the
// parent rather than inside each child, but it still happens strictly
// before any program image replacement. A failure here aborts the
// whole pipeline with a diagnostic rather than partially launching it.
func resolveRedirections(r parser.Redirection) (stdin, stdout, stderr *os.File, closers []*os.File, err error) {
	if r.Stdin != "" {
		f, e := redirect.OpenStdin(r.Stdin)
		if e != nil {
			return nil, nil, nil, closers, fmt.Errorf("%s: %w", r.Stdin, e)
		}
		stdin = f
		closers = append(closers, f)
	}
	if r.Stdout != "" {
		f, e := redirect.OpenOut(r.Stdout, r.AppendOut)
		if e != nil {
			return nil, nil, nil, closers, fmt.Errorf("%s: %w", r.Stdout, e)
		}
		stdout = f
		closers = append(closers, f)
	}
	if r.Stderr != "" {
		f, e := redirect.OpenOut(r.Stderr, r.AppendErr)
		if e != nil {
			return nil, nil, nil, closers, fmt.Errorf("%s: %w", r.Stderr, e)
		}
		stderr = f
		closers = append(closers, f)
	}
	return stdin, stdout, stderr, closers, nil
}
