// Package reaper classifies child-status transitions and drains them at
// well-defined quiescent points, per spec.md §4.5. A minimal async
// signal handler — a goroutine fed by signal.Notify that does nothing
// but flip an atomic flag — marks when a drain has pending work; all
// job-table mutation itself happens on the main execution context.
package reaper

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/arvandutta/minish/internal/job"
)

// Kind tags the four possible outcomes of a wait: the heterogeneous
// wait-outcome variant named in spec.md §9's REDESIGN FLAGS.
type Kind int

const (
	Exited Kind = iota
	Signalled
	Stopped
	Continued
)

// Outcome is one classified child-status transition.
type Outcome struct {
	PID  int
	Kind Kind
	Code int // exit status, or signal number for Signalled/Stopped
}

func classify(pid int, ws unix.WaitStatus) Outcome {
	switch {
	case ws.Exited():
		return Outcome{PID: pid, Kind: Exited, Code: ws.ExitStatus()}
	case ws.Signaled():
		return Outcome{PID: pid, Kind: Signalled, Code: int(ws.Signal())}
	case ws.Stopped():
		return Outcome{PID: pid, Kind: Stopped, Code: int(ws.StopSignal())}
	case ws.Continued():
		return Outcome{PID: pid, Kind: Continued}
	default:
		return Outcome{PID: pid, Kind: Exited}
	}
}

// ChildSignal is the process-wide sticky flag the SIGCHLD watcher sets
// and a drain clears. It is the one piece of ambient state the REDESIGN
// note allows to remain ambient, since the kernel invokes Go's signal
// delivery with no parameters to thread a *shell.State through.
type ChildSignal struct {
	flag atomic.Bool
}

// Watch installs the SIGCHLD watcher goroutine. The goroutine body is
// intentionally trivial — store true — mirroring the constraint that a
// real signal handler must not touch the job table directly.
func (c *ChildSignal) Watch() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGCHLD)
	go func() {
		for range ch {
			c.flag.Store(true)
		}
	}()
}

// Pending reports and clears the sticky flag.
func (c *ChildSignal) Pending() bool {
	return c.flag.Swap(false)
}

// Drain consumes every pending child-status transition in non-blocking
// mode, updates tbl's stopped flags accordingly, and sweeps dead jobs.
// Called at well-defined quiescent points (top of the interactive
// loop, before jobs prints). When sig is non-nil, Drain is a fast no-op
// unless the SIGCHLD watcher has something pending — mirroring
// original_source/Assignment2.cpp's reap_children, which returns
// immediately when its sticky flag is clear.
func Drain(tbl *job.Table, sig *ChildSignal) {
	if sig != nil && !sig.Pending() {
		return
	}
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if pid <= 0 || err != nil {
			break
		}
		switch classify(pid, ws).Kind {
		case Stopped:
			tbl.SetStopped(pid, true)
		case Continued:
			tbl.SetStopped(pid, false)
		}
	}
	tbl.Sweep()
}

// WaitForeground waits on each pid in order, exactly as
// original_source/Assignment2.cpp's foreground wait loop does: an
// interrupted wait is retried, a stop transition breaks only the
// per-pid retry loop (not the whole scan — later pids are still
// waited on), and the overall return reports whether any member
// stopped.
func WaitForeground(pids []int) (stoppedAny bool) {
	for _, pid := range pids {
		for {
			var ws unix.WaitStatus
			_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				break
			}
			if classify(pid, ws).Kind == Stopped {
				stoppedAny = true
			}
			break
		}
	}
	return stoppedAny
}
