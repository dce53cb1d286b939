// Package builtins implements the shell's in-process commands: cd,
// pwd, exit/quit, jobs, fg, and bg (spec.md §4.6). jobs, fg and bg take
// the shell's *job.Table, and fg also its terminal Session — no
// package-level state.
package builtins

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/arvandutta/minish/internal/job"
	"github.com/arvandutta/minish/internal/reaper"
	"github.com/arvandutta/minish/internal/term"
)

// continueGroup sends SIGCONT to every process in pgid, resuming it if
// stopped. A no-op if the group is already running.
func continueGroup(pgid int) error {
	return unix.Kill(-pgid, unix.SIGCONT)
}

var (
	stoppedColor = color.New(color.FgYellow)
	runningColor = color.New(color.FgGreen)
)

// Names lists the built-in commands, used to gate the in-process fast
// path: a Pipeline is only ever dispatched here when it is a single
// command with no redirection and no pipe (spec.md §4.6).
var Names = map[string]bool{
	"cd": true, "pwd": true, "exit": true, "quit": true,
	"jobs": true, "fg": true, "bg": true,
}

// Handle runs args[0] as a built-in and returns its exit status. Callers
// must already have verified args[0] is in Names. sig may be nil, in
// which case jobs always performs a full drain.
func Handle(args []string, tbl *job.Table, sess *term.Session, sig *reaper.ChildSignal) int {
	switch args[0] {
	case "cd":
		return cd(args)
	case "pwd":
		return pwd()
	case "exit", "quit":
		fmt.Println("bye")
		os.Exit(0)
	case "jobs":
		return jobsCmd(tbl, sig)
	case "fg":
		return fg(args, tbl, sess)
	case "bg":
		return bg(args, tbl)
	}
	return 1
}

func cd(args []string) int {
	dir := ""
	if len(args) > 1 {
		dir = args[1]
	} else if home := os.Getenv("HOME"); home != "" {
		dir = home
	} else {
		dir = "/"
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintln(os.Stderr, "cd:", err)
		return 1
	}
	return 0
}

func pwd() int {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pwd:", err)
		return 1
	}
	fmt.Println(dir)
	return 0
}

func jobsCmd(tbl *job.Table, sig *reaper.ChildSignal) int {
	reaper.Drain(tbl, sig)
	for _, j := range tbl.List() {
		c := runningColor
		if j.Stopped {
			c = stoppedColor
		}
		fmt.Printf("[%d] %d %s \t%s\n", j.ID, j.PGID, c.Sprint(j.State()), j.Label)
	}
	return 0
}

func fg(args []string, tbl *job.Table, sess *term.Session) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "fg: usage: fg %job")
		return 1
	}
	id, err := job.ParseRef(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "fg:", err)
		return 1
	}
	j := tbl.Find(id)
	if j == nil {
		fmt.Fprintf(os.Stderr, "fg: %s: no such job\n", args[1])
		return 1
	}

	j.Background = false
	if err := sess.Enter(j.PGID); err != nil {
		fmt.Fprintln(os.Stderr, "fg:", err)
	}
	if err := continueGroup(j.PGID); err != nil {
		fmt.Fprintln(os.Stderr, "fg:", err)
	}

	stopped := reaper.WaitForeground(j.PIDs)
	sess.Leave()

	j.Stopped = stopped
	if !stopped {
		tbl.Remove(j.ID)
	}
	return 0
}

func bg(args []string, tbl *job.Table) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "bg: usage: bg %job")
		return 1
	}
	id, err := job.ParseRef(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "bg:", err)
		return 1
	}
	j := tbl.Find(id)
	if j == nil {
		fmt.Fprintf(os.Stderr, "bg: %s: no such job\n", args[1])
		return 1
	}

	j.Stopped = false
	j.Background = true
	if err := continueGroup(j.PGID); err != nil {
		fmt.Fprintln(os.Stderr, "bg:", err)
		return 1
	}
	fmt.Printf("[%d] %d\n", j.ID, j.PGID)
	return 0
}
