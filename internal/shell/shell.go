// Package shell owns the single State value threaded through the
// executor and built-ins (spec.md §3, §9 REDESIGN FLAGS) and runs the
// prompt/read/dispatch loop described in spec.md §6.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/arvandutta/minish/internal/builtins"
	"github.com/arvandutta/minish/internal/executor"
	"github.com/arvandutta/minish/internal/job"
	"github.com/arvandutta/minish/internal/parser"
	"github.com/arvandutta/minish/internal/reaper"
	"github.com/arvandutta/minish/internal/term"
)

// State is the shell's process-wide state, constructed once at startup
// and never stored in a package-level variable.
type State struct {
	PGID    int
	Jobs    *job.Table
	Session *term.Session
	Signal  *reaper.ChildSignal
	Engine  *executor.Engine
	reader  *bufio.Reader
}

// New sets up the shell process: it joins its own process group,
// installs the SIGCHLD watcher, and, if interactive, saves the
// terminal's attributes, becomes its foreground group, and ignores the
// terminal-generating and terminal-I/O signals so they reach only a
// foreground job's group (spec.md §4.5).
func New() (*State, error) {
	pgid := os.Getpid()
	_ = unix.Setpgid(0, 0)

	var attrs term.Attrs
	interactive := term.IsInteractive()
	if interactive {
		var err error
		attrs, err = term.SaveAttrs()
		if err != nil {
			return nil, fmt.Errorf("shell: save terminal attrs: %w", err)
		}
		if err := term.SetForeground(pgid); err != nil {
			return nil, fmt.Errorf("shell: claim terminal: %w", err)
		}
		ignoreJobControlSignals()
	}

	tbl := job.NewTable()
	sess := term.NewSession(pgid, attrs)

	var sig reaper.ChildSignal
	sig.Watch()

	return &State{
		PGID:    pgid,
		Jobs:    tbl,
		Session: sess,
		Signal:  &sig,
		Engine:  executor.New(tbl, sess),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Prompt renders "mini:<cwd>$ ", recomputed fresh every iteration since
// the working directory can change under cd (spec.md §6).
func (s *State) Prompt() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}
	return fmt.Sprintf("mini:%s$ ", cwd)
}

// Run is the interactive loop: reap at the top of every iteration,
// print the prompt, read a line, route it to a built-in or the
// executor, repeat. It returns when stdin hits end-of-input.
func (s *State) Run() {
	for {
		reaper.Drain(s.Jobs, s.Signal)

		fmt.Print(s.Prompt())

		line, err := s.reader.ReadString('\n')
		if err == io.EOF {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "minish:", err)
			return
		}

		if err := s.dispatch(line); err != nil {
			fmt.Fprintln(os.Stderr, "minish:", err)
		}
	}
}

// dispatch parses one line and routes it to the in-process built-in
// fast path or to the Pipeline Executor.
func (s *State) dispatch(line string) error {
	pl, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, "minish:", err)
		return nil
	}
	if pl == nil {
		return nil
	}

	if isInProcessBuiltin(pl) {
		builtins.Handle(pl.Commands[0].Args, s.Jobs, s.Session, s.Signal)
		return nil
	}

	return s.Engine.Execute(pl)
}

// isInProcessBuiltin reports whether pl qualifies for the in-process
// fast path of spec.md §4.6: a single command, no redirections, that
// names a built-in. A built-in named anywhere else in a pipeline (e.g.
// "pwd | cat") is intentionally executed as an external program.
func isInProcessBuiltin(pl *parser.Pipeline) bool {
	if len(pl.Commands) != 1 {
		return false
	}
	if pl.Redir != (parser.Redirection{}) {
		return false
	}
	return builtins.Names[pl.Commands[0].Args[0]]
}

func ignoreJobControlSignals() {
	signal.Ignore(
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTSTP,
		syscall.SIGTTIN,
		syscall.SIGTTOU,
	)
}
