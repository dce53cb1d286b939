package executor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/arvandutta/minish/internal/job"
	"github.com/arvandutta/minish/internal/parser"
	"github.com/arvandutta/minish/internal/term"
)

func newTestEngine() *Engine {
	sess := term.NewSession(os.Getpid(), term.Attrs{})
	return New(job.NewTable(), sess)
}

func TestExecuteSimplePipelineNoJobLeftBehind(t *testing.T) {
	e := newTestEngine()
	pl, err := parser.Parse("echo hello")
	require.NoError(t, err)
	require.NoError(t, e.Execute(pl))
	require.Empty(t, e.Jobs.List())
}

func TestExecutePipelineWithRedirection(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("a\nb\nc\n"), 0644))

	e := newTestEngine()
	pl, err := parser.Parse("cat < " + in + " | wc -l > " + out)
	require.NoError(t, err)
	require.NoError(t, e.Execute(pl))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(got), "3")
	require.Empty(t, e.Jobs.List())
}

func TestExecuteBackgroundRegistersJobAndReturnsImmediately(t *testing.T) {
	e := newTestEngine()
	pl, err := parser.Parse("sleep 0.2 &")
	require.NoError(t, err)
	require.NoError(t, e.Execute(pl))

	jobs := e.Jobs.List()
	require.Len(t, jobs, 1)
	require.True(t, jobs[0].Background)
	require.Equal(t, jobs[0].PGID, pl.PGID)
}

func TestPipelinePGIDIsFirstMemberPID(t *testing.T) {
	e := newTestEngine()
	pl, err := parser.Parse("echo a | cat | wc -l")
	require.NoError(t, err)
	require.NoError(t, e.Execute(pl))
	require.NotZero(t, pl.PGID)
	require.Equal(t, pl.PGID, pl.PIDs[0])
}

func TestForegroundStopMarksJobStopped(t *testing.T) {
	e := newTestEngine()
	pl, err := parser.Parse("sleep 5")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Execute(pl) }()

	require.Eventually(t, func() bool { return pl.PGID != 0 }, time.Second, time.Millisecond)
	require.NoError(t, unix.Kill(-pl.PGID, unix.SIGSTOP))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Execute did not return once its child group stopped")
	}

	jobs := e.Jobs.List()
	require.Len(t, jobs, 1)
	require.True(t, jobs[0].Stopped)

	_ = unix.Kill(-pl.PGID, unix.SIGCONT)
	_ = unix.Kill(-pl.PGID, unix.SIGKILL)
}

func TestNonexistentProgramDoesNotPanic(t *testing.T) {
	e := newTestEngine()
	pl, err := parser.Parse("this-command-does-not-exist-anywhere")
	require.NoError(t, err)
	require.NotPanics(t, func() { _ = e.Execute(pl) })
}
