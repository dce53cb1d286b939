package builtins

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvandutta/minish/internal/job"
)

func TestCdChangesDirectory(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)

	status := Handle([]string{"cd", dir}, nil, nil, nil)
	require.Equal(t, 0, status)

	got, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, dir, got)
}

func TestCdHomeFallback(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)

	home := t.TempDir()
	t.Setenv("HOME", home)

	status := Handle([]string{"cd"}, nil, nil, nil)
	require.Equal(t, 0, status)
}

func TestCdNonexistentDirFails(t *testing.T) {
	status := Handle([]string{"cd", "/no/such/directory/minish"}, nil, nil, nil)
	require.Equal(t, 1, status)
}

func TestFgUnknownJobFails(t *testing.T) {
	tbl := job.NewTable()
	status := Handle([]string{"fg", "99"}, tbl, nil, nil)
	require.Equal(t, 1, status)
}

func TestBgUnknownJobFails(t *testing.T) {
	tbl := job.NewTable()
	status := Handle([]string{"bg", "99"}, tbl, nil, nil)
	require.Equal(t, 1, status)
}

func TestFgNonNumericIDFails(t *testing.T) {
	tbl := job.NewTable()
	status := Handle([]string{"fg", "abc"}, tbl, nil, nil)
	require.Equal(t, 1, status)
}

func TestNamesListsAllBuiltins(t *testing.T) {
	for _, name := range []string{"cd", "pwd", "exit", "quit", "jobs", "fg", "bg"} {
		require.True(t, Names[name], name)
	}
	require.False(t, Names["echo"])
}
