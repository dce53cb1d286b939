package job

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAssignsMonotonicIDs(t *testing.T) {
	tbl := NewTable()
	j1 := tbl.Add(100, "sleep 10 &", true, []int{100})
	j2 := tbl.Add(200, "sleep 20 &", true, []int{200})
	require.Equal(t, 1, j1.ID)
	require.Equal(t, 2, j2.ID)
}

func TestFindAndRemove(t *testing.T) {
	tbl := NewTable()
	j := tbl.Add(100, "sleep 10 &", true, []int{100})
	require.Same(t, j, tbl.Find(j.ID))
	tbl.Remove(j.ID)
	require.Nil(t, tbl.Find(j.ID))
}

func TestSweepRemovesDeadJobs(t *testing.T) {
	tbl := NewTable()
	// Our own pid is alive, so the job should survive a sweep...
	self := os.Getpid()
	alive := tbl.Add(self, "self", true, []int{self})
	// ...while a pid no process owns (very unlikely to exist) should not.
	dead := tbl.Add(999999, "ghost", true, []int{999999})

	tbl.Sweep()

	require.NotNil(t, tbl.Find(alive.ID))
	require.Nil(t, tbl.Find(dead.ID))
}

func TestListIsSnapshotAndIdempotent(t *testing.T) {
	tbl := NewTable()
	tbl.Add(100, "a", true, []int{100})
	first := tbl.List()
	second := tbl.List()
	require.Equal(t, first, second)
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"%1", 1, false},
		{"%42", 42, false},
		{"", 0, true},
		{"abc", 0, true},
		{"%", 0, true},
		{"1x", 0, true},
	}
	for _, c := range cases {
		got, err := ParseRef(c.in)
		if c.wantErr {
			require.Error(t, err, "input %q", c.in)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		require.Equal(t, c.want, got)
	}
}
