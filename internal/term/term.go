// Package term mediates controlling-terminal ownership between the shell
// and a foreground job's process group, and saves/restores the
// terminal's line-discipline attributes around that handoff.
package term

import (
	"os"

	"golang.org/x/sys/unix"
)

// Fd is the file descriptor minish treats as the controlling terminal.
var Fd = int(os.Stdin.Fd())

// IsInteractive reports whether Fd is a terminal. In non-interactive
// mode the whole terminal-ownership dance is skipped (spec.md §6).
func IsInteractive() bool {
	_, err := unix.IoctlGetTermios(Fd, unix.TCGETS)
	return err == nil
}

// SetForeground makes pgid the terminal's foreground process group.
func SetForeground(pgid int) error {
	return unix.IoctlSetInt(Fd, unix.TIOCSPGRP, pgid)
}

// Foreground reports the terminal's current foreground process group.
func Foreground() (int, error) {
	return unix.IoctlGetInt(Fd, unix.TIOCGPGRP)
}

// Attrs is a saved snapshot of the terminal's line-discipline attributes.
type Attrs struct {
	termios *unix.Termios
}

// SaveAttrs snapshots the terminal's current attributes, once, at
// startup. Returns a zero Attrs (Restore is then a no-op) when Fd is not
// a terminal.
func SaveAttrs() (Attrs, error) {
	t, err := unix.IoctlGetTermios(Fd, unix.TCGETS)
	if err != nil {
		return Attrs{}, err
	}
	return Attrs{termios: t}, nil
}

// Restore reinstates the saved attributes. Called whenever the shell
// reclaims the terminal from a job (spec.md §3 invariant).
func (a Attrs) Restore() error {
	if a.termios == nil {
		return nil
	}
	return unix.IoctlSetTermios(Fd, unix.TCSETS, a.termios)
}

// Session represents one foreground hand-off: Enter transfers ownership
// to pgid, Leave reclaims it for the shell and restores saved attrs. It
// is used as a scoped acquisition (REDESIGN FLAGS, spec.md §9): callers
// call Leave once their foreground wait returns, whether the job
// completed or stopped (interrupted waits are retried inside the wait).
type Session struct {
	shellPGID int
	saved     Attrs
}

// NewSession records the shell's own group and the terminal attributes
// to restore on every Leave.
func NewSession(shellPGID int, saved Attrs) *Session {
	return &Session{shellPGID: shellPGID, saved: saved}
}

// Enter transfers the terminal to pgid. A no-op when not interactive.
func (s *Session) Enter(pgid int) error {
	if !IsInteractive() {
		return nil
	}
	return SetForeground(pgid)
}

// Leave reclaims the terminal for the shell's own group and restores the
// saved attributes. Safe to call multiple times and safe to call when
// Enter was never called or failed.
func (s *Session) Leave() {
	if !IsInteractive() {
		return
	}
	_ = SetForeground(s.shellPGID)
	_ = s.saved.Restore()
}
