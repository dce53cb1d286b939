// Package redirect resolves the file targets named by a Pipeline's
// Redirection before the commands they feed lose the ability to report
// errors cleanly (spec.md §4.3).
package redirect

import "os"

const perm = 0644

// OpenStdin opens path read-only as the pipeline's stdin source.
func OpenStdin(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDONLY, 0)
}

// OpenOut opens path write-only, creating it if absent, truncating
// unless append is set.
func OpenOut(path string, appendMode bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, perm)
}
