//go:build linux || freebsd

package fits

import (
	"os"

	"golang.org/x/sys/unix"
)

// flushFile pushes written data to stable storage. fdatasync is enough on
// Linux/FreeBSD; the file is renamed into place afterwards.
func flushFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
