//go:build !linux && !freebsd

package fits

import "os"

func flushFile(f *os.File) error {
	return f.Sync()
}
