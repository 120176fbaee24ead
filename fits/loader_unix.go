//go:build linux || darwin

package fits

import (
	"fmt"
	"os"
	"syscall"
)

// loadFile mmaps the file read-only. The returned cleanup unmaps and closes;
// nothing survives past it, so callers must finish decoding first.
func loadFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	sz := st.Size()
	if sz == 0 {
		_ = f.Close()
		return nil, nil, fmt.Errorf("fits: empty file: %s", path)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(sz), syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("fits: mmap failed: %w", err)
	}

	done := func() {
		_ = syscall.Munmap(data)
		_ = f.Close()
	}
	return data, done, nil
}
