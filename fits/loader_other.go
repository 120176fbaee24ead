//go:build !linux && !darwin

package fits

import (
	"fmt"
	"os"
)

// loadFile reads the whole file into memory on platforms without mmap.
func loadFile(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("fits: empty file: %s", path)
	}
	return data, func() {}, nil
}
