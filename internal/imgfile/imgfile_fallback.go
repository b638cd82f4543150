//go:build !unix

// Package imgfile provides platform-specific helpers for reading and
// writing arena image files.
package imgfile

import "os"

// Map reads the entire image when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}
