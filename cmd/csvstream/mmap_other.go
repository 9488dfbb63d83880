//go:build !unix

package main

import (
	"errors"
	"os"
)

// mapFile is not supported here; callers stream the file instead.
func mapFile(*os.File) ([]byte, func() error, error) {
	return nil, nil, errors.New("mmap not supported on this platform")
}
