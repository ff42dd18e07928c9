//go:build !linux

package mmio

import "errors"

// OpenUIO is only supported on Linux.
func OpenUIO(path string) (*Window, error) {
	return nil, errors.New("uio: not supported on this platform")
}
