package mmio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/gentam/nandps/internal/reg"
)

// OpenUIO maps the first memory region of a UIO device such as /dev/uio0.
func OpenUIO(path string) (*Window, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := unix.Mmap(int(f.Fd()), 0, reg.WindowSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	w := NewWindow(b)
	w.close = func() error { return unix.Munmap(b) }
	return w, nil
}
