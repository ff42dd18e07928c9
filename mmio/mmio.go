// Package mmio gives the controller driver access to real hardware: the
// register window through /dev/mem or a UIO device, and physically
// contiguous memory for DMA.
package mmio

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/host/v3"
	"periph.io/x/host/v3/pmem"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/internal/reg"
)

var _ nandps.Bus = (*Window)(nil)

// Window is a mapped register window. Every access is a single 32-bit load
// or store.
type Window struct {
	regs  []uint32
	close func() error
}

// NewWindow returns a window over b, which must be 4-byte aligned.
func NewWindow(b []byte) *Window {
	s := pmem.Slice(b)
	return &Window{regs: s.Uint32()}
}

func (w *Window) Read32(off uint32) uint32 {
	return atomic.LoadUint32(&w.regs[off/4])
}

func (w *Window) Write32(off uint32, v uint32) {
	atomic.StoreUint32(&w.regs[off/4], v)
}

// Close unmaps the window.
func (w *Window) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

var hostInitialized atomic.Bool

func initHost() error {
	if hostInitialized.CompareAndSwap(false, true) {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("host initialization failed: %w", err)
		}
	}
	return nil
}

// Map maps the register window at physical address base through /dev/mem.
func Map(base uint64) (*Window, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	v, err := pmem.Map(base, reg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("map 0x%X: %w", base, err)
	}
	return &Window{regs: v.Uint32(), close: v.Close}, nil
}

// Allocator hands out uncached, physically contiguous DMA buffers.
type Allocator struct {
	bufs []*pmem.MemAlloc
}

var _ nandps.Allocator = (*Allocator)(nil)

// Alloc allocates at least size bytes, rounded up to whole 4 KiB pages.
func (a *Allocator) Alloc(size int) (nandps.DMABuffer, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	const page = 4096
	m, err := pmem.Alloc((size + page - 1) &^ (page - 1))
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, err)
	}
	a.bufs = append(a.bufs, m)
	return m, nil
}

// Close frees every buffer handed out.
func (a *Allocator) Close() error {
	var first error
	for _, m := range a.bufs {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.bufs = nil
	return first
}
