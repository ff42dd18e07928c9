package nandps

import "periph.io/x/conn/v3/physic"

// Bus is the controller register window.
type Bus interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// DMABuffer is memory the controller can reach by physical address.
type DMABuffer interface {
	Bytes() []byte
	PhysAddr() uint64
}

// Allocator hands out DMA buffers.
type Allocator interface {
	Alloc(size int) (DMABuffer, error)
}

// Cache maintains data cache coherency around DMA transfers.
type Cache interface {
	FlushRange(b []byte)
	InvalidateRange(b []byte)
}

// Clock sets the controller reference clock for a timing mode.
type Clock interface {
	SetFrequency(f physic.Frequency) error
}

// coherent is the Cache used when none is configured: memory from
// Allocator is expected to be uncached.
type coherent struct{}

func (coherent) FlushRange([]byte)      {}
func (coherent) InvalidateRange([]byte) {}
