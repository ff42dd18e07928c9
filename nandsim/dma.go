package nandsim

import (
	"fmt"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/internal/reg"
)

const pageAlign = 4096

// Buffer is simulated DMA memory at a fake physical address.
type Buffer struct {
	b    []byte
	phys uint64
}

func (b *Buffer) Bytes() []byte    { return b.b }
func (b *Buffer) PhysAddr() uint64 { return b.phys }

// Alloc implements nandps.Allocator.
func (s *Controller) Alloc(size int) (nandps.DMABuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("nandsim: invalid DMA size %d", size)
	}
	b := &Buffer{b: make([]byte, size), phys: s.nextPhys}
	s.nextPhys += uint64((size + pageAlign - 1) / pageAlign * pageAlign)
	s.dma = append(s.dma, b)
	return b, nil
}

// dmaMem returns n bytes of DMA memory at the programmed system address.
func (s *Controller) dmaMem(n uint32) []byte {
	addr := uint64(s.regs[reg.DMASysAddr1/4])<<32 | uint64(s.regs[reg.DMASysAddr0/4])
	for _, b := range s.dma {
		if addr >= b.phys && addr+uint64(n) <= b.phys+uint64(len(b.b)) {
			off := addr - b.phys
			return b.b[off : off+uint64(n)]
		}
	}
	panic(fmt.Sprintf("nandsim: DMA of %d bytes at unmapped address 0x%X", n, addr))
}
