package nandps

import (
	"fmt"
	"io"

	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/onfi"
)

var (
	_ io.ReaderAt = (*Controller)(nil)
	_ io.WriterAt = (*Controller)(nil)
)

func (c *Controller) checkRange(off, length uint64) error {
	if length == 0 || off+length >= c.geo.DeviceSize {
		return fmt.Errorf("%w: offset 0x%X length 0x%X device 0x%X", ErrOutOfRange, off, length, c.geo.DeviceSize)
	}
	return c.calculateLength(off, length)
}

// calculateLength checks that length good bytes fit between off and the end
// of the device once bad blocks are skipped. It walks the offsets the same
// way Read, Write and Erase do: a bad block moves off by a whole block and
// keeps the offset within the block.
func (c *Controller) calculateLength(off, length uint64) error {
	bs := uint64(c.geo.BlockSize)
	var n uint64
	for n < length {
		if off >= c.geo.DeviceSize {
			return fmt.Errorf("%w: 0x%X good bytes short after skipping bad blocks", ErrOutOfRange, length-n)
		}
		if c.cfg.BadBlocks.IsBlockBad(uint32(off / bs)) {
			off += bs
			continue
		}
		blockLen := bs - off%bs
		n += blockLen
		off += blockLen
	}
	return nil
}

// pageAddr splits a device offset into target, per-target page and column.
func (c *Controller) pageAddr(off uint64) (target int, page, col uint32, err error) {
	if off >= c.geo.DeviceSize {
		return 0, 0, 0, fmt.Errorf("%w: offset 0x%X past the device", ErrOutOfRange, off)
	}
	bpp := uint64(c.geo.BytesPerPage)
	target = int(off / c.geo.TargetSize)
	page = uint32(off/bpp) % c.geo.NumTargetPages
	col = uint32(off % bpp)
	return target, page, col, nil
}

// chunk returns how many bytes of the request starting at column col fall
// into one page, and whether they cover less than a full page.
func (c *Controller) chunk(col uint32, remaining uint64) (n uint32, partial bool) {
	bpp := c.geo.BytesPerPage
	if col > 0 || remaining < uint64(bpp) {
		return uint32(min(uint64(bpp-col), remaining)), true
	}
	return bpp, false
}

// Write programs buf at device offset off, skipping bad blocks. Pages must
// be erased beforehand; bytes of a partially written page outside buf are
// left unchanged.
func (c *Controller) Write(off uint64, buf []byte) error {
	if err := c.begin("write", "off", off, "len", len(buf)); err != nil {
		return err
	}
	if err := c.checkRange(off, uint64(len(buf))); err != nil {
		return err
	}
	return c.writable(func() error {
		bs := uint64(c.geo.BlockSize)
		for len(buf) > 0 {
			if c.cfg.BadBlocks.IsBlockBad(uint32(off / bs)) {
				c.op.Debug("skip bad block", "block", off/bs)
				off += bs
				continue
			}
			target, page, col, err := c.pageAddr(off)
			if err != nil {
				return err
			}
			n, partial := c.chunk(col, uint64(len(buf)))
			src := buf[:n]
			if partial {
				src = c.scratch
				for i := range src {
					src[i] = 0xFF
				}
				copy(src[col:], buf[:n])
			}
			if err := c.programPage(target, page, src); err != nil {
				return fmt.Errorf("program page %d target %d: %w", page, target, err)
			}
			if err := c.waitReady(target, ErrProgramFailed); err != nil {
				return fmt.Errorf("program page %d target %d: %w", page, target, err)
			}
			buf = buf[n:]
			off += uint64(n)
		}
		return nil
	})
}

// Read fills buf from device offset off, skipping bad blocks.
func (c *Controller) Read(off uint64, buf []byte) error {
	if err := c.begin("read", "off", off, "len", len(buf)); err != nil {
		return err
	}
	if err := c.checkRange(off, uint64(len(buf))); err != nil {
		return err
	}
	bs := uint64(c.geo.BlockSize)
	for len(buf) > 0 {
		if c.cfg.BadBlocks.IsBlockBad(uint32(off / bs)) {
			c.op.Debug("skip bad block", "block", off/bs)
			off += bs
			continue
		}
		target, page, col, err := c.pageAddr(off)
		if err != nil {
			return err
		}
		n, partial := c.chunk(col, uint64(len(buf)))
		dst := buf[:n]
		if partial {
			dst = c.scratch
		}
		if err := c.readPage(target, page, dst); err != nil {
			return fmt.Errorf("read page %d target %d: %w", page, target, err)
		}
		if partial {
			copy(buf, c.scratch[col:col+n])
		}
		buf = buf[n:]
		off += uint64(n)
	}
	return nil
}

// Erase erases every good block touched by [off, off+length).
func (c *Controller) Erase(off, length uint64) error {
	if err := c.begin("erase", "off", off, "len", length); err != nil {
		return err
	}
	if err := c.checkRange(off, length); err != nil {
		return err
	}

	bs := uint64(c.geo.BlockSize)
	start := uint32(off / bs)
	var blocks uint32
	for length > 0 {
		blocks++
		if c.cfg.BadBlocks.IsBlockBad(uint32(off / bs)) {
			off += bs
			continue
		}
		n := min(bs-off%bs, length)
		off += n
		length -= n
	}

	return c.writable(func() error {
		for block := start; block < start+blocks; block++ {
			if c.cfg.BadBlocks.IsBlockBad(block) {
				c.op.Debug("skip bad block", "block", block)
				continue
			}
			target := int(block / c.geo.NumTargetBlocks)
			if target >= int(c.geo.NumTargets) {
				return fmt.Errorf("%w: block %d past the device", ErrOutOfRange, block)
			}
			if err := c.eraseBlock(target, block%c.geo.NumTargetBlocks); err != nil {
				return err
			}
		}
		return nil
	})
}

// EraseBlock erases block of target, a block index local to the target.
func (c *Controller) EraseBlock(target int, block uint32) error {
	if err := c.begin("erase block", "target", target, "block", block); err != nil {
		return err
	}
	if target < 0 || target >= int(c.geo.NumTargets) || block >= c.geo.NumTargetBlocks {
		return fmt.Errorf("%w: target %d block %d", ErrOutOfRange, target, block)
	}
	return c.writable(func() error { return c.eraseBlock(target, block) })
}

func (c *Controller) eraseBlock(target int, block uint32) error {
	page := block * c.geo.PagesPerBlock
	c.op.Debug("erase block", "target", target, "block", block)
	err := c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdBlockErase1,
		cmd2:       onfi.CmdBlockErase2,
		addrCycles: c.geo.RowAddrCycles,
		addr:       true,
		page:       page >> 16,
		col:        uint16(page),
		prog:       reg.ProgBlockErase,
	})
	if err == nil {
		err = c.waitReady(target, ErrEraseFailed)
	}
	if err != nil {
		return fmt.Errorf("erase block %d target %d: %w", block, target, err)
	}
	return nil
}

// ReadAt implements io.ReaderAt over the good blocks starting at off.
func (c *Controller) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset", ErrOutOfRange)
	}
	if err := c.Read(uint64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteAt implements io.WriterAt.
func (c *Controller) WriteAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset", ErrOutOfRange)
	}
	if err := c.Write(uint64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}
