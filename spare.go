package nandps

import (
	"fmt"

	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/onfi"
)

// spareRange is a byte range of the spare area, relative to its start.
type spareRange struct {
	col, n uint32
}

// spareLayout returns the spare bytes that may be written directly. With
// hardware ECC the ECC field is left out, leaving a range before it and a
// range after it, both rounded down to whole words.
func (c *Controller) spareLayout() (pre, post spareRange) {
	spare := c.geo.SpareBytesPerPage
	if c.ecc != ECCHardware {
		return spareRange{0, spare}, spareRange{}
	}
	preN := c.eccCfg.Addr - c.geo.BytesPerPage
	postCol := preN + c.eccCfg.Size
	postN := spare - postCol
	return spareRange{0, preN / 4 * 4}, spareRange{postCol, postN / 4 * 4}
}

func (c *Controller) checkSpareArgs(page uint32, buf []byte) error {
	if page >= c.geo.NumPages {
		return fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, c.geo.NumPages)
	}
	if uint32(len(buf)) < c.geo.SpareBytesPerPage {
		return fmt.Errorf("%w: buffer of %d bytes for %d spare bytes", ErrOutOfRange, len(buf), c.geo.SpareBytesPerPage)
	}
	return nil
}

// WriteSpareBytes programs the spare area of a device page from buf, which
// must hold at least SpareBytesPerPage bytes. With hardware ECC the bytes
// at the ECC field are not written.
func (c *Controller) WriteSpareBytes(page uint32, buf []byte) error {
	if err := c.begin("write spare", "page", page); err != nil {
		return err
	}
	if err := c.checkSpareArgs(page, buf); err != nil {
		return err
	}
	target := int(page / c.geo.NumTargetPages)
	row := page % c.geo.NumTargetPages

	first, second := c.spareLayout()
	if first.n == 0 {
		first, second = second, spareRange{}
	}
	if first.n == 0 {
		return ErrNoSpareRoom
	}
	split := second.n > 0

	t := &txn{
		target:     target,
		cmd1:       onfi.CmdPageProgram1,
		cmd2:       onfi.CmdPageProgram2,
		dma:        true,
		addrCycles: c.geo.RowAddrCycles + c.geo.ColAddrCycles,
		pageSize:   true,
		addr:       true,
		page:       row,
		col:        uint16(c.geo.BytesPerPage + first.col),
		busWidth:   true,
		bufBound:   true,
		dir:        dirOut,
		size:       first.n,
		count:      1,
		buf:        buf[first.col : first.col+first.n],
		prog:       reg.ProgPageProgram,
	}
	if split {
		// data input stays open for the change write column
		t.cmd2 = onfi.CmdInvalid
		t.prog |= reg.ProgChangeRowAddr
	}

	err := c.writable(func() error {
		if err := c.do(t); err != nil {
			return err
		}
		if split {
			err := c.changeWriteColumn(target, c.geo.BytesPerPage+second.col, second.n, 1,
				buf[second.col:second.col+second.n])
			if err != nil {
				return err
			}
		}
		return c.waitReady(target, ErrProgramFailed)
	})
	if err != nil {
		return fmt.Errorf("write spare page %d: %w", page, err)
	}
	return nil
}

// ReadSpareBytes reads the whole spare area of a device page into buf.
func (c *Controller) ReadSpareBytes(page uint32, buf []byte) error {
	if err := c.begin("read spare", "page", page); err != nil {
		return err
	}
	if err := c.checkSpareArgs(page, buf); err != nil {
		return err
	}
	return c.readSpare(int(page/c.geo.NumTargetPages), page%c.geo.NumTargetPages, buf)
}

func (c *Controller) readSpare(target int, page uint32, buf []byte) error {
	err := c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdRead1,
		cmd2:       onfi.CmdRead2,
		dma:        true,
		addrCycles: c.geo.RowAddrCycles + c.geo.ColAddrCycles,
		pageSize:   true,
		addr:       true,
		page:       page,
		col:        uint16(c.geo.BytesPerPage),
		busWidth:   true,
		dir:        dirIn,
		size:       c.geo.SpareBytesPerPage,
		count:      1,
		buf:        buf[:c.geo.SpareBytesPerPage],
		prog:       reg.ProgRead,
	})
	if err != nil {
		return fmt.Errorf("read spare target %d page %d: %w", target, page, err)
	}
	return nil
}
