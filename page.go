package nandps

import (
	"errors"

	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/onfi"
)

// packet returns the packet geometry of a main area transfer.
func (c *Controller) packet() (size, count uint32) {
	size = 512
	if c.eccCfg.CodewordExp > 9 {
		size = 1024
	}
	return size, c.geo.BytesPerPage / size
}

// programPage programs the main area of page on target from buf. It does
// not wait for the array operation to finish.
func (c *Controller) programPage(target int, page uint32, buf []byte) error {
	size, count := c.packet()
	t := &txn{
		target:     target,
		cmd1:       onfi.CmdPageProgram1,
		cmd2:       onfi.CmdPageProgram2,
		ecc:        true,
		dma:        true,
		addrCycles: c.geo.RowAddrCycles + c.geo.ColAddrCycles,
		pageSize:   true,
		addr:       true,
		page:       page,
		busWidth:   true,
		dir:        dirOut,
		size:       size,
		count:      count,
		buf:        buf,
		prog:       reg.ProgPageProgram,
	}
	if c.ecc == ECCHardware {
		t.spareCmd = &reg.SpareCmdReg{Cmd1: onfi.CmdChangeWriteCol, AddrCycles: c.geo.ColAddrCycles}
	}
	c.op.Debug("program page", "target", target, "page", page)
	return c.do(t)
}

// readPage reads the main area of page on target into buf and classifies
// the ECC result.
func (c *Controller) readPage(target int, page uint32, buf []byte) error {
	size, count := c.packet()
	t := &txn{
		target:     target,
		cmd1:       onfi.CmdRead1,
		cmd2:       onfi.CmdRead2,
		ecc:        true,
		dma:        true,
		addrCycles: c.geo.RowAddrCycles + c.geo.ColAddrCycles,
		pageSize:   true,
		addr:       true,
		page:       page,
		busWidth:   true,
		dir:        dirIn,
		size:       size,
		count:      count,
		buf:        buf,
		prog:       reg.ProgRead,
	}
	hw := c.ecc == ECCHardware
	if hw {
		t.keep = reg.IntrMulBitErr | reg.IntrErr
		t.spareCmd = &reg.SpareCmdReg{
			Cmd1:       onfi.CmdChangeReadCol1,
			Cmd2:       onfi.CmdChangeReadCol2,
			AddrCycles: c.geo.ColAddrCycles,
		}
	}
	c.op.Debug("read page", "target", target, "page", page)
	err := c.do(t)
	if !hw {
		return err
	}
	// ECC status is checked after a timeout too; uncorrectable wins.
	eccErr := c.checkECC()
	if errors.Is(eccErr, ErrUncorrectable) {
		return eccErr
	}
	return err
}
