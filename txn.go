package nandps

import (
	"encoding/binary"
	"fmt"

	"github.com/gentam/nandps/internal/reg"
)

func (c *Controller) read(off uint32) uint32     { return c.bus.Read32(off) }
func (c *Controller) write(off uint32, v uint32) { c.bus.Write32(off, v) }

func (c *Controller) rmw(off, mask, v uint32) {
	c.write(off, c.read(off)&^mask|v&mask)
}

// pollForEvent reads off until one of the mask bits is set, at most
// PollBudget times.
func (c *Controller) pollForEvent(off, mask uint32) error {
	for range c.cfg.PollBudget {
		if c.read(off)&mask != 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: register 0x%02X mask 0x%X", ErrTimeout, off, mask)
}

// prepareCommand programs the command register. ecc and dma are requests;
// they take effect only if the controller is in the matching mode.
func (c *Controller) prepareCommand(cmd1, cmd2 uint8, ecc, dma bool, addrCycles uint8) {
	r := reg.CmdReg{
		Cmd1:       cmd1,
		Cmd2:       cmd2,
		AddrCycles: addrCycles,
		ECC:        ecc && c.ecc == ECCHardware,
	}
	if dma && c.xfer == DMA {
		r.DMA = reg.DMAMDMA
	}
	c.write(reg.Cmd, r.Encode())
}

// setPageColumnAddress splits the row address over MEM_ADDR1 and the low
// byte of MEM_ADDR2.
func (c *Controller) setPageColumnAddress(page uint32, col uint16) {
	c.write(reg.MemAddr1, reg.Addr1Reg{Column: col, Page: uint16(page)}.Encode())
	c.rmw(reg.MemAddr2, reg.Addr2PageMask, reg.Addr2Reg{Page: uint8(page >> 16)}.Encode())
}

func (c *Controller) setPacketSizeCount(size, count uint32) {
	if size > reg.MaxPacketSize || count > reg.MaxPacketCount {
		panic(fmt.Sprintf("nandps: packet %d x %d exceeds controller limits", size, count))
	}
	c.rmw(reg.Packet, reg.PacketMask, reg.PacketReg{Size: size, Count: count}.Encode())
}

func (c *Controller) selectChip(target int) {
	if target < 0 || target >= MaxTargets {
		panic(fmt.Sprintf("nandps: target %d out of range", target))
	}
	c.rmw(reg.MemAddr2, reg.Addr2ChipMask, reg.Addr2Reg{Chip: uint8(target)}.Encode())
}

func (c *Controller) setBusWidth() {
	c.rmw(reg.MemAddr2, reg.Addr2BusWidthMask, reg.Addr2Reg{BusWidth16: c.feat.BusWidth16}.Encode())
}

func (c *Controller) setPageSize() {
	code, _ := reg.PageSizeCode(c.geo.BytesPerPage)
	c.rmw(reg.Cmd, reg.CmdPageSizeMask, reg.CmdReg{PageSize: code}.Encode())
}

func (c *Controller) setECCSpareCmd(cmd1, cmd2 uint8, addrCycles uint8) {
	c.write(reg.ECCSpareCmd, reg.SpareCmdReg{Cmd1: cmd1, Cmd2: cmd2, AddrCycles: addrCycles}.Encode())
}

type direction int

const (
	dirNone direction = iota
	dirIn             // device to memory
	dirOut            // memory to device
)

// txn is one controller operation: everything between arming the status
// bits and acknowledging transfer-complete.
type txn struct {
	target int

	cmd1, cmd2 uint8
	ecc, dma   bool // requests passed to prepareCommand
	addrCycles uint8

	addr     bool // program MEM_ADDR1/2
	page     uint32
	col      uint16
	pageSize bool // program the CMD page size field
	busWidth bool
	bufBound bool // program DMA_BUF_BND for DMA transfers

	spareCmd *reg.SpareCmdReg

	prog uint32

	dir         direction
	size, count uint32 // packet geometry; zero size skips PKT
	buf         []byte

	keep uint32 // status enable bits kept armed for the whole operation
}

// do runs t. With DMA the controller moves all packets on its own, with PIO
// every packet goes through the data port.
func (c *Controller) do(t *txn) error {
	useDMA := t.dma && c.xfer == DMA && t.dir != dirNone

	switch {
	case useDMA:
		c.write(reg.IntrStsEn, reg.IntrTransComp|reg.IntrDMA|t.keep)
	case t.dir == dirIn:
		c.write(reg.IntrStsEn, reg.IntrBuffRdReady|t.keep)
	case t.dir == dirOut:
		c.write(reg.IntrStsEn, reg.IntrBuffWrReady|t.keep)
	default:
		c.write(reg.IntrStsEn, reg.IntrTransComp|t.keep)
	}

	c.prepareCommand(t.cmd1, t.cmd2, t.ecc, t.dma, t.addrCycles)
	if t.pageSize {
		c.setPageSize()
	}
	if t.addr {
		c.setPageColumnAddress(t.page, t.col)
	}
	if t.size > 0 {
		c.setPacketSizeCount(t.size, t.count)
	}

	n := int(t.size * t.count)
	var dmaMem []byte
	if useDMA {
		dmaMem = c.dmaBuf.Bytes()[:n]
		if t.dir == dirOut {
			copy(dmaMem, t.buf[:n])
			c.cfg.Cache.FlushRange(dmaMem)
		} else {
			c.cfg.Cache.InvalidateRange(dmaMem)
		}
		phys := c.dmaBuf.PhysAddr()
		if c.cfg.DMA64 {
			c.write(reg.DMASysAddr1, uint32(phys>>32))
		}
		c.write(reg.DMASysAddr0, uint32(phys))
		if t.bufBound {
			c.write(reg.DMABufBnd, reg.DMABufBnd512K)
		}
	}

	if t.busWidth {
		c.setBusWidth()
	}
	c.selectChip(t.target)
	if t.spareCmd != nil {
		c.setECCSpareCmd(t.spareCmd.Cmd1, t.spareCmd.Cmd2, t.spareCmd.AddrCycles)
	}
	c.write(reg.Prog, t.prog)

	if !useDMA && t.dir != dirNone {
		if err := c.pio(t); err != nil {
			return err
		}
	}

	if err := c.pollForEvent(reg.IntrSts, reg.IntrTransComp); err != nil {
		return err
	}
	c.write(reg.IntrStsEn, t.keep)
	c.write(reg.IntrSts, reg.IntrTransComp)

	if useDMA && t.dir == dirIn {
		c.cfg.Cache.InvalidateRange(dmaMem)
		copy(t.buf, dmaMem)
	}
	return nil
}

// pio moves t.count packets through the data port.
func (c *Controller) pio(t *txn) error {
	ready := uint32(reg.IntrBuffRdReady)
	if t.dir == dirOut {
		ready = reg.IntrBuffWrReady
	}
	buf := t.buf
	for i := range t.count {
		if err := c.pollForEvent(reg.IntrSts, ready); err != nil {
			return err
		}
		last := i == t.count-1
		if last {
			c.write(reg.IntrStsEn, reg.IntrTransComp|t.keep)
		} else {
			c.write(reg.IntrStsEn, t.keep)
		}
		c.write(reg.IntrSts, ready)

		if t.dir == dirOut {
			c.writeDataPort(buf[:t.size])
		} else {
			c.readDataPort(buf[:t.size])
		}
		buf = buf[t.size:]

		if !last {
			c.write(reg.IntrStsEn, ready|t.keep)
		}
	}
	return nil
}

// readDataPort fills b from the data port, one little-endian word at a time.
func (c *Controller) readDataPort(b []byte) {
	for len(b) >= 4 {
		binary.LittleEndian.PutUint32(b, c.read(reg.DataPort))
		b = b[4:]
	}
	if len(b) > 0 {
		w := c.read(reg.DataPort)
		for i := range b {
			b[i] = byte(w >> (8 * i))
		}
	}
}

func (c *Controller) writeDataPort(b []byte) {
	for len(b) >= 4 {
		c.write(reg.DataPort, binary.LittleEndian.Uint32(b))
		b = b[4:]
	}
	if len(b) > 0 {
		var w uint32
		for i := range b {
			w |= uint32(b[i]) << (8 * i)
		}
		c.write(reg.DataPort, w)
	}
}
