package nandps

import (
	"encoding/binary"
	"fmt"

	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/onfi"
)

// ONFI commands. Each one is a single controller transaction.
//   - [ONFI-4.0|5 Command Definition]

func (c *Controller) onfiReset(target int) error {
	return c.do(&txn{
		target: target,
		cmd1:   onfi.CmdReset,
		cmd2:   onfi.CmdInvalid,
		prog:   reg.ProgReset,
	})
}

// ReadStatus issues Read Status (70h) to target.
func (c *Controller) ReadStatus(target int) (onfi.Status, error) {
	size := uint32(1)
	if c.intf == NVDDR {
		size = 2 // each byte is sent twice
	}
	err := c.do(&txn{
		target: target,
		cmd1:   onfi.CmdReadStatus,
		cmd2:   onfi.CmdInvalid,
		size:   size,
		count:  1,
		prog:   reg.ProgReadStatus,
	})
	if err != nil {
		return 0, fmt.Errorf("read status: %w", err)
	}
	return onfi.Status(c.read(reg.FlashSts)), nil
}

// waitReady polls the ONFI status of target until the device is ready. A
// ready device reporting FAIL returns failErr.
func (c *Controller) waitReady(target int, failErr error) error {
	for range c.cfg.PollBudget {
		st, err := c.ReadStatus(target)
		if err != nil {
			return err
		}
		if st.Ready() {
			if st.Fail() {
				return fmt.Errorf("%w: target %d status %s", failErr, target, st)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: target %d never became ready", ErrTimeout, target)
}

// ReadID issues Read ID (90h) at addr and returns n bytes.
func (c *Controller) ReadID(target int, addr uint8, n int) ([]byte, error) {
	if n < 1 || n > reg.MaxPacketSize {
		return nil, fmt.Errorf("%w: read id of %d bytes", ErrOutOfRange, n)
	}
	buf := make([]byte, n)
	err := c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdReadID,
		cmd2:       onfi.CmdInvalid,
		addrCycles: onfi.ReadIDAddrCycles,
		addr:       true,
		col:        uint16(addr),
		dir:        dirIn,
		size:       uint32(n),
		count:      1,
		buf:        buf,
		prog:       reg.ProgReadID,
	})
	if err != nil {
		return nil, fmt.Errorf("read id: %w", err)
	}
	return buf, nil
}

// readParamPage reads the first parameter page copy into buf.
func (c *Controller) readParamPage(target int, buf []byte) error {
	return c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdReadParamPage,
		cmd2:       onfi.CmdInvalid,
		addrCycles: onfi.ParamPageAddrCycle,
		addr:       true,
		dir:        dirIn,
		size:       onfi.ParamPageLen,
		count:      1,
		buf:        buf,
		prog:       reg.ProgReadParamPage,
	})
}

// changeReadColumn continues the last read at another column (05h-E0h).
func (c *Controller) changeReadColumn(target int, col uint32, size, count uint32, buf []byte) error {
	return c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdChangeReadCol1,
		cmd2:       onfi.CmdChangeReadCol2,
		dma:        true,
		addrCycles: c.geo.ColAddrCycles,
		pageSize:   true,
		addr:       true,
		col:        uint16(col),
		busWidth:   true,
		dir:        dirIn,
		size:       size,
		count:      count,
		buf:        buf,
		prog:       reg.ProgRead,
	})
}

// changeWriteColumn moves the data input of an open program to col and
// confirms it (85h ... 10h).
func (c *Controller) changeWriteColumn(target int, col uint32, size, count uint32, buf []byte) error {
	if count == 0 {
		return nil
	}
	return c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdChangeWriteCol,
		cmd2:       onfi.CmdPageProgram2,
		dma:        true,
		addrCycles: c.geo.ColAddrCycles,
		pageSize:   true,
		addr:       true,
		col:        uint16(col),
		busWidth:   true,
		dir:        dirOut,
		size:       size,
		count:      count,
		buf:        buf,
		prog:       reg.ProgChangeRowAddrE,
	})
}

// featureLen is the get/set feature packet size: four parameters, each
// doubled on an NV-DDR bus.
func (c *Controller) featureLen() uint32 {
	if c.intf == NVDDR {
		return 8
	}
	return 4
}

func (c *Controller) getFeatureRaw(target int, addr uint8) ([]byte, error) {
	buf := make([]byte, c.featureLen())
	err := c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdGetFeatures,
		cmd2:       onfi.CmdInvalid,
		addrCycles: 1,
		addr:       true,
		col:        uint16(addr),
		dir:        dirIn,
		size:       uint32(len(buf)),
		count:      1,
		buf:        buf,
		prog:       reg.ProgGetFeatures,
	})
	return buf, err
}

func (c *Controller) setFeatureRaw(target int, addr uint8, buf []byte) error {
	return c.do(&txn{
		target:     target,
		cmd1:       onfi.CmdSetFeatures,
		cmd2:       onfi.CmdInvalid,
		addrCycles: 1,
		addr:       true,
		col:        uint16(addr),
		dir:        dirOut,
		size:       uint32(len(buf)),
		count:      1,
		buf:        buf,
		prog:       reg.ProgSetFeatures,
	})
}

// GetFeature reads the four parameters P1-P4 of feature addr.
func (c *Controller) GetFeature(target int, addr uint8) ([4]byte, error) {
	var p [4]byte
	raw, err := c.getFeatureRaw(target, addr)
	if err != nil {
		return p, fmt.Errorf("get feature 0x%02X: %w", addr, err)
	}
	step := len(raw) / 4
	for i := range p {
		p[i] = raw[i*step]
	}
	c.op.Debug("get feature", "target", target, "addr", addr, "params", p)
	return p, nil
}

// SetFeature writes the four parameters P1-P4 of feature addr.
func (c *Controller) SetFeature(target int, addr uint8, p [4]byte) error {
	raw := make([]byte, c.featureLen())
	step := len(raw) / 4
	for i, v := range p {
		for j := range step {
			raw[i*step+j] = v
		}
	}
	c.op.Debug("set feature", "target", target, "addr", addr, "params", p)
	if err := c.setFeatureRaw(target, addr, raw); err != nil {
		return fmt.Errorf("set feature 0x%02X: %w", addr, err)
	}
	return nil
}

// featureWord is the first four wire bytes of a feature transfer.
func featureWord(raw []byte) uint32 {
	return binary.LittleEndian.Uint32(raw)
}
