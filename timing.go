package nandps

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/onfi"
)

// timingMode is one supported interface transition. Payload is the first
// word of the timing mode feature as it appears on the bus in the current
// interface; on NV-DDR every parameter byte is sent twice.
type timingMode struct {
	from, to Interface
	mode     uint8
	clock    physic.Frequency // zero keeps the current clock
	payload  uint32
}

// NV-DDR clock of each timing mode, and the SDR clock.
//   - [ONFI-4.0|4.19 NV-DDR timing modes]
var (
	nvddrClock = [...]physic.Frequency{
		20 * physic.MegaHertz,
		33 * physic.MegaHertz,
		50 * physic.MegaHertz,
		66 * physic.MegaHertz,
		83 * physic.MegaHertz,
		100 * physic.MegaHertz,
	}
	sdrClock = 100 * physic.MegaHertz
)

var timingModes = []timingMode{
	{SDR, SDR, 0, 0, 0x00},
	{SDR, SDR, 1, 0, 0x01},
	{SDR, SDR, 2, 0, 0x02},
	{SDR, SDR, 3, 0, 0x03},
	{SDR, SDR, 4, 0, 0x04},
	{SDR, SDR, 5, 0, 0x05},

	{NVDDR, NVDDR, 0, nvddrClock[0], 0x1010},
	{NVDDR, NVDDR, 1, nvddrClock[1], 0x1111},
	{NVDDR, NVDDR, 2, nvddrClock[2], 0x1212},
	{NVDDR, NVDDR, 3, nvddrClock[3], 0x1313},
	{NVDDR, NVDDR, 4, nvddrClock[4], 0x1414},
	{NVDDR, NVDDR, 5, nvddrClock[5], 0x1515},

	{SDR, NVDDR, 0, nvddrClock[0], 0x10},
	{SDR, NVDDR, 1, nvddrClock[1], 0x11},
	{SDR, NVDDR, 2, nvddrClock[2], 0x12},
	{SDR, NVDDR, 3, nvddrClock[3], 0x13},
	{SDR, NVDDR, 4, nvddrClock[4], 0x14},
	{SDR, NVDDR, 5, nvddrClock[5], 0x15},

	// leaving NV-DDR always goes through a reset to SDR mode 0
	{NVDDR, SDR, 0, sdrClock, 0x00},
}

func lookupTiming(cur, intf Interface, mode uint8) (timingMode, bool) {
	for _, t := range timingModes {
		if t.from == cur && t.to == intf && t.mode == mode {
			return t, true
		}
	}
	return timingMode{}, false
}

// ChangeTimingMode moves every target and the controller to interface intf
// with the given timing mode.
func (c *Controller) ChangeTimingMode(intf Interface, mode uint8) error {
	if err := c.begin("timing", "intf", intf, "mode", mode); err != nil {
		return err
	}
	return c.changeTimingMode(intf, mode)
}

func (c *Controller) changeTimingMode(intf Interface, mode uint8) error {
	t, ok := lookupTiming(c.intf, intf, mode)
	if !ok {
		return fmt.Errorf("%w: %s mode %d to %s mode %d", ErrUnsupportedTiming, c.intf, c.timing, intf, mode)
	}
	if c.intf == intf && c.timing == mode {
		return nil
	}

	if c.intf == NVDDR && intf == SDR {
		if err := c.setClock(t.clock); err != nil {
			return err
		}
		for target := range int(c.geo.NumTargets) {
			if err := c.onfiReset(target); err != nil {
				return fmt.Errorf("target %d: reset: %w", target, err)
			}
		}
		c.commitTiming(SDR, 0)
		for target := range int(c.geo.NumTargets) {
			raw, err := c.getFeatureRaw(target, onfi.FeatureTimingMode)
			if err != nil {
				return fmt.Errorf("target %d: get timing mode: %w", target, err)
			}
			if w := featureWord(raw); w != 0 {
				return fmt.Errorf("%w: target %d timing mode 0x%X after reset", ErrFeatureMismatch, target, w)
			}
		}
		return c.changeTimingMode(intf, mode)
	}

	if t.clock != 0 {
		if err := c.setClock(t.clock); err != nil {
			return err
		}
	}
	raw := make([]byte, c.featureLen())
	binary.LittleEndian.PutUint32(raw, t.payload)
	for target := range int(c.geo.NumTargets) {
		if err := c.setFeatureRaw(target, onfi.FeatureTimingMode, raw); err != nil {
			return fmt.Errorf("target %d: set timing mode: %w", target, err)
		}
	}
	for target := range int(c.geo.NumTargets) {
		got, err := c.getFeatureRaw(target, onfi.FeatureTimingMode)
		if err != nil {
			return fmt.Errorf("target %d: get timing mode: %w", target, err)
		}
		if w := featureWord(got); w != t.payload {
			return fmt.Errorf("%w: target %d timing mode 0x%X, want 0x%X", ErrFeatureMismatch, target, w, t.payload)
		}
	}
	c.commitTiming(intf, mode)
	return nil
}

func (c *Controller) setClock(f physic.Frequency) error {
	if c.cfg.Clock == nil {
		return nil
	}
	if err := c.cfg.Clock.SetFrequency(f); err != nil {
		return fmt.Errorf("set clock %s: %w", f, err)
	}
	c.op.Debug("clock", "freq", f)
	return nil
}

func (c *Controller) commitTiming(intf Interface, mode uint8) {
	c.intf, c.timing = intf, mode
	c.write(reg.DataIntf, reg.DataIntfReg{NVDDR: intf == NVDDR, Mode: mode}.Encode())
	c.op.Info("timing mode", "intf", intf, "mode", mode)
}
