package nandps

import (
	"errors"
	"fmt"

	"github.com/gentam/nandps/onfi"
)

// defaultCodewordExp is the 512-byte ECC codeword.
const defaultCodewordExp = 9

// flashInit walks the chip selects, reads the parameter page of each ONFI
// target and derives geometry and ECC from target 0.
func (c *Controller) flashInit() error {
	for target := range c.cfg.MaxTargets {
		ok, err := c.probeTarget(target)
		if err != nil {
			return fmt.Errorf("target %d: %w", target, err)
		}
		if !ok {
			c.log.Info("target not populated", "target", target)
			break
		}
		c.geo.NumTargets++
		if target == 0 && c.cfg.Emulated {
			break
		}
	}

	g := &c.geo
	g.NumPages = g.NumTargets * g.NumTargetPages
	g.NumBlocks = g.NumTargets * g.NumTargetBlocks
	g.DeviceSize = uint64(g.NumTargets) * g.TargetSize
	return nil
}

// probeTarget reports whether target answers as an ONFI device. Protocol
// failures on target 0 are errors, on later targets they only mean the chip
// select is not populated.
func (c *Controller) probeTarget(target int) (bool, error) {
	if err := c.onfiReset(target); err != nil {
		return false, fmt.Errorf("reset: %w", err)
	}
	id, err := c.ReadID(target, onfi.ReadIDAddrONFI, onfi.SignatureLen)
	if err != nil {
		return false, err
	}
	if !onfi.IsONFI(id) {
		if target == 0 {
			return false, fmt.Errorf("%w: id % X", ErrNotONFI, id)
		}
		return false, nil
	}

	buf := make([]byte, onfi.ParamPageLen)
	copyIdx, err := c.readValidParamPage(target, buf)
	if errors.Is(err, ErrParamPageCRC) && target > 0 {
		c.log.Warn("parameter page CRC", "target", target)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if target > 0 {
		return true, nil
	}

	p, err := onfi.ParseParamPage(buf)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrNotONFI, err)
	}
	c.param = p
	c.initGeometry(p)
	c.initFeatures(p)
	c.log.Info("flash",
		"manufacturer", p.Manufacturer,
		"model", p.Model,
		"jedec", fmt.Sprintf("0x%02X", p.JEDECID),
		"page", c.geo.BytesPerPage,
		"spare", c.geo.SpareBytesPerPage,
		"pagesPerBlock", c.geo.PagesPerBlock,
		"blocksPerLUN", c.geo.BlocksPerLUN,
		"luns", c.geo.NumLUNs,
		"eccBits", c.geo.ECCBits)

	if jedec, err := c.ReadID(0, onfi.ReadIDAddrJEDEC, 2); err == nil {
		copy(c.jedecID[:], jedec)
	} else {
		c.log.Warn("read JEDEC id", "err", err)
	}
	if !c.feat.EZNAND {
		if err := c.checkOnDie(); err != nil {
			c.log.Debug("no on-die ECC", "err", err)
			c.feat.OnDieECC = false
		}
	}
	if c.cfg.Emulated {
		return true, nil
	}

	if c.geo.ECCBits == onfi.ECCBitsUnspecified && c.feat.ExtParamPage {
		off := uint32(p.NumParamPages)*onfi.ParamPageLen + uint32(copyIdx*p.ExtLen())
		if err := c.initExtECC(target, off, p.ExtLen()); err != nil {
			return false, err
		}
	}
	c.setECCAddrSize()
	return true, nil
}

// readValidParamPage reads parameter page copies into buf until one has a
// good CRC and returns its index.
func (c *Controller) readValidParamPage(target int, buf []byte) (int, error) {
	for i := range onfi.NumMandatoryParamPages {
		var err error
		if i == 0 {
			err = c.readParamPage(target, buf)
		} else {
			err = c.changeReadColumn(target, uint32(i*onfi.ParamPageLen), onfi.ParamPageLen, 1, buf)
		}
		if err != nil {
			return 0, fmt.Errorf("read parameter page %d: %w", i, err)
		}
		if onfi.ParamPageValid(buf) {
			return i, nil
		}
		c.log.Debug("parameter page CRC mismatch", "target", target, "copy", i)
	}
	return 0, ErrParamPageCRC
}

func (c *Controller) initGeometry(p *onfi.ParamPage) {
	g := &c.geo
	g.BytesPerPage = p.BytesPerPage
	g.SpareBytesPerPage = uint32(p.SpareBytesPerPage)
	g.PagesPerBlock = p.PagesPerBlock
	g.BlocksPerLUN = p.BlocksPerLUN
	g.NumLUNs = uint32(p.NumLUNs)
	g.RowAddrCycles = p.RowAddrCycles()
	g.ColAddrCycles = p.ColAddrCycles()
	g.BitsPerCell = p.BitsPerCell
	g.ECCBits = p.ECCBits
	g.ECCCodewordExp = defaultCodewordExp

	g.BlockSize = p.PagesPerBlock * p.BytesPerPage
	g.NumTargetBlocks = p.BlocksPerLUN * g.NumLUNs
	g.NumTargetPages = g.NumTargetBlocks * p.PagesPerBlock
	g.TargetSize = uint64(g.NumTargetPages) * uint64(p.BytesPerPage)
}

func (c *Controller) initFeatures(p *onfi.ParamPage) {
	c.feat = Features{
		BusWidth16:   p.Has(onfi.Feature16BitBus),
		NVDDR:        p.Has(onfi.FeatureNVDDR),
		EZNAND:       p.Has(onfi.FeatureEZNAND),
		ExtParamPage: p.Has(onfi.FeatureExtParamPage),
	}
}

var errNoOnDie = errors.New("device not on the on-die ECC list")

// checkOnDie enables on-die ECC on known parts and confirms the feature
// latched.
func (c *Controller) checkOnDie() error {
	part, ok := knownOnDie[c.jedecID]
	if !ok {
		return errNoOnDie
	}
	c.log.Info("on-die ECC device", "part", part.name)
	if err := c.SetFeature(0, onfi.FeatureMicronArray, [4]byte{onfi.MicronOnDieECC}); err != nil {
		return err
	}
	p, err := c.GetFeature(0, onfi.FeatureMicronArray)
	if err != nil {
		return err
	}
	if p[0]&onfi.MicronOnDieECC == 0 {
		return fmt.Errorf("%w: array mode 0x%02X", ErrFeatureMismatch, p[0])
	}
	c.feat.OnDieECC = true
	return nil
}

// initExtECC reads the extended parameter page at column off and takes the
// ECC requirement from it.
func (c *Controller) initExtECC(target int, off uint32, n int) error {
	buf := make([]byte, n)
	if err := c.changeReadColumn(target, off, uint32(n), 1, buf); err != nil {
		return fmt.Errorf("read extended parameter page: %w", err)
	}
	if !onfi.ExtParamPageValid(buf) {
		return fmt.Errorf("%w: CRC mismatch", ErrExtParamPage)
	}
	ext, err := onfi.ParseExtParamPage(buf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtParamPage, err)
	}
	info, err := ext.ECC()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtParamPage, err)
	}
	c.geo.ECCBits = info.Bits
	c.geo.ECCCodewordExp = info.CodewordExp
	c.log.Info("extended ECC requirement", "bits", info.Bits, "codeword", 1<<info.CodewordExp)
	return nil
}
