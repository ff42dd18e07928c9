package nandps

import (
	"fmt"

	"github.com/gentam/nandps/internal/reg"
)

// eccEntry is one ECC layout the controller supports. Addr is the ECC
// field offset for the standard spare size of the page; the programmed
// offset is always derived from the discovered spare size.
type eccEntry struct {
	PageSize    uint32
	CodewordExp uint8
	Bits        uint8
	BCH         bool
	Addr        uint32
	Size        uint32
}

const (
	hamming = false
	bch     = true
)

var eccMatrix = []eccEntry{
	// 512 byte page
	{512, 9, 1, hamming, 0x20D, 0x3},
	{512, 9, 4, bch, 0x209, 0x7},
	{512, 9, 8, bch, 0x203, 0xD},

	// 2K byte page
	{2048, 9, 1, hamming, 0x834, 0xC},
	{2048, 9, 4, bch, 0x826, 0x1A},
	{2048, 9, 8, bch, 0x80C, 0x34},
	{2048, 9, 12, bch, 0x822, 0x4E},
	{2048, 9, 16, bch, 0x808, 0x68},
	{2048, 10, 24, bch, 0x81C, 0x54},

	// 4K byte page
	{4096, 9, 1, hamming, 0x1068, 0x18},
	{4096, 9, 4, bch, 0x104C, 0x34},
	{4096, 9, 8, bch, 0x1018, 0x68},
	{4096, 9, 12, bch, 0x1044, 0x9C},
	{4096, 9, 16, bch, 0x1010, 0xD0},
	{4096, 10, 24, bch, 0x1038, 0xA8},

	// 8K byte page
	{8192, 9, 1, hamming, 0x20D0, 0x30},
	{8192, 9, 4, bch, 0x2098, 0x68},
	{8192, 9, 8, bch, 0x2030, 0xD0},
	{8192, 9, 12, bch, 0x2088, 0x138},
	{8192, 9, 16, bch, 0x2020, 0x1A0},
	{8192, 10, 24, bch, 0x2070, 0x150},

	// 16K byte page
	{16384, 9, 1, hamming, 0x4460, 0x60},
	{16384, 9, 4, bch, 0x43F0, 0xD0},
	{16384, 9, 8, bch, 0x4320, 0x1A0},
	{16384, 9, 12, bch, 0x4250, 0x270},
	{16384, 9, 16, bch, 0x4180, 0x340},
	{16384, 10, 24, bch, 0x4220, 0x2A0},
}

// selectECC picks the first layout for the page and codeword size that is
// at least as strong as bits. If none is strong enough the last layout for
// the page and codeword size is used.
func selectECC(pageSize uint32, codewordExp, bits uint8) (eccEntry, bool) {
	var (
		e     eccEntry
		found bool
	)
	for _, m := range eccMatrix {
		if m.PageSize != pageSize || m.CodewordExp < codewordExp {
			continue
		}
		e, found = m, true
		if m.Bits >= bits {
			break
		}
	}
	return e, found
}

// setECCAddrSize selects the ECC layout and programs the ECC engine.
func (c *Controller) setECCAddrSize() {
	g := c.geo
	e, ok := selectECC(g.BytesPerPage, g.ECCCodewordExp, g.ECCBits)
	if !ok {
		c.log.Warn("no ECC layout for device",
			"page", g.BytesPerPage,
			"codeword", 1<<g.ECCCodewordExp,
			"bits", g.ECCBits)
		c.eccFound = false
		return
	}
	if e.Size > g.SpareBytesPerPage {
		c.log.Warn("ECC field larger than spare area", "size", e.Size, "spare", g.SpareBytesPerPage)
		c.eccFound = false
		return
	}

	c.eccCfg = ECCConfig{
		CodewordExp: e.CodewordExp,
		Addr:        g.BytesPerPage + g.SpareBytesPerPage - e.Size,
		Size:        e.Size,
		Bits:        e.Bits,
		BCH:         e.BCH,
	}
	c.eccFound = true
	c.write(reg.ECC, reg.ECCReg{
		Addr: uint16(c.eccCfg.Addr),
		Size: uint16(c.eccCfg.Size),
		BCH:  c.eccCfg.BCH,
	}.Encode())
	if e.BCH {
		c.rmw(reg.MemAddr2, reg.Addr2BCHModeMask, reg.Addr2Reg{BCHMode: reg.BCHMode(e.Bits)}.Encode())
	}
	c.log.Info("ECC",
		"addr", fmt.Sprintf("0x%X", c.eccCfg.Addr),
		"size", c.eccCfg.Size,
		"bits", c.eccCfg.Bits,
		"codeword", 1<<c.eccCfg.CodewordExp,
		"bch", c.eccCfg.BCH)
}

// checkECC classifies the ECC status of a finished read. Multi-bit errors
// always fail. A single error flag is corrected data on BCH and a failure on
// Hamming.
func (c *Controller) checkECC() error {
	sts := c.read(reg.IntrSts)
	switch {
	case sts&reg.IntrMulBitErr != 0:
		c.write(reg.IntrSts, reg.IntrMulBitErr|sts&reg.IntrErr)
		return fmt.Errorf("%w: multiple bit errors", ErrUncorrectable)
	case sts&reg.IntrErr != 0:
		c.write(reg.IntrSts, reg.IntrErr)
		if !c.eccCfg.BCH {
			return fmt.Errorf("%w: Hamming error", ErrUncorrectable)
		}
		c.corrected++
		c.op.Debug("corrected ECC error", "errors", c.read(reg.ECCErrCnt))
	}
	return nil
}
