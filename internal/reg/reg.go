// Package reg describes the register window of the NAND flash controller.
//
// Every register that carries more than one field has a struct with an
// Encode method and a matching Decode function, so the bit layout lives in
// one place and both the driver and the simulator agree on it.
//
// [ZynqMP-TRM|Chapter 25: NAND Memory Controller]
package reg

// Register offsets from the controller base address.
const (
	Packet      = 0x00
	MemAddr1    = 0x04
	MemAddr2    = 0x08
	Cmd         = 0x0C
	Prog        = 0x10
	IntrStsEn   = 0x14
	IntrSigEn   = 0x18
	IntrSts     = 0x1C
	ReadyBusy   = 0x20
	DMASysAddr1 = 0x24 // high 32 bits
	FlashSts    = 0x28
	Timing      = 0x2C
	DataPort    = 0x30
	ECC         = 0x34
	ECCErrCnt   = 0x38
	ECCSpareCmd = 0x3C
	DMASysAddr0 = 0x50 // low 32 bits
	DMABufBnd   = 0x54
	DataIntf    = 0x6C

	// WindowSize is the size of the mapped register window.
	WindowSize = 0x1000
)

// PROG register trigger bits. Writing one of them starts the operation.
const (
	ProgRead           = 1 << 0
	ProgBlockErase     = 1 << 2
	ProgReadStatus     = 1 << 3
	ProgPageProgram    = 1 << 4
	ProgReadID         = 1 << 6
	ProgReadParamPage  = 1 << 7
	ProgReset          = 1 << 8
	ProgGetFeatures    = 1 << 9
	ProgSetFeatures    = 1 << 10
	ProgChangeRowAddr  = 1 << 14 // program without the confirm cycle
	ProgChangeRowAddrE = 1 << 22 // change write column, then confirm
)

// Interrupt status bits, shared by INTR_STS_EN, INTR_SIG_EN and INTR_STS.
// INTR_STS is write-1-to-clear.
const (
	IntrBuffWrReady = 1 << 0
	IntrBuffRdReady = 1 << 1
	IntrTransComp   = 1 << 2
	IntrMulBitErr   = 1 << 3
	IntrErr         = 1 << 4
	IntrDMA         = 1 << 6
)

const (
	MaxPacketSize  = 2048
	MaxPacketCount = 4095

	// DMABufBnd512K limits a DMA burst to a 512 KiB boundary.
	DMABufBnd512K = 0x7
)

// DMA modes of the CMD register DMA_EN field.
const (
	DMAOff  = 0
	DMASDMA = 1
	DMAMDMA = 2
)

const (
	packetSizeMask  = 0xFFF
	packetCountSh   = 12
	packetCountMask = 0xFFF000

	// PacketMask covers both PKT fields.
	PacketMask = packetSizeMask | packetCountMask
)

// PacketReg is the PKT register: bytes per packet and packet count.
type PacketReg struct {
	Size  uint32
	Count uint32
}

func (p PacketReg) Encode() uint32 {
	return p.Size&packetSizeMask | p.Count<<packetCountSh&packetCountMask
}

func DecodePacket(v uint32) PacketReg {
	return PacketReg{
		Size:  v & packetSizeMask,
		Count: v & packetCountMask >> packetCountSh,
	}
}

const (
	addr1ColMask  = 0xFFFF
	addr1PageSh   = 16
	addr1PageMask = 0xFFFF0000
)

// Addr1Reg is MEM_ADDR1: the column and the low 16 bits of the row address.
type Addr1Reg struct {
	Column uint16
	Page   uint16
}

func (a Addr1Reg) Encode() uint32 {
	return uint32(a.Column)&addr1ColMask | uint32(a.Page)<<addr1PageSh&addr1PageMask
}

func DecodeAddr1(v uint32) Addr1Reg {
	return Addr1Reg{
		Column: uint16(v & addr1ColMask),
		Page:   uint16(v & addr1PageMask >> addr1PageSh),
	}
}

// MEM_ADDR2 field masks, for read-modify-write of a single field.
const (
	Addr2PageMask     = 0xFF
	Addr2BusWidthMask = 1 << addr2BusWidthSh
	Addr2BCHModeMask  = 0x7 << addr2BCHModeSh
	Addr2ChipMask     = 0x3 << addr2ChipSh

	addr2BusWidthSh = 24
	addr2BCHModeSh  = 25
	addr2ChipSh     = 30
)

// Addr2Reg is MEM_ADDR2: the high row address byte, bus width, BCH strength
// and chip select.
type Addr2Reg struct {
	Page       uint8
	BusWidth16 bool
	BCHMode    uint8
	Chip       uint8
}

func (a Addr2Reg) Encode() uint32 {
	v := uint32(a.Page) & Addr2PageMask
	if a.BusWidth16 {
		v |= Addr2BusWidthMask
	}
	v |= uint32(a.BCHMode) << addr2BCHModeSh & Addr2BCHModeMask
	v |= uint32(a.Chip) << addr2ChipSh & Addr2ChipMask
	return v
}

func DecodeAddr2(v uint32) Addr2Reg {
	return Addr2Reg{
		Page:       uint8(v & Addr2PageMask),
		BusWidth16: v&Addr2BusWidthMask != 0,
		BCHMode:    uint8(v & Addr2BCHModeMask >> addr2BCHModeSh),
		Chip:       uint8(v & Addr2ChipMask >> addr2ChipSh),
	}
}

// BCH strength codes of the MEM_ADDR2 BCH mode field.
var bchModes = map[uint8]uint8{
	16: 0x0,
	12: 0x1,
	8:  0x2,
	4:  0x3,
	24: 0x4,
}

// BCHMode returns the MEM_ADDR2 code for a BCH correction strength. Unknown
// strengths map to 0 like the 16-bit code.
func BCHMode(bits uint8) uint8 { return bchModes[bits] }

// BCHBits is the inverse of BCHMode.
func BCHBits(mode uint8) uint8 {
	for bits, m := range bchModes {
		if m == mode {
			return bits
		}
	}
	return 0
}

const (
	cmdCmd2Sh        = 8
	cmdCmd2Mask      = 0xFF00
	cmdPageSizeSh    = 23
	CmdPageSizeMask  = 0x7 << cmdPageSizeSh
	cmdDMASh         = 26
	cmdDMAMask       = 0x3 << cmdDMASh
	cmdAddrCyclesSh  = 28
	cmdAddrCycleMask = 0x7 << cmdAddrCyclesSh
	cmdECCOn         = 1 << 31
)

// CmdReg is the CMD register.
type CmdReg struct {
	Cmd1       uint8
	Cmd2       uint8
	PageSize   uint8 // see PageSizeCode
	DMA        uint8
	AddrCycles uint8
	ECC        bool
}

func (c CmdReg) Encode() uint32 {
	v := uint32(c.Cmd1) | uint32(c.Cmd2)<<cmdCmd2Sh&cmdCmd2Mask
	v |= uint32(c.PageSize) << cmdPageSizeSh & CmdPageSizeMask
	v |= uint32(c.DMA) << cmdDMASh & cmdDMAMask
	v |= uint32(c.AddrCycles) << cmdAddrCyclesSh & cmdAddrCycleMask
	if c.ECC {
		v |= cmdECCOn
	}
	return v
}

func DecodeCmd(v uint32) CmdReg {
	return CmdReg{
		Cmd1:       uint8(v),
		Cmd2:       uint8(v & cmdCmd2Mask >> cmdCmd2Sh),
		PageSize:   uint8(v & CmdPageSizeMask >> cmdPageSizeSh),
		DMA:        uint8(v & cmdDMAMask >> cmdDMASh),
		AddrCycles: uint8(v & cmdAddrCycleMask >> cmdAddrCyclesSh),
		ECC:        v&cmdECCOn != 0,
	}
}

var pageSizeCodes = []struct {
	bytes uint32
	code  uint8
}{
	{512, 0},
	{2048, 1},
	{4096, 2},
	{8192, 3},
	{16384, 4},
	{1024, 5}, // 16-bit bus
}

// PageSizeCode returns the CMD page size code for a page size in bytes.
func PageSizeCode(bytes uint32) (uint8, bool) {
	for _, p := range pageSizeCodes {
		if p.bytes == bytes {
			return p.code, true
		}
	}
	return 0, false
}

// PageSizeBytes is the inverse of PageSizeCode.
func PageSizeBytes(code uint8) uint32 {
	for _, p := range pageSizeCodes {
		if p.code == code {
			return p.bytes
		}
	}
	return 0
}

const (
	eccAddrMask = 0xFFFF
	eccSizeSh   = 16
	eccSizeMask = 0x7FF << eccSizeSh
	eccBCH      = 1 << 27
)

// ECCReg is the ECC register: location and size of the ECC field inside the
// page+spare address space and the code family.
type ECCReg struct {
	Addr uint16
	Size uint16
	BCH  bool
}

func (e ECCReg) Encode() uint32 {
	v := uint32(e.Addr)&eccAddrMask | uint32(e.Size)<<eccSizeSh&eccSizeMask
	if e.BCH {
		v |= eccBCH
	}
	return v
}

func DecodeECC(v uint32) ECCReg {
	return ECCReg{
		Addr: uint16(v & eccAddrMask),
		Size: uint16(v & eccSizeMask >> eccSizeSh),
		BCH:  v&eccBCH != 0,
	}
}

// SpareCmdReg is ECC_SPR_CMD: the column change command the controller uses
// to reach the ECC field after the main area.
type SpareCmdReg struct {
	Cmd1       uint8
	Cmd2       uint8
	AddrCycles uint8
}

func (s SpareCmdReg) Encode() uint32 {
	return uint32(s.Cmd1) | uint32(s.Cmd2)<<8 | uint32(s.AddrCycles)<<28
}

func DecodeSpareCmd(v uint32) SpareCmdReg {
	return SpareCmdReg{
		Cmd1:       uint8(v),
		Cmd2:       uint8(v >> 8),
		AddrCycles: uint8(v >> 28 & 0x7),
	}
}

const (
	dataIntfSh   = 9
	dataIntfMask = 0x3 << dataIntfSh
	nvddrModeSh  = 3
)

// DataIntfReg is DATA_INTF: the bus interface class and timing mode.
type DataIntfReg struct {
	NVDDR bool
	Mode  uint8
}

func (d DataIntfReg) Encode() uint32 {
	mode := uint32(d.Mode % 6)
	if d.NVDDR {
		return mode<<nvddrModeSh | 1<<dataIntfSh
	}
	return mode
}

func DecodeDataIntf(v uint32) DataIntfReg {
	if v&dataIntfMask>>dataIntfSh == 1 {
		return DataIntfReg{NVDDR: true, Mode: uint8(v >> nvddrModeSh & 0x7)}
	}
	return DataIntfReg{Mode: uint8(v & 0x7)}
}
