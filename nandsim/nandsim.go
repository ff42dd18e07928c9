// Package nandsim models the NAND flash controller and its ONFI dies at the
// register level. A Controller implements the register bus, DMA allocator
// and clock the driver needs, so the driver runs unchanged against it.
//
// The model completes every operation as soon as it is triggered. Interrupt
// status enables are not modelled: status bits are always set.
package nandsim

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/onfi"
)

var (
	_ nandps.Bus       = (*Controller)(nil)
	_ nandps.Allocator = (*Controller)(nil)
	_ nandps.Clock     = (*Controller)(nil)
)

// ECCError is an ECC outcome injected into page reads.
type ECCError int

const (
	ECCNone ECCError = iota
	ECCCorrectable
	ECCUncorrectable
)

// Options describes the simulated devices. The zero value is one target
// with DefaultParam.
type Options struct {
	// Targets is the number of populated chip selects.
	Targets int

	Param   *onfi.ParamPage
	Ext     *onfi.ExtParamPage
	JEDECID [2]byte

	// OnDieECC makes the dies accept the Micron on-die ECC feature.
	OnDieECC bool

	// CorruptCopies breaks the CRC of the first n parameter page copies of
	// a target.
	CorruptCopies map[int]int
	CorruptExt    bool
	// NotONFI removes the ONFI signature from the Read ID response of a
	// target.
	NotONFI map[int]bool

	// FactoryBad lists device blocks shipped with a bad block marker.
	FactoryBad []uint32

	// BusyPolls is the number of status reads that report busy after every
	// program and erase.
	BusyPolls int

	// IgnoreTiming makes the dies drop timing mode set features.
	IgnoreTiming bool

	// PhysBase is the physical address of the first DMA buffer.
	PhysBase uint64
}

// DefaultParam is a small SLC device: 2 KiB pages, 64 spare bytes, 8 pages
// per block, 16 blocks, 4-bit ECC requirement, NV-DDR capable.
func DefaultParam() *onfi.ParamPage {
	return &onfi.ParamPage{
		Revision:          1 << 5,
		Features:          onfi.FeatureNVDDR,
		NumParamPages:     onfi.NumMandatoryParamPages,
		Manufacturer:      "NANDSIM",
		Model:             "SIM2G08",
		JEDECID:           0x2C,
		BytesPerPage:      2048,
		SpareBytesPerPage: 64,
		PagesPerBlock:     8,
		BlocksPerLUN:      16,
		NumLUNs:           1,
		AddrCycles:        0x23,
		BitsPerCell:       1,
		BlockEndurance:    0x0501,
		ECCBits:           4,
		SDRTimingModes:    0x3F,
		NVDDRTimingModes:  0x3F,
	}
}

// Op is one triggered controller operation.
type Op struct {
	Prog   uint32
	Cmd1   uint8
	Target int
	Row    uint32
	Col    uint32
	Packet reg.PacketReg
}

// Controller is the simulated controller.
type Controller struct {
	opts Options
	regs [reg.WindowSize / 4]uint32
	dies []*die

	x     *transfer
	stuck uint32

	dma      []*Buffer
	nextPhys uint64

	ecc   map[uint64]ECCError
	reads map[uint32]int

	// History records every triggered operation except status reads.
	History []Op
	// Freqs records every clock change.
	Freqs []physic.Frequency
}

// New returns a controller with the devices described by o.
func New(o Options) *Controller {
	if o.Targets <= 0 {
		o.Targets = 1
	}
	if o.Param == nil {
		o.Param = DefaultParam()
	}
	if o.JEDECID == [2]byte{} {
		o.JEDECID = [2]byte{o.Param.JEDECID, 0xDA}
	}
	if o.PhysBase == 0 {
		o.PhysBase = 0x4000_0000
	}
	s := &Controller{
		opts:     o,
		nextPhys: o.PhysBase,
		ecc:      make(map[uint64]ECCError),
		reads:    make(map[uint32]int),
	}
	for t := range min(o.Targets, nandps.MaxTargets) {
		s.dies = append(s.dies, newDie(&s.opts, t))
	}
	for _, b := range o.FactoryBad {
		s.markBad(b)
	}
	return s
}

func (s *Controller) markBad(block uint32) {
	p := s.opts.Param
	blocks := p.BlocksPerLUN * uint32(p.NumLUNs)
	t := int(block / blocks)
	if t >= len(s.dies) {
		return
	}
	d := s.dies[t]
	pg := d.page(block % blocks * p.PagesPerBlock)
	pg[p.BytesPerPage] = 0x00
}

// Stick keeps the given INTR_STS bits from ever being observed.
func (s *Controller) Stick(bits uint32) { s.stuck = bits }

// Reads returns how many times the register at off was read.
func (s *Controller) Reads(off uint32) int { return s.reads[off] }

func (s *Controller) ResetCounters() {
	s.reads = make(map[uint32]int)
	s.History = nil
}

// Reg returns the raw value of a register.
func (s *Controller) Reg(off uint32) uint32 { return s.regs[off/4] }

// InjectECC makes reads of a device page report e while ECC is on.
func (s *Controller) InjectECC(target int, row uint32, e ECCError) {
	s.ecc[uint64(target)<<32|uint64(row)] = e
}

// FailNext makes the next program or erase of target report FAIL.
func (s *Controller) FailNext(target int) { s.dies[target].failNext = true }

// Page returns the stored main and spare bytes of a page of a target.
func (s *Controller) Page(target int, row uint32) []byte {
	return s.dies[target].page(row)
}

// Feature returns the parameters of a feature of a target.
func (s *Controller) Feature(target int, addr uint8) [4]byte {
	return s.dies[target].features[addr]
}

// SetFrequency implements nandps.Clock.
func (s *Controller) SetFrequency(f physic.Frequency) error {
	s.Freqs = append(s.Freqs, f)
	return nil
}

func (s *Controller) Read32(off uint32) uint32 {
	s.reads[off]++
	switch off {
	case reg.IntrSts:
		return s.regs[off/4] &^ s.stuck
	case reg.DataPort:
		return s.readPort()
	}
	return s.regs[off/4]
}

func (s *Controller) Write32(off uint32, v uint32) {
	switch off {
	case reg.IntrSts:
		s.regs[off/4] &^= v
	case reg.Prog:
		s.trigger(v)
	case reg.DataPort:
		s.writePort(v)
	default:
		s.regs[off/4] = v
	}
}

func (s *Controller) raise(bits uint32) { s.regs[reg.IntrSts/4] |= bits }

func (s *Controller) nvddr() bool {
	return reg.DecodeDataIntf(s.regs[reg.DataIntf/4]).NVDDR
}

func (s *Controller) trigger(prog uint32) {
	cmd := reg.DecodeCmd(s.regs[reg.Cmd/4])
	pkt := reg.DecodePacket(s.regs[reg.Packet/4])
	a1 := s.regs[reg.MemAddr1/4]
	a2 := reg.DecodeAddr2(s.regs[reg.MemAddr2/4])
	addr := uint64(a2.Page)<<32 | uint64(a1)
	target := int(a2.Chip)
	col, row := uint32(addr&0xFFFF), uint32(addr>>16)
	if prog&reg.ProgBlockErase != 0 {
		col, row = 0, uint32(addr) // row cycles only
	}

	var d *die
	if target < len(s.dies) {
		d = s.dies[target]
	}
	if prog != reg.ProgReadStatus {
		s.History = append(s.History, Op{Prog: prog, Cmd1: cmd.Cmd1, Target: target, Row: row, Col: col, Packet: pkt})
	}

	switch {
	case prog&reg.ProgReset != 0:
		if d != nil {
			d.reset()
		}
		s.raise(reg.IntrTransComp)

	case prog&reg.ProgReadStatus != 0:
		var st onfi.Status
		if d != nil {
			st = d.status()
		}
		s.regs[reg.FlashSts/4] = uint32(st)
		s.raise(reg.IntrTransComp)

	case prog&reg.ProgReadID != 0:
		id := make([]byte, 8)
		if d != nil {
			switch uint8(col) {
			case onfi.ReadIDAddrONFI:
				if d.onfi {
					copy(id, "ONFI")
				}
			case onfi.ReadIDAddrJEDEC:
				copy(id, s.opts.JEDECID[:])
			}
		}
		s.startRead(cmd, pkt, id)

	case prog&reg.ProgReadParamPage != 0:
		var data []byte
		if d != nil {
			d.reg = d.paramRaw
			data = d.reg
		}
		s.startRead(cmd, pkt, data)

	case prog&reg.ProgRead != 0:
		var data []byte
		if d != nil {
			if cmd.Cmd1 == onfi.CmdRead1 {
				d.reg = append(d.reg[:0:0], d.page(row)...)
			}
			if int(col) < len(d.reg) {
				data = d.reg[col:]
			}
		}
		s.startRead(cmd, pkt, data)
		if d != nil && cmd.ECC && cmd.Cmd1 == onfi.CmdRead1 {
			s.eccStatus(target, row)
		}

	case prog&reg.ProgPageProgram != 0:
		if d == nil {
			s.raise(reg.IntrTransComp)
			return
		}
		d.reg = make([]byte, d.pageLen)
		for i := range d.reg {
			d.reg[i] = 0xFF
		}
		confirm := prog&reg.ProgChangeRowAddr == 0
		s.startWrite(cmd, pkt, func(b []byte) {
			copy(d.reg[col:], b)
			if cmd.ECC {
				s.fillECC(d)
			}
			if confirm {
				s.commit(d, row)
				return
			}
			d.open, d.openRow = true, row
		})

	case prog&reg.ProgChangeRowAddrE != 0:
		if d == nil || !d.open {
			s.raise(reg.IntrTransComp | reg.IntrErr)
			return
		}
		s.startWrite(cmd, pkt, func(b []byte) {
			copy(d.reg[col:], b)
			d.open = false
			s.commit(d, d.openRow)
		})

	case prog&reg.ProgBlockErase != 0:
		if d != nil {
			d.erase(row)
			d.busy = s.opts.BusyPolls
			d.fail, d.failNext = d.failNext, false
		}
		s.raise(reg.IntrTransComp)

	case prog&reg.ProgGetFeatures != 0:
		var p [4]byte
		if d != nil {
			p = d.features[uint8(col)]
		}
		s.startRead(cmd, pkt, s.featureBytes(p))

	case prog&reg.ProgSetFeatures != 0:
		s.startWrite(cmd, pkt, func(b []byte) {
			if d != nil {
				s.setFeature(d, uint8(col), b)
			}
		})

	default:
		panic(fmt.Sprintf("nandsim: unknown PROG 0x%X", prog))
	}
}

func (s *Controller) commit(d *die, row uint32) {
	d.program(row)
	d.busy = s.opts.BusyPolls
	d.fail, d.failNext = d.failNext, false
}

// fillECC writes the ECC field of the page register. The model stores
// zeros where the controller would store the code.
func (s *Controller) fillECC(d *die) {
	e := reg.DecodeECC(s.regs[reg.ECC/4])
	end := min(int(e.Addr)+int(e.Size), len(d.reg))
	for i := int(e.Addr); i < end; i++ {
		d.reg[i] = 0
	}
}

func (s *Controller) eccStatus(target int, row uint32) {
	switch s.ecc[uint64(target)<<32|uint64(row)] {
	case ECCCorrectable:
		s.regs[reg.ECCErrCnt/4] = 1
		s.raise(reg.IntrErr)
	case ECCUncorrectable:
		s.raise(reg.IntrMulBitErr)
	}
}

func (s *Controller) featureBytes(p [4]byte) []byte {
	if !s.nvddr() {
		return p[:]
	}
	b := make([]byte, 8)
	for i, v := range p {
		b[2*i], b[2*i+1] = v, v
	}
	return b
}

func (s *Controller) setFeature(d *die, addr uint8, b []byte) {
	step := 1
	if s.nvddr() {
		step = 2
	}
	var p [4]byte
	for i := range p {
		if i*step < len(b) {
			p[i] = b[i*step]
		}
	}
	switch addr {
	case onfi.FeatureTimingMode:
		if s.opts.IgnoreTiming {
			return
		}
	case onfi.FeatureMicronArray:
		if !s.opts.OnDieECC {
			return
		}
	}
	d.features[addr] = p
}

// transfer is a packetized data phase in progress.
type transfer struct {
	in          bool
	size, count uint32
	done        uint32
	off         uint32 // byte offset in the current packet
	data        []byte
	finish      func([]byte)
}

func (s *Controller) dmaOn(cmd reg.CmdReg) bool { return cmd.DMA == reg.DMAMDMA }

func (s *Controller) startRead(cmd reg.CmdReg, pkt reg.PacketReg, data []byte) {
	n := pkt.Size * pkt.Count
	buf := make([]byte, n)
	copy(buf, data)
	if s.dmaOn(cmd) {
		copy(s.dmaMem(n), buf)
		s.raise(reg.IntrTransComp | reg.IntrDMA)
		return
	}
	s.x = &transfer{in: true, size: pkt.Size, count: pkt.Count, data: buf}
	s.raise(reg.IntrBuffRdReady)
}

func (s *Controller) startWrite(cmd reg.CmdReg, pkt reg.PacketReg, finish func([]byte)) {
	n := pkt.Size * pkt.Count
	if s.dmaOn(cmd) {
		finish(append([]byte(nil), s.dmaMem(n)...))
		s.raise(reg.IntrTransComp | reg.IntrDMA)
		return
	}
	s.x = &transfer{size: pkt.Size, count: pkt.Count, data: make([]byte, 0, n), finish: finish}
	s.raise(reg.IntrBuffWrReady)
}

// advance moves the data phase by one word and raises the next status.
func (s *Controller) advance() {
	x := s.x
	x.off += 4
	if x.off < x.size {
		return
	}
	x.off = 0
	x.done++
	switch {
	case x.done < x.count && x.in:
		s.raise(reg.IntrBuffRdReady)
	case x.done < x.count:
		s.raise(reg.IntrBuffWrReady)
	default:
		s.x = nil
		if !x.in {
			x.finish(x.data)
		}
		s.raise(reg.IntrTransComp)
	}
}

func (s *Controller) readPort() uint32 {
	x := s.x
	if x == nil || !x.in {
		return 0
	}
	start := x.done*x.size + x.off
	end := min(start+4, (x.done+1)*x.size)
	var w [4]byte
	copy(w[:], x.data[start:end])
	s.advance()
	return binary.LittleEndian.Uint32(w[:])
}

func (s *Controller) writePort(v uint32) {
	x := s.x
	if x == nil || x.in {
		return
	}
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], v)
	x.data = append(x.data, w[:min(4, x.size-x.off)]...)
	s.advance()
}
