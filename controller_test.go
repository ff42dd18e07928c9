package nandps_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/nandsim"
	"github.com/gentam/nandps/onfi"
)

// wpPin records every level driven on WP#.
type wpPin struct {
	gpiotest.Pin
	levels []gpio.Level
}

func (p *wpPin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return p.Pin.Out(l)
}

func extECC(bits, codewordExp uint8) *onfi.ExtParamPage {
	return &onfi.ExtParamPage{
		Sections: [8]onfi.ExtSection{{Type: onfi.ExtSectionECC, Len: 1}},
		Data:     []byte{bits, codewordExp, 0x14, 0x00, 0x05, 0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
}

var _ = Describe("Controller", func() {
	Context("discovery", func() {
		It("should derive the geometry from target 0", func() {
			_, c := newController(nandsim.Options{}, nandps.Config{})

			g := c.Geometry()
			Expect(g.BytesPerPage).To(Equal(uint32(2048)))
			Expect(g.SpareBytesPerPage).To(Equal(uint32(64)))
			Expect(g.PagesPerBlock).To(Equal(uint32(8)))
			Expect(g.BlockSize).To(Equal(uint32(16384)))
			Expect(g.NumTargetBlocks).To(Equal(uint32(16)))
			Expect(g.NumTargetPages).To(Equal(uint32(128)))
			Expect(g.RowAddrCycles).To(Equal(uint8(3)))
			Expect(g.ColAddrCycles).To(Equal(uint8(2)))
			Expect(g.NumTargets).To(Equal(uint32(1)))
			Expect(g.DeviceSize).To(Equal(uint64(262144)))
			Expect(c.Param().Model).To(Equal("SIM2G08"))
			Expect(c.JEDECID()).To(Equal([2]byte{0x2C, 0xDA}))
			Expect(c.Features().NVDDR).To(BeTrue())
			intf, mode := c.Interface()
			Expect(intf).To(Equal(nandps.SDR))
			Expect(mode).To(BeZero())
		})

		It("should count every populated target", func() {
			_, c := newController(nandsim.Options{Targets: 2}, nandps.Config{})

			g := c.Geometry()
			Expect(g.NumTargets).To(Equal(uint32(2)))
			Expect(g.NumBlocks).To(Equal(uint32(32)))
			Expect(g.NumPages).To(Equal(uint32(256)))
			Expect(g.DeviceSize).To(Equal(uint64(524288)))
		})

		It("should honour MaxTargets", func() {
			_, c := newController(nandsim.Options{Targets: 2}, nandps.Config{MaxTargets: 1})
			Expect(c.Geometry().NumTargets).To(Equal(uint32(1)))
		})

		It("should stop at a target whose parameter pages are all corrupt", func() {
			_, c := newController(nandsim.Options{
				Targets:       2,
				CorruptCopies: map[int]int{1: 3},
			}, nandps.Config{})
			Expect(c.Geometry().NumTargets).To(Equal(uint32(1)))
		})

		It("should stop at a target without the ONFI signature", func() {
			_, c := newController(nandsim.Options{
				Targets: 2,
				NotONFI: map[int]bool{1: true},
			}, nandps.Config{})
			Expect(c.Geometry().NumTargets).To(Equal(uint32(1)))
		})

		It("should fall back to a later parameter page copy", func() {
			_, c := newController(nandsim.Options{CorruptCopies: map[int]int{0: 2}}, nandps.Config{})
			Expect(c.Geometry().BytesPerPage).To(Equal(uint32(2048)))
		})

		It("should fail when target 0 is not ONFI", func() {
			sim := nandsim.New(nandsim.Options{NotONFI: map[int]bool{0: true}})
			_, err := nandps.New(sim, nandps.Config{})
			Expect(err).To(MatchError(nandps.ErrNotONFI))
			for _, op := range sim.History {
				Expect(op.Prog).ToNot(Equal(uint32(reg.ProgReadParamPage)))
			}
		})

		It("should fail when no parameter page copy of target 0 is valid", func() {
			sim := nandsim.New(nandsim.Options{CorruptCopies: map[int]int{0: 3}})
			_, err := nandps.New(sim, nandps.Config{})
			Expect(err).To(MatchError(nandps.ErrParamPageCRC))
		})

		It("should only probe target 0 when emulated", func() {
			ctrl := gomock.NewController(GinkgoT())
			bbt := NewMockBadBlockTable(ctrl)
			bbt.EXPECT().InitDesc(gomock.Any())

			_, c := newController(nandsim.Options{Targets: 2}, nandps.Config{
				Emulated:  true,
				BadBlocks: bbt,
			})
			Expect(c.Geometry().NumTargets).To(Equal(uint32(1)))
			Expect(c.ECCMode()).To(Equal(nandps.ECCNone))
		})
	})

	Context("ECC selection", func() {
		It("should use the controller engine when the layout fits", func() {
			sim, c := newController(nandsim.Options{}, nandps.Config{})

			Expect(c.ECCMode()).To(Equal(nandps.ECCHardware))
			Expect(c.ECC()).To(Equal(nandps.ECCConfig{
				CodewordExp: 9,
				Addr:        2048 + 64 - 0x1A,
				Size:        0x1A,
				Bits:        4,
				BCH:         true,
			}))
			e := reg.DecodeECC(sim.Reg(reg.ECC))
			Expect(e.Addr).To(Equal(uint16(2086)))
			Expect(e.BCH).To(BeTrue())
			Expect(reg.DecodeAddr2(sim.Reg(reg.MemAddr2)).BCHMode).To(Equal(reg.BCHMode(4)))
		})

		It("should take the requirement from the extended parameter page", func() {
			p := nandsim.DefaultParam()
			p.ECCBits = onfi.ECCBitsUnspecified
			p.Features |= onfi.FeatureExtParamPage
			p.ExtParamPageLen = 3
			_, c := newController(nandsim.Options{Param: p, Ext: extECC(8, 9)}, nandps.Config{})

			Expect(c.Geometry().ECCBits).To(Equal(uint8(8)))
			Expect(c.ECC().Size).To(Equal(uint32(0x34)))
			Expect(c.ECC().Addr).To(Equal(uint32(2048 + 64 - 0x34)))
		})

		It("should use 1 KiB packets for 1 KiB codewords", func() {
			p := nandsim.DefaultParam()
			p.SpareBytesPerPage = 128
			p.ECCBits = onfi.ECCBitsUnspecified
			p.Features |= onfi.FeatureExtParamPage
			p.ExtParamPageLen = 3
			sim, c := newController(nandsim.Options{Param: p, Ext: extECC(24, 10)}, nandps.Config{})
			Expect(c.ECC().CodewordExp).To(Equal(uint8(10)))

			Expect(c.Write(0, pattern(2048, 1))).To(Succeed())
			var programs []nandsim.Op
			for _, op := range sim.History {
				if op.Prog == reg.ProgPageProgram {
					programs = append(programs, op)
				}
			}
			Expect(programs).To(HaveLen(1))
			Expect(programs[0].Packet).To(Equal(reg.PacketReg{Size: 1024, Count: 2}))
		})

		It("should reject a corrupt extended parameter page", func() {
			p := nandsim.DefaultParam()
			p.ECCBits = onfi.ECCBitsUnspecified
			p.Features |= onfi.FeatureExtParamPage
			p.ExtParamPageLen = 3
			sim := nandsim.New(nandsim.Options{Param: p, Ext: extECC(8, 9), CorruptExt: true})
			_, err := nandps.New(sim, nandps.Config{})
			Expect(err).To(MatchError(nandps.ErrExtParamPage))
		})

		It("should turn ECC off when the field does not fit the spare area", func() {
			p := nandsim.DefaultParam()
			p.ECCBits = 16
			_, c := newController(nandsim.Options{Param: p}, nandps.Config{})

			Expect(c.ECCMode()).To(Equal(nandps.ECCNone))
			c.EnableECC()
			Expect(c.ECCMode()).To(Equal(nandps.ECCNone))
		})

		It("should enable on-die ECC on known parts", func() {
			sim, c := newController(nandsim.Options{OnDieECC: true}, nandps.Config{})

			Expect(c.ECCMode()).To(Equal(nandps.ECCOnDie))
			Expect(c.Features().OnDieECC).To(BeTrue())
			Expect(sim.Feature(0, onfi.FeatureMicronArray)).To(Equal([4]byte{onfi.MicronOnDieECC}))
		})

		It("should not touch the array feature of unknown parts", func() {
			sim, c := newController(nandsim.Options{JEDECID: [2]byte{0x98, 0xF1}}, nandps.Config{})

			Expect(c.ECCMode()).To(Equal(nandps.ECCHardware))
			for _, op := range sim.History {
				Expect(op.Prog).ToNot(Equal(uint32(reg.ProgSetFeatures)))
			}
		})

		It("should switch ECC off and back on", func() {
			_, c := newController(nandsim.Options{}, nandps.Config{})
			c.DisableECC()
			Expect(c.ECCMode()).To(Equal(nandps.ECCNone))
			c.EnableECC()
			Expect(c.ECCMode()).To(Equal(nandps.ECCHardware))
		})
	})

	Context("transfer mode", func() {
		It("should use PIO without an allocator", func() {
			_, c := newController(nandsim.Options{}, nandps.Config{})
			Expect(c.Transfer()).To(Equal(nandps.PIO))
			Expect(c.EnableDMA()).To(MatchError(nandps.ErrNoDMA))
		})

		It("should use DMA with an allocator", func() {
			sim := nandsim.New(nandsim.Options{})
			c, err := nandps.New(sim, nandps.Config{DMA: sim})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Transfer()).To(Equal(nandps.DMA))
			c.DisableDMA()
			Expect(c.Transfer()).To(Equal(nandps.PIO))
			Expect(c.EnableDMA()).To(Succeed())
		})
	})

	Context("bad block table", func() {
		var (
			ctrl *gomock.Controller
			bbt  *MockBadBlockTable
		)

		BeforeEach(func() {
			ctrl = gomock.NewController(GinkgoT())
			bbt = NewMockBadBlockTable(ctrl)
		})

		It("should size and scan the table once", func() {
			bbt.EXPECT().InitDesc(gomock.Any()).Do(func(g nandps.Geometry) {
				Expect(g.NumBlocks).To(Equal(uint32(16)))
			})
			bbt.EXPECT().Scan(gomock.Any()).Return(nil)
			newController(nandsim.Options{}, nandps.Config{BadBlocks: bbt})
		})

		It("should fail New when the scan fails", func() {
			bbt.EXPECT().InitDesc(gomock.Any())
			bbt.EXPECT().Scan(gomock.Any()).Return(nandps.ErrTimeout)
			_, err := nandps.New(nandsim.New(nandsim.Options{}), nandps.Config{BadBlocks: bbt})
			Expect(err).To(MatchError(nandps.ErrTimeout))
		})

		It("should find factory marked blocks", func() {
			bbt := &nandps.MarkerTable{}
			newController(nandsim.Options{Targets: 2, FactoryBad: []uint32{2, 19}}, nandps.Config{BadBlocks: bbt})
			Expect(bbt.Bad()).To(Equal([]uint32{2, 19}))
			Expect(bbt.IsBlockBad(19)).To(BeTrue())
			Expect(bbt.IsBlockBad(3)).To(BeFalse())
		})
	})

	Context("write protect", func() {
		It("should release WP# only while programming", func() {
			pin := &wpPin{Pin: gpiotest.Pin{N: "WP", L: gpio.High}}
			_, c := newController(nandsim.Options{}, nandps.Config{WriteProtect: pin})
			Expect(pin.L).To(Equal(gpio.Low))

			Expect(c.Read(0, make([]byte, 16))).To(Succeed())
			Expect(pin.levels).To(Equal([]gpio.Level{gpio.Low}))

			Expect(c.Write(0, pattern(16, 0))).To(Succeed())
			Expect(pin.levels).To(Equal([]gpio.Level{gpio.Low, gpio.High, gpio.Low}))
			Expect(pin.L).To(Equal(gpio.Low))
		})
	})

	Context("ONFI commands", func() {
		It("should read the status of a ready device", func() {
			_, c := newController(nandsim.Options{}, nandps.Config{})
			st, err := c.ReadStatus(0)
			Expect(err).ToNot(HaveOccurred())
			Expect(st.Ready()).To(BeTrue())
			Expect(st.Fail()).To(BeFalse())
			Expect(st.WriteProtected()).To(BeFalse())
		})

		It("should read the ONFI id", func() {
			_, c := newController(nandsim.Options{}, nandps.Config{})
			id, err := c.ReadID(0, onfi.ReadIDAddrONFI, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(id)).To(Equal("ONFI"))
		})

		It("should reject read id lengths the controller cannot transfer", func() {
			sim, c := newController(nandsim.Options{}, nandps.Config{})
			sim.ResetCounters()
			for _, n := range []int{-1, 0, 2049} {
				_, err := c.ReadID(0, onfi.ReadIDAddrONFI, n)
				Expect(err).To(MatchError(nandps.ErrOutOfRange))
			}
			Expect(sim.History).To(BeEmpty())
		})

		It("should set and get features", func() {
			sim, c := newController(nandsim.Options{}, nandps.Config{})
			Expect(c.SetFeature(0, 0x80, [4]byte{1, 2, 3, 4})).To(Succeed())
			Expect(sim.Feature(0, 0x80)).To(Equal([4]byte{1, 2, 3, 4}))
			Expect(c.GetFeature(0, 0x80)).To(Equal([4]byte{1, 2, 3, 4}))
		})

		It("should refuse operations on an unopened controller", func() {
			var c nandps.Controller
			Expect(c.Read(0, make([]byte, 1))).To(MatchError(nandps.ErrNotReady))
			Expect(c.ChangeTimingMode(nandps.SDR, 1)).To(MatchError(nandps.ErrNotReady))
		})
	})
})
