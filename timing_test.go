package nandps_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"periph.io/x/conn/v3/physic"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/nandsim"
	"github.com/gentam/nandps/onfi"
)

var _ = Describe("ChangeTimingMode", func() {
	var (
		ctrl  *gomock.Controller
		clock *MockClock
		sim   *nandsim.Controller
		c     *nandps.Controller
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		clock = NewMockClock(ctrl)
		sim, c = newController(nandsim.Options{Targets: 2}, nandps.Config{Clock: clock})
	})

	expectInterface := func(intf nandps.Interface, mode uint8) {
		gotIntf, gotMode := c.Interface()
		Expect(gotIntf).To(Equal(intf))
		Expect(gotMode).To(Equal(mode))
		Expect(reg.DecodeDataIntf(sim.Reg(reg.DataIntf))).To(Equal(reg.DataIntfReg{
			NVDDR: intf == nandps.NVDDR,
			Mode:  mode,
		}))
	}

	It("should change SDR modes without touching the clock", func() {
		Expect(c.ChangeTimingMode(nandps.SDR, 4)).To(Succeed())
		expectInterface(nandps.SDR, 4)
		Expect(sim.Feature(0, onfi.FeatureTimingMode)).To(Equal([4]byte{0x04}))
		Expect(sim.Feature(1, onfi.FeatureTimingMode)).To(Equal([4]byte{0x04}))
	})

	It("should move to NV-DDR and back to SDR", func() {
		gomock.InOrder(
			clock.EXPECT().SetFrequency(66*physic.MegaHertz),
			clock.EXPECT().SetFrequency(100*physic.MegaHertz),
			clock.EXPECT().SetFrequency(100*physic.MegaHertz),
		)

		Expect(c.ChangeTimingMode(nandps.NVDDR, 3)).To(Succeed())
		expectInterface(nandps.NVDDR, 3)
		Expect(sim.Feature(1, onfi.FeatureTimingMode)).To(Equal([4]byte{0x13}))

		Expect(c.ChangeTimingMode(nandps.NVDDR, 5)).To(Succeed())
		expectInterface(nandps.NVDDR, 5)
		Expect(sim.Feature(0, onfi.FeatureTimingMode)).To(Equal([4]byte{0x15}))

		data := pattern(pageSize, 0x21)
		Expect(c.Write(0, data)).To(Succeed())
		got := make([]byte, pageSize)
		Expect(c.Read(0, got)).To(Succeed())
		Expect(got).To(Equal(data))

		Expect(c.SetFeature(0, 0x80, [4]byte{7, 8})).To(Succeed())
		Expect(sim.Feature(0, 0x80)).To(Equal([4]byte{7, 8}))
		Expect(c.GetFeature(0, 0x80)).To(Equal([4]byte{7, 8}))

		Expect(c.ChangeTimingMode(nandps.SDR, 0)).To(Succeed())
		expectInterface(nandps.SDR, 0)
		Expect(sim.Feature(0, onfi.FeatureTimingMode)).To(Equal([4]byte{}))
	})

	It("should do nothing for the current mode", func() {
		sim.ResetCounters()
		Expect(c.ChangeTimingMode(nandps.SDR, 0)).To(Succeed())
		Expect(sim.History).To(BeEmpty())
	})

	It("should reject unsupported transitions", func() {
		sim.ResetCounters()
		Expect(c.ChangeTimingMode(nandps.SDR, 6)).To(MatchError(nandps.ErrUnsupportedTiming))
		Expect(sim.History).To(BeEmpty())
		expectInterface(nandps.SDR, 0)

		clock.EXPECT().SetFrequency(gomock.Any())
		Expect(c.ChangeTimingMode(nandps.NVDDR, 0)).To(Succeed())
		sim.ResetCounters()
		Expect(c.ChangeTimingMode(nandps.SDR, 3)).To(MatchError(nandps.ErrUnsupportedTiming))
		Expect(sim.History).To(BeEmpty())
		expectInterface(nandps.NVDDR, 0)
	})

	It("should fail when the clock cannot be set", func() {
		clock.EXPECT().SetFrequency(gomock.Any()).Return(errors.New("pll unlocked"))
		Expect(c.ChangeTimingMode(nandps.NVDDR, 1)).ToNot(Succeed())
		expectInterface(nandps.SDR, 0)
	})

	It("should fail when the device ignores the new mode", func() {
		sim, c = newController(nandsim.Options{IgnoreTiming: true}, nandps.Config{})
		Expect(c.ChangeTimingMode(nandps.SDR, 2)).To(MatchError(nandps.ErrFeatureMismatch))
		expectInterface(nandps.SDR, 0)
	})
})
