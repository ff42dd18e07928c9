package nandps_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/internal/reg"
	"github.com/gentam/nandps/nandsim"
)

const spareSize = 64

var _ = Describe("Spare area", func() {
	var (
		sim *nandsim.Controller
		c   *nandps.Controller
		buf []byte
	)

	BeforeEach(func() {
		sim, c = newController(nandsim.Options{Targets: 2}, nandps.Config{})
		buf = pattern(spareSize, 0x40)
	})

	It("should keep clear of the ECC field", func() {
		Expect(c.WriteSpareBytes(5, buf)).To(Succeed())

		// ECC field at 2086: 38 bytes before it, rounded down to words
		want := append(append([]byte(nil), buf[:36]...), erased(spareSize-36)...)
		Expect(sim.Page(0, 5)[pageSize:]).To(Equal(want))

		got := make([]byte, spareSize)
		Expect(c.ReadSpareBytes(5, got)).To(Succeed())
		Expect(got).To(Equal(want))
	})

	It("should write the whole spare area without ECC", func() {
		c.DisableECC()
		Expect(c.WriteSpareBytes(5, buf)).To(Succeed())
		Expect(sim.Page(0, 5)[pageSize:]).To(Equal(buf))
	})

	It("should write around an ECC field in the middle of the spare area", func() {
		c.SetECCLayout(pageSize+16, 26)
		sim.ResetCounters()
		Expect(c.WriteSpareBytes(7, buf)).To(Succeed())

		var progs []uint32
		for _, op := range sim.History {
			progs = append(progs, op.Prog)
		}
		Expect(progs).To(Equal([]uint32{
			reg.ProgPageProgram | reg.ProgChangeRowAddr,
			reg.ProgChangeRowAddrE,
		}))

		spare := sim.Page(0, 7)[pageSize:]
		Expect(spare[:16]).To(Equal(buf[:16]))
		Expect(spare[16:42]).To(Equal(erased(26)))
		Expect(spare[42:62]).To(Equal(buf[42:62]))
		Expect(spare[62:]).To(Equal(erased(2)))
	})

	It("should refuse when only the ECC field is left", func() {
		c.SetECCLayout(pageSize, spareSize)
		Expect(c.WriteSpareBytes(0, buf)).To(MatchError(nandps.ErrNoSpareRoom))
	})

	It("should address pages of the second target", func() {
		c.DisableECC()
		Expect(c.WriteSpareBytes(128+3, buf)).To(Succeed())
		Expect(sim.Page(1, 3)[pageSize:]).To(Equal(buf))
		Expect(sim.Page(0, 3)[pageSize:]).To(Equal(erased(spareSize)))
	})

	It("should report the device page of a failed program", func() {
		sim.FailNext(1)
		err := c.WriteSpareBytes(128+3, buf)
		Expect(err).To(MatchError(nandps.ErrProgramFailed))
		Expect(err.Error()).To(HavePrefix("write spare page 131:"))
	})

	It("should check its arguments", func() {
		Expect(c.WriteSpareBytes(c.Geometry().NumPages, buf)).To(MatchError(nandps.ErrOutOfRange))
		Expect(c.ReadSpareBytes(0, buf[:10])).To(MatchError(nandps.ErrOutOfRange))
	})
})
