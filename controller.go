package nandps

import (
	"fmt"
	"log/slog"

	"github.com/rs/xid"
	"periph.io/x/conn/v3/gpio"

	"github.com/gentam/nandps/onfi"
)

const (
	// MaxTargets is the number of chip selects of the controller.
	MaxTargets = 2

	DefaultPollBudget = 1_000_000
)

// TransferMode selects how page data moves between memory and the
// controller buffer.
type TransferMode int

const (
	PIO TransferMode = iota // packet by packet through the data port
	DMA                     // controller master DMA
)

func (m TransferMode) String() string {
	if m == DMA {
		return "DMA"
	}
	return "PIO"
}

// ECCMode tells who corrects bit errors.
type ECCMode int

const (
	ECCNone        ECCMode = iota
	ECCHardware            // controller Hamming/BCH engine
	ECCOnDie               // inside the NAND die
	ECCPassthrough         // EZ-NAND: the device controller corrects
)

func (m ECCMode) String() string {
	switch m {
	case ECCHardware:
		return "hardware"
	case ECCOnDie:
		return "on-die"
	case ECCPassthrough:
		return "ez-nand"
	}
	return "none"
}

// Interface is the ONFI data interface class.
type Interface int

const (
	SDR Interface = iota
	NVDDR
)

func (i Interface) String() string {
	if i == NVDDR {
		return "NV-DDR"
	}
	return "SDR"
}

// Config holds the controller options. The zero value is usable: PIO
// transfers, two chip selects, the default poll budget and no logging.
type Config struct {
	// MaxTargets caps the chip selects probed during discovery.
	MaxTargets int

	// PollBudget is how many times a status register is read before an
	// operation is declared timed out.
	PollBudget int

	// Emulated disables the ECC engine and multi-chip discovery, for
	// emulators that do not model them.
	Emulated bool

	// DMA enables DMA transfers through buffers from this allocator.
	DMA Allocator
	// DMA64 writes the high DMA address register.
	DMA64 bool
	Cache Cache

	// BadBlocks is consulted before every block access. Nil selects a
	// MarkerTable.
	BadBlocks BadBlockTable

	// Clock is reprogrammed on timing mode changes when set.
	Clock Clock

	// WriteProtect drives WP#. It is released only for program and erase.
	WriteProtect gpio.PinOut

	Logger *slog.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxTargets <= 0 || cfg.MaxTargets > MaxTargets {
		cfg.MaxTargets = MaxTargets
	}
	if cfg.PollBudget <= 0 {
		cfg.PollBudget = DefaultPollBudget
	}
	if cfg.Cache == nil {
		cfg.Cache = coherent{}
	}
	if cfg.BadBlocks == nil {
		cfg.BadBlocks = &MarkerTable{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// Geometry is the device layout read from the parameter page of target 0.
// All targets are assumed identical.
type Geometry struct {
	BytesPerPage      uint32
	SpareBytesPerPage uint32
	PagesPerBlock     uint32
	BlocksPerLUN      uint32
	NumLUNs           uint32
	RowAddrCycles     uint8
	ColAddrCycles     uint8
	BitsPerCell       uint8
	ECCBits           uint8
	ECCCodewordExp    uint8

	BlockSize       uint32
	NumTargetBlocks uint32
	NumTargetPages  uint32
	TargetSize      uint64

	NumTargets uint32
	NumBlocks  uint32
	NumPages   uint32
	DeviceSize uint64
}

// Features are the optional capabilities of the device.
type Features struct {
	BusWidth16   bool
	NVDDR        bool
	OnDieECC     bool
	EZNAND       bool
	ExtParamPage bool
}

// ECCConfig is the layout selected for the controller ECC engine.
type ECCConfig struct {
	CodewordExp uint8
	Addr        uint32 // offset of the ECC field from the start of the page
	Size        uint32
	Bits        uint8
	BCH         bool
}

// Controller drives one NAND flash controller. It is not safe for
// concurrent use.
type Controller struct {
	bus Bus
	cfg Config
	log *slog.Logger
	op  *slog.Logger // logger of the running public operation

	xfer   TransferMode
	ecc    ECCMode
	intf   Interface
	timing uint8

	geo      Geometry
	feat     Features
	eccCfg   ECCConfig
	eccFound bool
	param    *onfi.ParamPage
	jedecID  [2]byte

	scratch   []byte
	dmaBuf    DMABuffer
	corrected uint64
	ready     bool
}

// New discovers the devices behind the controller, configures ECC and scans
// for bad blocks.
func New(bus Bus, cfg Config) (*Controller, error) {
	c := &Controller{
		bus:  bus,
		cfg:  cfg.withDefaults(),
		xfer: PIO,
		intf: SDR,
	}
	c.log = c.cfg.Logger
	c.op = c.log
	if c.cfg.WriteProtect != nil {
		if err := c.cfg.WriteProtect.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("write protect: %w", err)
		}
	}
	c.ready = true

	if err := c.flashInit(); err != nil {
		return nil, err
	}

	switch {
	case c.feat.EZNAND:
		c.ecc = ECCPassthrough
	case c.feat.OnDieECC:
		c.ecc = ECCOnDie
	case c.eccFound:
		c.ecc = ECCHardware
	default:
		c.ecc = ECCNone
	}
	if c.cfg.Emulated {
		c.ecc = ECCNone
	}

	// Discovery runs in PIO mode; the DMA buffer is sized from the geometry.
	c.scratch = make([]byte, c.geo.BytesPerPage)
	if c.cfg.DMA != nil {
		buf, err := c.cfg.DMA.Alloc(int(c.geo.BytesPerPage + c.geo.SpareBytesPerPage))
		if err != nil {
			return nil, fmt.Errorf("allocate DMA buffer: %w", err)
		}
		c.dmaBuf = buf
		c.xfer = DMA
	}

	c.cfg.BadBlocks.InitDesc(c.geo)
	if !c.cfg.Emulated {
		if err := c.cfg.BadBlocks.Scan(c); err != nil {
			return nil, fmt.Errorf("bad block scan: %w", err)
		}
	}

	c.log.Info("controller ready",
		"targets", c.geo.NumTargets,
		"size", c.geo.DeviceSize,
		"ecc", c.ecc,
		"transfer", c.xfer)
	return c, nil
}

func (c *Controller) Geometry() Geometry     { return c.geo }
func (c *Controller) Features() Features     { return c.feat }
func (c *Controller) ECC() ECCConfig         { return c.eccCfg }
func (c *Controller) ECCMode() ECCMode       { return c.ecc }
func (c *Controller) Transfer() TransferMode { return c.xfer }

// Interface returns the current data interface and timing mode.
func (c *Controller) Interface() (Interface, uint8) { return c.intf, c.timing }

// Param returns the parameter page of target 0.
func (c *Controller) Param() *onfi.ParamPage { return c.param }

// JEDECID returns the manufacturer and device bytes of target 0.
func (c *Controller) JEDECID() [2]byte { return c.jedecID }

// CorrectedErrors returns the number of reads the BCH engine corrected.
func (c *Controller) CorrectedErrors() uint64 { return c.corrected }

func (c *Controller) ResetCorrectedErrors() { c.corrected = 0 }

// EnableDMA switches page transfers to DMA. It needs Config.DMA.
func (c *Controller) EnableDMA() error {
	if c.dmaBuf == nil {
		return ErrNoDMA
	}
	c.xfer = DMA
	return nil
}

// DisableDMA switches page transfers to PIO.
func (c *Controller) DisableDMA() { c.xfer = PIO }

// EnableECC turns the controller ECC engine on. It has no effect when no
// ECC layout fits the page size.
func (c *Controller) EnableECC() {
	if c.eccFound {
		c.ecc = ECCHardware
	}
}

// DisableECC turns all error correction off.
func (c *Controller) DisableECC() { c.ecc = ECCNone }

// begin tags the log records of one public operation with a unique id.
func (c *Controller) begin(op string, args ...any) error {
	if !c.ready {
		return ErrNotReady
	}
	c.op = c.log.With(append([]any{"op", op, "id", xid.New().String()}, args...)...)
	c.op.Debug("begin")
	return nil
}

// writable releases WP# around fn.
func (c *Controller) writable(fn func() error) (err error) {
	wp := c.cfg.WriteProtect
	if wp == nil {
		return fn()
	}
	if err = wp.Out(gpio.High); err != nil {
		return fmt.Errorf("write protect: %w", err)
	}
	defer func() {
		if wpErr := wp.Out(gpio.Low); wpErr != nil && err == nil {
			err = fmt.Errorf("write protect: %w", wpErr)
		}
	}()
	return fn()
}
