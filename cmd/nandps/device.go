package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/gentam/nandps"
	"github.com/gentam/nandps/mmio"
	"github.com/gentam/nandps/nandsim"
)

var opts struct {
	base       string
	uio        string
	sim        bool
	simTargets int
	dma        bool
	pollBudget int
	noECC      bool
	verbose    bool
}

// loadEnv fills flags that were not given on the command line from the
// environment and .env.
func loadEnv(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	f := cmd.Flags()
	if !f.Changed("base") {
		opts.base = os.Getenv("NANDPS_BASE")
	}
	if !f.Changed("uio") {
		opts.uio = os.Getenv("NANDPS_UIO")
	}
	if !f.Changed("sim") {
		opts.sim, _ = strconv.ParseBool(os.Getenv("NANDPS_SIM"))
	}
	return nil
}

// openController opens the controller selected by the global flags. The
// register window and DMA memory are released at exit.
func openController() *nandps.Controller {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	cfg := nandps.Config{
		PollBudget: opts.pollBudget,
		Logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}

	var bus nandps.Bus
	switch {
	case opts.sim:
		sim := nandsim.New(nandsim.Options{Targets: opts.simTargets})
		bus = sim
		cfg.Clock = sim
		if opts.dma {
			cfg.DMA = sim
		}
	case opts.uio != "":
		w, err := mmio.OpenUIO(opts.uio)
		if err != nil {
			fatalf("open %s: %v", opts.uio, err)
		}
		atexit.Register(func() { w.Close() })
		bus = w
	case opts.base != "":
		w, err := mmio.Map(parseUint(opts.base))
		if err != nil {
			fatalf("%v", err)
		}
		atexit.Register(func() { w.Close() })
		bus = w
	default:
		fatalUsage("one of --base, --uio or --sim is required")
	}
	if opts.dma && cfg.DMA == nil {
		a := &mmio.Allocator{}
		atexit.Register(func() { a.Close() })
		cfg.DMA, cfg.DMA64 = a, true
	}

	c, err := nandps.New(bus, cfg)
	if err != nil {
		fatalf("%v", err)
	}
	if opts.noECC {
		c.DisableECC()
	}
	return c
}
