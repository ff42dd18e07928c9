// Command nandps inspects and programs NAND flash behind the Zynq
// UltraScale+ NAND controller.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	atexit.Exit(1)
}

func fatalUsage(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	atexit.Exit(2)
}

var rootCmd = &cobra.Command{
	Use:   "nandps",
	Short: "Inspect and program NAND flash through the ZynqMP NAND controller",
	Long: `nandps drives the ONFI NAND flash controller of Zynq UltraScale+ devices.
The register window is reached through /dev/mem (--base), a UIO device (--uio)
or a simulated controller (--sim). Defaults are read from NANDPS_* variables
and from a .env file in the working directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.base, "base", "", "physical address of the controller registers (env NANDPS_BASE)")
	f.StringVar(&opts.uio, "uio", "", "UIO device of the controller (env NANDPS_UIO)")
	f.BoolVar(&opts.sim, "sim", false, "use a simulated controller (env NANDPS_SIM)")
	f.IntVar(&opts.simTargets, "sim-targets", 1, "targets of the simulated controller")
	f.BoolVar(&opts.dma, "dma", false, "transfer pages with DMA")
	f.IntVar(&opts.pollBudget, "poll-budget", 0, "status reads before an operation times out (0: default)")
	f.BoolVar(&opts.noECC, "no-ecc", false, "disable error correction")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every controller operation")
}

// parseUint accepts decimal, 0x hex and 0o octal.
func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		fatalUsage("invalid number %q", s)
	}
	return v
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
