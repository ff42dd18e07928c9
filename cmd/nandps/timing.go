package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gentam/nandps"
)

var timingCmd = &cobra.Command{
	Use:   "timing <sdr|nvddr> <mode>",
	Short: "Change the data interface and timing mode",
	Long: `Change the data interface and timing mode of every target and of the
controller. The new mode lasts until the next reset of the device, so it only
matters for commands run in the same process (see --sim).`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var intf nandps.Interface
		switch strings.ToLower(args[0]) {
		case "sdr":
			intf = nandps.SDR
		case "nvddr", "nv-ddr":
			intf = nandps.NVDDR
		default:
			fatalUsage("unknown interface %q", args[0])
		}
		mode := parseUint(args[1])
		if mode > 5 {
			fatalUsage("timing mode %d out of range", mode)
		}

		c := openController()
		if err := c.ChangeTimingMode(intf, uint8(mode)); err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(timingCmd)
}
