package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var featureCmd = &cobra.Command{
	Use:   "feature <addr> [p1 [p2 [p3 [p4]]]]",
	Short: "Get or set an ONFI feature",
	Args:  cobra.RangeArgs(1, 5),
	Run: func(cmd *cobra.Command, args []string) {
		target, _ := cmd.Flags().GetInt("target")
		addr := parseUint(args[0])
		if addr > 0xFF {
			fatalUsage("feature address 0x%X out of range", addr)
		}

		c := openController()
		if len(args) > 1 {
			var p [4]byte
			for i, s := range args[1:] {
				p[i] = byte(parseUint(s))
			}
			if err := c.SetFeature(target, uint8(addr), p); err != nil {
				fatalf("%v", err)
			}
		}
		p, err := c.GetFeature(target, uint8(addr))
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("0x%02X: % X\n", addr, p)
	},
}

func init() {
	featureCmd.Flags().Int("target", 0, "target")
	rootCmd.AddCommand(featureCmd)
}
