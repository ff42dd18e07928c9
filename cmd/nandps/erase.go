package main

import (
	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase a device range or a single block",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		f := cmd.Flags()
		c := openController()
		if f.Changed("block") {
			target, _ := f.GetInt("target")
			block, _ := f.GetUint32("block")
			if err := c.EraseBlock(target, block); err != nil {
				fatalf("erase failed: %v", err)
			}
			return
		}
		off, _ := f.GetString("offset")
		length, _ := f.GetString("length")
		if length == "" {
			fatalUsage("--length or --block is required")
		}
		if err := c.Erase(parseUint(off), parseUint(length)); err != nil {
			fatalf("erase failed: %v", err)
		}
	},
}

func init() {
	f := eraseCmd.Flags()
	f.String("offset", "0", "device offset")
	f.String("length", "", "number of bytes")
	f.Int("target", 0, "target of --block")
	f.Uint32("block", 0, "erase one block of --target, bad or not")
	rootCmd.AddCommand(eraseCmd)
}
