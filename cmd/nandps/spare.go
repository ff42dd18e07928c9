package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var spareCmd = &cobra.Command{
	Use:   "spare <page>",
	Short: "Dump or program the spare area of a device page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		page := uint32(parseUint(args[0]))
		filename, _ := cmd.Flags().GetString("file")

		c := openController()
		buf := make([]byte, c.Geometry().SpareBytesPerPage)
		if filename != "" {
			data, err := os.ReadFile(filename)
			if err != nil {
				fatalf("failed to open file: %v", err)
			}
			for i := range buf {
				buf[i] = 0xFF
			}
			copy(buf, data)
			if err := c.WriteSpareBytes(page, buf); err != nil {
				fatalf("%v", err)
			}
			return
		}
		if err := c.ReadSpareBytes(page, buf); err != nil {
			fatalf("%v", err)
		}
		fmt.Print(hex.Dump(buf))
	},
}

func init() {
	spareCmd.Flags().StringP("file", "f", "", "program the spare area from this file")
	rootCmd.AddCommand(spareCmd)
}
