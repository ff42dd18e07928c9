package main

import (
	"os"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Program a file into the main area, skipping bad blocks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		filename, _ := cmd.Flags().GetString("file")
		off, _ := cmd.Flags().GetString("offset")
		erase, _ := cmd.Flags().GetBool("erase")
		if filename == "" {
			fatalUsage("input file is required")
		}
		data, err := os.ReadFile(filename)
		if err != nil {
			fatalf("failed to open file: %v", err)
		}
		if len(data) == 0 {
			return
		}

		c := openController()
		start := parseUint(off)
		if erase {
			if err := c.Erase(start, uint64(len(data))); err != nil {
				fatalf("erase flash failed: %v", err)
			}
		}
		if err := c.Write(start, data); err != nil {
			fatalf("write flash failed: %v", err)
		}
	},
}

func init() {
	writeCmd.Flags().StringP("file", "f", "", "input file")
	writeCmd.Flags().String("offset", "0", "device offset")
	writeCmd.Flags().BoolP("erase", "e", false, "erase the blocks first")
	rootCmd.AddCommand(writeCmd)
}
