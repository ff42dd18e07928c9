package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the main area, skipping bad blocks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		off, _ := cmd.Flags().GetString("offset")
		n, _ := cmd.Flags().GetInt("length")
		outFile, _ := cmd.Flags().GetString("output")
		if n <= 0 {
			fatalUsage("--length must be positive")
		}

		c := openController()
		data := make([]byte, n)
		if err := c.Read(parseUint(off), data); err != nil {
			fatalf("read flash failed: %v", err)
		}
		if outFile == "" {
			fmt.Print(hex.Dump(data))
			return
		}
		if err := os.WriteFile(outFile, data, 0644); err != nil {
			fatalf("write file failed: %v", err)
		}
	},
}

func init() {
	readCmd.Flags().String("offset", "0", "device offset")
	readCmd.Flags().IntP("length", "n", 256, "number of bytes to read")
	readCmd.Flags().StringP("output", "o", "", "output file (default: hexdump)")
	rootCmd.AddCommand(readCmd)
}
