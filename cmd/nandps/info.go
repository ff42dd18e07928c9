package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the device geometry, features and ECC layout",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := openController()
		p := c.Param()
		g := c.Geometry()
		f := c.Features()
		e := c.ECC()
		intf, mode := c.Interface()

		fmt.Printf("Manufacturer:    %s\n", p.Manufacturer)
		fmt.Printf("Model:           %s\n", p.Model)
		fmt.Printf("JEDEC ID:        % X\n", c.JEDECID())
		fmt.Printf("Targets:         %d\n", g.NumTargets)
		fmt.Printf("Page:            %d + %d bytes\n", g.BytesPerPage, g.SpareBytesPerPage)
		fmt.Printf("Block:           %d pages\n", g.PagesPerBlock)
		fmt.Printf("Blocks:          %d per target\n", g.NumTargetBlocks)
		fmt.Printf("Size:            %d bytes\n", g.DeviceSize)
		fmt.Printf("Address cycles:  %d row, %d column\n", g.RowAddrCycles, g.ColAddrCycles)
		fmt.Printf("Bus width:       %s\n", map[bool]string{false: "8", true: "16"}[f.BusWidth16])
		fmt.Printf("NV-DDR:          %t\n", f.NVDDR)
		fmt.Printf("Interface:       %s mode %d\n", intf, mode)
		fmt.Printf("ECC required:    %d bits per %d bytes\n", g.ECCBits, 1<<g.ECCCodewordExp)
		fmt.Printf("ECC mode:        %s\n", c.ECCMode())
		if e.Size > 0 {
			fmt.Printf("ECC field:       0x%X, %d bytes, %d bits, BCH %t\n", e.Addr, e.Size, e.Bits, e.BCH)
		}
		fmt.Printf("Transfer:        %s\n", c.Transfer())

		st, err := c.ReadStatus(0)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Status:          %s\n", st)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
