// Package nandps drives the ONFI NAND flash controller of Zynq UltraScale+
// devices through its memory mapped register window.
//
// New resets every chip select, reads the ONFI parameter pages, selects an
// ECC layout and scans for bad blocks. Read, Write and Erase then work on
// byte offsets of the whole device and skip bad blocks. All completion is
// polled; Config.PollBudget bounds every wait.
//
// # References:
//
// ONFI (https://onfi.org/specs.html)
//   - [ONFI-4.0]: Open NAND Flash Interface Specification Revision 4.0 (https://onfi.org/files/onfi_4_0-gold.pdf)
//
// Controller
//   - [ZynqMP-TRM]: Zynq UltraScale+ Device Technical Reference Manual UG1085 (https://docs.amd.com/r/en-US/ug1085-zynq-ultrascale-trm)
//
// NAND Flash
//   - [MT29F4G08]: Micron MT29F4G08ABADAWP NAND Flash Memory datasheet (could not find the official public URL)
//   - [Micron TN-29-45]: Micron On-Die ECC technical note (could not find the official public URL)
package nandps
