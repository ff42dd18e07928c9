// Package onfi holds the device side of the Open NAND Flash Interface: command
// opcodes, the parameter page layouts and their CRC, and the status byte.
//
// [ONFI-4.0|5 Command Definition]
package onfi

// Command opcodes.
//   - [ONFI-4.0|Table 90: Command set]
const (
	CmdRead1           = 0x00
	CmdRead2           = 0x30
	CmdChangeReadCol1  = 0x05
	CmdChangeReadCol2  = 0xE0
	CmdBlockErase1     = 0x60
	CmdBlockErase2     = 0xD0
	CmdReadStatus      = 0x70
	CmdPageProgram1    = 0x80
	CmdPageProgram2    = 0x10
	CmdChangeWriteCol  = 0x85
	CmdReadID          = 0x90
	CmdReadParamPage   = 0xEC
	CmdReset           = 0xFF
	CmdGetFeatures     = 0xEE
	CmdSetFeatures     = 0xEF
	CmdInvalid         = 0x00
	ReadIDAddrCycles   = 1
	ParamPageAddrCycle = 1
)

// Read ID addresses.
const (
	ReadIDAddrJEDEC = 0x00
	ReadIDAddrONFI  = 0x20

	SignatureLen = 4
)

// Feature addresses.
//   - [ONFI-4.0|Table 132: Feature Addresses]
const (
	FeatureTimingMode = 0x01

	// FeatureMicronArray is the vendor "array operation mode" address used
	// to switch on-die ECC on Micron parts.
	FeatureMicronArray = 0x90
	MicronOnDieECC     = 0x08
)

// IsONFI reports whether a Read ID response at ReadIDAddrONFI carries the
// ONFI signature.
func IsONFI(id []byte) bool {
	return len(id) >= SignatureLen && string(id[:SignatureLen]) == "ONFI"
}
