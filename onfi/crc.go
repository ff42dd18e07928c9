package onfi

import "github.com/snksoft/crc"

// [ONFI-4.0|5.7.1.35 Integrity CRC]
// x^16 + x^15 + x^2 + 1, seeded with 0x4F4E, no reflection or final XOR.
var crcTable = crc.NewTable(&crc.Parameters{
	Width:      16,
	Polynomial: 0x8005,
	Init:       0x4F4E,
})

// CRC16 computes the parameter page integrity CRC over data.
func CRC16(data []byte) uint16 {
	h := crc.NewHashWithTable(crcTable)
	h.Update(data)
	return h.CRC16()
}
