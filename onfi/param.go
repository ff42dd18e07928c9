package onfi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	ParamPageLen           = 256
	NumMandatoryParamPages = 3
	paramCRCLen            = 254

	// ECCBitsUnspecified in the ECC bits field means the requirement is
	// published in the extended parameter page.
	ECCBitsUnspecified = 0xFF
)

// Features word bits.
//   - [ONFI-4.0|Table 139: Parameter page definitions, bytes 6-7]
const (
	Feature16BitBus     = 1 << 0
	FeatureMultiLUN     = 1 << 1
	FeatureNVDDR        = 1 << 5
	FeatureExtParamPage = 1 << 7
	FeatureEZNAND       = 1 << 9
)

var (
	ErrShortPage   = errors.New("onfi: short parameter page")
	ErrSignature   = errors.New("onfi: bad parameter page signature")
	ErrNoECCBlock  = errors.New("onfi: no ECC section in extended parameter page")
	ErrBadECCBlock = errors.New("onfi: invalid ECC section")
)

// ParamPage is the decoded subset of the ONFI parameter page the driver
// needs.
//
//	Offset  | Field
//	--------+---------------------------------------------
//	0-3     | Signature "ONFI"
//	4-5     | Revision number
//	6-7     | Features supported
//	8-9     | Optional commands supported
//	12-13   | Extended parameter page length (16-byte units)
//	14      | Number of parameter pages
//	32-43   | Device manufacturer (ASCII, space padded)
//	44-63   | Device model (ASCII, space padded)
//	64      | JEDEC manufacturer ID
//	65-66   | Date code
//	80-83   | Data bytes per page
//	84-85   | Spare bytes per page
//	92-95   | Pages per block
//	96-99   | Blocks per LUN
//	100     | Number of LUNs
//	101     | Address cycles: row [3:0], column [7:4]
//	102     | Bits per cell
//	103-104 | Bad blocks maximum per LUN
//	105-106 | Block endurance
//	112     | Bits of ECC correctability
//	129-130 | SDR timing mode support
//	141     | NV-DDR timing mode support
//	254-255 | Integrity CRC
type ParamPage struct {
	Signature        [4]byte
	Revision         uint16
	Features         uint16
	OptionalCommands uint16
	ExtParamPageLen  uint16
	NumParamPages    uint8

	Manufacturer string
	Model        string
	JEDECID      uint8
	DateCode     uint16

	BytesPerPage       uint32
	SpareBytesPerPage  uint16
	PagesPerBlock      uint32
	BlocksPerLUN       uint32
	NumLUNs            uint8
	AddrCycles         uint8
	BitsPerCell        uint8
	MaxBadBlocksPerLUN uint16
	BlockEndurance     uint16
	ECCBits            uint8

	SDRTimingModes   uint16
	NVDDRTimingModes uint8

	CRC uint16
}

// RowAddrCycles returns the number of row address cycles.
func (p *ParamPage) RowAddrCycles() uint8 { return p.AddrCycles & 0xF }

// ColAddrCycles returns the number of column address cycles.
func (p *ParamPage) ColAddrCycles() uint8 { return p.AddrCycles >> 4 & 0xF }

func (p *ParamPage) Has(feature uint16) bool { return p.Features&feature != 0 }

// ExtLen returns the extended parameter page length in bytes.
func (p *ParamPage) ExtLen() int { return int(p.ExtParamPageLen) * 16 }

// ParamPageValid reports whether b starts with a parameter page copy whose
// CRC matches.
func ParamPageValid(b []byte) bool {
	if len(b) < ParamPageLen {
		return false
	}
	return CRC16(b[:paramCRCLen]) == binary.LittleEndian.Uint16(b[paramCRCLen:])
}

// ParseParamPage decodes one parameter page copy. The CRC is decoded but not
// checked, see ParamPageValid.
func ParseParamPage(b []byte) (*ParamPage, error) {
	if len(b) < ParamPageLen {
		return nil, ErrShortPage
	}
	le := binary.LittleEndian
	p := &ParamPage{
		Revision:         le.Uint16(b[4:]),
		Features:         le.Uint16(b[6:]),
		OptionalCommands: le.Uint16(b[8:]),
		ExtParamPageLen:  le.Uint16(b[12:]),
		NumParamPages:    b[14],

		Manufacturer: strings.TrimRight(string(b[32:44]), " \x00"),
		Model:        strings.TrimRight(string(b[44:64]), " \x00"),
		JEDECID:      b[64],
		DateCode:     le.Uint16(b[65:]),

		BytesPerPage:       le.Uint32(b[80:]),
		SpareBytesPerPage:  le.Uint16(b[84:]),
		PagesPerBlock:      le.Uint32(b[92:]),
		BlocksPerLUN:       le.Uint32(b[96:]),
		NumLUNs:            b[100],
		AddrCycles:         b[101],
		BitsPerCell:        b[102],
		MaxBadBlocksPerLUN: le.Uint16(b[103:]),
		BlockEndurance:     le.Uint16(b[105:]),
		ECCBits:            b[112],

		SDRTimingModes:   le.Uint16(b[129:]),
		NVDDRTimingModes: b[141],

		CRC: le.Uint16(b[paramCRCLen:]),
	}
	copy(p.Signature[:], b[:4])
	if string(p.Signature[:]) != "ONFI" {
		return p, ErrSignature
	}
	return p, nil
}

// MarshalBinary encodes the page and fills in its CRC.
func (p *ParamPage) MarshalBinary() ([]byte, error) {
	if len(p.Manufacturer) > 12 || len(p.Model) > 20 {
		return nil, fmt.Errorf("onfi: manufacturer %q or model %q too long", p.Manufacturer, p.Model)
	}
	b := make([]byte, ParamPageLen)
	le := binary.LittleEndian
	copy(b, "ONFI")
	le.PutUint16(b[4:], p.Revision)
	le.PutUint16(b[6:], p.Features)
	le.PutUint16(b[8:], p.OptionalCommands)
	le.PutUint16(b[12:], p.ExtParamPageLen)
	b[14] = p.NumParamPages
	copy(b[32:44], fmt.Sprintf("%-12s", p.Manufacturer))
	copy(b[44:64], fmt.Sprintf("%-20s", p.Model))
	b[64] = p.JEDECID
	le.PutUint16(b[65:], p.DateCode)
	le.PutUint32(b[80:], p.BytesPerPage)
	le.PutUint16(b[84:], p.SpareBytesPerPage)
	le.PutUint32(b[92:], p.PagesPerBlock)
	le.PutUint32(b[96:], p.BlocksPerLUN)
	b[100] = p.NumLUNs
	b[101] = p.AddrCycles
	b[102] = p.BitsPerCell
	le.PutUint16(b[103:], p.MaxBadBlocksPerLUN)
	le.PutUint16(b[105:], p.BlockEndurance)
	b[112] = p.ECCBits
	le.PutUint16(b[129:], p.SDRTimingModes)
	b[141] = p.NVDDRTimingModes

	p.CRC = CRC16(b[:paramCRCLen])
	le.PutUint16(b[paramCRCLen:], p.CRC)
	return b, nil
}

// Extended parameter page.
//   - [ONFI-4.0|5.7.2 Extended Parameter Page Data Structure Definition]
const (
	ExtSectionUnused = 0
	ExtSectionECC    = 2

	extSignatureOff = 2
	extSectionsOff  = 16
	extDataOff      = 32
	extNumSections  = 8
	extSectionUnit  = 16
)

// ExtSection is one entry of the extended page section table. Len is in
// 16-byte units.
type ExtSection struct {
	Type uint8
	Len  uint8
}

// ExtParamPage is the extended parameter page: a section table followed by
// section data.
type ExtParamPage struct {
	CRC      uint16
	Sections [extNumSections]ExtSection
	Data     []byte
}

// ECCInfo is the ECC section of the extended parameter page.
type ECCInfo struct {
	Bits         uint8
	CodewordExp  uint8 // codeword size is 1<<CodewordExp bytes
	MaxBadBlocks uint16
	Endurance    uint16
}

// ExtParamPageValid reports whether b holds an extended parameter page with
// a matching CRC. The CRC covers everything after itself.
func ExtParamPageValid(b []byte) bool {
	if len(b) < extDataOff {
		return false
	}
	return CRC16(b[extSignatureOff:]) == binary.LittleEndian.Uint16(b)
}

func ParseExtParamPage(b []byte) (*ExtParamPage, error) {
	if len(b) < extDataOff {
		return nil, ErrShortPage
	}
	if string(b[extSignatureOff:extSignatureOff+4]) != "EPPS" {
		return nil, ErrSignature
	}
	e := &ExtParamPage{
		CRC:  binary.LittleEndian.Uint16(b),
		Data: b[extDataOff:],
	}
	for i := range e.Sections {
		e.Sections[i] = ExtSection{
			Type: b[extSectionsOff+2*i],
			Len:  b[extSectionsOff+2*i+1],
		}
	}
	return e, nil
}

// ECC returns the ECC section: section 0 if it has the ECC type, otherwise
// section 1.
func (e *ExtParamPage) ECC() (ECCInfo, error) {
	off := 0
	switch {
	case e.Sections[0].Type == ExtSectionECC:
	case e.Sections[1].Type == ExtSectionECC:
		off = int(e.Sections[0].Len) * extSectionUnit
	default:
		return ECCInfo{}, ErrNoECCBlock
	}
	if off+6 > len(e.Data) {
		return ECCInfo{}, ErrShortPage
	}
	d := e.Data[off:]
	info := ECCInfo{
		Bits:         d[0],
		CodewordExp:  d[1],
		MaxBadBlocks: binary.LittleEndian.Uint16(d[2:]),
		Endurance:    binary.LittleEndian.Uint16(d[4:]),
	}
	if info.CodewordExp == 0 {
		return info, ErrBadECCBlock
	}
	return info, nil
}

// MarshalBinary encodes the page and fills in its CRC. The result is padded
// to a multiple of 16 bytes.
func (e *ExtParamPage) MarshalBinary() ([]byte, error) {
	n := extDataOff + len(e.Data)
	n = (n + extSectionUnit - 1) / extSectionUnit * extSectionUnit
	b := make([]byte, n)
	copy(b[extSignatureOff:], "EPPS")
	for i, s := range e.Sections {
		b[extSectionsOff+2*i] = s.Type
		b[extSectionsOff+2*i+1] = s.Len
	}
	copy(b[extDataOff:], e.Data)
	e.CRC = CRC16(b[extSignatureOff:])
	binary.LittleEndian.PutUint16(b, e.CRC)
	return b, nil
}
