package onfi

import (
	"fmt"
	"strings"
)

// Status is the byte returned by Read Status (70h).
//
//	Bits| [ONFI-4.0|Table 146: Status Register definition]
//	----+---------------------------------------------------
//	7   | WP#: write protect (0 = protected)
//	6   | RDY: ready for another command
//	5   | ARDY: array operation complete
//	4   | Reserved
//	3   | CSP: command specific
//	2   | Reserved
//	1   | FAILC: previous cached operation failed
//	0   | FAIL: last operation failed
type Status uint8

func (s Status) WriteProtected() bool { return s&(1<<7) == 0 }
func (s Status) Ready() bool          { return s&(1<<6) != 0 }
func (s Status) ArrayReady() bool     { return s&(1<<5) != 0 }
func (s Status) FailCached() bool     { return s&(1<<1) != 0 }
func (s Status) Fail() bool           { return s&(1<<0) != 0 }

func (s Status) String() string {
	b := fmt.Sprintf("%08b", uint8(s))
	f := []string{}
	if s.WriteProtected() {
		f = append(f, "WP")
	}
	if s.Ready() {
		f = append(f, "RDY")
	}
	if s.ArrayReady() {
		f = append(f, "ARDY")
	}
	if s.FailCached() {
		f = append(f, "FAILC")
	}
	if s.Fail() {
		f = append(f, "FAIL")
	}
	if len(f) == 0 {
		return b
	}
	return b + " " + strings.Join(f, ",")
}
