package nandps

import "errors"

var (
	// ErrTimeout means a poll budget ran out. The device may still finish the
	// operation; its outcome is unknown.
	ErrTimeout = errors.New("nandps: poll timeout")

	ErrNotONFI           = errors.New("nandps: ONFI signature not found")
	ErrParamPageCRC      = errors.New("nandps: no parameter page copy with a valid CRC")
	ErrExtParamPage      = errors.New("nandps: invalid extended parameter page")
	ErrFeatureMismatch   = errors.New("nandps: feature readback mismatch")
	ErrProgramFailed     = errors.New("nandps: program failed")
	ErrEraseFailed       = errors.New("nandps: erase failed")
	ErrUncorrectable     = errors.New("nandps: uncorrectable ECC error")
	ErrOutOfRange        = errors.New("nandps: offset or length out of range")
	ErrNoSpareRoom       = errors.New("nandps: no spare bytes outside the ECC field")
	ErrUnsupportedTiming = errors.New("nandps: unsupported timing mode transition")
	ErrNotReady          = errors.New("nandps: controller not initialized")
	ErrNoDMA             = errors.New("nandps: no DMA allocator configured")
)
