package kernel

// errors.go collects the sentinel errors shared across subsystems, in the
// teacher's errors.New-plus-%w-wrapping idiom (see internal/vm/mem.go).

import "errors"

func errOf(msg string) error { return errors.New(msg) }

var (
	ErrNoSuchProcess = errOf("kernel: no such process")
	ErrBadFD         = errOf("kernel: bad file descriptor")
	ErrFDClosed      = errOf("kernel: file descriptor not open")
	ErrBadSignal     = errOf("kernel: signal number out of range")
	ErrBadPointer    = errOf("kernel: pointer outside user slot")
	ErrNoArgs        = errOf("kernel: no arguments")
	ErrReadOnly      = errOf("kernel: file system is read-only")
)
