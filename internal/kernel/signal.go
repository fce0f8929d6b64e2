package kernel

// signal.go implements the software signal facility: spec.md §4.6.
//
// Grounded on original_source/signals.c's sig_set/sig_dispatch/sig_linkage/
// sig_handle. The kernel-stack memcpy snapshot becomes a bounded, typed
// buffer (spec.md §9's re-architecture guidance) and the user-space
// trampoline address is the fixed, well-known TrampolineAddr constant
// rather than a page allocated per process (there is no user instruction
// memory in this core to map a literal trampoline into; see doc.go).

import (
	"errors"
	"fmt"
)

// SignalNumber identifies a software signal, ordered by priority: lower
// numbers preempt higher ones.
type SignalNumber uint8

const (
	SigDivZero   SignalNumber = 0
	SigSegfault  SignalNumber = 1
	SigInterrupt SignalNumber = 2
	SigAlarm     SignalNumber = 3
	SigUser1     SignalNumber = 4
	SigSysKill   SignalNumber = 5 // Internal only; never installable via set_handler.

	// SigNone is the sentinel meaning "nothing pending", grounded on
	// original_source/signals.h's NULLSIG.
	SigNone SignalNumber = 255
)

func (s SignalNumber) String() string {
	switch s {
	case SigDivZero:
		return "DIV_ZERO"
	case SigSegfault:
		return "SEGFAULT"
	case SigInterrupt:
		return "INTERRUPT"
	case SigAlarm:
		return "ALARM"
	case SigUser1:
		return "USER1"
	case SigSysKill:
		return "SYSKILL"
	case SigNone:
		return "NONE"
	default:
		return fmt.Sprintf("signal(%d)", uint8(s))
	}
}

// MaxInstallableSignal is the highest signal number a process may install
// its own handler for via set_handler (spec.md §4.4: "0≤sig≤4").
const MaxInstallableSignal = SigUser1

// ErrSnapshotOverflow is returned when a signal handler would need to
// preserve more kernel-stack state than the fixed snapshot buffer holds.
// Per spec.md §9's resolved Open Question this fails closed instead of
// silently truncating.
var ErrSnapshotOverflow = errors.New("signal: kernel stack snapshot overflow")

// snapshotWords is the size, in 32-bit words, of the signal-delivery
// kernel-stack snapshot buffer: grounded on original_source/signals.c's
// empirically-sized 27-word buffer (one nested interrupt frame).
const snapshotWords = 27

// Raise sets pcb.Pending to sig if and only if the process accepts it: no
// mask in effect, and sig is strictly higher priority (lower number) than
// whatever is already pending. This is the exact comparison
// original_source/signals.c's sig_set performs, made explicit per
// DESIGN.md's Open Question resolution: SigNone (255) can never satisfy
// "sig < pending" for any real signal number, so it behaves as "nothing
// pending" without a separate special case.
func Raise(pcb *PCB, sig SignalNumber) bool {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()

	if pcb.Mask {
		return false
	}

	if sig >= pcb.Pending {
		return false
	}

	pcb.Pending = sig

	return true
}

// DispatchResult tells the caller what sig_dispatch decided: deliver to a
// user handler (jump), run the default action (kill), or do nothing.
type DispatchResult int

const (
	DispatchNone DispatchResult = iota
	DispatchHandler
	DispatchDefault
)

// savedContext holds the eax value sig_dispatch preserves around a user
// handler invocation; there is no ebp/esp to save in this core.
type savedContext struct {
	eax int32
}

// Dispatch implements sig_dispatch: called on every return path from a
// syscall or interrupt, just before control returns to user space. It
// never alters eax itself; the caller is responsible for substituting the
// dispatch decision's effects (jumping to a handler, or invoking the
// default action) around the syscall's own return value.
func (pcb *PCB) Dispatch(eax int32, enteredUser bool) (DispatchResult, SignalNumber) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()

	if pcb.Mask || pcb.Pending == SigNone || !enteredUser {
		return DispatchNone, SigNone
	}

	sig := pcb.Pending

	if sig <= MaxInstallableSignal && pcb.Handlers[sig] != NoHandler {
		pcb.savedEax = eax
		pcb.Mask = true

		return DispatchHandler, sig
	}

	// No handler installed: the default action always kills the process
	// (original_source/signals.c's sig_handle). The caller halts the
	// process; pending is cleared by whatever reinitializes the PCB.
	return DispatchDefault, sig
}

// Snapshot preserves up to snapshotWords of kernel-stack state before
// jumping to a ring-3 handler. Capturing more than the buffer holds is a
// fail-closed error, not a silent truncation.
func (pcb *PCB) Snapshot(stack []uint32) error {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()

	if len(stack) > snapshotWords {
		return fmt.Errorf("%w: need %d words, have %d", ErrSnapshotOverflow, len(stack), snapshotWords)
	}

	pcb.snapshotSize = copy(pcb.snapshot[:], stack)

	return nil
}

// Sigreturn restores the kernel-stack snapshot, clears the mask, and
// returns the eax value that was current when the handler was dispatched
// -- the value the originally-interrupted syscall should appear to have
// returned (spec.md §4.6: sigreturn).
func (pcb *PCB) Sigreturn() ([]uint32, int32) {
	pcb.mu.Lock()
	defer pcb.mu.Unlock()

	snap := make([]uint32, pcb.snapshotSize)
	copy(snap, pcb.snapshot[:pcb.snapshotSize])

	pcb.Mask = false
	pcb.Pending = SigNone

	return snap, pcb.savedEax
}
