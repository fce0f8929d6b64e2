package kernel

// idt.go implements the IDT/trap gateway: spec.md §4.1.
//
// Grounded on internal/vm/intr.go's vector-table and dispatch idiom
// (Interrupt.idt / Requested), generalized from the LC-3's 8-priority
// table to x86's 256-entry descriptor table and its gate-type/DPL model.

import "fmt"

// GateType distinguishes a trap gate (IF unchanged on entry) from an
// interrupt gate (IF cleared on entry), matching the x86 descriptor
// format spec.md §4.1 describes.
type GateType uint8

const (
	GateTrap GateType = iota
	GateInterrupt
)

// DPL is the descriptor privilege level required to invoke a gate via a
// software interrupt. Hardware interrupts bypass this check.
type DPL uint8

const (
	DPL0 DPL = 0
	DPL3 DPL = 3
)

// Gate is one IDT entry.
type Gate struct {
	Type    GateType
	DPL     DPL
	Present bool
}

// Fixed vector assignments (spec.md §4.1).
const (
	VectorExceptionsStart = 0  // 0..19: CPU faults.
	VectorExceptionsEnd   = 19
	VectorTimer           = 0x20 // IRQ0, remapped.
	VectorKeyboard        = 0x21 // IRQ1, remapped.
	VectorRTC             = 0x28 // IRQ8, remapped.
	VectorSyscall         = 0x80 // User-accessible gate.
)

// IDT is the 256-entry interrupt descriptor table.
type IDT struct {
	gates [256]Gate
}

// NewIDT installs trap gates at DPL0 for vectors 0..19, interrupt gates at
// DPL0 for the timer/keyboard/RTC IRQs, and an interrupt gate at DPL3 for
// the syscall vector -- the only ring-3-invokable entry.
func NewIDT() *IDT {
	idt := &IDT{}

	for v := VectorExceptionsStart; v <= VectorExceptionsEnd; v++ {
		idt.gates[v] = Gate{Type: GateTrap, DPL: DPL0, Present: true}
	}

	for _, v := range []int{VectorTimer, VectorKeyboard, VectorRTC} {
		idt.gates[v] = Gate{Type: GateInterrupt, DPL: DPL0, Present: true}
	}

	idt.gates[VectorSyscall] = Gate{Type: GateInterrupt, DPL: DPL3, Present: true}

	return idt
}

// Callable reports whether a caller at callerDPL may invoke vector via a
// software interrupt. Hardware IRQs never go through this check.
func (idt *IDT) Callable(vector int, callerDPL DPL) bool {
	if vector < 0 || vector >= len(idt.gates) {
		return false
	}

	g := idt.gates[vector]

	return g.Present && callerDPL <= dplOf(g.DPL)
}

// dplOf normalizes DPL comparison: a gate at DPL3 is callable from any
// ring; a gate at DPL0 only from ring 0.
func dplOf(gate DPL) DPL {
	if gate == DPL3 {
		return DPL3
	}

	return DPL0
}

func (g Gate) String() string {
	kind := "trap"
	if g.Type == GateInterrupt {
		kind = "intr"
	}

	return fmt.Sprintf("gate{%s dpl=%d present=%t}", kind, g.DPL, g.Present)
}
