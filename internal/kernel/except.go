package kernel

// except.go implements the exception reporter: spec.md §4.9.
//
// Grounded on original_source/exceptions.c's unified_exception_handler and
// its fault-name table for vectors 0..19 (supplemented per SPEC_FULL.md §4.9:
// naming all 20 vectors rather than just DIV_ZERO/SEGFAULT is not
// excluded by any Non-goal).

import "fmt"

// faultNames maps the first 20 x86 exception vectors to their names, the
// same table original_source/exceptions.c prints from.
var faultNames = [...]string{
	0:  "Division by Zero Exception",
	1:  "Debug Exception",
	2:  "NMI Interrupt",
	3:  "Breakpoint Exception",
	4:  "Overflow Exception",
	5:  "BOUND Range Exceeded Exception",
	6:  "Invalid Opcode Exception",
	7:  "Device Not Available Exception",
	8:  "Double Fault Exception",
	9:  "Coprocessor Segment Overrun",
	10: "Invalid TSS Exception",
	11: "Segment Not Present",
	12: "Stack Fault Exception",
	13: "General Protection Exception",
	14: "Page-Fault Exception",
	15: "Reserved",
	16: "x87 FPU Floating-Point Error",
	17: "Alignment Check Exception",
	18: "Machine-Check Exception",
	19: "SIMD Floating-Point Exception",
}

// FaultName returns the diagnostic name for vector, or a generic label for
// an out-of-table vector.
func FaultName(vector int) string {
	if vector >= 0 && vector < len(faultNames) {
		return faultNames[vector]
	}

	return fmt.Sprintf("Unknown Exception %d", vector)
}

// FaultAction is the exception reporter's verdict: the fault is
// unrecoverable (FaultHalt), or deliver a signal and let normal dispatch
// run.
type FaultAction int

const (
	FaultHalt FaultAction = iota
	FaultDeliverSignal
)

// Report implements spec.md §4.9: print a diagnostic naming the running
// PID/TID/command and the fault, then decide the action. A fault raised
// while inKernelCritical (the "progress" flag was set) yields FaultHalt
// and no signal. Report only returns the verdict; its caller, reportFault
// in proc.go, ends the faulting process on FaultHalt and does not stop the
// kernel. Otherwise, vector 0 maps to DIV_ZERO and every other
// vector maps to SEGFAULT, matching original_source/exceptions.c's
// two-way split for which signal an offending user program receives.
func (k *Kernel) Report(vector int, errCode int, pcb *PCB, inKernelCritical bool) (FaultAction, SignalNumber) {
	name := FaultName(vector)

	cmd := ""
	if pcb != nil {
		cmd = pcb.Command
	}

	k.log.Error("exception",
		"vector", vector, "name", name, "err_code", errCode,
		"pid", pcb, "cmd", cmd)

	if inKernelCritical {
		return FaultHalt, SigNone
	}

	if vector == 0 {
		return FaultDeliverSignal, SigDivZero
	}

	return FaultDeliverSignal, SigSegfault
}
