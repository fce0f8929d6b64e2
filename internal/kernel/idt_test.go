package kernel

import "testing"

func TestIDTSyscallGateIsUserCallable(t *testing.T) {
	idt := NewIDT()

	if !idt.Callable(VectorSyscall, DPL3) {
		t.Error("syscall vector should be callable from ring 3")
	}

	if !idt.Callable(VectorSyscall, DPL0) {
		t.Error("syscall vector should also be callable from ring 0")
	}
}

func TestIDTExceptionGatesAreKernelOnly(t *testing.T) {
	idt := NewIDT()

	for v := VectorExceptionsStart; v <= VectorExceptionsEnd; v++ {
		if idt.Callable(v, DPL3) {
			t.Errorf("vector %d should not be callable from ring 3", v)
		}

		if !idt.Callable(v, DPL0) {
			t.Errorf("vector %d should be callable from ring 0", v)
		}
	}
}

func TestIDTUnassignedVectorNotCallable(t *testing.T) {
	idt := NewIDT()

	if idt.Callable(0x50, DPL0) {
		t.Error("an unassigned vector should never be callable")
	}
}

func TestIDTOutOfRangeVector(t *testing.T) {
	idt := NewIDT()

	if idt.Callable(-1, DPL0) || idt.Callable(256, DPL0) {
		t.Error("out-of-range vectors should never be callable")
	}
}
