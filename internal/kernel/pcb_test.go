package kernel

import "testing"

func TestNewPCBStdStreams(t *testing.T) {
	pcb := newPCB(3, 1, 3)

	if pcb.FD[0].Kind != FDStdin || pcb.FD[1].Kind != FDStdout {
		t.Fatalf("FD[0],FD[1] = %v, %v, want stdin, stdout", pcb.FD[0].Kind, pcb.FD[1].Kind)
	}

	for i := FirstUsableFD; i <= LastUsableFD; i++ {
		if pcb.FD[i].Kind != FDEmpty {
			t.Errorf("FD[%d] = %v, want empty on a fresh PCB", i, pcb.FD[i].Kind)
		}
	}

	if pcb.Pending != SigNone {
		t.Errorf("Pending = %v, want SigNone", pcb.Pending)
	}
}

func TestAllocFDLowestFree(t *testing.T) {
	pcb := newPCB(0, 0, 0)

	first := pcb.AllocFD()
	if first != FirstUsableFD {
		t.Fatalf("first AllocFD = %d, want %d", first, FirstUsableFD)
	}

	pcb.FD[first] = FD{Kind: FDFile}

	second := pcb.AllocFD()
	if second != FirstUsableFD+1 {
		t.Fatalf("second AllocFD = %d, want %d", second, FirstUsableFD+1)
	}
}

func TestAllocFDTableFull(t *testing.T) {
	pcb := newPCB(0, 0, 0)

	for i := FirstUsableFD; i <= LastUsableFD; i++ {
		if idx := pcb.AllocFD(); idx < 0 {
			t.Fatalf("AllocFD unexpectedly failed at slot %d", i)
		} else {
			pcb.FD[idx] = FD{Kind: FDFile}
		}
	}

	if idx := pcb.AllocFD(); idx != -1 {
		t.Errorf("AllocFD on a full table = %d, want -1", idx)
	}
}

func TestCloseAllClearsFullRange(t *testing.T) {
	pcb := newPCB(0, 0, 0)

	for i := FirstUsableFD; i <= LastUsableFD; i++ {
		pcb.FD[i] = FD{Kind: FDFile, Inode: uint32(i)}
	}

	pcb.CloseAll()

	for i := FirstUsableFD; i <= LastUsableFD; i++ {
		if pcb.FD[i].Kind != FDEmpty {
			t.Errorf("FD[%d] = %v after CloseAll, want empty", i, pcb.FD[i].Kind)
		}
	}

	// Standard streams are untouched by CloseAll.
	if pcb.FD[0].Kind != FDStdin || pcb.FD[1].Kind != FDStdout {
		t.Error("CloseAll must not touch FD[0]/FD[1]")
	}
}

func TestProcessPoolAllocateLowestFree(t *testing.T) {
	pp := newProcessPool()

	pcbs := make([]*PCB, 0, MaxProcesses)

	for i := 0; i < MaxProcesses; i++ {
		pcb, err := pp.Allocate(0, 0)
		if err != nil {
			t.Fatalf("Allocate #%d: %s", i, err)
		}

		if int(pcb.PID) != i {
			t.Errorf("Allocate #%d: PID = %d, want %d", i, pcb.PID, i)
		}

		pcbs = append(pcbs, pcb)
	}

	if _, err := pp.Allocate(0, 0); err != ErrProcessPoolFull {
		t.Errorf("Allocate on a full pool: got %v, want ErrProcessPoolFull", err)
	}

	// Freeing a middle slot makes exactly that PID available again.
	pp.Free(pcbs[2].PID)

	pcb, err := pp.Allocate(0, 0)
	if err != nil {
		t.Fatalf("Allocate after Free: %s", err)
	}

	if pcb.PID != pcbs[2].PID {
		t.Errorf("Allocate after Free: PID = %d, want %d", pcb.PID, pcbs[2].PID)
	}
}

func TestProcessPoolGetUnoccupied(t *testing.T) {
	pp := newProcessPool()

	if got := pp.Get(0); got != nil {
		t.Errorf("Get(0) on empty pool = %v, want nil", got)
	}
}
