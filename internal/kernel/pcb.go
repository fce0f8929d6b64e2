package kernel

// pcb.go implements the process control block, the file-descriptor table,
// and the fixed process pool: spec.md §3 and the process-pool policy in
// §4.4.
//
// File descriptors are modeled as a sum type rather than a struct of
// function pointers (spec.md §9's re-architecture guidance), matching the
// shape of internal/vm/devices.go's Driver/DeviceReader/DeviceWriter
// dispatch.

import (
	"errors"
	"sync"

	"github.com/go-edukernel/mp3os/internal/log"
)

// FDKind tags the variant of a file-descriptor slot.
type FDKind uint8

const (
	FDEmpty FDKind = iota
	FDStdin
	FDStdout
	FDRTC
	FDDir
	FDFile
)

func (k FDKind) String() string {
	switch k {
	case FDEmpty:
		return "empty"
	case FDStdin:
		return "stdin"
	case FDStdout:
		return "stdout"
	case FDRTC:
		return "rtc"
	case FDDir:
		return "dir"
	case FDFile:
		return "file"
	default:
		return "fd?"
	}
}

// FD is one file-descriptor slot. Only the fields relevant to Kind are
// meaningful; e.g. Inode/Pos are meaningless for an FDRTC slot, which uses
// Freq instead.
type FD struct {
	Kind  FDKind
	Inode uint32 // FDFile: inode to read from.
	Pos   int    // FDFile: current read offset.
	Freq  int    // FDRTC: current divisor, in Hz.
	Dir   int    // FDDir: next entry index to return.
}

// NumFDSlots is the size of each PCB's file-descriptor table: 0 and 1 are
// STDIN/STDOUT, 2..7 are general-purpose.
const NumFDSlots = 8

// FirstUsableFD and LastUsableFD bound the general-purpose slot range.
const (
	FirstUsableFD = 2
	LastUsableFD  = 7
)

// PCB is a process control block, one per live process.
type PCB struct {
	PID        PID
	TermID     TermID
	PreviousID PID // Parent PID, or self if a base shell.

	Command  string
	ArgBuf   string // Trimmed argument tail passed to execute().
	FD       [NumFDSlots]FD

	// TSSEsp0 is the kernel-stack base this process uses while in kernel
	// mode; KernelStackAddr(PID) computes it.
	TSSEsp0 Addr

	// Signal state (spec.md §4.6).
	Pending      SignalNumber
	Mask         bool
	Handlers     [5]SignalHandler
	snapshot     [27]uint32
	snapshotSize int
	savedEax     int32

	// Vidmap state echoed onto the owning terminal by sys_vidmap; kept
	// here too so halt can always disable it even if the terminal
	// struct were to be reassigned.
	Vidmap bool

	mu sync.Mutex
}

// SignalHandler is a registered handler address. Since this core never
// executes user instructions (see doc.go), a handler is identified by an
// opaque token rather than a code address; package prog resolves it.
type SignalHandler = Addr

// NoHandler is the zero value meaning "no handler installed; use the
// default".
const NoHandler SignalHandler = 0

func newPCB(pid PID, tid TermID, previous PID) *PCB {
	pcb := &PCB{
		PID:        pid,
		TermID:     tid,
		PreviousID: previous,
		Pending:    SigNone,
		TSSEsp0:    KernelStackAddr(pid),
	}
	pcb.FD[0] = FD{Kind: FDStdin}
	pcb.FD[1] = FD{Kind: FDStdout}

	return pcb
}

// AllocFD returns the lowest free descriptor slot in [2,7], or -1 if the
// table is full.
func (p *PCB) AllocFD() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := FirstUsableFD; i <= LastUsableFD; i++ {
		if p.FD[i].Kind == FDEmpty {
			return i
		}
	}

	return -1
}

// CloseAll tears down every open descriptor in [2,7].
//
// Per DESIGN.md's Open Question resolution, this closes the full 2..7
// range (not the 2..6 original_source/syscalls.c's halt loop literally
// performs).
func (p *PCB) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := FirstUsableFD; i <= LastUsableFD; i++ {
		p.FD[i] = FD{}
	}
}

// ErrProcessPoolFull is returned by Allocate when no PID is free.
var ErrProcessPoolFull = errors.New("process pool: full")

// ProcessPool is the fixed array of PCB pointers indexed by PID.
type ProcessPool struct {
	mu    sync.Mutex
	slots [MaxProcesses]*PCB

	log *log.Logger
}

func newProcessPool() *ProcessPool {
	return &ProcessPool{log: log.DefaultLogger()}
}

// Allocate finds the lowest free PID, installs a fresh PCB, and returns it.
// Grounded on original_source/syscalls.c's find_next_pid linear scan.
func (pp *ProcessPool) Allocate(tid TermID, previous PID) (*PCB, error) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	for pid := PID(0); int(pid) < MaxProcesses; pid++ {
		if pp.slots[pid] == nil {
			pcb := newPCB(pid, tid, previous)
			pp.slots[pid] = pcb

			return pcb, nil
		}
	}

	return nil, ErrProcessPoolFull
}

// Free releases pid's slot. Execute failing before committing must never
// call Free on a PID it did not successfully Allocate (spec.md §4.4).
func (pp *ProcessPool) Free(pid PID) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	pp.slots[pid] = nil
}

// Get returns the PCB for pid, or nil if the slot is unoccupied.
func (pp *ProcessPool) Get(pid PID) *PCB {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	return pp.slots[pid]
}

func (pp *ProcessPool) withLogger(logger *log.Logger) {
	pp.log = logger
}
