package kernel

// kernel.go assembles the subsystems into a single Kernel value, the way
// internal/vm/vm.go's New wires together an LC3's memory, devices, and
// drivers -- generalized here from a two-phase early/late option pass
// (not needed once there is no shared device map to populate) to a single
// straightforward constructor.

import (
	"github.com/go-edukernel/mp3os/internal/log"
)

// Kernel is a single value holding every subsystem's state -- the
// Go-native reading of spec.md §9's guidance to replace scattered global
// mutable state (pcb, terminals[], pcb_pool[], tss, screen_x/y, video_mem,
// progress) with one owned value whose sub-structures guard their own
// interior mutability.
type Kernel struct {
	mem   *Paging
	fs    *FileSystem
	procs *ProcessPool
	rtc   *RTC
	term  *LineDiscipline
	sched *Scheduler
	idt   *IDT
	pic   *PIC

	critical criticalSection

	log *log.Logger
}

// OptionFn modifies a Kernel during construction.
type OptionFn func(*Kernel)

// New assembles a Kernel from a file system image and options.
func New(image []byte, opts ...OptionFn) (*Kernel, error) {
	fs, err := NewFileSystem(image)
	if err != nil {
		return nil, err
	}

	mem := NewPaging()

	k := &Kernel{
		mem:   mem,
		fs:    fs,
		procs: newProcessPool(),
		rtc:   nil, // constructed below; needs procs.
		term:  NewLineDiscipline(),
		sched: NewScheduler(mem),
		idt:   NewIDT(),
		pic:   NewPIC(),
		log:   log.DefaultLogger(),
	}
	k.rtc = NewRTC(k.procs)

	for _, fn := range opts {
		fn(k)
	}

	return k, nil
}

// FS returns the kernel's read-only file system, for callers (tests, the
// CLI) that need direct access.
func (k *Kernel) FS() *FileSystem { return k.fs }

// Scheduler returns the kernel's scheduler.
func (k *Kernel) Scheduler() *Scheduler { return k.sched }

// Screen returns a snapshot of terminal tid's screen, for a display driver
// outside the kernel (the CLI's console painter).
func (k *Kernel) Screen(tid TermID) Screen { return k.sched.Snapshot(tid) }

// RTCTick drives the virtualized RTC from an external periodic timer;
// callers own how that timer is generated (spec.md's PIC/RTC boundary is
// out of this core's scope).
func (k *Kernel) RTCTick() {
	k.rtc.Tick(func(tid TermID) *PCB {
		return k.sched.Running(tid)
	})
}

// FeedLine hands a completed input line from the keyboard driver boundary
// to the named terminal's line discipline (spec.md §1's scope boundary).
func (k *Kernel) FeedLine(tid TermID, line []byte) {
	k.term.FeedLine(tid, line)
}

// SwitchForeground implements the Alt+F1..F3 terminal switch. The VRAM
// retarget it performs for every terminal is bracketed by the critical
// section (spec.md §5), the same atomicity original_source/scheduler.c's
// switchVidMem needs around its framebuffer copy.
func (k *Kernel) SwitchForeground(tid TermID) {
	k.critical.enter()
	defer k.critical.exit()

	k.sched.SwitchForeground(tid)
}

// Interrupt sends sig to the process currently running on tid, the kernel-
// level equivalent of the keyboard driver's Ctrl+C/Ctrl+Alt combinations
// (spec.md §8 scenario 5).
func (k *Kernel) Interrupt(tid TermID, sig SignalNumber) bool {
	pcb := k.sched.Running(tid)
	if pcb == nil {
		return false
	}

	return Raise(pcb, sig)
}
