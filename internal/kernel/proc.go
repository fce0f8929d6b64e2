package kernel

// proc.go implements process lifecycle -- execute/halt -- and the syscall
// methods a running program sees: spec.md §4.4.
//
// Grounded on original_source/syscalls.c for argument parsing and the
// per-call dispatch rules, and on SPEC_FULL.md §1.1 for how the Go call
// stack stands in for the source's ebp/esp parent-frame protocol: Execute
// calls the child program synchronously and only returns once the child
// has halted, exactly mirroring "execute never returns to its caller
// until halt is called" without manual register bookkeeping. halt() itself
// is modeled as a panic carrying the exit status, recovered exactly once
// per Execute call -- the Go-native reading of "halt never returns to the
// point it was called, only to the parent's execute frame".

import (
	"context"
	"encoding/binary"
	"runtime"
	"strings"

	"github.com/go-edukernel/mp3os/internal/kernel/prog"
)

// fixed string markers identifying well-known runtime.Error panics, the
// Go-native stand-in for hardware exception vectors since this core never
// executes real x86 instructions to fault on (see doc.go). Grounded on
// original_source/exceptions.c's IDT-vector split: divide-by-zero gets
// its own signal, everything else reads as a protection fault.
const runtimeDivByZero = "integer divide by zero"

// Process is the per-program handle passed to a registered prog.Func. It
// implements prog.Syscalls.
type Process struct {
	k   *Kernel
	pcb *PCB
	ctx context.Context
}

// PCB returns the process's control block, for kernel-internal callers
// (the scheduler, tests) that need more than the syscall surface.
func (p *Process) PCB() *PCB { return p.pcb }

// haltSignal unwinds a running program's Go stack back to the Execute
// call that started it, carrying the exit status -- see the package
// comment above.
type haltSignal struct{ status int32 }

// Halt implements spec.md §4.4 syscall 1. It never returns to its caller.
func (p *Process) Halt(status int32) int32 {
	panic(haltSignal{status})
}

// parseCmd splits a command line into a program name and a trimmed
// argument tail, exactly as original_source/syscalls.c's sys_execute
// does: skip leading spaces, take the name up to the next space, then
// trim leading and trailing spaces from whatever remains.
func parseCmd(cmdline string) (name, args string) {
	cmdline = strings.TrimLeft(cmdline, " ")

	i := strings.IndexByte(cmdline, ' ')
	if i < 0 {
		return cmdline, ""
	}

	return cmdline[:i], strings.Trim(cmdline[i+1:], " ")
}

// Execute implements spec.md §4.4 syscall 2, invoked by a running program.
func (p *Process) Execute(cmdline string) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	return p.k.execute(p.ctx, p.pcb.TermID, p.pcb.PID, cmdline, false)
}

// execute is the shared implementation behind both a user program's
// execute() syscall and the scheduler's initial "boot a base shell into
// this terminal" call. isBase processes self-restart forever, matching
// spec.md §3's invariant that a terminal never drops below one live
// process once initialized.
func (k *Kernel) execute(ctx context.Context, tid TermID, previous PID, cmdline string, isBase bool) int32 {
	for {
		status, restart := k.executeOnce(ctx, tid, previous, cmdline, isBase)
		if !restart {
			return status
		}

		// A cancelled context means the terminal itself is shutting down:
		// stop respawning the base shell instead of spinning it back up
		// forever against a context that will never again complete a read.
		if ctx.Err() != nil {
			return status
		}

		cmdline = "shell"
	}
}

func (k *Kernel) executeOnce(ctx context.Context, tid TermID, previous PID, cmdline string, isBase bool) (status int32, restart bool) {
	name, args := parseCmd(cmdline)
	if name == "" {
		return -1, false
	}

	dentry, ok := k.fs.Lookup(name)
	if !ok || dentry.Type != FileTypeFile {
		return -1, false
	}

	size, err := k.fs.FileSize(dentry.Inode)
	if err != nil {
		return -1, false
	}

	image := make([]byte, size)
	if _, err := k.fs.ReadData(dentry.Inode, 0, image); err != nil {
		return -1, false
	}

	if !HasELFMagic(image) {
		return -1, false
	}

	entry, err := EntryPoint(image)
	if err != nil {
		return -1, false
	}

	fn, ok := prog.Lookup(name)
	if !ok {
		return -1, false
	}

	pcb, err := k.procs.Allocate(tid, previous)
	if err != nil {
		return -1, false
	}

	if isBase {
		pcb.PreviousID = pcb.PID
	}

	pcb.Command = name
	pcb.ArgBuf = args

	k.log.Debug("execute", "cmd", name, "args", args, "pid", pcb.PID, "entry", entry)

	// The paging remap and the scheduler's running-PCB pointer must change
	// together, atomically with respect to a fault (spec.md §5).
	k.critical.enter()
	k.mem.RemapUserSlot(pcb.PID)
	k.sched.setRunning(tid, pcb)
	k.critical.exit()

	proc := &Process{k: k, pcb: pcb, ctx: ctx}
	status = runProgram(fn, proc)

	k.critical.enter()
	pcb.CloseAll()
	k.mem.DisableVidmap()
	k.sched.setVidmap(tid, false)
	k.critical.exit()

	k.procs.Free(pcb.PID)

	if parent := k.procs.Get(previous); parent != nil && !isBase {
		k.critical.enter()
		k.mem.RemapUserSlot(parent.PID)
		k.sched.setRunning(tid, parent)
		k.critical.exit()
	}

	if isBase {
		return status, true
	}

	return status, false
}

// runProgram calls fn synchronously and recovers the halt status it
// raises. A runtime.Error -- divide by zero, a nil dereference, an
// out-of-bounds index -- is this core's Go-native stand-in for a real
// hardware exception (see doc.go: there is no instruction stream to fault
// on, but a misbehaving registered program can still panic), and is
// routed through the exception reporter instead of crashing the whole
// kernel goroutine. Any other panic is a genuine bug and still
// propagates.
func runProgram(fn prog.Func, p *Process) (status int32) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if h, ok := r.(haltSignal); ok {
			status = h.status
			return
		}

		if rerr, ok := r.(runtime.Error); ok {
			status = p.reportFault(rerr)
			return
		}

		panic(r)
	}()

	return fn(p)
}

// reportFault translates a runtime.Error panic into an exception-reporter
// verdict and applies it. On FaultHalt (a fault inside a kernel critical
// section) it ends the faulting process with status -1 without raising a
// signal; the kernel itself keeps running. Otherwise it raises the signal
// and dispatches it. There is no faulted instruction to
// resume, so a delivered signal still ends the process -- what a handler
// invocation buys is the chance to run cleanup logic before that happens,
// the same way a real SEGFAULT handler gets to run once before its
// process dies if it doesn't call sigreturn.
func (p *Process) reportFault(rerr runtime.Error) int32 {
	vector := 14 // unexpected runtime panic reads as a general-protection/page fault.
	if strings.Contains(rerr.Error(), runtimeDivByZero) {
		vector = 0
	}

	action, sig := p.k.Report(vector, 0, p.pcb, p.k.critical.inProgress())
	if action == FaultHalt {
		return -1
	}

	Raise(p.pcb, sig)

	if result, hsig := p.pcb.Dispatch(-1, true); result == DispatchHandler {
		if fn, ok := prog.ResolveHandler(uint32(p.pcb.Handlers[hsig])); ok {
			fn(int(hsig), p)
		}
	}

	return -1
}

// dispatchPending runs sig_dispatch on the way back from a syscall to the
// calling program, spec.md §4.1/§4.6's "every syscall or interrupt return
// checks for a pending signal before resuming user code." A pending
// signal with a handler installed gets to run synchronously (it is
// expected to call Sigreturn itself, the way a real handler's trampoline
// returns control via the sigreturn syscall); with no handler installed
// the default action always kills the process. Either way the original
// syscall result is what the caller sees -- signal delivery is meant to
// be transparent to the point it interrupted.
func (p *Process) dispatchPending(result int32) int32 {
	verdict, sig := p.pcb.Dispatch(result, true)

	switch verdict {
	case DispatchHandler:
		if fn, ok := prog.ResolveHandler(uint32(p.pcb.Handlers[sig])); ok {
			fn(int(sig), p)
		}
	case DispatchDefault:
		p.Halt(-1)
	}

	return result
}

// Read implements spec.md §4.4 syscall 3.
func (p *Process) Read(fd int, buf []byte) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	slot, ok := p.fd(fd)
	if !ok {
		return -1
	}

	switch slot.Kind {
	case FDStdin:
		var n int
		var err error

		p.k.sched.yield(func() {
			n, err = p.k.term.Read(p.ctx, p.pcb.TermID, buf)
		})

		if err != nil {
			return -1
		}

		return int32(n)

	case FDRTC:
		var err error

		p.k.sched.yield(func() {
			err = p.k.rtc.Read(p.ctx, p.pcb.TermID, slot.Freq)
		})

		if err != nil {
			return -1
		}

		return 0

	case FDDir:
		d, ok := p.k.fs.DentryByIndex(slot.Dir)
		if !ok {
			return 0 // EOF: no more entries.
		}

		slot.Dir++

		return int32(copy(buf, d.Name))

	case FDFile:
		n, err := p.k.fs.ReadData(slot.Inode, slot.Pos, buf)
		if err != nil {
			return -1
		}

		slot.Pos += n

		return int32(n)

	default:
		return -1
	}
}

// Write implements spec.md §4.4 syscall 4.
func (p *Process) Write(fd int, buf []byte) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	slot, ok := p.fd(fd)
	if !ok {
		return -1
	}

	switch slot.Kind {
	case FDStdout:
		screen := p.k.sched.screenFor(p.pcb.TermID)
		return int32(p.k.term.Write(screen, buf))

	case FDRTC:
		if len(buf) < 4 {
			return -1
		}

		freq := int(binary.LittleEndian.Uint32(buf))
		if err := p.k.rtc.Write(freq); err != nil {
			return -1
		}

		slot.Freq = freq

		return 0

	default:
		return -1 // dir/file/stdin are read-only from a program's perspective.
	}
}

// Open implements spec.md §4.4 syscall 5.
func (p *Process) Open(name string) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	dentry, ok := p.k.fs.Lookup(name)
	if !ok {
		return -1
	}

	idx := p.pcb.AllocFD()
	if idx < 0 {
		return -1
	}

	slot := &p.pcb.FD[idx]

	switch dentry.Type {
	case FileTypeRTC:
		if err := p.k.rtc.Open(); err != nil {
			*slot = FD{}
			return -1
		}

		*slot = FD{Kind: FDRTC, Freq: 2} // rtc_open's default 2Hz.

	case FileTypeDir:
		*slot = FD{Kind: FDDir}

	case FileTypeFile:
		*slot = FD{Kind: FDFile, Inode: dentry.Inode}

	default:
		return -1
	}

	return int32(idx)
}

// Close implements spec.md §4.4 syscall 6.
func (p *Process) Close(fd int) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	if fd < FirstUsableFD || fd > LastUsableFD {
		return -1
	}

	if p.pcb.FD[fd].Kind == FDEmpty {
		return -1
	}

	p.pcb.FD[fd] = FD{}

	return 0
}

// GetArgs implements spec.md §4.4 syscall 7.
func (p *Process) GetArgs(buf []byte) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	if p.pcb.ArgBuf == "" {
		return -1
	}

	if len(buf) < len(p.pcb.ArgBuf)+1 {
		return -1
	}

	n := copy(buf, p.pcb.ArgBuf)
	buf[n] = 0

	return int32(n)
}

// Vidmap implements spec.md §4.4 syscall 8. The returned uint32 is the
// fixed vidmap VA a caller should install into its own pointer; the int32
// is the syscall's usual 0/-1 status. Unlike the source's sys_vidmap,
// there is no out_ptr argument to validate as lying within the user slot
// (SPEC_FULL.md §1.1's pointer-free ABI: the caller gets a VA value back,
// not a pointer the kernel writes through), so that boundary check has no
// analog here.
func (p *Process) Vidmap() (addr uint32, status int32) {
	defer func() { status = p.dispatchPending(status) }()

	p.k.critical.enter()
	p.k.mem.EnableVidmap()
	p.k.sched.setVidmap(p.pcb.TermID, true)
	p.pcb.Vidmap = true
	p.k.critical.exit()

	return uint32(UserStackAddr), 0
}

// SetHandler implements spec.md §4.4 syscall 9.
func (p *Process) SetHandler(sig int, handler uint32) (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	if sig < 0 || sig > int(MaxInstallableSignal) {
		return -1
	}

	p.pcb.Handlers[sig] = Addr(handler)

	return 0
}

// Sigreturn implements spec.md §4.4 syscall 10.
func (p *Process) Sigreturn() (result int32) {
	defer func() { result = p.dispatchPending(result) }()

	_, eax := p.pcb.Sigreturn()
	return eax
}

func (p *Process) fd(fd int) (*FD, bool) {
	if fd < 0 || fd >= NumFDSlots {
		return nil, false
	}

	slot := &p.pcb.FD[fd]
	if slot.Kind == FDEmpty {
		return nil, false
	}

	return slot, true
}
