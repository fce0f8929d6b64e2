package kernel

// types.go defines the basic addressing and identifier types shared by every
// subsystem.

import "fmt"

// Addr is a physical or virtual address in the simulated 32-bit address
// space.
type Addr uint32

func (a Addr) String() string { return fmt.Sprintf("%#08x", uint32(a)) }

// PID identifies a process slot in the process pool.
type PID uint8

// MaxProcesses is the fixed size of the process pool (spec.md §3: "At most
// MAX=6 live processes").
const MaxProcesses = 6

func (p PID) String() string { return fmt.Sprintf("pid:%d", uint8(p)) }

// TermID identifies one of the three terminal slots.
type TermID uint8

// NumTerminals is the fixed number of terminal slots.
const NumTerminals = 3

func (t TermID) String() string { return fmt.Sprintf("tty%d", uint8(t)) }

// Fixed physical memory regions (spec.md §3's physical memory layout table).
const (
	VideoMemAddr      Addr = 0x000B8000 // Active VGA text-mode framebuffer.
	VideoBackupAddr0  Addr = 0x000B9000 // Backing store, terminal 0.
	VideoBackupAddr1  Addr = 0x000BA000 // Backing store, terminal 1.
	VideoBackupAddr2  Addr = 0x000BB000 // Backing store, terminal 2.
	VideoScratchAddr  Addr = 0x000BC000 // Scratch backing page (dialog overlays; unused, no dialogs in scope).
	VideoPageBytes         = 4096       // One 80x25 text page, 2 bytes/cell, page-rounded.
	KernelImageAddr   Addr = 0x00400000 // Kernel image; single 4MiB page, supervisor-only.
	UserSlotBase      Addr = 0x00800000 // Six 4MiB user slots begin here, indexed by PID.
	UserSlotSize      Addr = 0x00400000
	KernelStackTop    Addr = 0x00800000 // Kernel stacks grow down from here.
	KernelStackOffset Addr = 0x00002000 // 8KiB per kernel stack / PCB region.
)

// Fixed per-process virtual addresses (spec.md §3's per-process VM layout).
const (
	UserImageAddr  Addr = 0x08048000 // Program image, loaded at a fixed VA.
	UserStackAddr  Addr = 0x08400000 // Top of the user stack; also the vidmap VA.
	UserSlotVA     Addr = 0x08000000 // Base VA of the 4MiB user slot mapping.
	KernelImageVA  Addr = 0x00400000
	TrampolineAddr Addr = 0x08400000 // Signal trampoline shares the vidmap VA (spec.md §9: "fixed trampoline page").
)

// KernelStackAddr returns the address of the top of pid's kernel stack
// region (where its PCB is placed), grounded on
// original_source/types.h's KERNEL_STACK_ADDR/KERNEL_STACK_OFFSET math.
func KernelStackAddr(pid PID) Addr {
	return KernelStackTop - Addr(pid+1)*KernelStackOffset
}

// UserSlotFrame returns the physical frame base backing pid's 4MiB user
// slot.
func UserSlotFrame(pid PID) Addr {
	return UserSlotBase + Addr(pid)*UserSlotSize
}
