package kernel

// mem.go implements the paging subsystem: spec.md §4.2. It tracks the page
// directory/table entries that matter to this core -- the kernel's
// supervisor page, each process's 4MiB user slot, and the optional 4KiB
// vidmap page -- as typed, bounds-checked value types, rather than raw
// pointer arithmetic into a page directory array (spec.md §9's re-
// architecture guidance).
//
// Grounded on internal/vm/mem.go's controller shape and on
// original_source/paging.c's exact entry assignments.

import (
	"sync"

	"github.com/go-edukernel/mp3os/internal/log"
)

// PageDirectoryEntry is a single 4MiB page directory entry: present, user-
// accessible, and its physical frame base.
type PageDirectoryEntry struct {
	Present bool
	User    bool
	Frame   Addr
}

// PageTableEntry is a single 4KiB page table entry.
type PageTableEntry struct {
	Present bool
	User    bool
	Frame   Addr
}

// Paging owns the page directory entries this core cares about: the
// kernel's 4MiB supervisor page, the low-memory identity-mapped page table
// (video-region entries only), the user 4MiB slot, and the vidmap page.
//
// A full x86 page directory has 1024 entries; this core only ever installs
// or mutates the handful spec.md §3 names, so those are modeled directly
// instead of as a sparse 1024-entry array.
type Paging struct {
	mu sync.Mutex

	kernelPage PageDirectoryEntry // VA 0x400000: kernel image, supervisor-only.
	lowVideo   PageTableEntry     // VA 0xB8000..0xBD000 identity mapping (video region only).
	userSlot   PageDirectoryEntry // VA 0x08000000: the running process's 4MiB slot.
	vidmap     PageTableEntry     // VA 0x08400000: optional 4KiB video window.

	log *log.Logger
}

// NewPaging constructs the paging subsystem and installs the fixed entries
// that never change after boot (spec.md §4.2's init()).
func NewPaging() *Paging {
	p := &Paging{log: log.DefaultLogger()}
	p.Init()

	return p
}

// Init installs the kernel page, the identity-mapped low page table (video
// region only present), the user slot PDE template (user-accessible, not
// present, no backing frame yet), and the vidmap PTE (present bit off).
func (p *Paging) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.kernelPage = PageDirectoryEntry{Present: true, User: false, Frame: KernelImageAddr}
	p.lowVideo = PageTableEntry{Present: true, User: false, Frame: VideoMemAddr}
	p.userSlot = PageDirectoryEntry{Present: false, User: true, Frame: 0}
	p.vidmap = PageTableEntry{Present: false, User: true, Frame: 0}
}

// RemapUserSlot rewrites the user PDE so its frame base is pid's 4MiB slot,
// and flushes the TLB (spec.md §4.2: remap_user_slot).
func (p *Paging) RemapUserSlot(pid PID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.userSlot.Present = true
	p.userSlot.Frame = UserSlotFrame(pid)
	p.flush()
}

// EnableVidmap sets the vidmap PTE's present bit (spec.md §4.2).
func (p *Paging) EnableVidmap() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vidmap.Present = true
	p.flush()
}

// DisableVidmap clears the vidmap PTE's present bit.
func (p *Paging) DisableVidmap() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vidmap.Present = false
	p.flush()
}

// SetVideoTarget points the vidmap PTE at frame, which must be the real
// framebuffer or one of the three backing pages (spec.md §4.2:
// set_video_target).
func (p *Paging) SetVideoTarget(frame Addr) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vidmap.Frame = frame
	p.flush()
}

// VideoTarget returns the frame the vidmap page currently targets.
func (p *Paging) VideoTarget() Addr {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.vidmap.Frame
}

// VidmapEnabled reports whether the vidmap page is currently present.
func (p *Paging) VidmapEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.vidmap.Present
}

// UserSlotFrame returns the frame currently backing the user slot PDE.
func (p *Paging) UserSlotFrame() Addr {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.userSlot.Frame
}

// flush models a full CR3 reload: spec.md §4.2 explicitly prefers
// correctness over performance here, so every structural change flushes
// unconditionally rather than tracking which entries actually changed.
func (p *Paging) flush() {
	p.log.Debug("paging: tlb flush", "user_slot", p.userSlot.Frame, "vidmap", p.vidmap)
}

func (p *Paging) withLogger(logger *log.Logger) {
	p.log = logger
}
