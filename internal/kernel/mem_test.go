package kernel

import "testing"

func TestPagingInit(t *testing.T) {
	p := NewPaging()

	if !p.kernelPage.Present || p.kernelPage.User {
		t.Errorf("kernel page: got %+v, want present, supervisor-only", p.kernelPage)
	}

	if p.VidmapEnabled() {
		t.Error("vidmap should start disabled")
	}

	if p.UserSlotFrame() != 0 {
		t.Errorf("user slot frame: got %#x, want 0 before any remap", p.UserSlotFrame())
	}
}

func TestRemapUserSlot(t *testing.T) {
	p := NewPaging()

	for pid := PID(0); pid < MaxProcesses; pid++ {
		p.RemapUserSlot(pid)

		want := UserSlotFrame(pid)
		if got := p.UserSlotFrame(); got != want {
			t.Errorf("pid %d: user slot frame = %#x, want %#x", pid, got, want)
		}
	}
}

func TestVidmapEnableDisable(t *testing.T) {
	p := NewPaging()

	p.EnableVidmap()
	if !p.VidmapEnabled() {
		t.Fatal("vidmap not enabled after EnableVidmap")
	}

	p.SetVideoTarget(VideoBackupAddr1)
	if got := p.VideoTarget(); got != VideoBackupAddr1 {
		t.Errorf("video target = %#x, want %#x", got, VideoBackupAddr1)
	}

	p.DisableVidmap()
	if p.VidmapEnabled() {
		t.Fatal("vidmap still enabled after DisableVidmap")
	}
}

func TestKernelStackAddrDistinctPerPID(t *testing.T) {
	seen := map[Addr]PID{}

	for pid := PID(0); pid < MaxProcesses; pid++ {
		addr := KernelStackAddr(pid)

		if other, ok := seen[addr]; ok {
			t.Fatalf("pid %d and pid %d collide at kernel stack addr %s", pid, other, addr)
		}

		seen[addr] = pid

		if addr >= KernelStackTop {
			t.Errorf("pid %d kernel stack addr %s should be below %s", pid, addr, KernelStackTop)
		}
	}
}
