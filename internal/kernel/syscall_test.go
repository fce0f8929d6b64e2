package kernel

import (
	"context"
	"testing"
)

func TestSyscallNumberString(t *testing.T) {
	cases := []struct {
		n    SyscallNumber
		want string
	}{
		{SysHalt, "halt"},
		{SysExecute, "execute"},
		{SysRead, "read"},
		{SysWrite, "write"},
		{SysOpen, "open"},
		{SysClose, "close"},
		{SysGetArgs, "getargs"},
		{SysVidmap, "vidmap"},
		{SysSetHandler, "set_handler"},
		{SysSigreturn, "sigreturn"},
		{SyscallNumber(99), "unknown"},
	}

	for _, c := range cases {
		if got := c.n.String(); got != c.want {
			t.Errorf("%d.String() = %q, want %q", c.n, got, c.want)
		}
	}
}

func testProcess(t *testing.T) (*Kernel, *Process) {
	t.Helper()

	image := buildImage(t, []imageFile{
		{name: "data", typ: FileTypeFile, data: []byte("abc")},
	})

	k, err := New(image)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	pcb, err := k.procs.Allocate(0, 0)
	if err != nil {
		t.Fatalf("Allocate: %s", err)
	}

	return k, &Process{k: k, pcb: pcb, ctx: context.Background()}
}

func TestDispatchHalt(t *testing.T) {
	_, proc := testProcess(t)

	defer func() {
		r := recover()
		h, ok := r.(haltSignal)
		if !ok {
			t.Fatalf("Dispatch(SysHalt) did not panic with haltSignal, got %v", r)
		}

		if h.status != 5 {
			t.Errorf("halt status = %d, want 5", h.status)
		}
	}()

	Dispatch(proc, SysHalt, 5, 0, 0, nil)
}

func TestDispatchExecuteAndOpenAreUnencodable(t *testing.T) {
	_, proc := testProcess(t)

	if got := Dispatch(proc, SysExecute, 0, 0, 0, nil); got != -1 {
		t.Errorf("Dispatch(SysExecute) = %d, want -1", got)
	}

	if got := Dispatch(proc, SysOpen, 0, 0, 0, nil); got != -1 {
		t.Errorf("Dispatch(SysOpen) = %d, want -1", got)
	}
}

func TestDispatchOpenCloseViaProcDirectly(t *testing.T) {
	_, proc := testProcess(t)

	fd := proc.Open("data")
	if fd < FirstUsableFD {
		t.Fatalf("Open(data) = %d, want >= %d", fd, FirstUsableFD)
	}

	buf := make([]byte, 8)
	if n := Dispatch(proc, SysRead, fd, 0, 0, buf); n != 3 {
		t.Errorf("Dispatch(SysRead) = %d, want 3", n)
	}

	if got := Dispatch(proc, SysClose, fd, 0, 0, nil); got != 0 {
		t.Errorf("Dispatch(SysClose) = %d, want 0", got)
	}
}

func TestDispatchSetHandlerAndSigreturn(t *testing.T) {
	_, proc := testProcess(t)

	if got := Dispatch(proc, SysSetHandler, int32(SigInterrupt), 0x4000, 0, nil); got != 0 {
		t.Errorf("Dispatch(SysSetHandler) = %d, want 0", got)
	}

	// With no handler ever dispatched, savedEax is still its zero value,
	// and sigreturn returns it unconditionally.
	if got := Dispatch(proc, SysSigreturn, 0, 0, 0, nil); got != 0 {
		t.Errorf("Dispatch(SysSigreturn) with nothing dispatched = %d, want 0", got)
	}
}

func TestDispatchUnknownSyscall(t *testing.T) {
	_, proc := testProcess(t)

	if got := Dispatch(proc, SyscallNumber(99), 0, 0, 0, nil); got != -1 {
		t.Errorf("Dispatch(unknown) = %d, want -1", got)
	}
}

func TestDispatchVidmap(t *testing.T) {
	_, proc := testProcess(t)

	if got := Dispatch(proc, SysVidmap, 0, 0, 0, nil); got != 0 {
		t.Errorf("Dispatch(SysVidmap) = %d, want 0", got)
	}
}
