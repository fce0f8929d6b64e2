package kernel

import (
	"context"
	"testing"
)

func TestScreenPutCharBasics(t *testing.T) {
	var s Screen
	s.Clear()

	for _, b := range []byte("hi") {
		s.PutChar(b)
	}

	if s.Cells[0][0] != 'h' || s.Cells[0][1] != 'i' {
		t.Fatalf("Cells[0][0:2] = %c%c, want hi", s.Cells[0][0], s.Cells[0][1])
	}

	if s.X != 2 || s.Y != 0 {
		t.Errorf("cursor = (%d,%d), want (2,0)", s.X, s.Y)
	}
}

func TestScreenBackspace(t *testing.T) {
	var s Screen
	s.Clear()
	s.PutChar('a')
	s.PutChar('\b')

	if s.X != 0 {
		t.Errorf("X after backspace = %d, want 0", s.X)
	}

	if s.Cells[0][0] != ' ' {
		t.Errorf("Cells[0][0] after backspace = %c, want space", s.Cells[0][0])
	}
}

func TestScreenNewlineAndScroll(t *testing.T) {
	var s Screen
	s.Clear()

	for i := 0; i < screenRows; i++ {
		s.PutChar('\n')
	}

	if s.Y != screenRows-1 {
		t.Errorf("Y after %d newlines = %d, want %d", screenRows, s.Y, screenRows-1)
	}
}

func TestScreenTabStops(t *testing.T) {
	var s Screen
	s.Clear()
	s.PutChar('a')
	s.PutChar('\t')

	if s.X != 4 {
		t.Errorf("X after one char then tab = %d, want 4 (next 4-column stop)", s.X)
	}
}

func TestLineDisciplineFeedAndRead(t *testing.T) {
	ld := NewLineDiscipline()

	done := make(chan struct{})
	var got []byte
	var gotErr error

	go func() {
		buf := make([]byte, 32)
		n, err := ld.Read(context.Background(), 0, buf)
		got = buf[:n]
		gotErr = err
		close(done)
	}()

	ld.FeedLine(0, []byte("hello\n"))

	<-done

	if gotErr != nil {
		t.Fatalf("Read: %s", gotErr)
	}

	if string(got) != "hello\n" {
		t.Errorf("Read = %q, want %q", got, "hello\n")
	}
}

func TestLineDisciplineReadCancelled(t *testing.T) {
	ld := NewLineDiscipline()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := make([]byte, 8)
	_, err := ld.Read(ctx, 1, buf)
	if err != context.Canceled {
		t.Errorf("Read after cancel: got %v, want context.Canceled", err)
	}
}

func TestLineDisciplineWritePutsChars(t *testing.T) {
	ld := NewLineDiscipline()

	var s Screen
	s.Clear()

	n := ld.Write(&s, []byte("ok\n"))
	if n != 3 {
		t.Errorf("Write returned %d, want 3", n)
	}

	if s.Cells[0][0] != 'o' || s.Cells[0][1] != 'k' {
		t.Errorf("screen after Write = %q", string(s.Cells[0][:2]))
	}
}
