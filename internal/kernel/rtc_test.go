package kernel

import (
	"context"
	"testing"
)

func TestRTCOpenTwiceFails(t *testing.T) {
	rtc := NewRTC(newProcessPool())

	if err := rtc.Open(); err != nil {
		t.Fatalf("first Open: %s", err)
	}

	if err := rtc.Open(); err != ErrAlreadyOpen {
		t.Errorf("second Open: got %v, want ErrAlreadyOpen", err)
	}
}

func TestRTCWriteBeforeOpen(t *testing.T) {
	rtc := NewRTC(newProcessPool())

	if err := rtc.Write(2); err != ErrNotOpen {
		t.Errorf("Write before Open: got %v, want ErrNotOpen", err)
	}
}

func TestValidFrequencyBoundaries(t *testing.T) {
	valid := []int{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}
	for _, f := range valid {
		if !ValidFrequency(f) {
			t.Errorf("ValidFrequency(%d) = false, want true", f)
		}
	}

	invalid := []int{0, 1, 3, 1025, 2048, -2}
	for _, f := range invalid {
		if ValidFrequency(f) {
			t.Errorf("ValidFrequency(%d) = true, want false", f)
		}
	}
}

func TestRTCWriteRejectsInvalidFrequency(t *testing.T) {
	rtc := NewRTC(newProcessPool())
	if err := rtc.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}

	if err := rtc.Write(3); err != ErrInvalidFrequency {
		t.Errorf("Write(3): got %v, want ErrInvalidFrequency", err)
	}

	if err := rtc.Write(1024); err != nil {
		t.Errorf("Write(1024): got %v, want nil", err)
	}
}

func TestRTCReadUnblocksAfterOneTickAtMaxFrequency(t *testing.T) {
	rtc := NewRTC(newProcessPool())
	if err := rtc.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}

	// At 1024Hz the countdown is 1024/1024 = 1, so a single Tick should
	// satisfy it; drive ticks concurrently with the blocking Read.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- rtc.Read(ctx, 0, 1024)
	}()

	for i := 0; i < 4; i++ {
		rtc.Tick(func(TermID) *PCB { return nil })
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Read: %s", err)
		}
	case <-ctx.Done():
		t.Fatal("Read did not unblock after ticks")
	}
}

func TestRTCReadCancelled(t *testing.T) {
	rtc := NewRTC(newProcessPool())
	if err := rtc.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rtc.Read(ctx, 0, 2); err != context.Canceled {
		t.Errorf("Read after cancel: got %v, want context.Canceled", err)
	}
}

func TestRTCTickRaisesAlarm(t *testing.T) {
	procs := newProcessPool()
	pcb, err := procs.Allocate(0, 0)
	if err != nil {
		t.Fatalf("Allocate: %s", err)
	}

	rtc := NewRTC(procs)

	lookup := func(tid TermID) *PCB {
		if tid == 0 {
			return pcb
		}
		return nil
	}

	// rtcAlarmThreshold/rtcFactor ticks are needed to cross the threshold.
	threshold := rtcAlarmThreshold
	ticks := int(threshold/rtcFactor) + 1
	for i := 0; i < ticks; i++ {
		rtc.Tick(lookup)
	}

	if pcb.Pending != SigAlarm {
		t.Errorf("Pending = %v after threshold ticks, want ALARM", pcb.Pending)
	}
}
