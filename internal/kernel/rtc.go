package kernel

// rtc.go implements the virtualized real-time clock: spec.md §4.7.
//
// Grounded on original_source/rtc.c for the exact tick factor, alarm
// threshold, and frequency-validation algorithm, and on internal/vm/kbd.go
// for the sync.Cond-gated blocking-wait idiom a hardware device driver
// uses in the teacher.

import (
	"context"
	"sync"

	"github.com/go-edukernel/mp3os/internal/log"
)

// rtcFactor is the fraction of one virtual "count" consumed per physical
// tick; the real RTC runs at 1024Hz and the source approximates per-
// terminal division at that shared rate with this fixed-point factor.
const rtcFactor = 1.75

// rtcAlarmThreshold is the accumulator value, in the same units as
// rtcFactor, that triggers ALARM (empirically ~10 seconds at 1024Hz).
const rtcAlarmThreshold = 10240.0

// RTC is the virtualized real-time clock: one hardware-driven tick source
// multiplexed into per-terminal countdown counters and alarm accumulators.
type RTC struct {
	mu sync.Mutex

	opened bool

	counter [NumTerminals]float64
	alarm   [NumTerminals]float64
	waiters [NumTerminals][]chan struct{}

	procs *ProcessPool
	log   *log.Logger
}

// NewRTC constructs an unarmed virtualized RTC.
func NewRTC(procs *ProcessPool) *RTC {
	return &RTC{procs: procs, log: log.DefaultLogger()}
}

// Open arms the RTC at its default rate. A second open fails, matching
// original_source/rtc.c's static "open" latch.
func (r *RTC) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opened {
		return ErrAlreadyOpen
	}

	r.opened = true
	for i := range r.counter {
		r.counter[i] = 0
	}

	return nil
}

// ErrAlreadyOpen is returned by a redundant RTC open.
var ErrAlreadyOpen = errOf("rtc: already open")

// ErrNotOpen is returned by read/write before open.
var ErrNotOpen = errOf("rtc: not open")

// Tick is invoked by the timer interrupt. It decrements every terminal's
// countdown, advances every terminal's alarm accumulator, and raises
// ALARM on any terminal that crosses the threshold -- exactly
// original_source/rtc.c's rtc_handle, minus the physical register
// handshake (outb/inb), which is the PIC/hardware boundary outside this
// core's scope.
func (r *RTC) Tick(terminals func(TermID) *PCB) {
	r.mu.Lock()

	var fired []TermID

	for i := 0; i < NumTerminals; i++ {
		if r.counter[i] > 0 {
			r.counter[i] -= rtcFactor
			if r.counter[i] <= 0 {
				r.counter[i] = 0
				r.wake(TermID(i))
			}
		}

		r.alarm[i] += rtcFactor
		if r.alarm[i] >= rtcAlarmThreshold {
			r.alarm[i] = 0
			fired = append(fired, TermID(i))
		}
	}

	r.mu.Unlock()

	for _, tid := range fired {
		if pcb := terminals(tid); pcb != nil {
			Raise(pcb, SigAlarm)
		}
	}
}

// wake must be called with r.mu held; it notifies and clears any waiters
// parked on terminal tid's countdown.
func (r *RTC) wake(tid TermID) {
	for _, ch := range r.waiters[tid] {
		close(ch)
	}
	r.waiters[tid] = nil
}

// Read sets tid's countdown to 1024/freq and blocks until it reaches
// zero -- spec.md §4.7's rtc_read, reinterpreted as the yield-on-tick
// suspension point spec.md §9 asks for instead of a raw spin loop. freq
// must be >= 1; a smaller value returns ErrInvalidFrequency instead of
// dividing by zero.
func (r *RTC) Read(ctx context.Context, tid TermID, freq int) error {
	r.mu.Lock()
	if !r.opened {
		r.mu.Unlock()
		return ErrNotOpen
	}

	if freq < 1 {
		r.mu.Unlock()
		return ErrInvalidFrequency
	}

	r.counter[tid] = 1024.0 / float64(freq)

	if r.counter[tid] <= 0 {
		r.mu.Unlock()
		return nil
	}

	done := make(chan struct{})
	r.waiters[tid] = append(r.waiters[tid], done)
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrInvalidFrequency is returned by Read/Write for a non-positive or
// non-power-of-two-in-range frequency.
var ErrInvalidFrequency = errOf("rtc: invalid frequency")

// ValidFrequency reports whether freq is one of the power-of-two divisors
// the hardware rate-select register supports: 32768 >> (k-1) for k in
// [6,15], i.e. 2, 4, 8, ..., 1024 Hz. Grounded on
// original_source/rtc.c's rtc_write validation loop.
func ValidFrequency(freq int) bool {
	for rate := 15; rate >= 6; rate-- {
		if freq == 32768>>(rate-1) {
			return true
		}
	}

	return false
}

// Write validates a requested frequency; the caller stores it into the
// FD's Freq field on success (spec.md §4.4's write() rtc case).
func (r *RTC) Write(freq int) error {
	r.mu.Lock()
	opened := r.opened
	r.mu.Unlock()

	if !opened {
		return ErrNotOpen
	}

	if !ValidFrequency(freq) {
		return ErrInvalidFrequency
	}

	return nil
}

func (r *RTC) withLogger(logger *log.Logger) {
	r.log = logger
}
