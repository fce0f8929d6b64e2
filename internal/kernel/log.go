package kernel

// log.go wires the teacher's structured logger into every kernel subsystem.

import (
	"github.com/go-edukernel/mp3os/internal/log"
)

// Loggable is implemented by subsystems that accept a logger during late
// initialization.
type Loggable interface {
	withLogger(*log.Logger)
}

// WithLogger configures the kernel, and every subsystem it owns, to write
// through logger instead of the package default.
func WithLogger(logger *log.Logger) OptionFn {
	return func(k *Kernel) {
		k.log = logger
		k.mem.withLogger(logger)
		k.fs.withLogger(logger)
		k.procs.withLogger(logger)
		k.rtc.withLogger(logger)
		k.term.withLogger(logger)
		k.sched.withLogger(logger)
	}
}
