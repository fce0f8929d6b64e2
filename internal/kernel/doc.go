/*
Package kernel implements the core of a small, single-processor, protected-mode
operating system: an interrupt descriptor table and trap gateway, paging, a
read-only file system, a process model with a ten-call syscall table, software
signals, a virtualized real-time clock, a terminal line discipline, and a
round-robin scheduler across three terminals.

The kernel never executes user machine code; the boundary between "kernel" and
"program" is crossed through Go function calls (see package prog), not through
an instruction interpreter. Booting a PIC, a GDT, or a TSS, decoding keyboard
scan codes, and rendering to a real VGA adapter are all someone else's
problem -- this package only ever sees a completed input line, a loaded
program image, and a slice it is allowed to write characters into.

# Physical memory map #

Every process gets the same four-megabyte virtual layout, mapped onto
different physical frames per process:

	+========+============+====================+
	|        | 0x08400000 |   user stack top   |
	| User   |     ...    |                    |
	| space  | 0x08048000 |   program image    |
	+========+============+====================+
	|        | 0x00800000 |  kernel stacks     | (one 8KiB slot per process, below this)
	| Kernel |     ...    |                    |
	| space  | 0x00400000 |   kernel image     | (4MiB page, ring 0 only)
	|        +------------+--------------------+
	|        | 0x000B8000 |   VGA text page    | (vidmap'd into user space)
	+========+============+====================+

# Subsystems #

	mem.go      paging: per-process 4MiB page + optional vidmap page
	fs.go       read-only image: boot block, dentries, inodes, data
	pcb.go      process control block, FD table, process pool
	proc.go     execute/halt process lifecycle
	syscall.go  ten-call syscall table
	signal.go   software signals, kernel-stack snapshot/restore
	rtc.go      virtualized, per-terminal real-time clock
	terminal.go line discipline for three terminals
	sched.go    round-robin scheduler, multi-terminal video arbitration
	idt.go      interrupt descriptor table / trap gateway
	pic.go      programmable interrupt controller boundary
	except.go   exception reporter
*/
package kernel
