package prog

// shell.go is the base shell every terminal boots into. It is a minimal
// read-eval loop: prompt, read a line from STDIN, execute it, repeat.
// Grounded on the base-shell role original_source/scheduler.c's
// switchTerminalInit describes ("sys_execute(\"shell\")") -- the shell
// program itself is not in original_source (it ships as a prebuilt user
// image), so this is a from-scratch program in the teacher's idiom, not a
// translation.

func init() {
	Register("shell", shellMain)
}

func shellMain(sys Syscalls) int32 {
	const prompt = "391OS> "

	for {
		sys.Write(1, []byte(prompt))

		buf := make([]byte, 128)
		n := sys.Read(0, buf)

		if n < 0 {
			// The read failed -- the only way that happens is the
			// terminal's context being torn down -- so stop instead of
			// spinning forever against a read that will never again
			// succeed.
			return sys.Halt(-1)
		}

		if n == 0 {
			continue
		}

		line := trimRight(buf[:n])
		if len(line) == 0 {
			continue
		}

		sys.Execute(string(line))
	}
}

// trimRight drops any trailing newline, carriage-return and space bytes.
// execute()'s own argument parser then trims spaces from the command tail.
func trimRight(b []byte) []byte {
	end := len(b)
	for end > 0 && (b[end-1] == '\n' || b[end-1] == '\r' || b[end-1] == ' ') {
		end--
	}

	return b[:end]
}
