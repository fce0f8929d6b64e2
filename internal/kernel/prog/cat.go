package prog

// cat.go is a small user program that prints the file named by its
// argument. It exercises the open/read/write/close syscalls end-to-end,
// grounded on spec.md §8's scenario 2 ("execute \"cat frame0.txt\"").

func init() {
	Register("cat", catMain)
}

func catMain(sys Syscalls) int32 {
	argbuf := make([]byte, 128)

	n := sys.GetArgs(argbuf)
	if n < 0 {
		sys.Write(1, []byte("cat: no arguments\n"))
		return 1
	}

	name := string(argbuf[:n])

	fd := sys.Open(name)
	if fd < 0 {
		sys.Write(1, []byte("cat: file not found\n"))
		return 1
	}

	buf := make([]byte, 1024)

	for {
		r := sys.Read(int(fd), buf)
		if r <= 0 {
			break
		}

		sys.Write(1, buf[:r])
	}

	sys.Close(int(fd))

	return 0
}
