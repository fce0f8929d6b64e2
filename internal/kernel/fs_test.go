package kernel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// buildImage assembles a minimal file system image: a boot block with the
// given dentries, one inode per entry (in order), and the entry's data
// bytes in a single data block each. It mirrors original_source/fsmod's
// on-disk layout closely enough for fs.go's parser.
type imageFile struct {
	name string
	typ  FileType
	data []byte
}

func buildImage(t *testing.T, files []imageFile) []byte {
	t.Helper()

	nInodes := len(files)
	nData := len(files)

	size := blockSize + nInodes*blockSize + nData*blockSize
	image := make([]byte, size)

	binary.LittleEndian.PutUint32(image[0:4], uint32(len(files)))
	binary.LittleEndian.PutUint32(image[4:8], uint32(nInodes))
	binary.LittleEndian.PutUint32(image[8:12], uint32(nData))

	for i, f := range files {
		off := 64 + i*dentrySize
		dentry := image[off : off+dentrySize]
		copy(dentry, f.name)
		binary.LittleEndian.PutUint32(dentry[32:36], uint32(f.typ))
		binary.LittleEndian.PutUint32(dentry[36:40], uint32(i))

		if len(f.data) > blockSize {
			t.Fatalf("file %q: test only supports single-block files", f.name)
		}

		inodeOff := blockSize + i*blockSize
		inode := image[inodeOff : inodeOff+blockSize]
		binary.LittleEndian.PutUint32(inode[0:4], uint32(len(f.data)))
		binary.LittleEndian.PutUint32(inode[4:8], uint32(i))

		dataOff := blockSize + nInodes*blockSize + i*blockSize
		copy(image[dataOff:dataOff+blockSize], f.data)
	}

	return image
}

func elfImage(entry uint32, body string) []byte {
	buf := make([]byte, 28+len(body))
	buf[0], buf[1], buf[2], buf[3] = 0x7F, 'E', 'L', 'F'
	binary.LittleEndian.PutUint32(buf[24:28], entry)
	copy(buf[28:], body)

	return buf
}

func TestFileSystemLookup(t *testing.T) {
	image := buildImage(t, []imageFile{
		{name: "shell", typ: FileTypeFile, data: elfImage(0x100, "shell-body")},
		{name: ".", typ: FileTypeDir, data: nil},
		{name: "rtc", typ: FileTypeRTC, data: nil},
	})

	fs, err := NewFileSystem(image)
	if err != nil {
		t.Fatalf("NewFileSystem: %s", err)
	}

	d, ok := fs.Lookup("shell")
	if !ok || d.Type != FileTypeFile {
		t.Fatalf("Lookup(shell) = %+v, %v", d, ok)
	}

	if _, ok := fs.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestFileSystemLookupNameTooLong(t *testing.T) {
	image := buildImage(t, []imageFile{
		{name: "shell", typ: FileTypeFile, data: elfImage(0, "x")},
	})

	fs, err := NewFileSystem(image)
	if err != nil {
		t.Fatalf("NewFileSystem: %s", err)
	}

	long32 := strings.Repeat("a", 32)
	long33 := strings.Repeat("a", 33)

	// A name exactly 32 bytes is legal to look up (just won't match here).
	if _, ok := fs.Lookup(long32); ok {
		t.Error("32-byte unknown name unexpectedly matched")
	}

	// A name over 32 bytes must never match, even as a truncated prefix.
	if _, ok := fs.Lookup(long33); ok {
		t.Error("33-byte name should never match (resolved Open Question)")
	}
}

func TestFileSystemReadData(t *testing.T) {
	body := "hello, kernel"
	image := buildImage(t, []imageFile{
		{name: "greeting", typ: FileTypeFile, data: elfImage(0, body)},
	})

	fs, err := NewFileSystem(image)
	if err != nil {
		t.Fatalf("NewFileSystem: %s", err)
	}

	d, ok := fs.Lookup("greeting")
	if !ok {
		t.Fatal("Lookup(greeting) failed")
	}

	buf := make([]byte, 4096)
	n, err := fs.ReadData(d.Inode, 0, buf)
	if err != nil {
		t.Fatalf("ReadData: %s", err)
	}

	if !bytes.Contains(buf[:n], []byte(body)) {
		t.Errorf("ReadData did not return the expected body; got %d bytes", n)
	}

	// Reading past EOF returns 0, nil.
	n, err = fs.ReadData(d.Inode, n, buf)
	if err != nil || n != 0 {
		t.Errorf("ReadData past EOF = %d, %v, want 0, nil", n, err)
	}
}

func TestFileSystemShortImage(t *testing.T) {
	_, err := NewFileSystem(make([]byte, 10))
	if !errors.Is(err, ErrShortImage) {
		t.Errorf("NewFileSystem(short): got %v, want ErrShortImage", err)
	}
}

func TestHasELFMagicAndEntryPoint(t *testing.T) {
	img := elfImage(0x08048000, "payload")

	if !HasELFMagic(img) {
		t.Error("HasELFMagic should be true for a well-formed header")
	}

	entry, err := EntryPoint(img)
	if err != nil {
		t.Fatalf("EntryPoint: %s", err)
	}

	if entry != Addr(0x08048000) {
		t.Errorf("EntryPoint = %s, want 0x08048000", entry)
	}

	if HasELFMagic([]byte{0, 0, 0}) {
		t.Error("HasELFMagic should be false for a too-short image")
	}
}
