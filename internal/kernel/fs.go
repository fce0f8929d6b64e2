package kernel

// fs.go implements the read-only file system: spec.md §4.3. The on-image
// layout is modeled as a typed, bounds-checked view over a byte slice
// rather than raw pointer projections (spec.md §9's re-architecture
// guidance), the same idiom internal/vm/loader.go uses for object code.
//
// Grounded on original_source/file_system.c and original_source/types.h
// for the exact on-disk layout and field sizes.

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-edukernel/mp3os/internal/log"
)

const (
	blockSize      = 4096
	dentryNameSize = 32
	dentrySize     = 64
	maxDentries    = 63
	inodeBlockRefs = 1023
)

// FileType identifies the kind of object a dentry names.
type FileType uint32

const (
	FileTypeRTC FileType = iota
	FileTypeDir
	FileTypeFile
)

func (t FileType) String() string {
	switch t {
	case FileTypeRTC:
		return "rtc"
	case FileTypeDir:
		return "dir"
	case FileTypeFile:
		return "file"
	default:
		return fmt.Sprintf("filetype(%d)", uint32(t))
	}
}

// Dentry is a 64-byte directory entry.
type Dentry struct {
	Name  string
	Type  FileType
	Inode uint32
}

// Inode describes one file's size and the data blocks holding its bytes.
type Inode struct {
	Size   uint32
	Blocks []uint32
}

// FileSystem is a read-only view over an in-memory file system image:
// a boot block, an inode table, and a data-block region.
type FileSystem struct {
	dentries []Dentry
	inodes   []Inode
	data     [][]byte

	log *log.Logger
}

var (
	ErrShortImage  = errors.New("file system: image too small")
	ErrNotFound    = errors.New("file system: not found")
	ErrBadInode    = errors.New("file system: bad inode")
	ErrNilBuf      = errors.New("file system: nil buffer")
	ErrBadDentry   = errors.New("file system: dentry index out of range")
)

// NewFileSystem parses a raw file system image per spec.md §6's layout.
func NewFileSystem(image []byte) (*FileSystem, error) {
	if len(image) < blockSize {
		return nil, ErrShortImage
	}

	var (
		nDentries   = binary.LittleEndian.Uint32(image[0:4])
		nInodes     = binary.LittleEndian.Uint32(image[4:8])
		nDatablocks = binary.LittleEndian.Uint32(image[8:12])
	)

	if nDentries > maxDentries {
		return nil, fmt.Errorf("%w: n_dentries=%d exceeds %d", ErrBadDentry, nDentries, maxDentries)
	}

	fs := &FileSystem{log: log.DefaultLogger()}

	for i := uint32(0); i < nDentries; i++ {
		off := 64 + int(i)*dentrySize
		if off+dentrySize > len(image) {
			return nil, ErrShortImage
		}

		raw := image[off : off+dentrySize]

		nameEnd := dentryNameSize
		for j := 0; j < dentryNameSize; j++ {
			if raw[j] == 0 {
				nameEnd = j
				break
			}
		}

		fs.dentries = append(fs.dentries, Dentry{
			Name:  string(raw[:nameEnd]),
			Type:  FileType(binary.LittleEndian.Uint32(raw[32:36])),
			Inode: binary.LittleEndian.Uint32(raw[36:40]),
		})
	}

	inodeStart := blockSize
	for i := uint32(0); i < nInodes; i++ {
		off := inodeStart + int(i)*blockSize
		if off+blockSize > len(image) {
			return nil, ErrShortImage
		}

		raw := image[off : off+blockSize]
		size := binary.LittleEndian.Uint32(raw[0:4])

		nBlocks := (size + blockSize - 1) / blockSize
		if nBlocks > inodeBlockRefs {
			return nil, fmt.Errorf("%w: inode %d needs %d blocks, max %d", ErrBadInode, i, nBlocks, inodeBlockRefs)
		}

		blocks := make([]uint32, nBlocks)
		for b := uint32(0); b < nBlocks; b++ {
			blocks[b] = binary.LittleEndian.Uint32(raw[4+b*4 : 8+b*4])
		}

		fs.inodes = append(fs.inodes, Inode{Size: size, Blocks: blocks})
	}

	dataStart := inodeStart + int(nInodes)*blockSize
	for i := uint32(0); i < nDatablocks; i++ {
		off := dataStart + int(i)*blockSize
		if off+blockSize > len(image) {
			return nil, ErrShortImage
		}

		fs.data = append(fs.data, image[off:off+blockSize])
	}

	return fs, nil
}

// Lookup scans dentries for an exact-length name match. Per spec.md §9's
// resolved Open Question, a name longer than 32 bytes can never match
// (not even as a truncated prefix).
func (fs *FileSystem) Lookup(name string) (Dentry, bool) {
	if len(name) > dentryNameSize {
		return Dentry{}, false
	}

	for _, d := range fs.dentries {
		if d.Name == name {
			return d, true
		}
	}

	return Dentry{}, false
}

// DentryByIndex returns the i-th dentry, in on-image order. It is used by
// the directory-read syscall to enumerate entries one at a time.
func (fs *FileSystem) DentryByIndex(i int) (Dentry, bool) {
	if i < 0 || i >= len(fs.dentries) {
		return Dentry{}, false
	}

	return fs.dentries[i], true
}

// NumDentries returns the number of directory entries in the image.
func (fs *FileSystem) NumDentries() int { return len(fs.dentries) }

// ReadData copies min(len(buf), size-offset) bytes from inode starting at
// offset, following the inode's block index table. It returns the number
// of bytes copied, which is 0 at or past EOF.
func (fs *FileSystem) ReadData(inode uint32, offset int, buf []byte) (int, error) {
	if buf == nil {
		return -1, ErrNilBuf
	}

	if int(inode) >= len(fs.inodes) {
		return -1, ErrBadInode
	}

	ino := fs.inodes[inode]
	if offset < 0 || offset >= int(ino.Size) {
		return 0, nil
	}

	remaining := int(ino.Size) - offset
	n := len(buf)
	if remaining < n {
		n = remaining
	}

	copied := 0
	for copied < n {
		blockIdx := (offset + copied) / blockSize
		blockOff := (offset + copied) % blockSize

		if blockIdx >= len(ino.Blocks) {
			break
		}

		dataBlock := ino.Blocks[blockIdx]
		if int(dataBlock) >= len(fs.data) {
			return copied, fmt.Errorf("%w: data block %d out of range", ErrBadInode, dataBlock)
		}

		chunk := fs.data[dataBlock][blockOff:]
		want := n - copied
		if len(chunk) > want {
			chunk = chunk[:want]
		}

		copy(buf[copied:], chunk)
		copied += len(chunk)
	}

	return copied, nil
}

// FileSize returns the size, in bytes, of the given inode.
//
// Supplemented from original_source/file_system.c's return_file_size
// (dropped by the distillation; not excluded by any non-goal).
func (fs *FileSystem) FileSize(inode uint32) (uint32, error) {
	if int(inode) >= len(fs.inodes) {
		return 0, ErrBadInode
	}

	return fs.inodes[inode].Size, nil
}

// HasELFMagic reports whether image begins with the bytes 0x7F 'E' 'L' 'F',
// the executable-image signature spec.md §6 requires execute() to check.
func HasELFMagic(image []byte) bool {
	return len(image) >= 4 &&
		image[0] == 0x7F && image[1] == 'E' && image[2] == 'L' && image[3] == 'F'
}

// EntryPoint reads the program's entry address: the little-endian u32 at
// file offset 24.
func EntryPoint(image []byte) (Addr, error) {
	if len(image) < 28 {
		return 0, fmt.Errorf("%w: image too small for entry point", ErrShortImage)
	}

	return Addr(binary.LittleEndian.Uint32(image[24:28])), nil
}

func (fs *FileSystem) withLogger(logger *log.Logger) {
	fs.log = logger
}
