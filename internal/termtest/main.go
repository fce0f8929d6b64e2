// Termtest is a testing tool for Unix terminal I/O. Lacking simple PTY support, running this tool
// manually is easier than writing automated tests.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/go-edukernel/mp3os/internal/kernel"
	"github.com/go-edukernel/mp3os/internal/log"
	"github.com/go-edukernel/mp3os/internal/tty"
)

var logger = log.DefaultLogger()

const blockSize = 4096

// minimalImage builds the smallest file system image that boots a single
// "shell" program: one dentry, one inode, one data block carrying just
// enough of an ELF header to satisfy execute()'s checks.
func minimalImage() []byte {
	image := make([]byte, 3*blockSize)

	binary.LittleEndian.PutUint32(image[0:4], 1) // n_dentries
	binary.LittleEndian.PutUint32(image[4:8], 1) // n_inodes
	binary.LittleEndian.PutUint32(image[8:12], 1) // n_datablocks

	dentry := image[64 : 64+64]
	copy(dentry, "shell")
	binary.LittleEndian.PutUint32(dentry[32:36], 2) // FileTypeFile
	binary.LittleEndian.PutUint32(dentry[36:40], 0) // inode 0

	inode := image[blockSize : blockSize+blockSize]
	binary.LittleEndian.PutUint32(inode[0:4], 32) // size
	binary.LittleEndian.PutUint32(inode[4:8], 0)  // data block 0

	data := image[2*blockSize : 2*blockSize+blockSize]
	copy(data, []byte{0x7F, 'E', 'L', 'F'})
	binary.LittleEndian.PutUint32(data[24:28], 0) // entry point

	return image
}

func main() {
	ctx := context.Background()

	k, err := kernel.New(minimalImage(), kernel.WithLogger(logger))
	if err != nil {
		logger.Error(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	go k.Boot(ctx, 0)
	go func() {
		ticker := time.NewTicker(time.Second / 1024)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				k.RTCTick()
			}
		}
	}()

	consoleCtx, _, restore := tty.ConsoleContext(ctx, k, 0)
	defer restore()

	if cause := context.Cause(consoleCtx); errors.Is(cause, tty.ErrNoTTY) {
		logger.Error(cause.Error())
		return
	}

	logger.Info("console attached, type at the shell prompt")

	<-ctx.Done()
}
