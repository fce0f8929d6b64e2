// Package tty_test tries to test ttys.
//
// The test is skipped when stdin is not a terminal (ErrNoTTY). Notably, this includes when run with
// "go test" because it redirects tests' standard input/output streams. You can test it by building
// a test binary and running it directly:
//
//	$ go test -c && ./tty.test
package tty_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/go-edukernel/mp3os/internal/kernel"
	"github.com/go-edukernel/mp3os/internal/tty"
)

type testHarness struct {
	*testing.T
}

const (
	timeout   = 100 * time.Millisecond
	blockSize = 4096
)

func (testHarness) Context() (context.Context, context.CancelFunc) {
	ctx := context.Background()
	return context.WithTimeoutCause(ctx, timeout, context.DeadlineExceeded)
}

func minimalImage() []byte {
	image := make([]byte, 3*blockSize)

	binary.LittleEndian.PutUint32(image[0:4], 1)
	binary.LittleEndian.PutUint32(image[4:8], 1)
	binary.LittleEndian.PutUint32(image[8:12], 1)

	dentry := image[64 : 64+64]
	copy(dentry, "shell")
	binary.LittleEndian.PutUint32(dentry[32:36], 2)
	binary.LittleEndian.PutUint32(dentry[36:40], 0)

	inode := image[blockSize : blockSize+blockSize]
	binary.LittleEndian.PutUint32(inode[0:4], 32)
	binary.LittleEndian.PutUint32(inode[4:8], 0)

	data := image[2*blockSize : 2*blockSize+blockSize]
	copy(data, []byte{0x7F, 'E', 'L', 'F'})
	binary.LittleEndian.PutUint32(data[24:28], 0)

	return image
}

func TestTerminal(tt *testing.T) {
	t := testHarness{tt}

	k, err := kernel.New(minimalImage())
	if err != nil {
		t.Fatalf("kernel.New: %s", err)
	}

	ctx, cancel := t.Context()
	defer cancel()

	bootCtx, bootCancel := context.WithCancel(ctx)
	defer bootCancel()

	go k.Boot(bootCtx, 0)

	ctx, console, cancel := tty.ConsoleContext(ctx, k, 0)
	defer cancel()

	if err := context.Cause(ctx); errors.Is(err, tty.ErrNoTTY) {
		t.Skipf("error: %s", context.Cause(ctx))
		t.SkipNow()
	}

	_ = console

	k.FeedLine(0, []byte("halt 0\n"))

	<-ctx.Done()

	if err := ctx.Err(); err != nil && !errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		t.Errorf("cause: %s", context.Cause(ctx))
	}
}
