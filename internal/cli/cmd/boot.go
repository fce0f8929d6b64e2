package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-edukernel/mp3os/internal/cli"
	"github.com/go-edukernel/mp3os/internal/kernel"
	"github.com/go-edukernel/mp3os/internal/log"
	"github.com/go-edukernel/mp3os/internal/tty"
)

// Booter replaces exec.go's single-program loader: instead of assembling
// one LC-3 object file into a simulated memory, it loads a filesystem image
// and boots the kernel's three terminals from it.
func Booter() cli.Command {
	return &booter{log: log.DefaultLogger()}
}

type booter struct {
	logLevel slog.Level
	log      *log.Logger
}

func (booter) Description() string {
	return "boot the kernel from a filesystem image"
}

func (booter) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `boot image.fs

Boots the kernel's three terminals from a filesystem image. Terminal 0's
input and output are attached to the console via a raw tty, when one is
available; terminals 1 and 2 run their base shell unattended.`)

	return err
}

func (b *booter) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("boot", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return b.logLevel.UnmarshalText([]byte(s))
	})

	return fs
}

// Run loads the named filesystem image and boots the kernel.
func (b *booter) Run(ctx context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if len(args) == 0 {
		logger.Error("boot: missing filesystem image argument")
		return 1
	}

	log.LogLevel.Set(b.logLevel)

	image, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("boot: reading image", "err", err)
		return 1
	}

	k, err := kernel.New(image, kernel.WithLogger(logger))
	if err != nil {
		logger.Error("boot: constructing kernel", "err", err)
		return 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for tid := kernel.TermID(0); tid < kernel.NumTerminals; tid++ {
		go k.Boot(ctx, tid)
	}

	go driveRTC(ctx, k)

	consoleCtx, console, restore := tty.ConsoleContext(ctx, k, 0)
	defer restore()

	if err := context.Cause(consoleCtx); errors.Is(err, tty.ErrNoTTY) {
		logger.Warn("boot: no console attached, running headless", "err", err)
	} else {
		_ = console
	}

	<-ctx.Done()

	return 0
}

// driveRTC stands in for the hardware periodic interrupt the source
// programs once into the PIC: a fixed-rate ticker that drives every
// terminal's virtualized RTC countdown (spec.md §4.7).
func driveRTC(ctx context.Context, k *kernel.Kernel) {
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
}
