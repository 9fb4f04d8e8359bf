package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/vvka-141/fscat/internal/cli"
	"github.com/vvka-141/fscat/pkg/fscat"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(fscat.ExitPanic)
		}
	}()

	if os.Getenv("FSCAT_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	// The first interrupt cancels the running operation; a second one
	// terminates the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(fscat.ExitCodeForError(err))
	}
}
