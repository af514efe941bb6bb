// Command feedctl is a command line client for the article feed API.
//
// It signs up and keeps the account token, reads and writes articles, and
// streams article images into the sinks enabled in its configuration. The
// decode and journal commands work offline on captured image streams.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
