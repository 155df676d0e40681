package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// An interrupted run already cleaned up after itself; the
		// cancellation itself is not worth printing.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "nostrcast:", err)
		}
		os.Exit(1)
	}
}
