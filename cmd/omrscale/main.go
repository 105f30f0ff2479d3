// Command omrscale measures the scale of scanned music sheets: staff line
// thickness, interline and beam thickness.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := &rootOptions{}
	err := newRootCmd(opts).ExecuteContext(ctx)
	opts.close()
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
