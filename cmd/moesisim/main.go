// Command moesisim runs a headless MOESI snooping-bus multiprocessor
// simulation and prints its event trace.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joeycumines/moesi-sim/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args[1:], sigCh))
}
