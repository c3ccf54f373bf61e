// Package cli implements the moesisim command: parsing flags into a
// coherence.Config, running the simulator for a configured number of
// steps (or until interrupted), and printing its event stream.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	flag "github.com/spf13/pflag"

	"github.com/joeycumines/moesi-sim/internal/coherence"
	"github.com/joeycumines/moesi-sim/internal/driver"
	"github.com/joeycumines/moesi-sim/internal/events"
	"github.com/joeycumines/moesi-sim/internal/obslog"
)

// Run parses args, builds and runs a coherence.System, and prints its
// event trace to stdout until either the configured step count is reached
// or sigCh delivers a signal. It returns the process exit code.
func Run(stdout, stderr io.Writer, args []string, sigCh <-chan os.Signal) int {
	fs := flag.NewFlagSet("moesisim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	processors := fs.IntP("processors", "p", 4, "number of processors")
	associativity := fs.Int("associativity", 2, "cache associativity")
	sets := fs.Int("sets", 2, "cache sets per processor")
	memBlocks := fs.Int("memory-blocks", 8, "main memory size, in blocks")
	bytesPerWord := fs.Int("bytes-per-word", 2, "bytes per word, for address decomposition")
	seed := fs.Uint32("seed", 1, "random source seed")
	busDelay := fs.Duration("bus-delay", time.Millisecond, "artificial per-transaction bus delay")
	steps := fs.Int("steps", 0, "number of simulation steps to run (0 = until interrupted)")
	rate := fs.Float64("rate", 0, "maximum trace lines/sec printed (0 = unlimited)")
	jsonOutput := fs.Bool("json", false, "print each event as a JSON object instead of a text line")
	verbose := fs.Bool("verbose", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := logiface.LevelInformational
	if *verbose {
		level = logiface.LevelDebug
	}
	log := obslog.New(stderr, level)

	cfg := coherence.Config{
		NumProcessors:      *processors,
		CacheAssociativity: *associativity,
		CacheSets:          *sets,
		MainMemoryBlocks:   *memBlocks,
		BytesPerWord:       *bytesPerWord,
		BusDelay:           *busDelay,
		Seed:               *seed,
	}

	var limiter *catrate.Limiter
	if *rate > 0 {
		limiter = catrate.NewLimiter(map[time.Duration]int{time.Second: int(*rate)})
	}

	sink := newPrintingSink(stdout, *jsonOutput, limiter)
	batch := events.NewBatchSink(32, 50*time.Millisecond, sink.emitBatch)
	defer batch.Close()

	sys, err := coherence.New(cfg, batch, log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	sys.Start(ctx)

	addressSpace := uint64(*memBlocks) * uint64(*bytesPerWord)
	d := driver.NewRandomDriver(*seed, addressSpace)
	inlets := sys.Inlets()

	stepCount := 0
	for *steps <= 0 || stepCount < *steps {
		if _, err := d.Step(ctx, inlets); err != nil {
			break
		}
		stepCount++
	}

	// Stop the driver's own source of new instructions first, then tear
	// down the rest of the system: cancelling unblocks any goroutine
	// parked on a bus rendezvous, so Wait is guaranteed to return.
	sys.Close()
	cancel()
	sys.Wait()

	return 0
}
