// Package obslog wires the coherence engine's diagnostic logging: a thin
// wrapper over logiface, backed by zerolog via izerolog, matching the
// shutdown-diagnostic policy in spec.md §7 (a disconnected channel gets a
// brief identifying log line, not a panic).
package obslog

import (
	"io"
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the type every core component logs through.
type Logger = logiface.Logger[*izerolog.Event]

// New returns a Logger writing human-readable lines to w (os.Stderr if nil),
// at the given level. Pass logiface.LevelDisabled to silence it entirely,
// which is the default used by components that receive no *Logger.
func New(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	return izerolog.L.New(
		izerolog.L.WithZerolog(zl),
		izerolog.L.WithLevel(level),
	)
}

// Discard is a Logger with logging disabled, safe to embed as a zero-value
// default in any component that isn't given a real Logger.
var Discard = New(io.Discard, logiface.LevelDisabled)

// Disconnect logs the brief diagnostic spec.md §7 calls for when a thread
// discovers its channel counterpart has gone away: component identifies the
// goroutine (e.g. "cpu", "snoop", "arbiter"), processorID is -1 for the
// arbiter, and channel names which channel returned closed.
func Disconnect(log *Logger, component string, processorID int, channel string) {
	if log == nil {
		log = Discard
	}
	b := log.Info().Str("component", component).Str("channel", channel)
	if processorID >= 0 {
		b = b.Int("processor", processorID)
	}
	b.Log("channel disconnected, exiting")
}
