package obslog_test

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/moesi-sim/internal/obslog"
	"github.com/stretchr/testify/require"
)

func TestNew_writesAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log := obslog.New(&buf, logiface.LevelInformational)

	log.Info().Str("component", "test").Log("hello")
	require.Contains(t, buf.String(), "hello")
}

func TestNew_disabledLevelSuppressesOutput(t *testing.T) {
	var buf bytes.Buffer
	log := obslog.New(&buf, logiface.LevelDisabled)

	log.Info().Log("should not appear")
	require.Empty(t, buf.String())
}

func TestDisconnect_nilLoggerDoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		obslog.Disconnect(nil, "cpu", 0, "instruction inlet")
	})
}

func TestDisconnect_arbiterOmitsProcessor(t *testing.T) {
	var buf bytes.Buffer
	log := obslog.New(&buf, logiface.LevelInformational)

	obslog.Disconnect(log, "arbiter", -1, "cpu signal channel")
	require.Contains(t, buf.String(), "channel disconnected")
	require.NotContains(t, buf.String(), "processor=")
}
