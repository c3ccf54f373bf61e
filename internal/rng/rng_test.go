package rng_test

import (
	"testing"

	"github.com/joeycumines/moesi-sim/internal/rng"
	"github.com/stretchr/testify/require"
)

func TestSource_reproducible(t *testing.T) {
	a := rng.New(42)
	b := rng.New(42)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Next(), b.Next())
	}
}

func TestSource_differentSeeds(t *testing.T) {
	a := rng.New(1)
	b := rng.New(2)
	require.NotEqual(t, a.Next(), b.Next())
}

func TestSource_range(t *testing.T) {
	s := rng.New(7)
	for i := 0; i < 1000; i++ {
		v := s.Range(3, 9)
		require.GreaterOrEqual(t, v, uint32(3))
		require.LessOrEqual(t, v, uint32(9))
	}
}

func TestSource_rangeSingleton(t *testing.T) {
	s := rng.New(7)
	for i := 0; i < 10; i++ {
		require.Equal(t, uint32(5), s.Range(5, 5))
	}
}

func TestSource_rangePanicsOnInvalid(t *testing.T) {
	s := rng.New(1)
	require.Panics(t, func() { s.Range(9, 3) })
}

func TestSource_seedReset(t *testing.T) {
	s := rng.New(123)
	first := s.Next()
	s.Next()
	s.Seed(123)
	require.Equal(t, first, s.Next())
}
