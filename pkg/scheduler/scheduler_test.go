package scheduler

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(log *[]string, name string) Task {
	return func() error {
		*log = append(*log, name)
		return nil
	}
}

func TestTickOrderAtBoundaries(t *testing.T) {
	var log []string
	s := New()
	// added out of order on purpose
	require.NoError(t, s.Add(1000, recorder(&log, "1000a"), recorder(&log, "1000b")))
	require.NoError(t, s.Add(10, recorder(&log, "10")))
	require.NoError(t, s.Add(100, recorder(&log, "100")))
	assert.Equal(t, []uint32{10, 100, 1000}, s.Periods())

	require.NoError(t, s.Tick())
	assert.Equal(t, []string{"10", "100", "1000a", "1000b"}, log, "tick 0 runs everything")

	for i := 1; i < 1000; i++ {
		require.NoError(t, s.Tick())
	}
	assert.Equal(t, uint32(1000), s.Ticks())

	log = nil
	require.NoError(t, s.Tick())
	assert.Equal(t, []string{"10", "100", "1000a", "1000b"}, log)
}

func TestTickCounts(t *testing.T) {
	counts := map[uint32]int{}
	s := New()
	for _, p := range []uint32{10, 100, 1000} {
		p := p
		require.NoError(t, s.Add(p, func() error {
			counts[p]++
			return nil
		}))
	}
	for i := 0; i < 2000; i++ {
		require.NoError(t, s.Tick())
	}
	assert.Equal(t, 200, counts[10])
	assert.Equal(t, 20, counts[100])
	assert.Equal(t, 2, counts[1000])
}

func TestSamePeriodAppends(t *testing.T) {
	var log []string
	s := New()
	require.NoError(t, s.Add(10, recorder(&log, "a")))
	require.NoError(t, s.Add(10, recorder(&log, "b")))
	require.NoError(t, s.Tick())
	assert.Equal(t, []string{"a", "b"}, log)
	assert.Equal(t, []uint32{10}, s.Periods())
}

func TestTickJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	ran := 0
	s := New()
	require.NoError(t, s.Add(10,
		func() error { ran++; return errA },
		func() error { ran++; return nil },
	))
	require.NoError(t, s.Add(100, func() error { ran++; return errB }))

	err := s.Tick()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 3, ran, "no task is skipped")
}

func TestInvalidPeriod(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Add(0), ErrPeriod)

	s = New()
	require.NoError(t, s.Add(65536))
	assert.ErrorIs(t, s.Add(65537), ErrPeriod)
}

func TestTickBound(t *testing.T) {
	s := New(WithTickBound(1000))
	require.NoError(t, s.Add(10))
	require.NoError(t, s.Add(100))
	require.NoError(t, s.Add(1000))
	assert.Equal(t, uint32(1000), s.Wrap())
	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Tick())
	}
	assert.Zero(t, s.Ticks())

	s = New(WithTickBound(150))
	require.NoError(t, s.Add(10))
	assert.ErrorIs(t, s.Add(100), ErrBound)
	assert.Equal(t, []uint32{10}, s.Periods())
}

func TestDefaultWrapIsLCMMultiple(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(10))
	require.NoError(t, s.Add(100))
	require.NoError(t, s.Add(1000))
	assert.Zero(t, s.Wrap()%1000)
	assert.Greater(t, uint64(s.Wrap())+1000, uint64(math.MaxUint32))
}

func TestWrapKeepsModularMembership(t *testing.T) {
	var log []string
	s := New(WithTickBound(30))
	require.NoError(t, s.Add(10, recorder(&log, "10")))
	require.NoError(t, s.Add(15, recorder(&log, "15")))
	for i := 0; i < 90; i++ {
		require.NoError(t, s.Tick())
	}
	// each 30 tick cycle: 10 runs at 0,10,20 and 15 runs at 0,15
	assert.Len(t, log, 3*5)
}

func TestAddAfterTickingKeepsPhase(t *testing.T) {
	s := New()
	var tens, sevens int
	require.NoError(t, s.Add(10, func() error { tens++; return nil }))
	s.tick = s.Wrap() - 5
	require.Equal(t, uint32(5), s.Ticks()%10)

	require.NoError(t, s.Add(7, func() error { sevens++; return nil }))
	assert.Less(t, s.Ticks(), s.Wrap())
	assert.Equal(t, uint32(5), s.Ticks()%10)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Tick())
	}
	assert.Zero(t, tens)
	require.NoError(t, s.Tick())
	assert.Equal(t, 1, tens)
	assert.Equal(t, uint32(41), s.Ticks())
	assert.Equal(t, 1, sevens)
}
