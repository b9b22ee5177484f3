package submit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImmediateFlushesAtEndOfTick(t *testing.T) {
	s := NewImmediate()
	require.ErrorIs(t, s.EndOfTick(), ErrUnbound)

	flushes := 0
	require.NoError(t, s.Bind(func() error { flushes++; return nil }))
	require.ErrorIs(t, s.Bind(func() error { return nil }), ErrAlreadyBound)

	require.NoError(t, s.EndOfTick())
	require.NoError(t, s.EndOfTick())
	assert.Equal(t, 2, flushes)
	assert.False(t, s.Due())

	s.Close()
	require.ErrorIs(t, s.EndOfTick(), ErrClosed)
	require.ErrorIs(t, s.Bind(func() error { return nil }), ErrClosed)
}

func TestPumpFlushesOncePerTick(t *testing.T) {
	s := NewPump()
	flushes := 0
	require.NoError(t, s.Bind(func() error { flushes++; return nil }))

	ran, err := s.Pump()
	require.NoError(t, err)
	assert.False(t, ran, "no tick ended yet")

	require.NoError(t, s.EndOfTick())
	assert.True(t, s.Due())
	assert.Zero(t, flushes)

	ran, err = s.Pump()
	require.NoError(t, err)
	assert.True(t, ran)
	ran, err = s.Pump()
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, flushes)
	assert.False(t, s.Due())

	s.Close()
	_, err = s.Pump()
	require.ErrorIs(t, err, ErrClosed)
}

func TestPumpKeepsTickDueWhenFlushSkipped(t *testing.T) {
	s := NewPump()
	busy := errors.New("busy")
	applyErr := errors.New("apply failed")
	results := []error{
		fmt.Errorf("flush: %w: %w", busy, ErrFlushSkipped),
		applyErr,
		nil,
	}
	calls := 0
	require.NoError(t, s.Bind(func() error {
		err := results[calls]
		calls++
		return err
	}))
	require.NoError(t, s.EndOfTick())

	ran, err := s.Pump()
	require.ErrorIs(t, err, busy)
	assert.False(t, ran)
	assert.True(t, s.Due(), "skipped flush leaves the tick due")

	ran, err = s.Pump()
	require.ErrorIs(t, err, applyErr)
	assert.True(t, ran)
	assert.False(t, s.Due(), "failed apply still consumed the tick")

	require.NoError(t, s.EndOfTick())
	ran, err = s.Pump()
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 3, calls)
}
