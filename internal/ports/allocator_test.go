package ports

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateReturnsPortInRange(t *testing.T) {
	port, err := Allocate(8000, 8100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 8000)
	assert.LessOrEqual(t, port, 8100)
}

func TestAllocatedPortIsImmediatelyBindable(t *testing.T) {
	port, err := Allocate(8000, 8100)
	require.NoError(t, err)

	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err, "allocated port must be genuinely free")
	_ = l.Close()
}

func TestAllocateSkipsBoundPort(t *testing.T) {
	// Occupy the low end of a small range and expect the scan to move past it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	busy := l.Addr().(*net.TCPAddr).Port
	port, err := Allocate(busy, busy+10)
	require.NoError(t, err)
	assert.NotEqual(t, busy, port)
	assert.Greater(t, port, busy)
}

func TestAllocateExhaustedRange(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	busy := l.Addr().(*net.TCPAddr).Port
	_, err = Allocate(busy, busy)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestAllocateInvalidRange(t *testing.T) {
	_, err := Allocate(9000, 8000)
	assert.Error(t, err)

	_, err = Allocate(0, 100)
	assert.Error(t, err)
}
