package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortPool_AllocateRoundRobinWithWraparound(t *testing.T) {
	pool, err := NewPortPool(PortRange{Min: 5000, Max: 5002})
	require.NoError(t, err)

	a, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 5000, a)

	b, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 5001, b)

	pool.Release(a)

	c, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 5002, c)

	// wraps back to Min, finds 5000 free again since it was released
	d, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 5000, d)
}

func TestPortPool_ExhaustedReportsFullCircle(t *testing.T) {
	pool, err := NewPortPool(PortRange{Min: 6000, Max: 6000})
	require.NoError(t, err)

	_, err = pool.Allocate()
	require.NoError(t, err)

	_, err = pool.Allocate()
	assert.Error(t, err)
}

func TestPortPool_InvalidRangeRejected(t *testing.T) {
	_, err := NewPortPool(PortRange{Min: 0, Max: 100})
	assert.Error(t, err)

	_, err = NewPortPool(PortRange{Min: 100, Max: 50})
	assert.Error(t, err)
}
