package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/clmmtest"
)

func testKey() Key {
	return Key{
		Pool:  clmmtest.NewWallet(),
		Owner: clmmtest.NewWallet(),
		Lower: -10,
		Upper: 10,
	}
}

func TestOpenIncreaseDecreaseClose(t *testing.T) {
	s := NewStore()
	key := testKey()

	p, err := s.Open(key, uint128.From64(1_000_000))
	require.NoError(t, err)
	assert.True(t, p.Liquidity.Equals(uint128.From64(1_000_000)))

	_, err = s.Open(key, uint128.From64(1))
	assert.ErrorIs(t, err, ErrPositionExists)

	p, err = s.Increase(key, uint128.From64(500))
	require.NoError(t, err)
	assert.True(t, p.Liquidity.Equals(uint128.From64(1_000_500)))

	_, err = s.Decrease(key, uint128.From64(2_000_000))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p, err = s.Decrease(key, uint128.From64(1_000_500))
	require.NoError(t, err)
	assert.True(t, p.Liquidity.IsZero())

	require.NoError(t, s.Close(key))
	_, err = s.Get(key)
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestSecondaryIndexesUpdateOnClose(t *testing.T) {
	s := NewStore()
	key := testKey()

	_, err := s.Open(key, uint128.From64(100))
	require.NoError(t, err)

	assert.Contains(t, s.ByOwner(key.Owner), key)
	assert.Contains(t, s.ByPool(key.Pool), key)

	_, err = s.Decrease(key, uint128.From64(100))
	require.NoError(t, err)
	require.NoError(t, s.Close(key))

	assert.NotContains(t, s.ByOwner(key.Owner), key)
	assert.NotContains(t, s.ByPool(key.Pool), key)
}

func TestIncreaseMissingPositionFails(t *testing.T) {
	s := NewStore()
	_, err := s.Increase(testKey(), uint128.From64(1))
	assert.ErrorIs(t, err, ErrPositionNotFound)
}
