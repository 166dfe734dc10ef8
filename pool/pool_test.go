package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/clmmtest"
)

func TestNewPoolValidatesInvariants(t *testing.T) {
	t0, t1 := clmmtest.NewTokenPair()
	vault0, vault1 := clmmtest.NewWallet(), clmmtest.NewWallet()
	initial := clmmtest.SqrtPriceAtTickZero // tick 0

	p, err := New(t0, t1, vault0, vault1, 10, initial, 255)
	require.NoError(t, err)
	assert.EqualValues(t, 0, p.CurrentTick)
	assert.True(t, p.GlobalLiquidity.IsZero())

	_, err = New(t1, t0, vault0, vault1, 10, initial, 255)
	assert.ErrorIs(t, err, ErrInvalidTokenOrder)

	_, err = New(t0, t0, vault0, vault1, 10, initial, 255)
	assert.ErrorIs(t, err, ErrInvalidTokenPair)

	_, err = New(t0, t1, vault0, vault1, 0, initial, 255)
	assert.ErrorIs(t, err, ErrInvalidTickSpacing)
}

func TestInRange(t *testing.T) {
	t0, t1 := clmmtest.NewTokenPair()
	vault0, vault1 := clmmtest.NewWallet(), clmmtest.NewWallet()
	initial := clmmtest.SqrtPriceAtTickZero

	p, err := New(t0, t1, vault0, vault1, 10, initial, 255)
	require.NoError(t, err)

	spLo := uint128.From64(1).Lsh(95) // < initial
	spUp := uint128.From64(3).Lsh(95) // > initial
	assert.True(t, p.InRange(spLo, spUp))
	assert.False(t, p.InRange(spUp, spUp.Mul(uint128.From64(2))))
}
