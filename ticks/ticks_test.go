package ticks

import (
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestUpdateLiquiditySignConvention(t *testing.T) {
	var lower, upper TickState

	require.NoError(t, lower.UpdateLiquidity(cosmath.NewInt(500), true))
	require.NoError(t, upper.UpdateLiquidity(cosmath.NewInt(500), false))

	assert.True(t, lower.Initialized)
	assert.True(t, upper.Initialized)
	assert.True(t, lower.GrossLiquidity.Equals(uint128.From64(500)))
	assert.True(t, upper.GrossLiquidity.Equals(uint128.From64(500)))
	assert.True(t, lower.NetLiquidityInt().Equal(cosmath.NewInt(500)))
	assert.True(t, upper.NetLiquidityInt().Equal(cosmath.NewInt(-500)))

	// gross strictly grows regardless of sign/side.
	require.NoError(t, lower.UpdateLiquidity(cosmath.NewInt(-200), true))
	assert.True(t, lower.GrossLiquidity.Equals(uint128.From64(700)))
	assert.True(t, lower.NetLiquidityInt().Equal(cosmath.NewInt(300)))
}

func TestUpdateLiquidityNetOverflowFails(t *testing.T) {
	var tick TickState
	require.NoError(t, tick.setNetLiquidity(maxInt128Int()))

	err := tick.UpdateLiquidity(cosmath.NewInt(1), true)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func maxInt128Int() cosmath.Int {
	return cosmath.NewIntFromBigInt(maxInt128)
}

func TestGetStartTickIndex(t *testing.T) {
	spacing := int32(10)
	span := spacing * TicksPerArray

	assert.EqualValues(t, 0, GetStartTickIndex(5, spacing))
	assert.EqualValues(t, 0, GetStartTickIndex(span-1, spacing))
	assert.EqualValues(t, span, GetStartTickIndex(span, spacing))
	assert.EqualValues(t, -span, GetStartTickIndex(-1, spacing))
	assert.EqualValues(t, -span, GetStartTickIndex(-span, spacing))
}

func TestSlotOffset(t *testing.T) {
	spacing := int32(10)
	start := GetStartTickIndex(25, spacing)

	off, err := SlotOffset(25, start, spacing)
	require.NoError(t, err)
	assert.Equal(t, 2, off)

	off, err = SlotOffset(start, start, spacing)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
}

func TestSlotOffsetOutOfRangeFails(t *testing.T) {
	spacing := int32(10)
	start := GetStartTickIndex(25, spacing)
	tooFar := start + spacing*TicksPerArray

	_, err := SlotOffset(tooFar, start, spacing)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestTickArraySlotRoundTrip(t *testing.T) {
	spacing := int32(10)
	arr := NewTickArray(GetStartTickIndex(0, spacing), spacing)

	slot, err := arr.Slot(30)
	require.NoError(t, err)
	require.NoError(t, slot.UpdateLiquidity(cosmath.NewInt(1000), true))

	again, err := arr.Slot(30)
	require.NoError(t, err)
	assert.True(t, again.GrossLiquidity.Equals(uint128.From64(1000)))
}

func TestTickArrayEncodeDecodeRoundTrip(t *testing.T) {
	spacing := int32(10)
	arr := NewTickArray(GetStartTickIndex(123, spacing), spacing)
	slot, err := arr.Slot(120)
	require.NoError(t, err)
	require.NoError(t, slot.UpdateLiquidity(cosmath.NewInt(42), true))

	data, err := arr.Encode()
	require.NoError(t, err)

	var decoded TickArray
	require.NoError(t, decoded.Decode(data))

	assert.Equal(t, arr.StartingTick, decoded.StartingTick)
	assert.Equal(t, arr.TickSpacing, decoded.TickSpacing)
	decodedSlot, err := decoded.Slot(120)
	require.NoError(t, err)
	assert.True(t, decodedSlot.GrossLiquidity.Equals(uint128.From64(42)))
	assert.True(t, decodedSlot.NetLiquidityInt().Equal(cosmath.NewInt(42)))
}
