// Package ticks implements TickStore: the per-tick liquidity bookkeeping
// sharded into fixed-size dense arrays, grounded on
// original_source/programs/clmm/src/states/ticks.rs for the per-tick
// update semantics and on
// nick199910-SolRoute/pkg/pool/raydium/clmm_tickerarray.go for the
// wire-layout/shard-addressing idiom.
package ticks

import (
	"bytes"
	"errors"
	"math/big"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/binary"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/fixedmath"
)

// TicksPerArray is the dense-array shard size. The spec leaves this
// implementation-defined with 64 suggested as a practical value.
const TicksPerArray = 64

var (
	ErrArithmeticOverflow = errors.New("ticks: arithmetic overflow")
)

var (
	two128    = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	mask64    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
)

// TickState is one per (pool, tick) actually touched. GrossLiquidity is a
// genuine u128 (states/ticks.rs's gross_liquidity: u128); NetLiquidity is a
// genuine signed i128, wire-packed as its two's-complement Lo/Hi 64-bit
// halves since neither uint128.Uint128 nor the binary codec has a native
// signed-128 type — NetLiquidityInt/setNetLiquidity are the only code
// allowed to touch the halves directly.
type TickState struct {
	Initialized    bool            `bin:"le"`
	GrossLiquidity uint128.Uint128 `bin:"le"`
	NetLiquidityLo uint64          `bin:"le"`
	NetLiquidityHi int64           `bin:"le"`
}

// NetLiquidityInt reconstructs the signed i128 net liquidity from its
// two's-complement wire halves.
func (t *TickState) NetLiquidityInt() cosmath.Int {
	bits := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(t.NetLiquidityHi)), 64)
	bits.Or(bits, new(big.Int).SetUint64(t.NetLiquidityLo))
	if bits.Bit(127) == 1 {
		bits.Sub(bits, two128)
	}
	return cosmath.NewIntFromBigInt(bits)
}

// setNetLiquidity encodes v into the two's-complement Lo/Hi wire halves,
// failing ErrArithmeticOverflow if v does not fit in a signed 128-bit value.
func (t *TickState) setNetLiquidity(v cosmath.Int) error {
	bi := v.BigInt()
	if bi.Cmp(minInt128) < 0 || bi.Cmp(maxInt128) > 0 {
		return ErrArithmeticOverflow
	}
	bits := new(big.Int).Set(bi)
	if bits.Sign() < 0 {
		bits.Add(bits, two128)
	}
	t.NetLiquidityLo = new(big.Int).And(bits, mask64).Uint64()
	t.NetLiquidityHi = int64(new(big.Int).Rsh(bits, 64).Uint64())
	return nil
}

// UpdateLiquidity idempotently marks the slot initialized, checked-accumulates
// |delta| into GrossLiquidity, and checked-adds/subtracts delta into
// NetLiquidity depending on whether this slot is the lower or upper bound of
// the position driving the update. Grounded on states/ticks.rs's
// update_liquidity: lower bounds add delta, upper bounds subtract it — the
// convention that makes NetLiquidity exactly the adjustment
// pool.global_liquidity would need on an upward cross of this tick. Both
// accumulations are fallible exactly as the Rust original's
// checked_add/checked_sub().ok_or(ArithmeticOverflow) are: overflow returns
// ErrArithmeticOverflow rather than wrapping.
func (t *TickState) UpdateLiquidity(delta cosmath.Int, isLower bool) error {
	abs := delta
	if abs.IsNegative() {
		abs = abs.Neg()
	}
	gross, err := fixedmath.FromCheckedInt(fixedmath.ToCheckedInt(t.GrossLiquidity).Add(abs))
	if err != nil {
		return ErrArithmeticOverflow
	}

	net := t.NetLiquidityInt()
	if isLower {
		net = net.Add(delta)
	} else {
		net = net.Sub(delta)
	}
	if err := t.setNetLiquidity(net); err != nil {
		return err
	}

	t.Initialized = true
	t.GrossLiquidity = gross
	return nil
}

// TickArray is a dense shard of TicksPerArray TickState slots sharing a
// common StartingTick.
type TickArray struct {
	StartingTick int32                    `bin:"le"`
	TickSpacing  int32                    `bin:"le"`
	Ticks        [TicksPerArray]TickState `bin:"le"`
}

// NewTickArray builds an empty shard for the given starting tick.
func NewTickArray(startingTick, tickSpacing int32) *TickArray {
	return &TickArray{StartingTick: startingTick, TickSpacing: tickSpacing}
}

// GetStartTickIndex returns floor(tick / tick_spacing / TicksPerArray) *
// tick_spacing * TicksPerArray — the key under which the containing array
// is addressed.
func GetStartTickIndex(tick, tickSpacing int32) int32 {
	span := tickSpacing * TicksPerArray
	return floorDiv(tick, span) * span
}

// SlotOffset returns ((tick/tickSpacing) - (startingTick/tickSpacing)) mod
// TicksPerArray. Per the spec's open question #1, this implementation
// rejects (rather than silently wraps) any offset that would fall outside
// [0, TicksPerArray), surfacing ErrArithmeticOverflow instead.
func SlotOffset(tick, startingTick, tickSpacing int32) (int, error) {
	if tickSpacing == 0 {
		return 0, ErrArithmeticOverflow
	}
	offset := (tick / tickSpacing) - (startingTick / tickSpacing)
	if offset < 0 || offset >= TicksPerArray {
		return 0, ErrArithmeticOverflow
	}
	return int(offset), nil
}

// Slot returns the TickState at tick within this array, or an error if
// tick does not belong to this shard.
func (a *TickArray) Slot(tick int32) (*TickState, error) {
	offset, err := SlotOffset(tick, a.StartingTick, a.TickSpacing)
	if err != nil {
		return nil, err
	}
	return &a.Ticks[offset], nil
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Encode serializes the array to its little-endian wire layout, grounded
// on clmm_tickerarray.go's field-by-field bin.Encoder usage.
func (a *TickArray) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := binary.NewBinEncoder(buf)
	if err := enc.Encode(a.StartingTick); err != nil {
		return nil, err
	}
	if err := enc.Encode(a.TickSpacing); err != nil {
		return nil, err
	}
	for i := range a.Ticks {
		if err := enc.Encode(&a.Ticks[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Decode populates the array from its wire layout.
func (a *TickArray) Decode(data []byte) error {
	dec := binary.NewBinDecoder(data)
	if err := dec.Decode(&a.StartingTick); err != nil {
		return err
	}
	if err := dec.Decode(&a.TickSpacing); err != nil {
		return err
	}
	for i := range a.Ticks {
		if err := dec.Decode(&a.Ticks[i]); err != nil {
			return err
		}
	}
	return nil
}
