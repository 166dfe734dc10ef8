// Package fixedmath implements the pool's deterministic, overflow-safe
// fixed-point arithmetic: conversion between discrete tick indices and
// Q64.96 square-root prices, and the amount/step math derived from them.
//
// Every exported function is pure and total with explicit failure; none
// of them touch a Pool, Position, or TickState directly. Internally every
// intermediate product and quotient is carried in a cosmossdk.io/math.Int
// (an arbitrary-precision checked integer) and narrowed back to
// lukechampine.com/uint128.Uint128 at the function boundary, since Go has
// no native 128-bit integer with overflow detection the way Rust's
// checked_mul/checked_add do.
package fixedmath

import (
	"errors"
	"math/big"

	cosmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// Error taxonomy owned by this package (see clmm for the operation-level
// taxonomy that builds on top of these).
var (
	ErrArithmeticOverflow    = errors.New("fixedmath: arithmetic overflow")
	ErrTickUpperOverflow     = errors.New("fixedmath: tick magnitude exceeds MAX_TICK")
	ErrSqrtPriceX96          = errors.New("fixedmath: sqrt price out of valid range")
	ErrInsufficientLiquidity = errors.New("fixedmath: liquidity must be greater than zero")
	ErrZeroAmount            = errors.New("fixedmath: price or amount must be non-zero")
)

const (
	// Q96Shift is the shift of the fixed-point scale for sqrt prices: Q96 = 1 << 96.
	Q96Shift = 96
	// MinTick and MaxTick bound the representable discrete price index.
	MinTick = -443636
	MaxTick = 443636

	// bitPrecision is the number of fractional bits refined by the
	// log2 approximation loop in SqrtPriceX96ToTick.
	bitPrecision = 16

	// logBase = log2(sqrt(1.0001)) * 2^64 (i.e. log2(1.0001) * 2^63), used to
	// convert a Q64.64 log2(sqrt price) into an approximate tick index.
	logBase = 1330580271462080
)

var (
	q96Big     = new(big.Int).Lsh(big.NewInt(1), Q96Shift)
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	maxUint128Int = cosmath.NewIntFromBigInt(maxUint128)
	twoPow32      = cosmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 32))

	// MinSqrtPriceX96 and MaxSqrtPriceX96 bound the valid sqrt-price range.
	// Both source constants are X64-scaled; the left-shift by 32 promotes
	// them to this package's X96 representation, exactly as the original
	// implementation derives its own MIN/MAX_SQRT_PRICE_X96 constants.
	MinSqrtPriceX96 = mustU128FromBig(new(big.Int).Lsh(big.NewInt(4295048016), 32))
	MaxSqrtPriceX96 = mustU128FromBig(new(big.Int).Lsh(mustBigFromString("79226673521066979257578248091"), 32))
)

func mustBigFromString(s string) *big.Int {
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedmath: bad constant " + s)
	}
	return bi
}

func mustU128FromBig(bi *big.Int) uint128.Uint128 {
	if bi.Sign() < 0 || bi.Cmp(maxUint128) > 0 {
		panic("fixedmath: constant out of u128 range")
	}
	return uint128.FromBig(bi)
}

// toInt widens a Uint128 into a checked working integer.
func toInt(u uint128.Uint128) cosmath.Int {
	return cosmath.NewIntFromBigInt(u.Big())
}

// fromInt narrows a working integer back to Uint128, failing if the value
// is negative or does not fit in 128 bits.
func fromInt(i cosmath.Int) (uint128.Uint128, error) {
	bi := i.BigInt()
	if bi.Sign() < 0 || bi.Cmp(maxUint128) > 0 {
		return uint128.Uint128{}, ErrArithmeticOverflow
	}
	return uint128.FromBig(bi), nil
}

// ToCheckedInt exports toInt for packages that need to carry a u128
// liquidity value through the same checked cosmath.Int arithmetic this
// package uses internally (ticks, position, clmm), rather than duplicating
// the widen-then-narrow pattern locally.
func ToCheckedInt(u uint128.Uint128) cosmath.Int {
	return toInt(u)
}

// FromCheckedInt exports fromInt; see ToCheckedInt.
func FromCheckedInt(i cosmath.Int) (uint128.Uint128, error) {
	return fromInt(i)
}

func fromIntToU64(i cosmath.Int) (uint64, error) {
	bi := i.BigInt()
	if bi.Sign() < 0 || !bi.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return bi.Uint64(), nil
}

// NarrowU64 narrows a Uint128 to uint64, failing ErrArithmeticOverflow on
// loss. Used at operation boundaries (swap amounts, liquidity deltas)
// where the wire representation is u64 but intermediate math is carried
// in 128 bits.
func NarrowU64(v uint128.Uint128) (uint64, error) {
	return fromIntToU64(toInt(v))
}

func mulChecked(a, b cosmath.Int) cosmath.Int {
	return a.Mul(b)
}

func subChecked(a, b cosmath.Int) (cosmath.Int, error) {
	if a.LT(b) {
		return cosmath.Int{}, ErrArithmeticOverflow
	}
	return a.Sub(b), nil
}

func addChecked(a, b cosmath.Int) cosmath.Int {
	return a.Add(b)
}

func divChecked(a, b cosmath.Int) (cosmath.Int, error) {
	if b.IsZero() {
		return cosmath.Int{}, ErrArithmeticOverflow
	}
	return a.Quo(b), nil
}

// IntegerSqrt returns floor(sqrt(v)) via Newton's method. Total: 0 maps to 0.
func IntegerSqrt(v uint128.Uint128) uint64 {
	if v.IsZero() {
		return 0
	}
	value := toInt(v)
	one := cosmath.NewInt(1)
	two := cosmath.NewInt(2)

	x := value
	y := value.Add(one).Quo(two)
	for y.LT(x) {
		x = y
		y = x.Add(value.Quo(x)).Quo(two)
	}
	return x.BigInt().Uint64()
}

// PriceToSqrtPriceX96 converts an integer price (token1 per token0, scaled
// 1:1) into its Q64.96 square root, i.e. floor(sqrt(price)) * Q96. This is
// the helper the distilled tick-ladder math implies in scenario S2 of the
// testable-properties section but never names directly; it mirrors the
// original source's price_to_sqrt_price_x96 exactly, including its
// zero-price failure.
func PriceToSqrtPriceX96(price uint64) (uint128.Uint128, error) {
	if price == 0 {
		return uint128.Uint128{}, ErrZeroAmount
	}
	root := IntegerSqrt(uint128.From64(price))
	result := toInt(uint128.From64(root))
	q96 := cosmath.NewIntFromBigInt(q96Big)
	return fromInt(mulChecked(result, q96))
}
