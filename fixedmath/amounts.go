package fixedmath

import (
	cosmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// GetAmountsForLiquidity computes the token amounts implied by holding L
// units of liquidity over [spLower, spUpper] while the pool sits at
// spCurrent. Three regimes (AboveRange/BelowRange/InRange in the
// vocabulary of the design notes' tagged-variant guidance), division order
// mandated by the source to avoid overflow: always divide by sp_lo (or
// sp_cur) before multiplying by Q96.
func GetAmountsForLiquidity(spCurrent, spLower, spUpper, liquidity uint128.Uint128) (amount0, amount1 uint64, err error) {
	q96 := cosmath.NewIntFromBigInt(q96Big)
	l := toInt(liquidity)

	switch {
	case spCurrent.Cmp(spLower) <= 0:
		// entirely above range: only token0 is held.
		delta, err := subChecked(toInt(spUpper), toInt(spLower))
		if err != nil {
			return 0, 0, err
		}
		step1, err := divChecked(mulChecked(l, delta), toInt(spLower))
		if err != nil {
			return 0, 0, err
		}
		a0, err := divChecked(mulChecked(step1, q96), toInt(spUpper))
		if err != nil {
			return 0, 0, err
		}
		amount0, err = fromIntToU64(a0)
		if err != nil {
			return 0, 0, err
		}
		return amount0, 0, nil

	case spCurrent.Cmp(spUpper) >= 0:
		// entirely below range: only token1 is held.
		delta, err := subChecked(toInt(spUpper), toInt(spLower))
		if err != nil {
			return 0, 0, err
		}
		b1, err := divChecked(mulChecked(l, delta), q96)
		if err != nil {
			return 0, 0, err
		}
		amount1, err = fromIntToU64(b1)
		if err != nil {
			return 0, 0, err
		}
		return 0, amount1, nil

	default:
		// in range: both tokens.
		delta0, err := subChecked(toInt(spUpper), toInt(spCurrent))
		if err != nil {
			return 0, 0, err
		}
		step1, err := divChecked(mulChecked(l, delta0), toInt(spCurrent))
		if err != nil {
			return 0, 0, err
		}
		a0, err := divChecked(mulChecked(step1, q96), toInt(spUpper))
		if err != nil {
			return 0, 0, err
		}
		amount0, err = fromIntToU64(a0)
		if err != nil {
			return 0, 0, err
		}

		delta1, err := subChecked(toInt(spCurrent), toInt(spLower))
		if err != nil {
			return 0, 0, err
		}
		b1, err := divChecked(mulChecked(l, delta1), q96)
		if err != nil {
			return 0, 0, err
		}
		amount1, err = fromIntToU64(b1)
		if err != nil {
			return 0, 0, err
		}
		return amount0, amount1, nil
	}
}
