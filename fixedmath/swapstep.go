package fixedmath

import (
	cosmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// ComputeSwapStep advances price by at most one step toward spTarget,
// spending at most amtRemaining of the input token, and reports the
// resulting price plus the amounts consumed/produced. L must be positive.
//
// aToB selects direction: true means price decreases (selling token0 for
// token1), false means price increases (selling token1 for token0). Both
// branches are grounded on compute_swap_step. Intermediate products such as
// L*Q96 are carried in arbitrary-precision cosmath.Int; only the returned
// price and amounts are narrowed to 128 bits, failing ErrArithmeticOverflow
// if they do not fit.
func ComputeSwapStep(spCurrent, spTarget, liquidity, amtRemaining uint128.Uint128, aToB bool) (spNext uint128.Uint128, amtIn uint128.Uint128, amtOut uint128.Uint128, err error) {
	if liquidity.IsZero() {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, ErrInsufficientLiquidity
	}

	q96 := cosmath.NewIntFromBigInt(q96Big)
	l := toInt(liquidity)
	remaining := toInt(amtRemaining)

	if aToB {
		lq96DivTarget, err := divChecked(mulChecked(l, q96), toInt(spTarget))
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		lq96DivCurrent, err := divChecked(mulChecked(l, q96), toInt(spCurrent))
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		requiredIn, err := subChecked(lq96DivTarget, lq96DivCurrent)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}

		var nextPriceInt, amtInInt cosmath.Int
		if remaining.GTE(requiredIn) {
			nextPriceInt, amtInInt = toInt(spTarget), requiredIn
		} else {
			denom := addChecked(lq96DivCurrent, remaining)
			nextPriceInt, err = divChecked(mulChecked(l, q96), denom)
			if err != nil {
				return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
			}
			amtInInt = remaining
		}

		nextPrice, err := fromInt(nextPriceInt)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		outDiff, err := subChecked(toInt(spCurrent), nextPriceInt)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		amtOutInt, err := divChecked(mulChecked(l, outDiff), q96)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}

		amtIn, err = fromInt(amtInInt)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		amtOut, err = fromInt(amtOutInt)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		return nextPrice, amtIn, amtOut, nil
	}

	// b_to_a: price increases.
	priceDiff, err := subChecked(toInt(spTarget), toInt(spCurrent))
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}
	requiredIn, err := divChecked(mulChecked(l, priceDiff), q96)
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}

	var nextPriceInt, amtInInt cosmath.Int
	if remaining.GTE(requiredIn) {
		nextPriceInt, amtInInt = toInt(spTarget), requiredIn
	} else {
		priceDelta, err := divChecked(mulChecked(remaining, q96), l)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
		}
		nextPriceInt = addChecked(toInt(spCurrent), priceDelta)
		amtInInt = remaining
	}

	nextPrice, err := fromInt(nextPriceInt)
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}

	lq96DivCurrent, err := divChecked(mulChecked(l, q96), toInt(spCurrent))
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}
	lq96DivNext, err := divChecked(mulChecked(l, q96), nextPriceInt)
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}
	amtOutInt, err := subChecked(lq96DivCurrent, lq96DivNext)
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}

	amtIn, err = fromInt(amtInInt)
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}
	amtOut, err = fromInt(amtOutInt)
	if err != nil {
		return uint128.Uint128{}, uint128.Uint128{}, uint128.Uint128{}, err
	}
	return nextPrice, amtIn, amtOut, nil
}
