package clmm

import (
	"context"

	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/fixedmath"
)

// Swap executes a single-step swap truncated at the boundary of the tick
// interval current_tick sits in: the price moves at most to the edge of
// that interval, never crossing it, mirroring the single-iteration body of
// the teacher's HandleSwap loop with the loop itself (and its
// tick-crossing/fee-growth machinery) dropped per the no-auto-cross design
// decision. aToB sells token0 for token1 (price decreases); !aToB sells
// token1 for token0 (price increases).
func (e *Engine) Swap(ctx context.Context, amountIn uint64, aToB bool, minAmountOut uint64) (amountOut uint64, err error) {
	if amountIn == 0 {
		return 0, ErrZeroAmount
	}
	if e.Pool.GlobalLiquidity.IsZero() {
		return 0, fixedmath.ErrInsufficientLiquidity
	}

	targetTick := boundaryTick(e.Pool.CurrentTick, e.Pool.TickSpacing, aToB)
	spTarget, err := fixedmath.TickToSqrtPriceX96(targetTick)
	if err != nil {
		return 0, err
	}

	spNext, amtIn, amtOut, err := fixedmath.ComputeSwapStep(
		e.Pool.SqrtPriceX96, spTarget, e.Pool.GlobalLiquidity, uint128.From64(amountIn), aToB)
	if err != nil {
		return 0, err
	}

	in64, err := fixedmath.NarrowU64(amtIn)
	if err != nil {
		return 0, err
	}
	out64, err := fixedmath.NarrowU64(amtOut)
	if err != nil {
		return 0, err
	}
	if out64 < minAmountOut {
		return 0, ErrSlippageExceeded
	}

	nextTick, err := fixedmath.SqrtPriceX96ToTick(spNext)
	if err != nil {
		return 0, err
	}

	e.Pool.SqrtPriceX96 = spNext
	e.Pool.CurrentTick = nextTick

	if aToB {
		if err = e.Transfer.UserToVault(ctx, e.Pool.Token0, in64); err != nil {
			return 0, err
		}
		if err = e.Transfer.VaultToUser(ctx, e.Pool.Token1, out64); err != nil {
			return 0, err
		}
	} else {
		if err = e.Transfer.UserToVault(ctx, e.Pool.Token1, in64); err != nil {
			return 0, err
		}
		if err = e.Transfer.VaultToUser(ctx, e.Pool.Token0, out64); err != nil {
			return 0, err
		}
	}

	if e.Log.IsLevelEnabled(logrus.DebugLevel) {
		e.Log.Debugf("swap a_to_b=%v amount_in=%d amount_out=%d next_tick=%d price=%s",
			aToB, in64, out64, nextTick, fixedmath.DisplayPrice(spNext))
	}

	return out64, nil
}

// boundaryTick returns the near edge of the tick_spacing interval
// current_tick currently sits in: the floor boundary (decremented by one
// spacing if current_tick sits exactly on it) when selling token0, the
// ceiling boundary when selling token1.
func boundaryTick(current, spacing int32, aToB bool) int32 {
	floor := floorDivTick(current, spacing) * spacing
	if aToB {
		if floor == current {
			floor -= spacing
		}
		return floor
	}
	return floor + spacing
}

func floorDivTick(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
