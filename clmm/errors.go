package clmm

import "errors"

// Operation-level error taxonomy. ArithmeticOverflow, TickUpperOverflow,
// SqrtPriceX96, and InsufficientLiquidity are owned by fixedmath and
// returned unchanged by the operations (so errors.Is against
// fixedmath.ErrXxx matches them); the remaining tags below are specific to
// operation preconditions.
var (
	ErrZeroAmount              = errors.New("clmm: liquidity delta or swap input must be non-zero")
	ErrInvalidTickRange        = errors.New("clmm: lower must be < upper and both multiples of tick_spacing within range")
	ErrInvalidTicks            = errors.New("clmm: supplied bounds do not match the stored position")
	ErrInvalidAmount           = errors.New("clmm: decrease exceeds held liquidity")
	ErrInvalidPositionOwner    = errors.New("clmm: caller does not own this position")
	ErrInvalidPositionRange    = errors.New("clmm: position does not belong to this pool")
	ErrSlippageExceeded        = errors.New("clmm: swap output below min_amount_out")
	ErrInvalidTickArrayAccount = errors.New("clmm: supplied tick array does not contain current_tick")
)
