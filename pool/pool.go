// Package pool implements PoolState: the pool singleton tracking current
// sqrt price, current tick, global active liquidity, tick spacing, and
// token identities. Grounded on
// original_source/programs/clmm/src/states/pool.rs for the field layout
// and on the teacher's PoolConfig/NewPoolConfig/CorePool.Initialize for
// the constructor-validates-invariants idiom.
package pool

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/fixedmath"
)

var (
	ErrInvalidTokenOrder  = errors.New("pool: token_0 must be lexicographically less than token_1")
	ErrInvalidTokenPair   = errors.New("pool: token_0 and token_1 must differ")
	ErrInvalidTickSpacing = errors.New("pool: tick_spacing must be strictly positive")
)

// Pool is the pool singleton: one per (token pair, tick spacing).
type Pool struct {
	Token0 solana.PublicKey
	Token1 solana.PublicKey
	Vault0 solana.PublicKey
	Vault1 solana.PublicKey

	TickSpacing int32
	Bump        uint8

	SqrtPriceX96    uint128.Uint128
	CurrentTick     int32
	GlobalLiquidity uint128.Uint128
}

// New validates the pool's initialization invariants and derives the
// starting tick from the initial sqrt price, mirroring
// initialize_pool.rs's init_pool (token ordering/distinctness/tick-spacing
// checks, zero initial liquidity, tick derived via
// sqrt_price_x96_to_tick).
func New(token0, token1, vault0, vault1 solana.PublicKey, tickSpacing int32, initialSqrtPriceX96 uint128.Uint128, bump uint8) (*Pool, error) {
	if tickSpacing <= 0 {
		return nil, ErrInvalidTickSpacing
	}
	if token0 == token1 {
		return nil, ErrInvalidTokenPair
	}
	if !lexLess(token0, token1) {
		return nil, ErrInvalidTokenOrder
	}

	tick, err := fixedmath.SqrtPriceX96ToTick(initialSqrtPriceX96)
	if err != nil {
		return nil, err
	}

	return &Pool{
		Token0:          token0,
		Token1:          token1,
		Vault0:          vault0,
		Vault1:          vault1,
		TickSpacing:     tickSpacing,
		Bump:            bump,
		SqrtPriceX96:    initialSqrtPriceX96,
		CurrentTick:     tick,
		GlobalLiquidity: uint128.Zero,
	}, nil
}

// InRange reports whether the pool's current price lies within
// [spLower, spUpper), i.e. whether a position over that range currently
// contributes to GlobalLiquidity.
func (p *Pool) InRange(spLower, spUpper uint128.Uint128) bool {
	return p.SqrtPriceX96.Cmp(spLower) >= 0 && p.SqrtPriceX96.Cmp(spUpper) < 0
}

func lexLess(a, b solana.PublicKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
