// Package clmm wires FixedMath, TickStore, PositionStore, and PoolState
// together into the five operations described by the spec: initialize
// pool, open/increase/decrease/close position, swap. Grounded primarily on
// the teacher's CorePool (Mint/Burn/HandleSwap/modifyPosition/
// updatePosition) for operation sequencing, and on
// original_source/programs/clmm/src/instructions/*.rs for the exact
// per-operation preconditions and effect ordering.
package clmm

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/fixedmath"
	"github.com/clmm-engine/clmm-core/pool"
	"github.com/clmm-engine/clmm-core/position"
	"github.com/clmm-engine/clmm-core/ticks"
)

// Engine owns exactly one PoolState, its PositionStore, and its TickArray
// shards, and issues TokenTransfer effects against an abstract host. This
// mirrors the per-transaction read/write set the design notes describe: an
// operation touches one pool, zero-to-two tick arrays, and zero-or-one
// position.
type Engine struct {
	Pool      *pool.Pool
	Positions *position.Store
	Arrays    map[int32]*ticks.TickArray
	Transfer  TokenTransfer
	Deriver   AddressDeriver

	Log *logrus.Logger
}

// NewEngine wraps an already-initialized pool with empty tick/position
// stores.
func NewEngine(p *pool.Pool, transfer TokenTransfer, deriver AddressDeriver) *Engine {
	return &Engine{
		Pool:      p,
		Positions: position.NewStore(),
		Arrays:    make(map[int32]*ticks.TickArray),
		Transfer:  transfer,
		Deriver:   deriver,
		Log:       logrus.StandardLogger(),
	}
}

// PoolIdentity derives the address this pool's positions are keyed and
// stored under. A real host derives this PDA via AddressDeriver.PoolAddress
// (original_source/.../shared_functions.rs's derivation scheme); when
// deriver is nil (a bare Engine built without one) Vault0 stands in as a
// stable per-pool identity instead.
func PoolIdentity(p *pool.Pool, deriver AddressDeriver) solana.PublicKey {
	if deriver == nil {
		return p.Vault0
	}
	addr, _, err := deriver.PoolAddress(p.Token0, p.Token1, p.TickSpacing)
	if err != nil {
		return p.Vault0
	}
	return addr
}

func (e *Engine) poolIdentity() solana.PublicKey {
	return PoolIdentity(e.Pool, e.Deriver)
}

// arrayFor returns (creating if necessary) the shard containing tick.
func (e *Engine) arrayFor(tick int32) *ticks.TickArray {
	start := ticks.GetStartTickIndex(tick, e.Pool.TickSpacing)
	arr, ok := e.Arrays[start]
	if !ok {
		arr = ticks.NewTickArray(start, e.Pool.TickSpacing)
		e.Arrays[start] = arr
		if e.Deriver != nil && e.Log.IsLevelEnabled(logrus.DebugLevel) {
			if addr, _, err := e.Deriver.TickArrayAddress(e.poolIdentity(), start); err == nil {
				e.Log.Debugf("tick_array created start=%d address=%s", start, base58.Encode(addr[:]))
			}
		}
	}
	return arr
}

// validateBounds checks the shared open/increase/decrease precondition:
// lower < upper, both multiples of tick_spacing, both within
// [MIN_TICK, MAX_TICK].
func (e *Engine) validateBounds(lower, upper int32) error {
	if lower >= upper {
		return ErrInvalidTickRange
	}
	if lower%e.Pool.TickSpacing != 0 || upper%e.Pool.TickSpacing != 0 {
		return ErrInvalidTickRange
	}
	if lower < fixedmath.MinTick || upper > fixedmath.MaxTick {
		return ErrInvalidTickRange
	}
	return nil
}

// prologue resolves both tick-array shards and the two bound sqrt prices
// every position operation shares.
func (e *Engine) prologue(lower, upper int32) (spLo, spUp uint128.Uint128, lowerArr, upperArr *ticks.TickArray, err error) {
	spLo, err = fixedmath.TickToSqrtPriceX96(lower)
	if err != nil {
		return
	}
	spUp, err = fixedmath.TickToSqrtPriceX96(upper)
	if err != nil {
		return
	}
	lowerArr = e.arrayFor(lower)
	upperArr = e.arrayFor(upper)
	return
}

// applyDelta checked-updates both bound ticks with a signed liquidity delta
// (positive for open/increase, negative for decrease/close), failing
// ErrArithmeticOverflow rather than silently truncating deltaL's u128
// magnitude into a narrower signed type.
func applyDelta(lowerSlot, upperSlot *ticks.TickState, deltaL uint128.Uint128, negate bool) error {
	delta := fixedmath.ToCheckedInt(deltaL)
	if negate {
		delta = delta.Neg()
	}
	if err := lowerSlot.UpdateLiquidity(delta, true); err != nil {
		return err
	}
	return upperSlot.UpdateLiquidity(delta, false)
}

func (e *Engine) transferOut(ctx context.Context, amount0, amount1 uint64) error {
	if amount0 > 0 {
		if err := e.Transfer.UserToVault(ctx, e.Pool.Token0, amount0); err != nil {
			return err
		}
	}
	if amount1 > 0 {
		if err := e.Transfer.UserToVault(ctx, e.Pool.Token1, amount1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) transferIn(ctx context.Context, amount0, amount1 uint64) error {
	if amount0 > 0 {
		if err := e.Transfer.VaultToUser(ctx, e.Pool.Token0, amount0); err != nil {
			return err
		}
	}
	if amount1 > 0 {
		if err := e.Transfer.VaultToUser(ctx, e.Pool.Token1, amount1); err != nil {
			return err
		}
	}
	return nil
}

// derivedPositionAddress resolves the PDA a real host would key this
// position's account under, falling back to owner when no deriver is wired
// or derivation fails. Debug-log-only: position.Key keying stays
// structural (pool, owner, lower, upper), per the position package's own
// grounding.
func (e *Engine) derivedPositionAddress(owner solana.PublicKey, lower, upper int32) solana.PublicKey {
	if e.Deriver == nil {
		return owner
	}
	addr, _, err := e.Deriver.PositionAddress(e.poolIdentity(), owner, lower, upper)
	if err != nil {
		return owner
	}
	return addr
}

// InitializePool creates a new PoolState. Grounded on
// instructions/initialize_pool.rs's init_pool.
func InitializePool(token0, token1, vault0, vault1 solana.PublicKey, tickSpacing int32, initialSqrtPriceX96 uint128.Uint128, bump uint8) (*pool.Pool, error) {
	return pool.New(token0, token1, vault0, vault1, tickSpacing, initialSqrtPriceX96, bump)
}

// OpenPosition creates a new Position with liquidity deltaL over
// [lower, upper], updates both tick slots, conditionally activates the
// pool's global liquidity, and pulls the implied token amounts from the
// owner. Grounded on spec §4.4 (no executable Rust reference exists for
// this instruction) cross-checked against the teacher's
// modifyPosition/updatePosition control flow.
func (e *Engine) OpenPosition(ctx context.Context, owner solana.PublicKey, lower, upper int32, deltaL uint128.Uint128) (amount0, amount1 uint64, err error) {
	if deltaL.IsZero() {
		return 0, 0, ErrZeroAmount
	}
	if err = e.validateBounds(lower, upper); err != nil {
		return 0, 0, err
	}

	spLo, spUp, lowerArr, upperArr, err := e.prologue(lower, upper)
	if err != nil {
		return 0, 0, err
	}

	key := position.Key{Pool: e.poolIdentity(), Owner: owner, Lower: lower, Upper: upper}

	lowerSlot, err := lowerArr.Slot(lower)
	if err != nil {
		return 0, 0, err
	}
	upperSlot, err := upperArr.Slot(upper)
	if err != nil {
		return 0, 0, err
	}

	if err = applyDelta(lowerSlot, upperSlot, deltaL, false); err != nil {
		return 0, 0, err
	}

	if _, err = e.Positions.Open(key, deltaL); err != nil {
		return 0, 0, err
	}

	inRange := e.Pool.InRange(spLo, spUp)
	if inRange {
		e.Pool.GlobalLiquidity = e.Pool.GlobalLiquidity.Add(deltaL)
	}

	a0, a1, err := fixedmath.GetAmountsForLiquidity(e.Pool.SqrtPriceX96, spLo, spUp, deltaL)
	if err != nil {
		return 0, 0, err
	}

	if err = e.transferOut(ctx, a0, a1); err != nil {
		return 0, 0, err
	}

	if e.Log.IsLevelEnabled(logrus.DebugLevel) {
		posAddr := e.derivedPositionAddress(owner, lower, upper)
		e.Log.Debugf("open_position owner=%s position=%s lower=%d upper=%d deltaL=%s in_range=%v amount0=%d amount1=%d pool_price=%s",
			base58.Encode(owner[:]), base58.Encode(posAddr[:]), lower, upper, deltaL, inRange, a0, a1, fixedmath.DisplayPrice(e.Pool.SqrtPriceX96))
	}

	return a0, a1, nil
}

// IncreaseLiquidity is step-by-step identical to OpenPosition except the
// position must already exist and the supplied bounds must match the
// stored ones. Grounded on increase_liquidity.rs's increase_liquidity.
func (e *Engine) IncreaseLiquidity(ctx context.Context, owner solana.PublicKey, lower, upper int32, deltaL uint128.Uint128) (amount0, amount1 uint64, err error) {
	if deltaL.IsZero() {
		return 0, 0, ErrZeroAmount
	}
	if err = e.validateBounds(lower, upper); err != nil {
		return 0, 0, err
	}

	key := position.Key{Pool: e.poolIdentity(), Owner: owner, Lower: lower, Upper: upper}
	existing, err := e.Positions.Get(key)
	if err != nil {
		return 0, 0, err
	}
	if existing.Lower != lower || existing.Upper != upper {
		return 0, 0, ErrInvalidTicks
	}

	spLo, spUp, lowerArr, upperArr, err := e.prologue(lower, upper)
	if err != nil {
		return 0, 0, err
	}

	lowerSlot, err := lowerArr.Slot(lower)
	if err != nil {
		return 0, 0, err
	}
	upperSlot, err := upperArr.Slot(upper)
	if err != nil {
		return 0, 0, err
	}

	if err = applyDelta(lowerSlot, upperSlot, deltaL, false); err != nil {
		return 0, 0, err
	}

	if _, err = e.Positions.Increase(key, deltaL); err != nil {
		return 0, 0, err
	}

	if e.Pool.InRange(spLo, spUp) {
		e.Pool.GlobalLiquidity = e.Pool.GlobalLiquidity.Add(deltaL)
	}

	a0, a1, err := fixedmath.GetAmountsForLiquidity(e.Pool.SqrtPriceX96, spLo, spUp, deltaL)
	if err != nil {
		return 0, 0, err
	}
	if err = e.transferOut(ctx, a0, a1); err != nil {
		return 0, 0, err
	}
	return a0, a1, nil
}

// DecreaseLiquidity mirrors IncreaseLiquidity with a negated tick-state
// delta, pool.global_liquidity decrement when in range, and amounts
// refunded vault→user. Grounded on decrease_liquidity semantics described
// in spec §4.4 (close_position.rs's full-withdrawal variant is the
// executable reference for the vault→user leg).
func (e *Engine) DecreaseLiquidity(ctx context.Context, owner solana.PublicKey, lower, upper int32, deltaL uint128.Uint128) (amount0, amount1 uint64, err error) {
	if deltaL.IsZero() {
		return 0, 0, ErrZeroAmount
	}
	if err = e.validateBounds(lower, upper); err != nil {
		return 0, 0, err
	}

	key := position.Key{Pool: e.poolIdentity(), Owner: owner, Lower: lower, Upper: upper}
	existing, err := e.Positions.Get(key)
	if err != nil {
		return 0, 0, err
	}
	if existing.Lower != lower || existing.Upper != upper {
		return 0, 0, ErrInvalidTicks
	}
	if deltaL.Cmp(existing.Liquidity) > 0 {
		return 0, 0, ErrInvalidAmount
	}

	spLo, spUp, lowerArr, upperArr, err := e.prologue(lower, upper)
	if err != nil {
		return 0, 0, err
	}

	lowerSlot, err := lowerArr.Slot(lower)
	if err != nil {
		return 0, 0, err
	}
	upperSlot, err := upperArr.Slot(upper)
	if err != nil {
		return 0, 0, err
	}

	if err = applyDelta(lowerSlot, upperSlot, deltaL, true); err != nil {
		return 0, 0, err
	}

	if _, err = e.Positions.Decrease(key, deltaL); err != nil {
		return 0, 0, err
	}

	if e.Pool.InRange(spLo, spUp) {
		e.Pool.GlobalLiquidity, err = subU128(e.Pool.GlobalLiquidity, deltaL)
		if err != nil {
			return 0, 0, err
		}
	}

	a0, a1, err := fixedmath.GetAmountsForLiquidity(e.Pool.SqrtPriceX96, spLo, spUp, deltaL)
	if err != nil {
		return 0, 0, err
	}
	if err = e.transferIn(ctx, a0, a1); err != nil {
		return 0, 0, err
	}
	return a0, a1, nil
}

// ClosePosition fully decrements the position's held liquidity and then
// deletes the record, refunding its storage rent to the owner (rent refund
// is a host concern, represented here only by the record's removal).
// Grounded on close_position.rs's close_position.
func (e *Engine) ClosePosition(ctx context.Context, owner solana.PublicKey, lower, upper int32) (amount0, amount1 uint64, err error) {
	key := position.Key{Pool: e.poolIdentity(), Owner: owner, Lower: lower, Upper: upper}
	existing, err := e.Positions.Get(key)
	if err != nil {
		return 0, 0, err
	}
	if existing.Lower != lower || existing.Upper != upper {
		return 0, 0, ErrInvalidTicks
	}

	full := existing.Liquidity
	if full.IsZero() {
		if err = e.Positions.Close(key); err != nil {
			return 0, 0, err
		}
		return 0, 0, nil
	}

	a0, a1, err := e.DecreaseLiquidity(ctx, owner, lower, upper, full)
	if err != nil {
		return 0, 0, err
	}
	if err = e.Positions.Close(key); err != nil {
		return 0, 0, err
	}
	return a0, a1, nil
}

func subU128(a, b uint128.Uint128) (uint128.Uint128, error) {
	if a.Cmp(b) < 0 {
		return uint128.Uint128{}, fixedmath.ErrArithmeticOverflow
	}
	return a.Sub(b), nil
}
