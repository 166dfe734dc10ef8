package fixedmath

import (
	"math/big"

	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"
)

// DisplayPrice converts a Q64.96 sqrt price into the human-readable spot
// price (token1 per token0), for logging and operator-facing output only
// — it is never fed back into the engine's own math, which stays in the
// Q64.96/uint128 domain throughout. Grounded on the teacher's pervasive
// use of shopspring/decimal for every price/amount field it surfaces to a
// caller or log line.
func DisplayPrice(sqrtPriceX96 uint128.Uint128) decimal.Decimal {
	sp := decimal.NewFromBigInt(sqrtPriceX96.Big(), 0)
	q96 := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), Q96Shift), 0)
	ratio := sp.DivRound(q96, 18)
	return ratio.Mul(ratio)
}
