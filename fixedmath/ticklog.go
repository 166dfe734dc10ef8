package fixedmath

import (
	"math/big"

	"lukechampine.com/uint128"
)

var logBaseBig = big.NewInt(logBase)

// SqrtPriceX96ToTick recovers the floor of the real-valued tick whose
// forward-mapped price is closest to, but not above, sp. Grounded on the
// original source's sqrt_price_x96_to_tick: an MSB-based log2
// approximation refined against {approx-1, approx, approx+1} by
// re-deriving each candidate's forward price and picking the largest one
// that does not overshoot sp.
//
// The r*r squaring loop mirrors the source's use of plain (unchecked) u128
// arithmetic there: r is kept in [2^63, 2^64) by the normalization step
// that precedes it and by the conditional shift after each squaring, so r*r
// always fits in 128 bits by construction.
func SqrtPriceX96ToTick(sp uint128.Uint128) (int32, error) {
	if sp.Cmp(MinSqrtPriceX96) < 0 || sp.Cmp(MaxSqrtPriceX96) >= 0 {
		return 0, ErrSqrtPriceX96
	}

	sqrtPriceX64 := sp.Rsh(32)
	bitLen := sqrtPriceX64.Big().BitLen()
	msb := int32(bitLen - 1)
	if msb < 0 {
		msb = 0
	}

	log2IntegerX64 := new(big.Int).Lsh(big.NewInt(int64(msb)-64), 64)

	var r uint128.Uint128
	if msb >= 64 {
		r = sqrtPriceX64.Rsh(uint(msb - 63))
	} else {
		r = sqrtPriceX64.Lsh(uint(63 - msb))
	}

	log2FractionX64 := big.NewInt(0)
	bit := new(big.Int).Lsh(big.NewInt(1), 63)

	for i := 0; i < bitPrecision; i++ {
		r = r.Mul(r).Rsh(63)
		isMoreThanTwo := uint(0)
		if r.Big().BitLen() > 64 {
			isMoreThanTwo = 1
		}
		r = r.Rsh(isMoreThanTwo)
		if isMoreThanTwo == 1 {
			log2FractionX64.Or(log2FractionX64, bit)
		}
		bit.Rsh(bit, 1)
	}

	log2pX64 := new(big.Int).Add(log2IntegerX64, log2FractionX64)
	tickApprox := int32(new(big.Int).Quo(log2pX64, logBaseBig).Int64())

	tickLow := tickApprox - 1
	tickHigh := tickApprox + 1

	if priceHigh, err := TickToSqrtPriceX96(tickHigh); err == nil {
		if priceHigh.Cmp(sp) <= 0 {
			return tickHigh, nil
		}
		if priceApprox, err := TickToSqrtPriceX96(tickApprox); err == nil {
			if priceApprox.Cmp(sp) <= 0 {
				return tickApprox, nil
			}
			return tickLow, nil
		}
		return tickLow, nil
	}
	return tickApprox, nil
}
