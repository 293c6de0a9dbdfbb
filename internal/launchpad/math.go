package launchpad

import (
	sdkmath "cosmossdk.io/math"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
)

// Allocation returns amount × TokenPrecision / price, floor-divided.
// The product is formed in arbitrary precision; a quotient that does not
// fit in uint64 is reported as ok == false.
func Allocation(amount, price uint64) (tokens uint64, ok bool) {
	if price == 0 {
		return 0, false
	}
	q := sdkmath.NewUint(amount).MulUint64(lptypes.TokenPrecision).QuoUint64(price)
	if !q.BigInt().IsUint64() {
		return 0, false
	}
	return q.Uint64(), true
}

// PlatformFee returns floor(raised × bps / 10,000). The remainder of the
// division stays with the creator.
func PlatformFee(raised, bps uint64) uint64 {
	return sdkmath.NewUint(raised).MulUint64(bps).QuoUint64(lptypes.BpsDenominator).Uint64()
}

// ProgressBps returns floor(raised × 10,000 / hardCap), 0 when hardCap is 0.
func ProgressBps(raised, hardCap uint64) uint64 {
	if hardCap == 0 {
		return 0
	}
	return sdkmath.NewUint(raised).MulUint64(lptypes.BpsDenominator).QuoUint64(hardCap).Uint64()
}
