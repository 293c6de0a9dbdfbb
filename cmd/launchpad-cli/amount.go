package main

import (
	"fmt"
	"strconv"
	"strings"

	sdkmath "cosmossdk.io/math"

	"github.com/Klingon-tech/klingnet-launchpad/config"
)

// formatAmount renders base units with config.Decimals places.
func formatAmount(units uint64) string {
	return fmt.Sprintf("%d.%0*d", units/config.Coin, config.Decimals, units%config.Coin)
}

// parseAmount converts a decimal coin amount such as "12.5" to base units.
func parseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount")
	}
	units := d.MulInt64(config.Coin)
	if !units.IsInteger() {
		return 0, fmt.Errorf("too many decimal places (max %d)", config.Decimals)
	}
	n := units.TruncateInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount too large")
	}
	return n.Uint64(), nil
}

// parseID parses a launch id.
func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid launch id %q", s)
	}
	return id, nil
}
