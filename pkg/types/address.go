package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/btcutil/bech32"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Bech32 human-readable parts.
const (
	MainnetHRP = "klp"
	TestnetHRP = "tklp"
)

// maxBech32Len bounds the accepted input length when decoding.
const maxBech32Len = 90

// ErrEmptyAddress is returned when parsing an empty string.
var ErrEmptyAddress = errors.New("empty address")

// activeHRP renders addresses. Set once at startup.
var activeHRP = MainnetHRP

// SetAddressHRP selects the network prefix used by String.
func SetAddressHRP(hrp string) { activeHRP = hrp }

// GetAddressHRP returns the network prefix used by String.
func GetAddressHRP() string { return activeHRP }

// Address identifies an account: a wallet, the platform wallet or a launch escrow.
type Address [AddressSize]byte

// IsZero reports whether a is the unset address.
func (a Address) IsZero() bool { return a == Address{} }

// Hex returns the raw hex-encoded address without prefix.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// String returns the bech32 form under the active prefix ("klp1...").
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err == nil {
		if s, err := bech32.Encode(activeHRP, conv); err == nil {
			return s
		}
	}
	return activeHRP + ":" + a.Hex()
}

// MarshalText encodes the address in bech32 so it works as a JSON value or key.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText accepts every form ParseAddress does; empty decodes to zero.
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	v, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAddress accepts bech32 under either network prefix ("klp1...",
// "tklp1..."), prefixed hex ("klp:<hex>") or raw 40-char hex as written in
// genesis files.
func ParseAddress(s string) (Address, error) {
	switch {
	case s == "":
		return Address{}, ErrEmptyAddress
	case len(s) == 2*AddressSize:
		return HexToAddress(s)
	}
	for _, hrp := range []string{MainnetHRP, TestnetHRP} {
		if rest, ok := strings.CutPrefix(s, hrp+":"); ok {
			return HexToAddress(rest)
		}
	}
	return parseBech32(s)
}

func parseBech32(s string) (Address, error) {
	hrp, data, err := bech32.Decode(s, maxBech32Len)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	if hrp != MainnetHRP && hrp != TestnetHRP {
		return Address{}, fmt.Errorf("unknown address prefix %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	if len(raw) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(raw))
	}
	return Address(raw), nil
}

// HexToAddress parses exactly 40 hex characters.
func HexToAddress(s string) (Address, error) {
	var a Address
	if len(s) != 2*AddressSize {
		return a, fmt.Errorf("address must be %d bytes, got %d hex chars", AddressSize, len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests. It panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
