// Package types defines the primitive identities shared by the launchpad packages.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash is a 256-bit digest: block hashes, signing digests, tagged hashes.
type Hash [HashSize]byte

// TokenID identifies a deployed token contract bound to a launch.
type TokenID [HashSize]byte

// decode32 parses 64 hex characters, with or without a 0x prefix.
func decode32(s, what string) ([HashSize]byte, error) {
	var out [HashSize]byte
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*HashSize {
		return out, fmt.Errorf("%s must be %d hex chars, got %d", what, 2*HashSize, len(s))
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, fmt.Errorf("invalid %s hex: %w", what, err)
	}
	return out, nil
}

// HexToHash parses a 64-char hex hash.
func HexToHash(s string) (Hash, error) {
	b, err := decode32(s, "hash")
	return Hash(b), err
}

// HexToTokenID parses a 64-char hex token identity.
func HexToTokenID(s string) (TokenID, error) {
	b, err := decode32(s, "token id")
	return TokenID(b), err
}

// IsZero reports whether h is all zeros.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether t is unset.
func (t TokenID) IsZero() bool { return t == TokenID{} }

func (t TokenID) String() string { return hex.EncodeToString(t[:]) }

// MarshalText renders the hash as lowercase hex, for JSON values and keys.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText accepts hex; the empty string decodes to the zero hash.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = Hash{}
		return nil
	}
	v, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// MarshalText renders the token id as lowercase hex.
func (t TokenID) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts hex; the empty string decodes to the zero id.
func (t *TokenID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = TokenID{}
		return nil
	}
	v, err := HexToTokenID(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
