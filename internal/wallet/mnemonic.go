// Package wallet holds the keys that sign launchpad calls: BIP-39
// mnemonics, BIP-32 derivation and an encrypted on-disk keystore.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// EntropyBits gives 24-word mnemonics.
const EntropyBits = 256

// SeedSize is the BIP-39 seed length in bytes.
const SeedSize = 64

// ErrInvalidMnemonic is returned for a phrase that fails the BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// NewMnemonic returns a fresh 24-word phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(EntropyBits)
	if err != nil {
		return "", fmt.Errorf("entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("mnemonic: %w", err)
	}
	return phrase, nil
}

// NormalizeMnemonic collapses whitespace and lowercases a typed phrase.
func NormalizeMnemonic(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// CheckMnemonic reports whether phrase is a valid BIP-39 mnemonic.
func CheckMnemonic(phrase string) error {
	if !bip39.IsMnemonicValid(NormalizeMnemonic(phrase)) {
		return ErrInvalidMnemonic
	}
	return nil
}

// MnemonicSeed derives the 64-byte seed for phrase and passphrase.
func MnemonicSeed(phrase, passphrase string) ([]byte, error) {
	phrase = NormalizeMnemonic(phrase)
	if err := CheckMnemonic(phrase); err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(phrase, passphrase)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return seed, nil
}
