package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

const abandonAbout = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewMnemonic(t *testing.T) {
	m1, err := NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic() error: %v", err)
	}
	if n := len(strings.Fields(m1)); n != 24 {
		t.Errorf("word count = %d, want 24", n)
	}
	if err := CheckMnemonic(m1); err != nil {
		t.Errorf("generated mnemonic rejected: %v", err)
	}
	m2, _ := NewMnemonic()
	if m1 == m2 {
		t.Error("two generated mnemonics should differ")
	}
}

func TestCheckMnemonic(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		valid  bool
	}{
		{"12 words", abandonAbout, true},
		{"extra whitespace and case", "  ABANDON abandon\tabandon abandon abandon abandon abandon abandon abandon abandon abandon  about ", true},
		{"empty", "", false},
		{"bad checksum", strings.Repeat("abandon ", 11) + "abandon", false},
		{"not words", "not a valid mnemonic phrase at all", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMnemonic(tt.phrase)
			if (err == nil) != tt.valid {
				t.Errorf("CheckMnemonic() = %v, want valid=%v", err, tt.valid)
			}
			if err != nil && !errors.Is(err, ErrInvalidMnemonic) {
				t.Errorf("err = %v, want ErrInvalidMnemonic", err)
			}
		})
	}
}

func TestMnemonicSeed_KnownVector(t *testing.T) {
	seed, err := MnemonicSeed(abandonAbout, "TREZOR")
	if err != nil {
		t.Fatalf("MnemonicSeed() error: %v", err)
	}
	want, _ := hex.DecodeString("c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")
	if !bytes.Equal(seed, want) {
		t.Errorf("seed = %x, want %x", seed, want)
	}

	other, _ := MnemonicSeed(abandonAbout, "")
	if bytes.Equal(seed, other) {
		t.Error("passphrase should change the seed")
	}
}

func TestMnemonicSeed_Invalid(t *testing.T) {
	if _, err := MnemonicSeed("abandon", ""); !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("err = %v, want ErrInvalidMnemonic", err)
	}
}
