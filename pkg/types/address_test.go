package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cosmos/btcutil/bech32"
)

const rawHex = "0123456789abcdef0123456789abcdef01234567"

// withHRP runs the test under hrp and restores the previous prefix.
func withHRP(t *testing.T, hrp string) {
	t.Helper()
	old := GetAddressHRP()
	SetAddressHRP(hrp)
	t.Cleanup(func() { SetAddressHRP(old) })
}

func TestAddressString(t *testing.T) {
	a := Address{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0xea, 0x0c, 0xbe, 0x0a, 0xd1, 0xd9, 0xbc, 0x3f, 0x43, 0x05}

	for _, hrp := range []string{MainnetHRP, TestnetHRP} {
		t.Run(hrp, func(t *testing.T) {
			withHRP(t, hrp)
			s := a.String()
			if !strings.HasPrefix(s, hrp+"1") {
				t.Fatalf("String() = %s, want %s1 prefix", s, hrp)
			}
			parsed, err := ParseAddress(s)
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", s, err)
			}
			if parsed != a {
				t.Errorf("roundtrip: got %x, want %x", parsed, a)
			}
		})
	}
}

func TestAddressZeroAndHex(t *testing.T) {
	if !(Address{}).IsZero() || (Address{0x01}).IsZero() {
		t.Error("IsZero mismatch")
	}
	h := Address{0xab, 0xcd}.Hex()
	if len(h) != 40 || !strings.HasPrefix(h, "abcd") {
		t.Errorf("Hex() = %s", h)
	}
}

func TestParseAddress(t *testing.T) {
	withHRP(t, MainnetHRP)
	a, err := HexToAddress(rawHex)
	if err != nil {
		t.Fatalf("HexToAddress: %v", err)
	}
	mainnet := a.String()
	SetAddressHRP(TestnetHRP)
	testnet := a.String()
	SetAddressHRP(MainnetHRP)

	conv, _ := bech32.ConvertBits(a[:], 8, 5, true)
	foreign, err := bech32.Encode("kgx", conv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"raw hex", rawHex, false},
		{"bech32 mainnet", mainnet, false},
		{"bech32 testnet", testnet, false},
		{"hex mainnet prefix", "klp:" + rawHex, false},
		{"hex testnet prefix", "tklp:" + rawHex, false},
		{"foreign prefix", foreign, true},
		{"invalid bech32", "klp1invalid!!!", true},
		{"short prefixed hex", "klp:abcd", true},
		{"bad hex", strings.Repeat("z", 40), true},
		{"too long hex", strings.Repeat("a", 42), true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.Hex() != rawHex {
				t.Errorf("ParseAddress(%q) = %s, want %s", tt.input, got.Hex(), rawHex)
			}
		})
	}

	if _, err := ParseAddress(""); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("empty: got %v, want ErrEmptyAddress", err)
	}
}

func TestAddressJSON(t *testing.T) {
	withHRP(t, MainnetHRP)
	original := Address{0xab, 0xcd, 0xef}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasPrefix(string(data), `"klp1`) {
		t.Errorf("want bech32 JSON, got %s", data)
	}
	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil || decoded != original {
		t.Fatalf("Unmarshal: %v, got %x", err, decoded)
	}

	if err := json.Unmarshal([]byte(`"`+rawHex+`"`), &decoded); err != nil || decoded.Hex() != rawHex {
		t.Errorf("raw hex JSON: %v, got %s", err, decoded.Hex())
	}

	// Map keys use the same text form.
	balances := map[Address]uint64{original: 7}
	data, err = json.Marshal(balances)
	if err != nil {
		t.Fatalf("Marshal map: %v", err)
	}
	var back map[Address]uint64
	if err := json.Unmarshal(data, &back); err != nil || back[original] != 7 {
		t.Errorf("map roundtrip: %v, got %v", err, back)
	}
}
