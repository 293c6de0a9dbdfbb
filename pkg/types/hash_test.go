package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHashZeroAndString(t *testing.T) {
	var h Hash
	if !h.IsZero() || h.String() != strings.Repeat("0", 64) {
		t.Fatalf("zero hash: IsZero=%v String=%s", h.IsZero(), h)
	}
	h[0], h[31] = 0xab, 0xcd
	if h.IsZero() {
		t.Error("non-zero hash reported zero")
	}
	if s := h.String(); !strings.HasPrefix(s, "ab") || !strings.HasSuffix(s, "cd") {
		t.Errorf("String() = %s", s)
	}
}

func TestHexToHash(t *testing.T) {
	valid := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", valid, valid, false},
		{"0x prefix", "0x" + valid, valid, false},
		{"uppercase", strings.ToUpper(valid), valid, false},
		{"too short", "abcd", "", true},
		{"too long", strings.Repeat("a", 66), "", true},
		{"bad char", strings.Repeat("g", 64), "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HexToHash(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HexToHash(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && h.String() != tt.want {
				t.Errorf("got %s, want %s", h, tt.want)
			}
		})
	}
}

func TestHexToTokenID(t *testing.T) {
	in := strings.Repeat("ab", HashSize)
	tid, err := HexToTokenID(in)
	if err != nil {
		t.Fatalf("HexToTokenID: %v", err)
	}
	if tid.String() != in || tid.IsZero() {
		t.Errorf("got %s", tid)
	}
	if _, err := HexToTokenID("abcd"); err == nil {
		t.Error("short token id should fail")
	}
	if !(TokenID{}).IsZero() {
		t.Error("zero token id should be zero")
	}
}

func TestTokenIDJSON(t *testing.T) {
	type record struct {
		Token *TokenID `json:"token,omitempty"`
		Hash  Hash     `json:"hash"`
	}
	tid := TokenID{0xde, 0xad}
	data, err := json.Marshal(record{Token: &tid, Hash: Hash{0x01}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"token":"dead`) {
		t.Errorf("token not hex encoded: %s", data)
	}

	var got record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Token == nil || *got.Token != tid || got.Hash != (Hash{0x01}) {
		t.Errorf("decoded %+v", got)
	}

	if err := json.Unmarshal([]byte(`{"hash":""}`), &got); err != nil || !got.Hash.IsZero() {
		t.Errorf("empty hash: err=%v hash=%s", err, got.Hash)
	}
	if err := json.Unmarshal([]byte(`{"hash":"zz"}`), &got); err == nil {
		t.Error("bad hex should fail")
	}
}
