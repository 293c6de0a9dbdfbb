package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrivateKey_Restore(t *testing.T) {
	original, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if len(original.PublicKey()) != 33 {
		t.Errorf("PublicKey() length = %d, want 33", len(original.PublicKey()))
	}

	restored, err := PrivateKeyFromBytes(original.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes() error: %v", err)
	}
	if !bytes.Equal(original.PublicKey(), restored.PublicKey()) {
		t.Error("restored key should have same public key")
	}
	if original.Address() != restored.Address() {
		t.Error("restored key should control the same address")
	}

	for _, n := range []int{0, 31, 33} {
		if _, err := PrivateKeyFromBytes(make([]byte, n)); err == nil {
			t.Errorf("PrivateKeyFromBytes(%d bytes) should fail", n)
		}
	}
	if _, err := PrivateKeyFromBytes(make([]byte, PrivateKeySize)); !errors.Is(err, ErrZeroKey) {
		t.Errorf("zero scalar: got %v, want ErrZeroKey", err)
	}
}

func TestSign_Verify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	digest := TaggedHash("launch_buy", []byte(`{"launch_id":1}`))
	sig, err := key.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !VerifySignature(digest[:], sig, key.PublicKey()) {
		t.Fatal("valid signature did not verify")
	}

	wrong := TaggedHash("launch_buy", []byte(`{"launch_id":2}`))
	if VerifySignature(wrong[:], sig, key.PublicKey()) {
		t.Error("signature verified against a different digest")
	}
	if VerifySignature(digest[:], sig, other.PublicKey()) {
		t.Error("signature verified against a different key")
	}

	corrupted := bytes.Clone(sig)
	corrupted[0] ^= 0x01
	if VerifySignature(digest[:], corrupted, key.PublicKey()) {
		t.Error("corrupted signature should not verify")
	}

	if _, err := key.Sign(digest[:16]); err == nil {
		t.Error("Sign() should reject a short digest")
	}
}

func TestVerify_InvalidInputs(t *testing.T) {
	tests := []struct {
		name      string
		hash      []byte
		signature []byte
		publicKey []byte
	}{
		{"nil hash", nil, make([]byte, 64), make([]byte, 33)},
		{"empty signature", make([]byte, 32), nil, make([]byte, 33)},
		{"empty public key", make([]byte, 32), make([]byte, 64), nil},
		{"garbage public key", make([]byte, 32), make([]byte, 64), []byte("bad")},
		{"short digest", make([]byte, 16), make([]byte, 64), make([]byte, 33)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifySignature(tt.hash, tt.signature, tt.publicKey) {
				t.Error("should return false for invalid inputs")
			}
		})
	}
}

func TestPrivateKey_Zero(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	key.Zero()
	if !bytes.Equal(key.Serialize(), make([]byte, 32)) {
		t.Error("Serialize() should return zeros after Zero()")
	}
}

func TestValidatePublicKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if err := ValidatePublicKey(key.PublicKey()); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidatePublicKey(make([]byte, 33)); err == nil {
		t.Error("zero key should be rejected")
	}
	if err := ValidatePublicKey([]byte{0x02}); err == nil {
		t.Error("short key should be rejected")
	}
}

func TestPrivateKey_SignerInterface(t *testing.T) {
	var s Signer
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	s = key

	digest := Hash([]byte("signer interface test"))
	sig, err := s.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !VerifySignature(digest[:], sig, s.PublicKey()) {
		t.Error("Signer interface: signature should verify")
	}
}
