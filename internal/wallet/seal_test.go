package wallet

import (
	"bytes"
	"errors"
	"testing"
)

// fastKDF keeps tests quick.
func fastKDF() KDFParams {
	return KDFParams{Memory: 1024, Time: 1, Threads: 1}
}

func TestSeal_RoundTrip(t *testing.T) {
	plain := []byte("a 64 byte seed would go here")
	box, err := Seal(plain, []byte("hunter2"), fastKDF())
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if bytes.Contains(box.Ciphertext, plain) {
		t.Fatal("ciphertext contains plaintext")
	}
	got, err := box.Open([]byte("hunter2"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("Open() = %q, want %q", got, plain)
	}
}

func TestSeal_FreshSaltAndNonce(t *testing.T) {
	a, _ := Seal([]byte("x"), []byte("pw"), fastKDF())
	b, _ := Seal([]byte("x"), []byte("pw"), fastKDF())
	if bytes.Equal(a.Salt, b.Salt) || bytes.Equal(a.Nonce, b.Nonce) {
		t.Error("each seal should use a fresh salt and nonce")
	}
}

func TestOpen_Failures(t *testing.T) {
	box, _ := Seal([]byte("secret"), []byte("right"), fastKDF())

	if _, err := box.Open([]byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password: err = %v", err)
	}

	tampered := *box
	tampered.Ciphertext = append([]byte(nil), box.Ciphertext...)
	tampered.Ciphertext[0] ^= 1
	if _, err := tampered.Open([]byte("right")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("tampered: err = %v", err)
	}

	other := *box
	other.KDF = "scrypt"
	if _, err := other.Open([]byte("right")); err == nil {
		t.Error("unknown kdf should fail")
	}
}

func TestSeal_RejectsZeroParams(t *testing.T) {
	if _, err := Seal([]byte("x"), []byte("pw"), KDFParams{}); err == nil {
		t.Error("zero kdf params should be rejected")
	}
}
