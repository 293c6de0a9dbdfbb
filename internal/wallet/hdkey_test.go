package wallet

import (
	"bytes"
	"testing"

	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := MnemonicSeed(abandonAbout, "TREZOR")
	if err != nil {
		t.Fatalf("MnemonicSeed() error: %v", err)
	}
	return seed
}

func TestMasterKey(t *testing.T) {
	m, err := MasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("MasterKey() error: %v", err)
	}
	if !m.Private() || m.Depth() != 0 {
		t.Errorf("master: private=%v depth=%d", m.Private(), m.Depth())
	}
	if len(m.PublicKey()) != 33 {
		t.Errorf("public key length = %d, want 33", len(m.PublicKey()))
	}

	for _, n := range []int{0, 32, 128} {
		if _, err := MasterKey(make([]byte, n)); err == nil {
			t.Errorf("MasterKey(%d bytes) should fail", n)
		}
	}
}

func TestDerive(t *testing.T) {
	m, _ := MasterKey(testSeed(t))

	k, err := m.Derive(Path{})
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	if k.Depth() != 5 {
		t.Errorf("depth = %d, want 5", k.Depth())
	}

	again, _ := m.Derive(Path{})
	if k.Address() != again.Address() {
		t.Error("derivation must be deterministic")
	}

	seen := map[string]Path{}
	for _, p := range []Path{{0, 0}, {0, 1}, {1, 0}} {
		k, err := m.Derive(p)
		if err != nil {
			t.Fatalf("Derive(%s) error: %v", p, err)
		}
		addr := k.Address().String()
		if prev, dup := seen[addr]; dup {
			t.Errorf("%s and %s share address %s", prev, p, addr)
		}
		seen[addr] = p
	}
}

func TestPath_String(t *testing.T) {
	if got := (Path{Account: 2, Index: 7}).String(); got != "m/44'/5757'/2'/0/7" {
		t.Errorf("Path.String() = %q", got)
	}
}

func TestPublic_MatchesPrivateDerivation(t *testing.T) {
	m, _ := MasterKey(testSeed(t))
	priv, _ := m.Child(3)
	pub, err := m.Public().Child(3)
	if err != nil {
		t.Fatalf("public Child() error: %v", err)
	}
	if !bytes.Equal(priv.PublicKey(), pub.PublicKey()) {
		t.Error("public derivation should match private derivation")
	}
	if _, err := pub.Signer(); err == nil {
		t.Error("public key should not produce a signer")
	}
}

func TestSignerAt(t *testing.T) {
	seed := testSeed(t)
	signer, err := SignerAt(seed, Path{Index: 4})
	if err != nil {
		t.Fatalf("SignerAt() error: %v", err)
	}
	m, _ := MasterKey(seed)
	k, _ := m.Derive(Path{Index: 4})
	if signer.Address() != k.Address() {
		t.Error("signer address should match derived key address")
	}

	digest := crypto.Hash([]byte("launch_buy"))
	sig, err := signer.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !crypto.VerifySignature(digest[:], sig, k.PublicKey()) {
		t.Error("signature from derived key should verify")
	}
}
