package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKeystore(t *testing.T) (*Keystore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "keys")
	ks, err := OpenKeystore(dir)
	if err != nil {
		t.Fatalf("OpenKeystore() error: %v", err)
	}
	return ks, dir
}

func TestKeystore_CreateAndSign(t *testing.T) {
	ks, _ := testKeystore(t)
	pw := []byte("pw")

	acct, err := ks.Create("alice", abandonAbout, "", pw, fastKDF())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if acct.Path != (Path{}) || acct.Address.IsZero() {
		t.Errorf("first account = %+v", acct)
	}

	signer, err := ks.Signer("alice", pw, Path{})
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	if signer.Address() != acct.Address {
		t.Error("unlocked signer should match recorded address")
	}

	seed, _ := MnemonicSeed(abandonAbout, "")
	want, _ := SignerAt(seed, Path{})
	if want.Address() != acct.Address {
		t.Error("keystore address should equal direct derivation")
	}
}

func TestKeystore_CreateErrors(t *testing.T) {
	ks, _ := testKeystore(t)
	if _, err := ks.Create("bob", abandonAbout, "", []byte("pw"), fastKDF()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	tests := []struct {
		name, wallet, phrase string
	}{
		{"duplicate", "bob", abandonAbout},
		{"bad name", "../escape", abandonAbout},
		{"bad mnemonic", "carol", "abandon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ks.Create(tt.wallet, tt.phrase, "", []byte("pw"), fastKDF()); err == nil {
				t.Error("Create() should fail")
			}
		})
	}
}

func TestKeystore_WrongPassword(t *testing.T) {
	ks, _ := testKeystore(t)
	ks.Create("w", abandonAbout, "", []byte("right"), fastKDF())

	if _, err := ks.Signer("w", []byte("wrong"), Path{}); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("err = %v, want ErrWrongPassword", err)
	}
	if _, err := ks.Derive("w", []byte("wrong"), Path{Index: 1}, ""); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Derive err = %v, want ErrWrongPassword", err)
	}
}

func TestKeystore_Derive(t *testing.T) {
	ks, _ := testKeystore(t)
	pw := []byte("pw")
	first, _ := ks.Create("w", abandonAbout, "", pw, fastKDF())

	second, err := ks.Derive("w", pw, Path{Index: 1}, "buyer")
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	if second.Address == first.Address {
		t.Error("index 1 should differ from index 0")
	}
	again, _ := ks.Derive("w", nil, Path{Index: 1}, "ignored")
	if again != second {
		t.Error("deriving a recorded path should return it without unlocking")
	}

	accts, err := ks.Accounts("w")
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if len(accts) != 2 || accts[0].Path.Index != 0 || accts[1].Label != "buyer" {
		t.Errorf("accounts = %+v", accts)
	}
}

func TestKeystore_NamesAndRemove(t *testing.T) {
	ks, dir := testKeystore(t)
	ks.Create("b", abandonAbout, "", []byte("pw"), fastKDF())
	ks.Create("a", abandonAbout, "x", []byte("pw"), fastKDF())
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600)

	names, err := ks.Names()
	if err != nil {
		t.Fatalf("Names() error: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}

	if err := ks.Remove("a"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if err := ks.Remove("a"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("second Remove() = %v, want ErrWalletNotFound", err)
	}
	if _, err := ks.Accounts("a"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Accounts() of removed wallet = %v", err)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	ks, dir := testKeystore(t)
	ks.Create("perm", abandonAbout, "", []byte("pw"), fastKDF())

	info, err := os.Stat(filepath.Join(dir, "perm.key"))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("keyfile mode = %o, want 600", info.Mode().Perm())
	}
}
