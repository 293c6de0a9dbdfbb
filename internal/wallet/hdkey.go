package wallet

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Derivation path m/44'/5757'/account'/0/index.
const (
	purpose  = bip32.FirstHardenedChild + 44
	CoinType = bip32.FirstHardenedChild + 5757
)

// Path identifies one caller key under a seed.
type Path struct {
	Account uint32
	Index   uint32
}

// String renders the full BIP-44 path.
func (p Path) String() string {
	return fmt.Sprintf("m/44'/5757'/%d'/0/%d", p.Account, p.Index)
}

// Key is a BIP-32 extended key.
type Key struct {
	ext *bip32.Key
}

// MasterKey returns the root key of seed.
func MasterKey(seed []byte) (*Key, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed is %d bytes, want %d", len(seed), SeedSize)
	}
	ext, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	return &Key{ext: ext}, nil
}

// Child derives child i. Hardened indices carry bip32.FirstHardenedChild.
func (k *Key) Child(i uint32) (*Key, error) {
	ext, err := k.ext.NewChildKey(i)
	if err != nil {
		return nil, fmt.Errorf("child %d: %w", i, err)
	}
	return &Key{ext: ext}, nil
}

// Derive walks p from a master key.
func (k *Key) Derive(p Path) (*Key, error) {
	cur := k
	for _, i := range []uint32{purpose, CoinType, bip32.FirstHardenedChild + p.Account, 0, p.Index} {
		next, err := cur.Child(i)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Depth is 0 for a master key.
func (k *Key) Depth() uint8 { return k.ext.Depth }

// Private reports whether k holds private material.
func (k *Key) Private() bool { return k.ext.IsPrivate }

// Public returns the public-only form of k.
func (k *Key) Public() *Key { return &Key{ext: k.ext.PublicKey()} }

// PublicKey returns the 33-byte compressed public key.
func (k *Key) PublicKey() []byte { return k.ext.PublicKey().Key }

// Address returns the launchpad address of k.
func (k *Key) Address() types.Address {
	return crypto.AddressFromPubKey(k.PublicKey())
}

// Signer converts k to a signing key.
func (k *Key) Signer() (*crypto.PrivateKey, error) {
	if !k.ext.IsPrivate {
		return nil, errors.New("public key cannot sign")
	}
	raw := k.ext.Key
	// bip32 pads private keys to 33 bytes.
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// SignerAt derives the signing key at p directly from seed.
func SignerAt(seed []byte, p Path) (*crypto.PrivateKey, error) {
	master, err := MasterKey(seed)
	if err != nil {
		return nil, err
	}
	k, err := master.Derive(p)
	if err != nil {
		return nil, err
	}
	return k.Signer()
}
