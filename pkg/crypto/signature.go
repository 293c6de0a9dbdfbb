package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Key and digest sizes.
const (
	PrivateKeySize = 32
	PublicKeySize  = 33
	DigestSize     = 32
)

// ErrZeroKey is returned for a secret that reduces to zero mod the curve order.
var ErrZeroKey = errors.New("private key is zero")

// Signer signs request digests on behalf of a caller.
type Signer interface {
	Sign(hash []byte) ([]byte, error)
	PublicKey() []byte
}

// PrivateKey is a secp256k1 key that signs with BIP-340 Schnorr.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes restores a key from its 32-byte scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	if key.Key.IsZero() {
		return nil, ErrZeroKey
	}
	return &PrivateKey{key: key}, nil
}

// Sign produces a 64-byte Schnorr signature over a 32-byte digest.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != DigestSize {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(hash))
	}
	sig, err := schnorr.Sign(pk.key, hash)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey returns the compressed public key.
func (pk *PrivateKey) PublicKey() []byte { return pk.key.PubKey().SerializeCompressed() }

// Address returns the account controlled by this key.
func (pk *PrivateKey) Address() types.Address { return AddressFromPubKey(pk.PublicKey()) }

// Serialize returns the 32-byte scalar. Callers own wiping the copy.
func (pk *PrivateKey) Serialize() []byte { return pk.key.Serialize() }

// Zero wipes the scalar. The key is unusable afterwards.
func (pk *PrivateKey) Zero() { pk.key.Zero() }

func parsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(b))
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pub, nil
}

// ValidatePublicKey reports whether b is a well-formed compressed key.
func ValidatePublicKey(b []byte) error {
	_, err := parsePublicKey(b)
	return err
}

// VerifySignature checks a Schnorr signature over a digest against a
// compressed public key. Any malformed input verifies false.
func VerifySignature(hash, signature, publicKey []byte) bool {
	if len(hash) != DigestSize {
		return false
	}
	pub, err := parsePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pub)
}
