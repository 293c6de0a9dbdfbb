package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KDF names the key derivation recorded in a sealed box.
const KDF = "argon2id"

// ErrWrongPassword is returned when a box fails authentication.
var ErrWrongPassword = errors.New("wrong password or corrupted keystore")

// KDFParams tunes Argon2id.
type KDFParams struct {
	Memory  uint32 `json:"memory_kib"`
	Time    uint32 `json:"time"`
	Threads uint8  `json:"threads"`
}

// DefaultKDF is used for keystores created by the CLI.
func DefaultKDF() KDFParams {
	return KDFParams{Memory: 64 * 1024, Time: 3, Threads: 4}
}

// Sealed is an XChaCha20-Poly1305 ciphertext with everything needed to
// re-derive its key except the password.
type Sealed struct {
	KDF        string    `json:"kdf"`
	Params     KDFParams `json:"params"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
}

func stretch(password, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Seal encrypts plaintext under password.
func Seal(plaintext, password []byte, p KDFParams) (*Sealed, error) {
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return nil, errors.New("kdf params must be positive")
	}
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	key := stretch(password, salt, p)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return &Sealed{
		KDF:        KDF,
		Params:     p,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, []byte(KDF)),
	}, nil
}

// Open decrypts s with password.
func (s *Sealed) Open(password []byte) ([]byte, error) {
	if s.KDF != KDF {
		return nil, fmt.Errorf("unsupported kdf %q", s.KDF)
	}
	if len(s.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("nonce is %d bytes", len(s.Nonce))
	}
	key := stretch(password, s.Salt, s.Params)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	plain, err := aead.Open(nil, s.Nonce, s.Ciphertext, []byte(KDF))
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plain, nil
}
