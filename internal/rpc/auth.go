package rpc

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

var prefixNonce = []byte("n/") // n/<addr(20)> -> last accepted nonce

// ErrStaleNonce is returned for a nonce not above the last accepted one.
var ErrStaleNonce = errors.New("stale nonce")

// SigningDigest is the message a caller signs for a mutating call:
// BLAKE3(method || 0x00 || chainID || 0x00 || nonce(8, big endian) || payload).
// The chain id keeps an envelope for one network from replaying on another.
func SigningDigest(chainID, method string, nonce uint64, payload []byte) types.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.TaggedHash(method, []byte(chainID), []byte{0}, n[:], payload)
}

// SignEnvelope marshals payload and signs it for method on chainID.
func SignEnvelope(signer crypto.Signer, chainID, method string, nonce uint64, payload interface{}) (*SignedParams, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	digest := SigningDigest(chainID, method, nonce, raw)
	sig, err := signer.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return &SignedParams{
		PubKey:    hex.EncodeToString(signer.PublicKey()),
		Nonce:     nonce,
		Payload:   raw,
		Signature: hex.EncodeToString(sig),
	}, nil
}

// NonceStore tracks the last accepted nonce per address. Nonces must be
// strictly increasing; gaps are allowed.
type NonceStore struct {
	mu sync.Mutex
	db storage.DB
}

// NewNonceStore creates a nonce store over db.
func NewNonceStore(db storage.DB) *NonceStore {
	return &NonceStore{db: db}
}

func nonceKey(addr types.Address) []byte {
	return append(append([]byte{}, prefixNonce...), addr[:]...)
}

func (ns *NonceStore) last(addr types.Address) (uint64, error) {
	v, err := ns.db.Get(nonceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt nonce for %s", addr)
	}
	return binary.BigEndian.Uint64(v), nil
}

// Next returns the lowest nonce addr may use.
func (ns *NonceStore) Next(addr types.Address) (uint64, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	last, err := ns.last(addr)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// Consume records nonce for addr if it is above the last accepted one.
func (ns *NonceStore) Consume(addr types.Address, nonce uint64) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	last, err := ns.last(addr)
	if err != nil {
		return err
	}
	if nonce <= last {
		return fmt.Errorf("%w: %d, next is %d", ErrStaleNonce, nonce, last+1)
	}
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], nonce)
	return ns.db.Put(nonceKey(addr), v[:])
}

// authenticate checks a signed envelope for method and returns the
// caller's address. A valid signature consumes the nonce even if the
// call it carries is later rejected by the ledger.
func (s *Server) authenticate(method string, p *SignedParams) (types.Address, *Error) {
	pub, err := hex.DecodeString(p.PubKey)
	if err != nil || crypto.ValidatePublicKey(pub) != nil {
		return types.Address{}, &Error{Code: CodeUnauthorized, Message: "invalid pubkey"}
	}
	sig, err := hex.DecodeString(p.Signature)
	if err != nil {
		return types.Address{}, &Error{Code: CodeUnauthorized, Message: "invalid signature encoding"}
	}
	digest := SigningDigest(s.genesis.ChainID, method, p.Nonce, p.Payload)
	if !crypto.VerifySignature(digest[:], sig, pub) {
		return types.Address{}, &Error{Code: CodeUnauthorized, Message: "signature verification failed"}
	}

	caller := crypto.AddressFromPubKey(pub)
	if err := s.nonces.Consume(caller, p.Nonce); err != nil {
		if errors.Is(err, ErrStaleNonce) {
			return types.Address{}, &Error{Code: CodeUnauthorized, Message: err.Error()}
		}
		return types.Address{}, &Error{Code: CodeInternalError, Message: "nonce store unavailable"}
	}
	return caller, nil
}
