// Package crypto holds the launchpad's BLAKE3 digests and secp256k1
// Schnorr keys.
package crypto

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Hash returns BLAKE3-256(data).
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// TaggedHash returns BLAKE3(tag ‖ 0x00 ‖ parts...). Distinct tags keep
// digests of different kinds apart.
func TaggedHash(tag string, parts ...[]byte) (out types.Hash) {
	h := blake3.New()
	h.Write([]byte(tag))
	h.Write([]byte{0})
	for _, p := range parts {
		h.Write(p)
	}
	h.Sum(out[:0])
	return out
}

// AddressFromPubKey returns BLAKE3(pubKey)[:20] for a compressed key.
func AddressFromPubKey(pubKey []byte) types.Address {
	return truncate(Hash(pubKey))
}

// DeriveAddress returns the keyless account BLAKE3(tag ‖ uint64be(id))[:20].
// Nobody holds a key for it, so only ledger code moves its funds.
func DeriveAddress(tag string, id uint64) types.Address {
	return truncate(Hash(binary.BigEndian.AppendUint64([]byte(tag), id)))
}

func truncate(h types.Hash) (addr types.Address) {
	copy(addr[:], h[:types.AddressSize])
	return addr
}
