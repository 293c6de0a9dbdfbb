// derive_key.go prints the pubkey and address for a key file. The file holds
// either a hex-encoded private key or a BIP-39 mnemonic; a mnemonic is
// derived at account/index (default 0/0).
// Usage: go run scripts/derive_key.go [-testnet] <keyfile> [account] [index]
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-launchpad/internal/wallet"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "-testnet" {
		types.SetAddressHRP(types.TestnetHRP)
		args = args[1:]
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: derive_key [-testnet] <keyfile> [account] [index]")
		os.Exit(1)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fail(err)
	}
	content := strings.TrimSpace(string(data))

	var key *crypto.PrivateKey
	if raw, err := hex.DecodeString(content); err == nil {
		key, err = crypto.PrivateKeyFromBytes(raw)
		if err != nil {
			fail(err)
		}
	} else {
		var p wallet.Path
		if len(args) > 1 {
			p.Account = parseIndex(args[1])
		}
		if len(args) > 2 {
			p.Index = parseIndex(args[2])
		}
		seed, err := wallet.MnemonicSeed(content, "")
		if err != nil {
			fail(err)
		}
		key, err = wallet.SignerAt(seed, p)
		if err != nil {
			fail(err)
		}
		fmt.Printf("path=%s\n", p)
	}
	defer key.Zero()

	pub := key.PublicKey()
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(pub))
	fmt.Printf("address=%s\n", crypto.AddressFromPubKey(pub))
}

func parseIndex(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		fail(err)
	}
	return uint32(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
