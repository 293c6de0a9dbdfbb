package node

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-launchpad/config"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
)

var keyGenesisHash = []byte("meta/genesis")

// ErrGenesisMismatch is returned when the data directory was initialized
// from a different genesis.
var ErrGenesisMismatch = errors.New("genesis mismatch")

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// loadGenesis reads cfg.Genesis, or returns the network's built-in genesis.
func loadGenesis(cfg *config.Config) (*config.Genesis, error) {
	if cfg.Genesis == "" {
		return config.GenesisFor(cfg.Network), nil
	}
	g, err := config.LoadGenesis(expandHome(cfg.Genesis))
	if err != nil {
		return nil, fmt.Errorf("load genesis %s: %w", cfg.Genesis, err)
	}
	return g, nil
}

// checkGenesisHash records the genesis hash on first start and refuses
// to open a database created from another genesis.
func checkGenesisHash(db storage.DB, g *config.Genesis) error {
	h, err := g.Hash()
	if err != nil {
		return fmt.Errorf("hash genesis: %w", err)
	}
	stored, err := db.Get(keyGenesisHash)
	if errors.Is(err, storage.ErrNotFound) {
		return db.Put(keyGenesisHash, h[:])
	}
	if err != nil {
		return fmt.Errorf("read genesis hash: %w", err)
	}
	if !bytes.Equal(stored, h[:]) {
		return fmt.Errorf("%w: data directory has %x, genesis is %s", ErrGenesisMismatch, stored, h)
	}
	return nil
}
