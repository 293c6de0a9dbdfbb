// Package guard holds the launchpad's owner identity and pause switch.
package guard

import (
	"errors"
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

var keyPaused = []byte("g/paused")

// Guard is the owner check and the persisted paused flag.
type Guard struct {
	mu     sync.RWMutex
	db     storage.DB
	owner  types.Address
	paused bool
}

// New loads the guard state from db. The owner comes from genesis and
// cannot change afterwards.
func New(db storage.DB, owner types.Address) (*Guard, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("guard owner must be set")
	}
	g := &Guard{db: db, owner: owner}
	data, err := db.Get(keyPaused)
	switch {
	case err == nil:
		g.paused = len(data) == 1 && data[0] == 1
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load paused flag: %w", err)
	}
	return g, nil
}

// Owner returns the owner identity.
func (g *Guard) Owner() types.Address {
	return g.owner
}

// IsOwner reports whether addr is the owner.
func (g *Guard) IsOwner(addr types.Address) bool {
	return addr == g.owner
}

// Paused reports whether new launches and purchases are halted.
func (g *Guard) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// CheckNotPaused returns ErrContractPaused while the guard is paused.
func (g *Guard) CheckNotPaused() error {
	if g.Paused() {
		return lptypes.ErrContractPaused
	}
	return nil
}

// SetPaused sets the paused flag. Only the owner may call it.
func (g *Guard) SetPaused(caller types.Address, paused bool) (bool, error) {
	if !g.IsOwner(caller) {
		return false, errorsmod.Wrapf(lptypes.ErrOwnerOnly, "caller %s", caller)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	v := byte(0)
	if paused {
		v = 1
	}
	if err := g.db.Put(keyPaused, []byte{v}); err != nil {
		return g.paused, fmt.Errorf("persist paused flag: %w", err)
	}
	g.paused = paused

	klog.Guard.Info().Bool("paused", paused).Str("caller", caller.String()).Msg("Pause flag set")
	return paused, nil
}
