// Package registry binds launches to their deployed tokens. Each launch id
// can be bound once, and only by the holder of the registry's Capability.
package registry

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// DB keys for registry persistence.
var (
	prefixEntry = []byte("r/") // r/<launchID(8)> -> Entry JSON
	keyCount    = []byte("s/deployments")
)

// Entry is one launch → token binding.
type Entry struct {
	LaunchID     uint64        `json:"launch_id"`
	Token        types.TokenID `json:"token"`
	Registrar    types.Address `json:"registrar"`
	RegisteredAt uint64        `json:"registered_at"`
}

// Capability is the write permission for a Registry. The zero value
// authorizes nothing.
type Capability struct {
	reg *Registry
}

// Registry tracks token deployments per launch.
type Registry struct {
	mu      sync.RWMutex
	db      storage.DB
	entries map[uint64]*Entry
	count   uint64
}

// New loads the registry stored in db and returns it with its write
// capability. Hand the capability only to the ledger.
func New(db storage.DB) (*Registry, *Capability, error) {
	r := &Registry{db: db, entries: make(map[uint64]*Entry)}

	err := db.ForEach(prefixEntry, func(key, value []byte) error {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}
		r.entries[e.LaunchID] = &e
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load registry: %w", err)
	}

	data, err := db.Get(keyCount)
	switch {
	case err == nil && len(data) == 8:
		r.count = binary.BigEndian.Uint64(data)
	case err == nil:
		return nil, nil, fmt.Errorf("corrupt deployment counter")
	case !errors.Is(err, storage.ErrNotFound):
		return nil, nil, fmt.Errorf("load deployment counter: %w", err)
	}

	return r, &Capability{reg: r}, nil
}

// Register stages the binding of launchID to e.Token in batch and commits
// the batch. It fails without committing when wcap does not belong to r or
// the launch is already bound.
func (r *Registry) Register(wcap *Capability, batch storage.Batch, e Entry) error {
	if wcap == nil || wcap.reg != r {
		return errorsmod.Wrapf(lptypes.ErrNotAuthorized, "registry write for launch %d", e.LaunchID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[e.LaunchID]; ok {
		return errorsmod.Wrapf(lptypes.ErrTokenAlreadyDeployed, "launch %d bound to %s", e.LaunchID, existing.Token)
	}

	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := batch.Put(entryKey(e.LaunchID), data); err != nil {
		return fmt.Errorf("stage entry: %w", err)
	}
	var cnt [8]byte
	binary.BigEndian.PutUint64(cnt[:], r.count+1)
	if err := batch.Put(keyCount, cnt[:]); err != nil {
		return fmt.Errorf("stage counter: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}

	r.entries[e.LaunchID] = &e
	r.count++

	klog.Registry.Info().
		Uint64("launch_id", e.LaunchID).
		Str("token", e.Token.String()).
		Uint64("deployments", r.count).
		Msg("Token registered")
	return nil
}

// Get returns the binding for launchID.
func (r *Registry) Get(launchID uint64) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[launchID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Has reports whether launchID is bound.
func (r *Registry) Has(launchID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[launchID]
	return ok
}

// Count returns the number of successful registrations.
func (r *Registry) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// List returns all bindings ordered by launch id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LaunchID < out[j].LaunchID })
	return out
}

func entryKey(launchID uint64) []byte {
	key := make([]byte, len(prefixEntry)+8)
	copy(key, prefixEntry)
	binary.BigEndian.PutUint64(key[len(prefixEntry):], launchID)
	return key
}
