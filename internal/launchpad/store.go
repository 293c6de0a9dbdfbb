package launchpad

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Key prefixes for ledger state.
var (
	prefixLaunch       = []byte("l/") // l/<id(8)> -> Launch JSON
	prefixContribution = []byte("c/") // c/<id(8)><addr(20)> -> Contribution JSON
	prefixContributor  = []byte("a/") // a/<addr(20)><id(8)> -> empty (discovery index)
	keyLastID          = []byte("s/last-launch-id")
)

// Store persists launches and contributions.
type Store struct {
	db storage.DB
}

// NewStore creates a launch store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// GetLaunch retrieves a launch by id.
func (s *Store) GetLaunch(id uint64) (*lptypes.Launch, error) {
	data, err := s.db.Get(launchKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errorsmod.Wrapf(lptypes.ErrLaunchNotFound, "launch %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("launch get: %w", err)
	}
	var l lptypes.Launch
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("launch unmarshal: %w", err)
	}
	return &l, nil
}

// PutLaunch stages a launch write.
func (s *Store) PutLaunch(batch storage.Batch, l *lptypes.Launch) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("launch marshal: %w", err)
	}
	return batch.Put(launchKey(l.ID), data)
}

// GetContribution returns the contribution of addr to launch id, or nil
// if addr never bought into it.
func (s *Store) GetContribution(id uint64, addr types.Address) (*lptypes.Contribution, error) {
	data, err := s.db.Get(contributionKey(id, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contribution get: %w", err)
	}
	var c lptypes.Contribution
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("contribution unmarshal: %w", err)
	}
	return &c, nil
}

// PutContribution stages a contribution write and its discovery index entry.
func (s *Store) PutContribution(batch storage.Batch, c *lptypes.Contribution) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("contribution marshal: %w", err)
	}
	if err := batch.Put(contributionKey(c.LaunchID, c.Contributor), data); err != nil {
		return err
	}
	return batch.Put(contributorKey(c.Contributor, c.LaunchID), []byte{})
}

// ForEachContribution iterates over the contributions of launch id in
// contributor order. Return a non-nil error from fn to stop early.
func (s *Store) ForEachContribution(id uint64, fn func(*lptypes.Contribution) error) error {
	prefix := make([]byte, len(prefixContribution)+8)
	copy(prefix, prefixContribution)
	binary.BigEndian.PutUint64(prefix[len(prefixContribution):], id)

	return s.db.ForEach(prefix, func(_, value []byte) error {
		var c lptypes.Contribution
		if err := json.Unmarshal(value, &c); err != nil {
			return fmt.Errorf("contribution unmarshal: %w", err)
		}
		return fn(&c)
	})
}

// LaunchIDsOf returns, in ascending order, the launches addr contributed to.
func (s *Store) LaunchIDsOf(addr types.Address) ([]uint64, error) {
	prefix := make([]byte, len(prefixContributor)+types.AddressSize)
	copy(prefix, prefixContributor)
	copy(prefix[len(prefixContributor):], addr[:])

	var ids []uint64
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		if len(key) != len(prefix)+8 {
			return nil // Malformed key, skip.
		}
		ids = append(ids, binary.BigEndian.Uint64(key[len(prefix):]))
		return nil
	})
	return ids, err
}

// LastID returns the highest launch id assigned so far (0 if none).
func (s *Store) LastID() (uint64, error) {
	data, err := s.db.Get(keyLastID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("last id get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt launch counter")
	}
	return binary.BigEndian.Uint64(data), nil
}

// PutLastID stages the launch counter.
func (s *Store) PutLastID(batch storage.Batch, id uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return batch.Put(keyLastID, buf[:])
}

func launchKey(id uint64) []byte {
	key := make([]byte, len(prefixLaunch)+8)
	copy(key, prefixLaunch)
	binary.BigEndian.PutUint64(key[len(prefixLaunch):], id)
	return key
}

func contributionKey(id uint64, addr types.Address) []byte {
	key := make([]byte, len(prefixContribution)+8+types.AddressSize)
	copy(key, prefixContribution)
	binary.BigEndian.PutUint64(key[len(prefixContribution):], id)
	copy(key[len(prefixContribution)+8:], addr[:])
	return key
}

func contributorKey(addr types.Address, id uint64) []byte {
	key := make([]byte, len(prefixContributor)+types.AddressSize+8)
	copy(key, prefixContributor)
	copy(key[len(prefixContributor):], addr[:])
	binary.BigEndian.PutUint64(key[len(prefixContributor)+types.AddressSize:], id)
	return key
}
