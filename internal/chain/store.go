package chain

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
)

// Key prefixes and state keys for the block store.
var (
	prefixBlock = []byte("h/") // h/<height(8)> -> block JSON
	keyTip      = []byte("s/tip")
)

// ErrBlockNotFound is returned for heights the clock has not produced.
var ErrBlockNotFound = errors.New("block not found")

// BlockStore persists block headers and the tip height to a storage.DB.
type BlockStore struct {
	db storage.DB
}

// NewBlockStore creates a block store backed by the given database.
func NewBlockStore(db storage.DB) *BlockStore {
	return &BlockStore{db: db}
}

// PutBlock stages a block and the new tip in batch.
func (bs *BlockStore) PutBlock(batch storage.Batch, blk *Block) error {
	data, err := json.Marshal(blk)
	if err != nil {
		return fmt.Errorf("block marshal: %w", err)
	}
	if err := batch.Put(blockKey(blk.Height), data); err != nil {
		return fmt.Errorf("block put: %w", err)
	}
	var tip [8]byte
	binary.BigEndian.PutUint64(tip[:], blk.Height)
	if err := batch.Put(keyTip, tip[:]); err != nil {
		return fmt.Errorf("tip put: %w", err)
	}
	return nil
}

// GetBlock retrieves the block at height.
func (bs *BlockStore) GetBlock(height uint64) (*Block, error) {
	data, err := bs.db.Get(blockKey(height))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("height %d: %w", height, ErrBlockNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("block get: %w", err)
	}
	var blk Block
	if err := json.Unmarshal(data, &blk); err != nil {
		return nil, fmt.Errorf("block unmarshal: %w", err)
	}
	return &blk, nil
}

// TipHeight returns the persisted tip height and whether one exists.
func (bs *BlockStore) TipHeight() (uint64, bool, error) {
	data, err := bs.db.Get(keyTip)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("tip get: %w", err)
	}
	if len(data) != 8 {
		return 0, false, fmt.Errorf("corrupt tip record (%d bytes)", len(data))
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func blockKey(height uint64) []byte {
	key := make([]byte, len(prefixBlock)+8)
	copy(key, prefixBlock)
	binary.BigEndian.PutUint64(key[len(prefixBlock):], height)
	return key
}
