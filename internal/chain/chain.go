// Package chain keeps the node's block height, the clock every launch
// window is measured against.
package chain

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Block is the header the clock records for every height.
type Block struct {
	Height    uint64     `json:"height"`
	Hash      types.Hash `json:"hash"`
	PrevHash  types.Hash `json:"prev_hash"`
	Timestamp uint64     `json:"timestamp"`
}

func blockHash(prev types.Hash, height, timestamp uint64) types.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], height)
	binary.BigEndian.PutUint64(buf[8:], timestamp)
	return crypto.TaggedHash("launchpad/block", prev[:], buf[:])
}

// Clock is a monotonically increasing, persisted block height.
type Clock struct {
	mu    sync.RWMutex
	store *BlockStore
	db    storage.DB
	tip   Block
}

// NewClock opens the clock stored in db, writing a genesis block at
// height 0 with genesisTime when the store is empty.
func NewClock(db storage.DB, genesisTime uint64) (*Clock, error) {
	c := &Clock{store: NewBlockStore(db), db: db}

	height, ok, err := c.store.TipHeight()
	if err != nil {
		return nil, err
	}
	if !ok {
		genesis := Block{Height: 0, Timestamp: genesisTime}
		genesis.Hash = blockHash(types.Hash{}, 0, genesisTime)
		if err := c.commit(&genesis); err != nil {
			return nil, fmt.Errorf("write genesis block: %w", err)
		}
		return c, nil
	}

	tip, err := c.store.GetBlock(height)
	if err != nil {
		return nil, fmt.Errorf("load tip: %w", err)
	}
	c.tip = *tip
	return c, nil
}

// Height returns the current block height.
func (c *Clock) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip.Height
}

// Tip returns the most recent block.
func (c *Clock) Tip() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// GetBlock returns the block at height.
func (c *Clock) GetBlock(height uint64) (*Block, error) {
	return c.store.GetBlock(height)
}

// ProduceBlock appends one block. The timestamp is bumped to at least
// parent+1 so block times stay strictly increasing.
func (c *Clock) ProduceBlock(timestamp uint64) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timestamp <= c.tip.Timestamp {
		timestamp = c.tip.Timestamp + 1
	}
	blk := Block{
		Height:    c.tip.Height + 1,
		PrevHash:  c.tip.Hash,
		Timestamp: timestamp,
	}
	blk.Hash = blockHash(blk.PrevHash, blk.Height, blk.Timestamp)
	if err := c.commit(&blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// Advance produces n blocks stamped with the wall clock and returns the new height.
func (c *Clock) Advance(n uint64) (uint64, error) {
	for i := uint64(0); i < n; i++ {
		if _, err := c.ProduceBlock(uint64(time.Now().Unix())); err != nil {
			return c.Height(), err
		}
	}
	klog.Chain.Debug().Uint64("blocks", n).Uint64("height", c.Height()).Msg("Clock advanced")
	return c.Height(), nil
}

// commit persists blk and makes it the tip. Caller holds c.mu (or owns c exclusively).
func (c *Clock) commit(blk *Block) error {
	batch := storage.NewBatch(c.db)
	defer batch.Discard()
	if err := c.store.PutBlock(batch, blk); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit block %d: %w", blk.Height, err)
	}
	c.tip = *blk
	return nil
}
