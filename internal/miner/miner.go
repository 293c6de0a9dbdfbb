// Package miner implements block production for the launchpad node.
package miner

import (
	"context"
	"time"

	"github.com/Klingon-tech/klingnet-launchpad/internal/chain"
	"github.com/rs/zerolog"
)

// BlockProducer appends blocks to the chain.
type BlockProducer interface {
	ProduceBlock(timestamp uint64) (*chain.Block, error)
}

// Miner produces one block per tick.
type Miner struct {
	chain     BlockProducer
	blockTime time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a new block producer. blockTime must be positive.
func New(ch BlockProducer, blockTime time.Duration, logger zerolog.Logger) *Miner {
	return &Miner{
		chain:     ch,
		blockTime: blockTime,
		logger:    logger,
		now:       time.Now,
	}
}

// ProduceBlock appends a single block stamped with the current time.
func (m *Miner) ProduceBlock() (*chain.Block, error) {
	return m.chain.ProduceBlock(uint64(m.now().Unix()))
}

// Run produces blocks every blockTime until ctx is cancelled.
func (m *Miner) Run(ctx context.Context) {
	ticker := time.NewTicker(m.blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Block production stopped")
			return
		case <-ticker.C:
			blk, err := m.ProduceBlock()
			if err != nil {
				m.logger.Error().Err(err).Msg("Failed to produce block")
				continue
			}
			m.logger.Debug().
				Uint64("height", blk.Height).
				Str("hash", blk.Hash.String()[:16]+"...").
				Msg("Block produced")
		}
	}
}
