package chain

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
)

func TestClock_Genesis(t *testing.T) {
	c, err := NewClock(storage.NewMemory(), 1_700_000_000)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	if c.Height() != 0 {
		t.Errorf("Height() = %d, want 0", c.Height())
	}
	tip := c.Tip()
	if tip.Timestamp != 1_700_000_000 || tip.Hash.IsZero() {
		t.Errorf("unexpected genesis block: %+v", tip)
	}
}

func TestClock_ProduceBlock(t *testing.T) {
	c, err := NewClock(storage.NewMemory(), 100)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}

	b1, err := c.ProduceBlock(200)
	if err != nil {
		t.Fatalf("ProduceBlock: %v", err)
	}
	if b1.Height != 1 || b1.PrevHash != c.mustBlock(t, 0).Hash {
		t.Errorf("block 1 not linked to genesis: %+v", b1)
	}

	// Timestamps never go backwards.
	b2, err := c.ProduceBlock(150)
	if err != nil {
		t.Fatalf("ProduceBlock: %v", err)
	}
	if b2.Timestamp != 201 {
		t.Errorf("timestamp = %d, want 201", b2.Timestamp)
	}
	if c.Height() != 2 {
		t.Errorf("Height() = %d, want 2", c.Height())
	}

	if _, err := c.GetBlock(3); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("GetBlock(3) err = %v, want ErrBlockNotFound", err)
	}
}

func TestClock_Advance(t *testing.T) {
	c, err := NewClock(storage.NewMemory(), 0)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	h, err := c.Advance(15)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if h != 15 || c.Height() != 15 {
		t.Errorf("height = %d/%d, want 15", h, c.Height())
	}
	if _, err := c.Advance(0); err != nil {
		t.Errorf("Advance(0): %v", err)
	}
}

func TestClock_Reopen(t *testing.T) {
	db := storage.NewMemory()
	c1, err := NewClock(db, 10)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	c1.Advance(7)
	tip := c1.Tip()

	c2, err := NewClock(db, 999)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c2.Tip() != tip {
		t.Errorf("reopened tip = %+v, want %+v", c2.Tip(), tip)
	}
}

func (c *Clock) mustBlock(t *testing.T, h uint64) *Block {
	t.Helper()
	b, err := c.GetBlock(h)
	if err != nil {
		t.Fatalf("GetBlock(%d): %v", h, err)
	}
	return b
}
