// Package bank keeps base-currency balances and moves them atomically
// together with the rest of an operation's state changes.
package bank

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"

	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

var (
	prefixBalance = []byte("b/") // b/<addr(20)> -> uint64 big-endian
	keyGenesis    = []byte("s/genesis")
)

// Transfer moves Amount from From to To.
type Transfer struct {
	From   types.Address
	To     types.Address
	Amount uint64
}

// Bank holds balances in a storage.DB. Commit is serialized so concurrent
// operations cannot spend the same balance twice.
type Bank struct {
	mu sync.Mutex
	db storage.DB
}

// New creates a bank over db.
func New(db storage.DB) *Bank {
	return &Bank{db: db}
}

// Balance returns the balance of addr (0 for unknown accounts).
func (b *Bank) Balance(addr types.Address) (uint64, error) {
	return b.balance(addr)
}

func (b *Bank) balance(addr types.Address) (uint64, error) {
	data, err := b.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt balance for %s", addr)
	}
	return binary.BigEndian.Uint64(data), nil
}

// InitGenesis credits the genesis allocations. It runs once per database;
// later calls return false and change nothing.
func (b *Bank) InitGenesis(alloc map[types.Address]uint64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	done, err := b.db.Has(keyGenesis)
	if err != nil {
		return false, fmt.Errorf("genesis marker: %w", err)
	}
	if done {
		return false, nil
	}

	batch := storage.NewBatch(b.db)
	defer batch.Discard()

	// Sorted so the log output is stable.
	addrs := make([]types.Address, 0, len(alloc))
	for a := range alloc {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return string(addrs[i][:]) < string(addrs[j][:]) })

	for _, a := range addrs {
		if err := batch.Put(balanceKey(a), encode(alloc[a])); err != nil {
			return false, err
		}
	}
	if err := batch.Put(keyGenesis, []byte{1}); err != nil {
		return false, err
	}
	if err := batch.Commit(); err != nil {
		return false, fmt.Errorf("commit genesis: %w", err)
	}
	klog.Bank.Info().Int("accounts", len(addrs)).Msg("Genesis allocations applied")
	return true, nil
}

// Credit mints amount to addr. Used by the devnet faucet.
func (b *Bank) Credit(addr types.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, err := b.balance(addr)
	if err != nil {
		return err
	}
	if bal > math.MaxUint64-amount {
		return errorsmod.Wrapf(ErrBalanceOverflow, "credit %d to %s", amount, addr)
	}
	return b.db.Put(balanceKey(addr), encode(bal+amount))
}

// Commit applies transfers in order on top of the writes already staged in
// batch, then commits the batch. Either every transfer and every staged
// write lands, or nothing does and the batch is left uncommitted.
func (b *Bank) Commit(batch storage.Batch, transfers ...Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := make(map[types.Address]uint64)
	get := func(a types.Address) (uint64, error) {
		if v, ok := pending[a]; ok {
			return v, nil
		}
		return b.balance(a)
	}

	for _, t := range transfers {
		if t.Amount == 0 || t.From == t.To {
			continue
		}
		from, err := get(t.From)
		if err != nil {
			return err
		}
		if from < t.Amount {
			return errorsmod.Wrapf(ErrInsufficientFunds, "%s has %d, needs %d", t.From, from, t.Amount)
		}
		pending[t.From] = from - t.Amount

		to, err := get(t.To)
		if err != nil {
			return err
		}
		if to > math.MaxUint64-t.Amount {
			return errorsmod.Wrapf(ErrBalanceOverflow, "credit %d to %s", t.Amount, t.To)
		}
		pending[t.To] = to + t.Amount
	}

	for a, v := range pending {
		if err := batch.Put(balanceKey(a), encode(v)); err != nil {
			return fmt.Errorf("stage balance: %w", err)
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, t := range transfers {
		if t.Amount == 0 || t.From == t.To {
			continue
		}
		klog.Bank.Debug().
			Str("from", t.From.String()).
			Str("to", t.To.String()).
			Uint64("amount", t.Amount).
			Msg("Transfer")
	}
	return nil
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBalance)+types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])
	return key
}

func encode(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
