package storage

import (
	"slices"
	"strings"
	"sync"
)

// MemoryDB is a map-backed DB for tests and throwaway nodes.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty MemoryDB.
func NewMemory() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[string(key)]; ok {
		return clone(v), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemoryDB) Put(key, value []byte) error {
	m.apply(batchOp{key: key, value: cloneValue(value)})
	return nil
}

func (m *MemoryDB) Delete(key []byte) error {
	m.apply(batchOp{key: key})
	return nil
}

// apply runs ops under one write lock.
func (m *MemoryDB) apply(ops ...batchOp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if op.value == nil {
			delete(m.data, string(op.key))
			continue
		}
		m.data[string(op.key)] = op.value
	}
}

// ForEach visits keys under prefix in ascending order. fn sees a copy taken
// before the first call, so it may write to m.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	var snap []batchOp
	m.mu.RLock()
	for k, v := range m.data {
		if strings.HasPrefix(k, string(prefix)) {
			snap = append(snap, batchOp{key: []byte(k), value: clone(v)})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(snap, func(a, b batchOp) int { return strings.Compare(string(a.key), string(b.key)) })
	for _, kv := range snap {
		if err := fn(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryDB) Close() error { return nil }

// NewBatch returns a batch that Commit applies under a single lock.
func (m *MemoryDB) NewBatch() Batch {
	return &memoryBatch{db: m}
}

type memoryBatch struct {
	db  *MemoryDB
	ops []batchOp
}

func (b *memoryBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{key: clone(key), value: cloneValue(value)})
	return nil
}

func (b *memoryBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{key: clone(key)})
	return nil
}

func (b *memoryBatch) Commit() error {
	b.db.apply(b.ops...)
	b.ops = nil
	return nil
}

func (b *memoryBatch) Discard() { b.ops = nil }
