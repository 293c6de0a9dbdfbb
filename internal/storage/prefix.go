package storage

// PrefixDB is a namespace inside another DB. The node keeps ledger state,
// the block clock and RPC nonces side by side in one Badger database.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB scopes inner to keys starting with prefix. Nesting a PrefixDB
// collapses into a single namespace over the outermost DB.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	if outer, ok := inner.(*PrefixDB); ok {
		return &PrefixDB{inner: outer.inner, prefix: join(outer.prefix, prefix)}
	}
	return &PrefixDB{inner: inner, prefix: clone(prefix)}
}

// join returns a fresh slice holding prefix followed by key.
func join(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}

// Get, Put, Delete and Has address keys inside the namespace.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(join(p.prefix, key))
}

func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(join(p.prefix, key), value)
}

func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(join(p.prefix, key))
}

func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(join(p.prefix, key))
}

// ForEach walks the namespace; fn sees keys with the namespace stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(join(p.prefix, prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close is a no-op; the outer DB owns the lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch stages writes into the inner DB's batch, so a namespace commits
// atomically whenever its backing store does.
func (p *PrefixDB) NewBatch() Batch {
	return &prefixBatch{Batch: NewBatch(p.inner), prefix: p.prefix}
}

type prefixBatch struct {
	Batch
	prefix []byte
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.Batch.Put(join(pb.prefix, key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.Batch.Delete(join(pb.prefix, key))
}
