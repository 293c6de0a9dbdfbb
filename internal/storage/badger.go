package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
)

// BadgerDB implements DB on a Badger directory. Single writes each run in
// their own transaction; NewBatch groups writes into one.
type BadgerDB struct {
	db *badger.DB
}

// NewBadger opens or creates the Badger database at path.
func NewBadger(path string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = badgerLogger{klog.Storage}

	db, err := badger.Open(opts)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "Cannot acquire directory lock") ||
			strings.Contains(msg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("database at %s is locked by another process (is another launchpadd running?): %w", path, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}
	return &BadgerDB{db: db}, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("badger %s: %w", op, err)
}

// lookup reads key in a read-only transaction. A missing key yields
// ok == false and no error.
func (b *BadgerDB) lookup(key []byte, copyValue bool) (val []byte, ok bool, err error) {
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		if copyValue {
			val, err = item.ValueCopy(nil)
		}
		return err
	})
	return val, ok, err
}

// Get returns ErrNotFound when key is absent.
func (b *BadgerDB) Get(key []byte) ([]byte, error) {
	val, ok, err := b.lookup(key, true)
	if err != nil {
		return nil, wrap("get", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return val, nil
}

func (b *BadgerDB) Has(key []byte) (bool, error) {
	_, ok, err := b.lookup(key, false)
	return ok, wrap("has", err)
}

func (b *BadgerDB) Put(key, value []byte) error {
	return wrap("put", b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}))
}

func (b *BadgerDB) Delete(key []byte) error {
	return wrap("delete", b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}))
}

// ForEach iterates over all keys with the given prefix.
func (b *BadgerDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			err := item.Value(func(val []byte) error {
				return fn(key, clone(val))
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}

// NewBatch returns a batch backed by a single read-write Badger transaction.
func (b *BadgerDB) NewBatch() Batch {
	return &badgerBatch{txn: b.db.NewTransaction(true)}
}

type badgerBatch struct {
	txn  *badger.Txn
	done bool
}

func (bb *badgerBatch) Put(key, value []byte) error {
	return wrap("batch put", bb.txn.Set(clone(key), cloneValue(value)))
}

func (bb *badgerBatch) Delete(key []byte) error {
	return wrap("batch delete", bb.txn.Delete(clone(key)))
}

func (bb *badgerBatch) Commit() error {
	bb.done = true
	return wrap("batch commit", bb.txn.Commit())
}

func (bb *badgerBatch) Discard() {
	if !bb.done {
		bb.done = true
		bb.txn.Discard()
	}
}

// badgerLogger routes Badger's internal messages into the storage logger.
// Badger is chatty at info, so its info and debug output go to debug.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	b.l.Error().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	b.l.Warn().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b badgerLogger) Infof(f string, v ...interface{}) {
	b.l.Debug().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b badgerLogger) Debugf(f string, v ...interface{}) {
	b.l.Trace().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}
