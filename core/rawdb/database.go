package rawdb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KvStore is the narrow storage interface this package needs:
// `write_batch(batch)` + `get(col, key)`. Columns are
// modeled as key prefixes (see schema.go) rather than physical LevelDB
// column families, since goleveldb exposes a flat keyspace.
type KvStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	NewBatch() Batch
	WriteBatch(b Batch) error
	IteratePrefix(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch accumulates writes for one atomic commit — the chain's
// "all writes for a block succeed or none do" guarantee rides directly
// on this.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Len() int
}

type levelDB struct {
	db *leveldb.DB
}

// Open opens (or creates) a LevelDB-backed KvStore at path. An empty path
// opens an in-memory store, used by tests.
func Open(path string) (KvStore, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "rawdb: open leveldb")
	}
	return &levelDB{db: db}, nil
}

func (l *levelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return v, err
}

func (l *levelDB) Has(key []byte) (bool, error) { return l.db.Has(key, nil) }

func (l *levelDB) Put(key, value []byte) error { return l.db.Put(key, value, nil) }

func (l *levelDB) Delete(key []byte) error { return l.db.Delete(key, nil) }

func (l *levelDB) NewBatch() Batch { return &levelBatch{b: new(leveldb.Batch)} }

func (l *levelDB) WriteBatch(b Batch) error {
	lb, ok := b.(*levelBatch)
	if !ok {
		return errors.New("rawdb: foreign batch type")
	}
	if err := l.db.Write(lb.b, nil); err != nil {
		return errors.Wrap(err, "rawdb: write batch")
	}
	return nil
}

func (l *levelDB) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (l *levelDB) Close() error { return l.db.Close() }

type levelBatch struct {
	b *leveldb.Batch
}

func (b *levelBatch) Put(key, value []byte) { b.b.Put(key, value) }
func (b *levelBatch) Delete(key []byte)     { b.b.Delete(key) }
func (b *levelBatch) Len() int              { return b.b.Len() }

// ErrNotFound is returned by Get for a missing key, mirroring leveldb's own
// sentinel so callers don't need to import goleveldb directly.
var ErrNotFound = errors.New("rawdb: not found")
