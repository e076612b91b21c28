// Package wal implements the consensus write-ahead log: every
// state-changing consensus event is appended before the node acts on it
// externally, so a crash can be recovered by replaying the log. It is
// grounded on the rawdb package's append-only batch-write discipline
// (core/rawdb/database.go), reusing the same KvStore abstraction rather
// than inventing a second storage layer.
package wal

import (
	"encoding/binary"
	"sync"

	"github.com/permachain/core/core/rawdb"
	"github.com/permachain/core/rlp"
)

// RecordKind distinguishes the five WAL record shapes.
type RecordKind uint8

const (
	KindStateTransition RecordKind = iota
	KindProposal
	KindVote
	KindParentHash
	KindProof
)

// Record is one WAL entry: a typed, RLP-encoded consensus event plus the
// height/round it was recorded at, so replay can discard anything at
// or below the height the chain has already advanced past.
type Record struct {
	Seq    uint64
	Height uint64
	Round  int64
	Kind   RecordKind
	Data   []byte
}

func recordKey(seq uint64) []byte {
	b := make([]byte, 9)
	b[0] = 'W'
	binary.BigEndian.PutUint64(b[1:], seq)
	return b
}

// WAL appends Records to db under a dedicated key prefix and supports
// ordered replay and height-based truncation.
type WAL struct {
	mu  sync.Mutex
	db  rawdb.KvStore
	seq uint64
}

func Open(db rawdb.KvStore) *WAL {
	return &WAL{db: db}
}

// Append writes one record before the caller acts on the event externally
//.
func (w *WAL) Append(height uint64, round int64, kind RecordKind, data interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	enc, err := rlp.EncodeToBytes(data)
	if err != nil {
		return err
	}
	w.seq++
	rec := Record{Seq: w.seq, Height: height, Round: round, Kind: kind, Data: enc}
	recBytes, err := rlp.EncodeToBytes(rec)
	if err != nil {
		return err
	}
	return w.db.Put(recordKey(w.seq), recBytes)
}

// Replay returns every record in append order, letting the caller rebuild
// (H, R, S), known votes/proposals, and the last proof.
func (w *WAL) Replay() ([]Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Record
	err := w.db.IteratePrefix([]byte{'W'}, func(_, v []byte) error {
		var rec Record
		if err := rlp.DecodeBytes(v, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		if rec.Seq > w.seq {
			w.seq = rec.Seq
		}
		return nil
	})
	return out, err
}

// Truncate drops every record at or below height once current_height has
// advanced past it.
func (w *WAL) Truncate(height uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var stale [][]byte
	err := w.db.IteratePrefix([]byte{'W'}, func(k, v []byte) error {
		var rec Record
		if err := rlp.DecodeBytes(v, &rec); err != nil {
			return err
		}
		if rec.Height <= height {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	batch := w.db.NewBatch()
	for _, k := range stale {
		batch.Delete(k)
	}
	return w.db.WriteBatch(batch)
}
