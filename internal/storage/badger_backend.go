package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// prefixScene keys a record: s:<identifier> -> JSON SceneRecord.
const prefixScene = "s:"

// BadgerBackend is a BadgerDB-backed SceneStore.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	mu          sync.RWMutex
	recordCount int
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR)

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.recordCount = b.countRecords()
	return nil
}

// countRecords scans keys only. Caller holds b.mu.
func (b *BadgerBackend) countRecords() int {
	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixScene)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// PutRecords writes records in a single batch.
func (b *BadgerBackend) PutRecords(ctx context.Context, records []SceneRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return errors.New("storage not initialized")
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Validate(); err != nil {
			return err
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling record %s: %w", r.Identifier, err)
		}
		if err := wb.Set(sceneKey(r.Identifier), data); err != nil {
			return fmt.Errorf("setting record %s: %w", r.Identifier, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing records: %w", err)
	}

	b.recordCount = b.countRecords()
	return nil
}

// GetRecord returns a single record by identifier.
func (b *BadgerBackend) GetRecord(ctx context.Context, identifier string) (SceneRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return SceneRecord{}, errors.New("storage not initialized")
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(sceneKey(identifier))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SceneRecord{}, ErrSceneNotFound
	}
	if err != nil {
		return SceneRecord{}, fmt.Errorf("getting record: %w", err)
	}

	var r SceneRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	}); err != nil {
		return SceneRecord{}, fmt.Errorf("unmarshaling record %s: %w", identifier, err)
	}
	return r, nil
}

// ListIdentifiers returns every identifier. Badger iterates keys in byte
// order, so the result is sorted.
func (b *BadgerBackend) ListIdentifiers(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, errors.New("storage not initialized")
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixScene)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	ids := make([]string, 0, b.recordCount)
	for it.Rewind(); it.Valid(); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefixScene):]))
	}
	return ids, nil
}

// ListRecords returns every record ordered by identifier.
func (b *BadgerBackend) ListRecords(ctx context.Context) ([]SceneRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, errors.New("storage not initialized")
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixScene)
	it := txn.NewIterator(opts)
	defer it.Close()

	records := make([]SceneRecord, 0, b.recordCount)
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r SceneRecord
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		}); err != nil {
			return nil, fmt.Errorf("unmarshaling record: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// DeleteRecord removes a record by identifier.
func (b *BadgerBackend) DeleteRecord(ctx context.Context, identifier string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return false, errors.New("storage not initialized")
	}

	txn := b.db.NewTransaction(true)
	defer txn.Discard()

	key := sceneKey(identifier)
	if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("getting record: %w", err)
	}

	if err := txn.Delete(key); err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}

	b.recordCount--
	return true, nil
}

// RecordCount returns the number of stored records.
func (b *BadgerBackend) RecordCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.recordCount
}

func sceneKey(identifier string) []byte {
	return []byte(prefixScene + identifier)
}
