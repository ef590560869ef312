package kv

import (
	"bytes"
	"io"
	"sync"

	"github.com/dgraph-io/badger"
	log "github.com/sirupsen/logrus"
)

type badgerKV struct {
	mutex sync.Mutex
	db    *badger.DB
}

type badgerIterator struct {
	tx     *badger.Txn
	it     *badger.Iterator
	maxKey []byte
}

func MakeBadgerKV(dataDir string, logger *log.Logger) (KV, error) {
	err := makeDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dataDir)
	opts = opts.WithLogger(logger)
	opts = opts.WithSyncWrites(false)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	logger.WithField("dir", dataDir).Debug("badger: opened")
	return &badgerKV{
		db: db,
	}, nil
}

func (bkv *badgerKV) Iterate(minKey, maxKey []byte) (Iterator, error) {
	tx := bkv.db.NewTransaction(false)
	it := tx.NewIterator(badger.DefaultIteratorOptions)
	it.Seek(minKey)

	return badgerIterator{
		tx:     tx,
		it:     it,
		maxKey: append(make([]byte, 0, len(maxKey)), maxKey...),
	}, nil
}

func (bit badgerIterator) Item(fn func(key, val []byte) error) error {
	if !bit.it.Valid() {
		return io.EOF
	}

	item := bit.it.Item()
	key := item.Key()
	if bytes.Compare(bit.maxKey, key) < 0 {
		return io.EOF
	}
	err := item.Value(
		func(val []byte) error {
			return fn(key, val)
		})
	if err != nil {
		return err
	}

	bit.it.Next()
	return nil
}

func (bit badgerIterator) Close() {
	bit.it.Close()
	bit.tx.Discard()
}

func (bkv *badgerKV) Get(key []byte, fn func(val []byte) error) error {
	return bkv.db.View(
		func(tx *badger.Txn) error {
			return get(tx, key, fn)
		})
}

func get(tx *badger.Txn, key []byte, fn func(val []byte) error) error {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return io.EOF
	} else if err != nil {
		return err
	}
	return item.Value(fn)
}

func (bkv *badgerKV) Update(key []byte, fn func(val []byte) ([]byte, error)) error {
	bkv.mutex.Lock()
	defer bkv.mutex.Unlock()

	return bkv.db.Update(
		func(tx *badger.Txn) error {
			var newVal []byte
			err := get(tx, key,
				func(val []byte) error {
					val, err := fn(val)
					newVal = append(make([]byte, 0, len(val)), val...)
					return err
				})
			if err == io.EOF {
				newVal, err = fn(nil)
			}
			if err != nil {
				return err
			}

			if len(newVal) == 0 {
				return tx.Delete(key)
			}
			return tx.Set(append(make([]byte, 0, len(key)), key...), newVal)
		})
}

func (bkv *badgerKV) Close() error {
	return bkv.db.Close()
}
