package kv

import (
	"bytes"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	log "github.com/sirupsen/logrus"
)

type pebbleKV struct {
	mutex sync.Mutex
	db    *pebble.DB
}

type pebbleIterator struct {
	snap   *pebble.Snapshot
	it     *pebble.Iterator
	maxKey []byte
}

func MakePebbleKV(dataDir string, logger *log.Logger) (KV, error) {
	err := makeDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	db, err := pebble.Open(dataDir, &pebble.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	logger.WithField("dir", dataDir).Debug("pebble: opened")
	return &pebbleKV{
		db: db,
	}, nil
}

func (pkv *pebbleKV) Iterate(minKey, maxKey []byte) (Iterator, error) {
	snap := pkv.db.NewSnapshot()
	it := snap.NewIter(nil)
	it.SeekGE(minKey)

	return pebbleIterator{
		snap:   snap,
		it:     it,
		maxKey: append(make([]byte, 0, len(maxKey)), maxKey...),
	}, nil
}

func (pit pebbleIterator) Item(fn func(key, val []byte) error) error {
	if !pit.it.Valid() || bytes.Compare(pit.maxKey, pit.it.Key()) < 0 {
		return io.EOF
	}

	err := fn(pit.it.Key(), pit.it.Value())
	if err != nil {
		return err
	}

	pit.it.Next()
	return nil
}

func (pit pebbleIterator) Close() {
	pit.it.Close()
	pit.snap.Close()
}

func (pkv *pebbleKV) Get(key []byte, fn func(val []byte) error) error {
	val, closer, err := pkv.db.Get(key)
	if err == pebble.ErrNotFound {
		return io.EOF
	} else if err != nil {
		return err
	}
	defer closer.Close()

	return fn(val)
}

func (pkv *pebbleKV) Update(key []byte, fn func(val []byte) ([]byte, error)) error {
	pkv.mutex.Lock()
	defer pkv.mutex.Unlock()

	var newVal []byte
	err := pkv.Get(key,
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
		return pkv.db.Delete(key, pebble.Sync)
	}
	return pkv.db.Set(key, newVal, pebble.Sync)
}

func (pkv *pebbleKV) Close() error {
	return pkv.db.Close()
}
