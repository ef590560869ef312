// Package kv stores tables of rows in an ordered key-value store and reads them back as cursors.
package kv

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Iterator returns the items of a key range in order. Item calls fn with the next key and value
// or returns io.EOF when the range is exhausted; key and val are only valid during the call.
type Iterator interface {
	Item(fn func(key, val []byte) error) error
	Close()
}

type KV interface {
	// Iterate over the keys from minKey to maxKey inclusive.
	Iterate(minKey, maxKey []byte) (Iterator, error)

	// Get calls fn with the value of key, or returns io.EOF if key is not found.
	Get(key []byte, fn func(val []byte) error) error

	// Update calls fn with the current value of key, or nil, and stores the returned value; if
	// the returned value is empty, key is deleted.
	Update(key []byte, fn func(val []byte) ([]byte, error)) error

	Close() error
}

var Stores = []string{"btree", "bbolt", "badger", "pebble"}

// Open the named store; btree is kept in memory and dataDir is ignored.
func Open(store, dataDir string) (KV, error) {
	switch store {
	case "btree":
		return MakeBTreeKV()
	case "bbolt":
		return MakeBBoltKV(dataDir)
	case "badger":
		return MakeBadgerKV(dataDir, log.StandardLogger())
	case "pebble":
		return MakePebbleKV(dataDir, log.StandardLogger())
	}
	return nil, fmt.Errorf("kv: got %s for store; want btree, bbolt, badger, or pebble", store)
}

func makeDataDir(dataDir string) error {
	err := os.MkdirAll(dataDir, 0755)
	if err != nil {
		return fmt.Errorf("kv: %s", err)
	}
	return nil
}
