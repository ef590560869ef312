package kv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

var (
	chartdataBucket = []byte("chartdata")
)

type bboltKV struct {
	db *bbolt.DB
}

type bboltIterator struct {
	tx     *bbolt.Tx
	cr     *bbolt.Cursor
	minKey []byte
	maxKey []byte
	next   bool
}

func MakeBBoltKV(dataDir string) (KV, error) {
	err := makeDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dataDir, "chartdata.bbolt")
	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("bbolt: %s", err)
	}

	err = db.Update(
		func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(chartdataBucket)
			return err
		})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt: %s", err)
	}

	log.WithField("path", path).Debug("bbolt: opened")
	return bboltKV{
		db: db,
	}, nil
}

func bucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	bkt := tx.Bucket(chartdataBucket)
	if bkt == nil {
		return nil, errors.New("bbolt: missing chartdata bucket")
	}
	return bkt, nil
}

func (bkv bboltKV) Iterate(minKey, maxKey []byte) (Iterator, error) {
	tx, err := bkv.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("bbolt: begin failed: %s", err)
	}
	bkt, err := bucket(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	return &bboltIterator{
		tx:     tx,
		cr:     bkt.Cursor(),
		minKey: append(make([]byte, 0, len(minKey)), minKey...),
		maxKey: append(make([]byte, 0, len(maxKey)), maxKey...),
	}, nil
}

func (bit *bboltIterator) Item(fn func(key, val []byte) error) error {
	if bit.cr == nil {
		return io.EOF
	}

	var key, val []byte
	if bit.next {
		key, val = bit.cr.Next()
	} else {
		key, val = bit.cr.Seek(bit.minKey)
		bit.next = true
	}

	if key == nil || bytes.Compare(bit.maxKey, key) < 0 {
		return io.EOF
	}
	return fn(key, val)
}

func (bit *bboltIterator) Close() {
	if bit.tx != nil {
		bit.tx.Rollback()
		bit.tx = nil
		bit.cr = nil
	}
}

func (bkv bboltKV) Get(key []byte, fn func(val []byte) error) error {
	return bkv.db.View(
		func(tx *bbolt.Tx) error {
			bkt, err := bucket(tx)
			if err != nil {
				return err
			}
			val := bkt.Get(key)
			if val == nil {
				return io.EOF
			}
			return fn(val)
		})
}

func (bkv bboltKV) Update(key []byte, fn func(val []byte) ([]byte, error)) error {
	return bkv.db.Update(
		func(tx *bbolt.Tx) error {
			bkt, err := bucket(tx)
			if err != nil {
				return err
			}

			val, err := fn(bkt.Get(key))
			if err != nil {
				return err
			}
			if len(val) == 0 {
				return bkt.Delete(key)
			}
			return bkt.Put(key, val)
		})
}

func (bkv bboltKV) Close() error {
	return bkv.db.Close()
}
