package kv_test

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/leftmike/chartdata/kv"
	"github.com/leftmike/chartdata/testutil"
)

const (
	iterateCmd = iota
	getCmd
	setCmd
	deleteCmd
	failUpdateCmd
)

type keyVal struct {
	key string
	val string
}

type kvCmd struct {
	fln     testutil.FileLineNumber
	cmd     int
	fail    bool
	key     string
	maxKey  string
	val     string
	keyVals []keyVal
}

func fln() testutil.FileLineNumber {
	return testutil.MakeFileLineNumber()
}

var errUpdate = errors.New("update failed")

func runKVTest(t *testing.T, st kv.KV, cmds []kvCmd) {
	t.Helper()

	for _, cmd := range cmds {
		switch cmd.cmd {
		case iterateCmd:
			keyVals := cmd.keyVals
			it, err := st.Iterate([]byte(cmd.key), []byte(cmd.maxKey))
			if err != nil {
				t.Errorf("%sIterate() failed with %s", cmd.fln, err)
				break
			}

			for {
				err = it.Item(
					func(key, val []byte) error {
						if len(keyVals) == 0 {
							return errors.New("too many key vals")
						}
						if string(key) != keyVals[0].key {
							return fmt.Errorf("key: got %s want %s", string(key), keyVals[0].key)
						}
						if string(val) != keyVals[0].val {
							return fmt.Errorf("val: got %s want %s", string(val), keyVals[0].val)
						}
						keyVals = keyVals[1:]
						return nil
					})
				if err != nil {
					break
				}
			}
			it.Close()
			if err != io.EOF {
				t.Errorf("%sIterate() failed with %s", cmd.fln, err)
			} else if len(keyVals) > 0 {
				t.Errorf("%sIterate() missing %v", cmd.fln, keyVals)
			}
		case getCmd:
			var val string
			err := st.Get([]byte(cmd.key),
				func(v []byte) error {
					val = string(v)
					return nil
				})
			if cmd.fail {
				if err != io.EOF {
					t.Errorf("%sGet(%s) got %v want io.EOF", cmd.fln, cmd.key, err)
				}
			} else if err != nil {
				t.Errorf("%sGet(%s) failed with %s", cmd.fln, cmd.key, err)
			} else if val != cmd.val {
				t.Errorf("%sGet(%s) got %s want %s", cmd.fln, cmd.key, val, cmd.val)
			}
		case setCmd, deleteCmd:
			err := st.Update([]byte(cmd.key),
				func(v []byte) ([]byte, error) {
					if cmd.cmd == deleteCmd {
						return nil, nil
					}
					return []byte(cmd.val), nil
				})
			if err != nil {
				t.Errorf("%sUpdate(%s) failed with %s", cmd.fln, cmd.key, err)
			}
		case failUpdateCmd:
			err := st.Update([]byte(cmd.key),
				func(v []byte) ([]byte, error) {
					return []byte("never stored"), errUpdate
				})
			if err != errUpdate {
				t.Errorf("%sUpdate(%s) got %v want %s", cmd.fln, cmd.key, err, errUpdate)
			}
		default:
			panic(fmt.Sprintf("unexpected command: %d", cmd.cmd))
		}
	}
}

func testKV(t *testing.T, st kv.KV) {
	t.Helper()

	runKVTest(t, st,
		[]kvCmd{
			{fln: fln(), cmd: iterateCmd, key: "", maxKey: "\xFF"},
			{fln: fln(), cmd: getCmd, key: "Firefox", fail: true},
			{fln: fln(), cmd: setCmd, key: "Firefox", val: "2567"},
			{fln: fln(), cmd: setCmd, key: "Opera", val: "543"},
			{fln: fln(), cmd: setCmd, key: "Safari", val: "23"},
			{fln: fln(), cmd: setCmd, key: "Lynx", val: "431"},
			{fln: fln(), cmd: getCmd, key: "Firefox", val: "2567"},
			{fln: fln(), cmd: iterateCmd, key: "", maxKey: "\xFF",
				keyVals: []keyVal{
					{"Firefox", "2567"},
					{"Lynx", "431"},
					{"Opera", "543"},
					{"Safari", "23"},
				}},
			{fln: fln(), cmd: iterateCmd, key: "G", maxKey: "Opera",
				keyVals: []keyVal{
					{"Lynx", "431"},
					{"Opera", "543"},
				}},
			{fln: fln(), cmd: iterateCmd, key: "Lynx", maxKey: "Lynx",
				keyVals: []keyVal{
					{"Lynx", "431"},
				}},
			{fln: fln(), cmd: iterateCmd, key: "X", maxKey: "\xFF"},
			{fln: fln(), cmd: setCmd, key: "Opera", val: "544"},
			{fln: fln(), cmd: deleteCmd, key: "Lynx"},
			{fln: fln(), cmd: getCmd, key: "Lynx", fail: true},
			{fln: fln(), cmd: failUpdateCmd, key: "Safari"},
			{fln: fln(), cmd: failUpdateCmd, key: "wget"},
			{fln: fln(), cmd: getCmd, key: "wget", fail: true},
			{fln: fln(), cmd: iterateCmd, key: "", maxKey: "\xFF",
				keyVals: []keyVal{
					{"Firefox", "2567"},
					{"Opera", "544"},
					{"Safari", "23"},
				}},
		})
}

func cleanDataDir(t *testing.T, name string) string {
	t.Helper()

	dataDir := filepath.Join("testdata", name)
	err := testutil.CleanDir(dataDir, []string{".gitignore"})
	if err != nil {
		t.Fatal(err)
	}
	return dataDir
}

func TestBTreeKV(t *testing.T) {
	st, err := kv.MakeBTreeKV()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	testKV(t, st)
}

func TestBBoltKV(t *testing.T) {
	st, err := kv.MakeBBoltKV(cleanDataDir(t, "bbolt_kv"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	testKV(t, st)
}

func TestBadgerKV(t *testing.T) {
	st, err := kv.MakeBadgerKV(cleanDataDir(t, "badger_kv"),
		testutil.SetupLogger(filepath.Join("testdata", "badger_kv.log")))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	testKV(t, st)
}

func TestPebbleKV(t *testing.T) {
	st, err := kv.MakePebbleKV(cleanDataDir(t, "pebble_kv"),
		testutil.SetupLogger(filepath.Join("testdata", "pebble_kv.log")))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	testKV(t, st)
}

func TestOpen(t *testing.T) {
	_, err := kv.Open("leveldb", "testdata")
	if err == nil {
		t.Errorf("Open(leveldb) did not fail")
	}

	st, err := kv.Open("btree", "")
	if err != nil {
		t.Fatalf("Open(btree) failed with %s", err)
	}
	st.Close()
}
