package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/chartdata/encode"
	"github.com/leftmike/chartdata/sql"
)

// Each table is stored as a schema at sequence number zero followed by one key per row:
// name 0x00 seq, with seq as a big endian uint64. The schema is a row: the next sequence number
// followed by the column names.

var (
	errTableExists   = errors.New("table already exists")
	errTableNotFound = errors.New("table not found")

	errConcurrentAppend = errors.New("table appended to concurrently")
)

func tableKey(name string, seq uint64) []byte {
	buf := append(make([]byte, 0, len(name)+9), name...)
	buf = append(buf, 0)
	return encode.EncodeUint64(buf, seq)
}

func checkName(name string) error {
	if name == "" || bytes.IndexByte([]byte(name), 0) >= 0 {
		return fmt.Errorf("kv: invalid table name: %q", name)
	}
	return nil
}

type schema struct {
	nextSeq uint64
	cols    []string
}

func decodeSchema(name string, val []byte) (schema, error) {
	row, ok := encode.DecodeRowValue(val)
	if !ok || len(row) < 1 {
		return schema{}, fmt.Errorf("kv: table %s: corrupt schema", name)
	}
	seq, ok := row[0].(sql.Int64Value)
	if !ok || seq < 1 {
		return schema{}, fmt.Errorf("kv: table %s: corrupt schema", name)
	}

	sch := schema{nextSeq: uint64(seq)}
	for _, v := range row[1:] {
		s, ok := v.(sql.StringValue)
		if !ok {
			return schema{}, fmt.Errorf("kv: table %s: corrupt schema", name)
		}
		sch.cols = append(sch.cols, string(s))
	}
	return sch, nil
}

func (sch schema) encode() []byte {
	row := make([]sql.Value, 0, len(sch.cols)+1)
	row = append(row, sql.Int64Value(sch.nextSeq))
	for _, col := range sch.cols {
		row = append(row, sql.StringValue(col))
	}
	return encode.EncodeRowValue(row)
}

func CreateTable(kv KV, name string, cols []string) error {
	err := checkName(name)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("kv: table %s: no columns", name)
	}

	err = kv.Update(tableKey(name, 0),
		func(val []byte) ([]byte, error) {
			if val != nil {
				return nil, errTableExists
			}
			return schema{nextSeq: 1, cols: cols}.encode(), nil
		})
	if err != nil {
		return fmt.Errorf("kv: table %s: %w", name, err)
	}

	log.WithFields(log.Fields{"table": name, "columns": len(cols)}).Debug("kv: created table")
	return nil
}

func readSchema(kv KV, name string) (schema, error) {
	err := checkName(name)
	if err != nil {
		return schema{}, err
	}

	var sch schema
	err = kv.Get(tableKey(name, 0),
		func(val []byte) error {
			var err error
			sch, err = decodeSchema(name, val)
			return err
		})
	if err == io.EOF {
		return schema{}, fmt.Errorf("kv: table %s: %w", name, errTableNotFound)
	} else if err != nil {
		return schema{}, err
	}
	return sch, nil
}

func TableColumns(kv KV, name string) ([]string, error) {
	sch, err := readSchema(kv, name)
	if err != nil {
		return nil, err
	}
	return sch.cols, nil
}

// Append adds rows to the end of a table; each row must have a value for every column. The rows
// are written before the schema's next sequence number is advanced, so rows from an append which
// fails are never read.
func Append(kv KV, name string, rows [][]sql.Value) error {
	sch, err := readSchema(kv, name)
	if err != nil {
		return err
	}
	for rdx, row := range rows {
		if len(row) != len(sch.cols) {
			return fmt.Errorf("kv: table %s: row %d: got %d values want %d", name, rdx, len(row),
				len(sch.cols))
		}
	}

	seq := sch.nextSeq
	for rdx, row := range rows {
		buf := encode.EncodeRowValue(row)
		err = kv.Update(tableKey(name, seq+uint64(rdx)),
			func(val []byte) ([]byte, error) {
				return buf, nil
			})
		if err != nil {
			deleteRows(kv, name, seq, rdx)
			return fmt.Errorf("kv: table %s: %w", name, err)
		}
	}

	err = kv.Update(tableKey(name, 0),
		func(val []byte) ([]byte, error) {
			if val == nil {
				return nil, errTableNotFound
			}
			sch, err := decodeSchema(name, val)
			if err != nil {
				return nil, err
			}
			if sch.nextSeq != seq {
				return nil, errConcurrentAppend
			}
			sch.nextSeq += uint64(len(rows))
			return sch.encode(), nil
		})
	if err != nil {
		if !errors.Is(err, errConcurrentAppend) {
			deleteRows(kv, name, seq, len(rows))
		}
		return fmt.Errorf("kv: table %s: %w", name, err)
	}
	return nil
}

// deleteRows removes the cnt rows starting at seq; rows past the schema's next sequence number
// are not visible, so failures are only logged.
func deleteRows(kv KV, name string, seq uint64, cnt int) {
	for rdx := 0; rdx < cnt; rdx += 1 {
		err := kv.Update(tableKey(name, seq+uint64(rdx)),
			func(val []byte) ([]byte, error) {
				return nil, nil
			})
		if err != nil {
			log.WithFields(log.Fields{"table": name, "seq": seq + uint64(rdx)}).Warn(err)
		}
	}
}

func DropTable(kv KV, name string) error {
	err := checkName(name)
	if err != nil {
		return err
	}

	it, err := kv.Iterate(tableKey(name, 0), tableKey(name, math.MaxUint64))
	if err != nil {
		return err
	}
	var keys [][]byte
	for {
		err = it.Item(
			func(key, val []byte) error {
				keys = append(keys, append(make([]byte, 0, len(key)), key...))
				return nil
			})
		if err != nil {
			break
		}
	}
	it.Close()
	if err != io.EOF {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("kv: table %s: %w", name, errTableNotFound)
	}

	for _, key := range keys {
		err = kv.Update(key,
			func(val []byte) ([]byte, error) {
				return nil, nil
			})
		if err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{"table": name, "rows": len(keys) - 1}).Debug("kv: dropped table")
	return nil
}

// Statement reads the rows of a table in the order that they were appended.
type Statement struct {
	kv      KV
	name    string
	cols    []string
	nextSeq uint64
	it      Iterator
}

// Query returns a statement for all of the rows of a table; it must be executed before the
// rows can be read.
func Query(kv KV, name string) *Statement {
	return &Statement{
		kv:   kv,
		name: name,
	}
}

func (stmt *Statement) Execute(ctx context.Context) error {
	if stmt.it != nil {
		return fmt.Errorf("kv: table %s: statement already executed", stmt.name)
	}

	sch, err := readSchema(stmt.kv, stmt.name)
	if err != nil {
		return err
	}
	it, err := stmt.kv.Iterate(tableKey(stmt.name, 1), tableKey(stmt.name, math.MaxUint64))
	if err != nil {
		return err
	}

	stmt.cols = sch.cols
	stmt.nextSeq = sch.nextSeq
	stmt.it = it
	return nil
}

func (stmt *Statement) Executed() bool {
	return stmt.it != nil
}

func (stmt *Statement) Columns() []string {
	return stmt.cols
}

func (stmt *Statement) Next(ctx context.Context, dest []sql.Value) error {
	if stmt.it == nil {
		return fmt.Errorf("kv: table %s: statement has not been executed", stmt.name)
	}

	return stmt.it.Item(
		func(key, val []byte) error {
			if len(key) < 8 {
				return fmt.Errorf("kv: table %s: corrupt key: %v", stmt.name, key)
			}
			_, seq, _ := encode.DecodeUint64(key[len(key)-8:])
			if seq >= stmt.nextSeq {
				return io.EOF
			}

			row, ok := encode.DecodeRowValue(val)
			if !ok {
				return fmt.Errorf("kv: table %s: corrupt row: %v", stmt.name, key)
			}
			if len(row) != len(dest) {
				return fmt.Errorf("kv: table %s: got %d values want %d", stmt.name, len(row),
					len(dest))
			}
			copy(dest, row)
			return nil
		})
}

func (stmt *Statement) Close() error {
	if stmt.it != nil {
		stmt.it.Close()
	}
	return nil
}
