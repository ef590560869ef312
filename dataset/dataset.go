// Package dataset turns the rows of an executed query into an ordered list of key and value
// pairs, suitable for charting.
package dataset

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/leftmike/chartdata/sql"
)

// Cursor is a forward only handle on the rows of a statement. Next fills dest, which has one
// element per column, and returns io.EOF once there are no more rows.
type Cursor interface {
	Executed() bool
	Columns() []string
	Next(ctx context.Context, dest []sql.Value) error
}

type Row struct {
	Key   sql.Value
	Value sql.Value
}

func (r Row) String() string {
	return fmt.Sprintf("%s: %s", sql.Format(r.Key), sql.Format(r.Value))
}

// Dataset is an immutable snapshot of all of the rows read from a cursor.
type Dataset struct {
	keyCol   string
	valueCol string
	rows     []Row
}

// New reads every remaining row from cur exactly once. With a nil mapping, a single column is
// used as the value with the row index as the key, and two columns are used as key and value.
// The cursor is not closed.
func New(ctx context.Context, cur Cursor, m *Mapping) (*Dataset, error) {
	if !cur.Executed() {
		return nil, &Error{Kind: StatementNotExecuted}
	}

	cols := cur.Columns()
	kdx, vdx, err := m.resolve(cols)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		valueCol: cols[vdx],
	}
	if kdx >= 0 {
		ds.keyCol = cols[kdx]
	}

	dest := make([]sql.Value, len(cols))
	for {
		err = cur.Next(ctx, dest)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("dataset: reading row %d: %w", len(ds.rows), err)
		}

		var key sql.Value
		if kdx < 0 {
			key = sql.Int64Value(len(ds.rows))
		} else {
			key = dest[kdx]
		}
		ds.rows = append(ds.rows, Row{Key: key, Value: dest[vdx]})

		for idx := range dest {
			dest[idx] = nil
		}
	}

	log.WithFields(log.Fields{
		"columns": len(cols),
		"mapping": m.String(),
		"rows":    len(ds.rows),
	}).Debug("dataset: materialized")
	return ds, nil
}

func (ds *Dataset) Len() int {
	return len(ds.rows)
}

func (ds *Dataset) Row(idx int) Row {
	return ds.rows[idx]
}

func (ds *Dataset) Rows() []Row {
	return append(make([]Row, 0, len(ds.rows)), ds.rows...)
}

// Columns returns the names of the key and value columns; key is empty when the keys are row
// indexes.
func (ds *Dataset) Columns() (string, string) {
	return ds.keyCol, ds.valueCol
}

func (ds *Dataset) Each(fn func(idx int, r Row) error) error {
	for idx, r := range ds.rows {
		err := fn(idx, r)
		if err != nil {
			return err
		}
	}
	return nil
}

// Cursor returns a new cursor, with columns key and value, positioned at the first row.
func (ds *Dataset) Cursor() *Iterator {
	return &Iterator{ds: ds}
}

type Iterator struct {
	ds    *Dataset
	index int
}

func (_ *Iterator) Executed() bool {
	return true
}

func (_ *Iterator) Columns() []string {
	return []string{"key", "value"}
}

func (it *Iterator) Next(ctx context.Context, dest []sql.Value) error {
	if it.index == len(it.ds.rows) {
		return io.EOF
	}
	r := it.ds.rows[it.index]
	dest[0] = r.Key
	dest[1] = r.Value
	it.index += 1
	return nil
}
