// Package parquet reads the rows of local parquet files with a flat schema.
package parquet

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/leftmike/chartdata/sql"
)

// Cursor holds every column of a parquet file in memory; it is ready to be read as soon as it
// is opened.
type Cursor struct {
	cols    []string
	values  [][]interface{}
	numRows int
	index   int
}

func Open(path string) (*Cursor, error) {
	pf, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("parquet: %s: %w", path, err)
	}
	defer pf.Close()

	pr, err := reader.NewParquetColumnReader(pf, 1)
	if err != nil {
		return nil, fmt.Errorf("parquet: %s: %w", path, err)
	}
	defer pr.ReadStop()

	var cols []string
	for _, se := range pr.SchemaHandler.SchemaElements[1:] {
		if se.GetNumChildren() > 0 {
			return nil, fmt.Errorf("parquet: %s: column %s: nested columns are not supported",
				path, se.GetName())
		}
		if se.GetRepetitionType() == parquet.FieldRepetitionType_REPEATED {
			return nil, fmt.Errorf("parquet: %s: column %s: repeated columns are not supported",
				path, se.GetName())
		}
		cols = append(cols, se.GetName())
	}
	if len(cols) != len(pr.SchemaHandler.ValueColumns) {
		return nil, fmt.Errorf("parquet: %s: got %d leaf columns want %d", path,
			len(pr.SchemaHandler.ValueColumns), len(cols))
	}

	numRows := pr.GetNumRows()
	cur := &Cursor{
		cols:    cols,
		numRows: int(numRows),
	}
	for cdx, inPath := range pr.SchemaHandler.ValueColumns {
		vals, _, _, err := pr.ReadColumnByPath(inPath, numRows)
		if err != nil {
			return nil, fmt.Errorf("parquet: %s: column %s: %w", path, cols[cdx], err)
		}
		if len(vals) != cur.numRows {
			return nil, fmt.Errorf("parquet: %s: column %s: got %d values want %d", path,
				cols[cdx], len(vals), cur.numRows)
		}
		cur.values = append(cur.values, vals)
	}

	log.WithFields(log.Fields{
		"path":    path,
		"columns": len(cols),
		"rows":    numRows,
	}).Debug("parquet: opened file")
	return cur, nil
}

func (_ *Cursor) Executed() bool {
	return true
}

func (cur *Cursor) Columns() []string {
	return cur.cols
}

func (cur *Cursor) Next(ctx context.Context, dest []sql.Value) error {
	if cur.index == cur.numRows {
		return io.EOF
	}
	if len(dest) != len(cur.values) {
		return fmt.Errorf("parquet: got %d values want %d", len(cur.values), len(dest))
	}

	for cdx := range dest {
		val, err := sql.FromNative(cur.values[cdx][cur.index])
		if err != nil {
			return fmt.Errorf("parquet: column %s: %w", cur.cols[cdx], err)
		}
		dest[cdx] = val
	}
	cur.index += 1
	return nil
}
