// Package values provides a cursor over rows held in memory.
package values

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/leftmike/chartdata/sql"
)

var (
	errNotExecuted = errors.New("values: statement has not been executed")
)

type Cursor struct {
	Cols     []string
	Rows     [][]sql.Value
	executed bool
	index    int
}

// New returns a cursor which is ready to be read.
func New(cols []string, rows [][]sql.Value) *Cursor {
	return &Cursor{
		Cols:     cols,
		Rows:     rows,
		executed: true,
	}
}

// Prepare returns a cursor which must be executed before it can be read.
func Prepare(cols []string, rows [][]sql.Value) *Cursor {
	return &Cursor{
		Cols: cols,
		Rows: rows,
	}
}

func (c *Cursor) Execute(ctx context.Context) error {
	c.executed = true
	c.index = 0
	return nil
}

func (c *Cursor) Executed() bool {
	return c.executed
}

func (c *Cursor) Columns() []string {
	return c.Cols
}

func (c *Cursor) Close() error {
	c.index = len(c.Rows)
	return nil
}

func (c *Cursor) Next(ctx context.Context, dest []sql.Value) error {
	if !c.executed {
		return errNotExecuted
	}
	if c.index == len(c.Rows) {
		return io.EOF
	}
	row := c.Rows[c.index]
	if len(row) != len(dest) {
		return fmt.Errorf("values: row %d: got %d values want %d", c.index, len(row), len(dest))
	}
	copy(dest, row)
	c.index += 1
	return nil
}
