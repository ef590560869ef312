// Package dbsql reads the rows of queries run against a database/sql database.
package dbsql

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/sql"
)

var (
	errNotExecuted = errors.New("dbsql: statement has not been executed")
)

// Open a database; postgres is always available as a driver.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbsql: open %s: %w", driver, err)
	}
	return db, nil
}

type Statement struct {
	db    *sqlx.DB
	query string
	args  []interface{}
	rows  *sqlx.Rows
	cols  []string
}

// Prepare returns a statement which will run query when it is executed.
func Prepare(db *sqlx.DB, query string, args ...interface{}) *Statement {
	return &Statement{
		db:    db,
		query: query,
		args:  args,
	}
}

func (stmt *Statement) Execute(ctx context.Context) error {
	if stmt.rows != nil {
		return errors.New("dbsql: statement already executed")
	}

	rows, err := stmt.db.QueryxContext(ctx, stmt.query, stmt.args...)
	if err != nil {
		return fmt.Errorf("dbsql: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return fmt.Errorf("dbsql: %w", err)
	}

	log.WithFields(log.Fields{
		"query":   stmt.query,
		"columns": len(cols),
	}).Debug("dbsql: executed")

	stmt.rows = rows
	stmt.cols = cols
	return nil
}

func (stmt *Statement) Executed() bool {
	return stmt.rows != nil
}

func (stmt *Statement) Columns() []string {
	return stmt.cols
}

func (stmt *Statement) Next(ctx context.Context, dest []sql.Value) error {
	if stmt.rows == nil {
		return errNotExecuted
	}

	if !stmt.rows.Next() {
		err := stmt.rows.Err()
		if err != nil {
			return fmt.Errorf("dbsql: %w", err)
		}
		return io.EOF
	}

	vals, err := stmt.rows.SliceScan()
	if err != nil {
		return fmt.Errorf("dbsql: %w", err)
	}
	if len(vals) != len(dest) {
		return fmt.Errorf("dbsql: got %d values want %d", len(vals), len(dest))
	}
	for vdx, val := range vals {
		dest[vdx], err = sql.FromNative(val)
		if err != nil {
			return fmt.Errorf("dbsql: column %s: %w", stmt.cols[vdx], err)
		}
	}
	return nil
}

func (stmt *Statement) Close() error {
	if stmt.rows == nil {
		return nil
	}
	return stmt.rows.Close()
}

// Run executes query and returns its rows as a dataset.
func Run(ctx context.Context, db *sqlx.DB, query string, m *dataset.Mapping,
	args ...interface{}) (*dataset.Dataset, error) {

	stmt := Prepare(db, query, args...)
	defer stmt.Close()

	err := stmt.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.New(ctx, stmt, m)
}
