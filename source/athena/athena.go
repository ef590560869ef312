// Package athena reads the rows of Amazon Athena queries.
package athena

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/chartdata/sql"
)

// Client is the subset of *athena.Client used to run queries.
type Client interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput,
		optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput,
		optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput,
		optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type Options struct {
	Database       string
	Workgroup      string
	OutputLocation string
	MaxWait        time.Duration
	PollInterval   time.Duration
	// MaxRows limits the number of rows returned; zero means no limit.
	MaxRows  int
	PageSize int32
}

const (
	DefaultMaxWait      = 25 * time.Second
	DefaultPollInterval = 700 * time.Millisecond
	DefaultPageSize     = 1000
)

// QueryError is returned when a query does not succeed: State is FAILED, CANCELLED, or TIMEOUT.
type QueryError struct {
	State            string
	Reason           string
	QueryExecutionID string
}

func (qe *QueryError) Error() string {
	if qe.QueryExecutionID != "" {
		return fmt.Sprintf("athena: %s: %s (query %s)", qe.State, qe.Reason, qe.QueryExecutionID)
	}
	return fmt.Sprintf("athena: %s: %s", qe.State, qe.Reason)
}

var (
	errNotExecuted = errors.New("athena: statement has not been executed")
)

type Statement struct {
	client Client
	query  string
	opts   Options

	qid       string
	executed  bool
	cols      []string
	types     []string
	rows      []types.Row
	nextToken *string
	lastPage  bool
	count     int
}

func Prepare(client Client, query string, opts Options) *Statement {
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	return &Statement{
		client: client,
		query:  query,
		opts:   opts,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

// Execute starts the query and waits for it to succeed, then reads the first page of results
// to get the columns.
func (stmt *Statement) Execute(ctx context.Context) error {
	if stmt.executed {
		return errors.New("athena: statement already executed")
	}

	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(stmt.query),
		WorkGroup:   optionalString(stmt.opts.Workgroup),
	}
	if stmt.opts.Database != "" {
		input.QueryExecutionContext = &types.QueryExecutionContext{
			Database: aws.String(stmt.opts.Database),
		}
	}
	if stmt.opts.OutputLocation != "" {
		input.ResultConfiguration = &types.ResultConfiguration{
			OutputLocation: aws.String(stmt.opts.OutputLocation),
		}
	}

	out, err := stmt.client.StartQueryExecution(ctx, input)
	if err != nil {
		return fmt.Errorf("athena: start query: %w", err)
	}
	stmt.qid = aws.ToString(out.QueryExecutionId)
	log.WithField("query_execution_id", stmt.qid).Debug("athena: started query")

	err = stmt.wait(ctx)
	if err != nil {
		return err
	}

	err = stmt.fetch(ctx, true)
	if err != nil {
		return err
	}
	stmt.executed = true
	return nil
}

func (stmt *Statement) wait(ctx context.Context) error {
	deadline := time.Now().Add(stmt.opts.MaxWait)
	for {
		out, err := stmt.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(stmt.qid),
		})
		if err != nil {
			return fmt.Errorf("athena: get query execution: %w", err)
		}

		var state types.QueryExecutionState
		var reason string
		if out.QueryExecution != nil && out.QueryExecution.Status != nil {
			state = out.QueryExecution.Status.State
			reason = aws.ToString(out.QueryExecution.Status.StateChangeReason)
		}

		switch state {
		case types.QueryExecutionStateSucceeded:
			log.WithField("query_execution_id", stmt.qid).Debug("athena: query succeeded")
			return nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			return &QueryError{
				State:            string(state),
				Reason:           reason,
				QueryExecutionID: stmt.qid,
			}
		}

		if !time.Now().Add(stmt.opts.PollInterval).Before(deadline) {
			return &QueryError{
				State:            "TIMEOUT",
				Reason:           fmt.Sprintf("query did not finish within %s", stmt.opts.MaxWait),
				QueryExecutionID: stmt.qid,
			}
		}

		log.WithFields(log.Fields{
			"query_execution_id": stmt.qid,
			"state":              state,
		}).Debug("athena: waiting for query")

		timer := time.NewTimer(stmt.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (stmt *Statement) fetch(ctx context.Context, first bool) error {
	out, err := stmt.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(stmt.qid),
		NextToken:        stmt.nextToken,
		MaxResults:       aws.Int32(stmt.opts.PageSize),
	})
	if err != nil {
		return fmt.Errorf("athena: get query results: %w", err)
	}

	var rows []types.Row
	if out.ResultSet != nil {
		rows = out.ResultSet.Rows
		if first {
			if out.ResultSet.ResultSetMetadata != nil {
				for _, ci := range out.ResultSet.ResultSetMetadata.ColumnInfo {
					stmt.cols = append(stmt.cols, aws.ToString(ci.Name))
					stmt.types = append(stmt.types, aws.ToString(ci.Type))
				}
			}
			// The first row of the first page holds the column names.
			if len(rows) > 0 {
				rows = rows[1:]
			}
		}
	}

	stmt.rows = rows
	stmt.nextToken = out.NextToken
	stmt.lastPage = aws.ToString(out.NextToken) == ""
	return nil
}

func (stmt *Statement) Executed() bool {
	return stmt.executed
}

func (stmt *Statement) Columns() []string {
	return stmt.cols
}

// QueryExecutionID returns the id of the query once it has been started.
func (stmt *Statement) QueryExecutionID() string {
	return stmt.qid
}

func (stmt *Statement) Next(ctx context.Context, dest []sql.Value) error {
	if !stmt.executed {
		return errNotExecuted
	}
	if stmt.opts.MaxRows > 0 && stmt.count >= stmt.opts.MaxRows {
		return io.EOF
	}

	for len(stmt.rows) == 0 {
		if stmt.lastPage {
			return io.EOF
		}
		err := stmt.fetch(ctx, false)
		if err != nil {
			return err
		}
	}

	row := stmt.rows[0]
	stmt.rows = stmt.rows[1:]
	if len(row.Data) > len(dest) {
		return fmt.Errorf("athena: got %d values want %d", len(row.Data), len(dest))
	}

	for cdx := range dest {
		dest[cdx] = nil
		if cdx >= len(row.Data) || row.Data[cdx].VarCharValue == nil {
			continue
		}

		var typ string
		if cdx < len(stmt.types) {
			typ = stmt.types[cdx]
		}
		val, err := sql.ParseTyped(typ, *row.Data[cdx].VarCharValue)
		if err != nil {
			return fmt.Errorf("athena: column %s: %w", stmt.cols[cdx], err)
		}
		dest[cdx] = val
	}

	stmt.count += 1
	return nil
}

func (stmt *Statement) Close() error {
	stmt.rows = nil
	stmt.lastPage = true
	return nil
}
