package athena_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/leftmike/chartdata/dataset"
	"github.com/leftmike/chartdata/source/athena"
	"github.com/leftmike/chartdata/sql"
)

type fakeClient struct {
	states  []types.QueryExecutionState
	reason  string
	pages   [][]types.Row
	cols    []types.ColumnInfo
	input   *awsathena.StartQueryExecutionInput
	polls   int
	fetches int
}

func (fc *fakeClient) StartQueryExecution(ctx context.Context,
	params *awsathena.StartQueryExecutionInput,
	optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error) {

	fc.input = params
	return &awsathena.StartQueryExecutionOutput{
		QueryExecutionId: aws.String("qid-1"),
	}, nil
}

func (fc *fakeClient) GetQueryExecution(ctx context.Context,
	params *awsathena.GetQueryExecutionInput,
	optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error) {

	state := fc.states[len(fc.states)-1]
	if fc.polls < len(fc.states) {
		state = fc.states[fc.polls]
	}
	fc.polls += 1
	return &awsathena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: params.QueryExecutionId,
			Status: &types.QueryExecutionStatus{
				State:             state,
				StateChangeReason: aws.String(fc.reason),
			},
		},
	}, nil
}

func (fc *fakeClient) GetQueryResults(ctx context.Context, params *awsathena.GetQueryResultsInput,
	optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error) {

	page := fc.fetches
	if params.NextToken != nil {
		if aws.ToString(params.NextToken) != "page" {
			return nil, errors.New("bad next token")
		}
	} else if page != 0 {
		return nil, errors.New("missing next token")
	}
	fc.fetches += 1

	out := &awsathena.GetQueryResultsOutput{
		ResultSet: &types.ResultSet{
			ResultSetMetadata: &types.ResultSetMetadata{
				ColumnInfo: fc.cols,
			},
			Rows: fc.pages[page],
		},
	}
	if page+1 < len(fc.pages) {
		out.NextToken = aws.String("page")
	}
	return out, nil
}

func column(name, typ string) types.ColumnInfo {
	return types.ColumnInfo{
		Name: aws.String(name),
		Type: aws.String(typ),
	}
}

func row(vals ...*string) types.Row {
	var r types.Row
	for _, v := range vals {
		r.Data = append(r.Data, types.Datum{VarCharValue: v})
	}
	return r
}

func browsersClient() *fakeClient {
	return &fakeClient{
		states: []types.QueryExecutionState{
			types.QueryExecutionStateQueued,
			types.QueryExecutionStateRunning,
			types.QueryExecutionStateSucceeded,
		},
		cols: []types.ColumnInfo{
			column("browser", "varchar"),
			column("hits", "bigint"),
			column("share", "double"),
		},
		pages: [][]types.Row{
			{
				row(aws.String("browser"), aws.String("hits"), aws.String("share")),
				row(aws.String("Firefox"), aws.String("2567"), aws.String("0.72")),
				row(aws.String("Opera"), aws.String("543"), aws.String("0.15")),
			},
			{
				row(aws.String("Safari"), aws.String("23"), nil),
			},
			{},
			{
				row(aws.String("Lynx"), nil, aws.String("0.12")),
			},
		},
	}
}

var fastOptions = athena.Options{
	Database:     "web",
	Workgroup:    "primary",
	PollInterval: time.Millisecond,
	MaxWait:      time.Second,
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	fc := browsersClient()

	stmt := athena.Prepare(fc, "select browser, hits, share from browsers", fastOptions)
	if stmt.Executed() {
		t.Errorf("Prepare().Executed() got true want false")
	}
	_, err := dataset.New(ctx, stmt, nil)
	if !errors.Is(err, dataset.ErrStatementNotExecuted) {
		t.Errorf("dataset.New(not executed) got %v want %s", err, dataset.ErrStatementNotExecuted)
	}
	if fc.input != nil {
		t.Errorf("Prepare() started a query")
	}

	err = stmt.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute() failed with %s", err)
	}
	if fc.polls != 3 {
		t.Errorf("Execute() polled %d times want 3", fc.polls)
	}
	if fc.fetches != 1 {
		t.Errorf("Execute() fetched %d pages want 1", fc.fetches)
	}
	if aws.ToString(fc.input.WorkGroup) != "primary" ||
		aws.ToString(fc.input.QueryExecutionContext.Database) != "web" {
		t.Errorf("Execute() got input %v", fc.input)
	}
	if stmt.QueryExecutionID() != "qid-1" {
		t.Errorf("QueryExecutionID() got %s want qid-1", stmt.QueryExecutionID())
	}
	cols := []string{"browser", "hits", "share"}
	if !reflect.DeepEqual(stmt.Columns(), cols) {
		t.Errorf("Columns() got %v want %v", stmt.Columns(), cols)
	}

	ds, err := dataset.New(ctx, stmt, dataset.KeyValueColumns("browser", "hits"))
	if err != nil {
		t.Fatalf("dataset.New() failed with %s", err)
	}
	want := []dataset.Row{
		{Key: sql.StringValue("Firefox"), Value: sql.Int64Value(2567)},
		{Key: sql.StringValue("Opera"), Value: sql.Int64Value(543)},
		{Key: sql.StringValue("Safari"), Value: sql.Int64Value(23)},
		{Key: sql.StringValue("Lynx"), Value: nil},
	}
	if rows := ds.Rows(); !reflect.DeepEqual(rows, want) {
		t.Errorf("dataset.New() got %v want %v", rows, want)
	}
	if fc.fetches != 4 {
		t.Errorf("dataset.New() fetched %d pages want 4", fc.fetches)
	}
}

func TestMaxRows(t *testing.T) {
	ctx := context.Background()
	fc := browsersClient()

	opts := fastOptions
	opts.MaxRows = 2
	stmt := athena.Prepare(fc, "select browser, hits, share from browsers", opts)
	err := stmt.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute() failed with %s", err)
	}
	ds, err := dataset.New(ctx, stmt, dataset.KeyValueColumns("browser", "share"))
	if err != nil {
		t.Fatalf("dataset.New() failed with %s", err)
	}
	want := []dataset.Row{
		{Key: sql.StringValue("Firefox"), Value: sql.Float64Value(0.72)},
		{Key: sql.StringValue("Opera"), Value: sql.Float64Value(0.15)},
	}
	if rows := ds.Rows(); !reflect.DeepEqual(rows, want) {
		t.Errorf("dataset.New() got %v want %v", rows, want)
	}
	if fc.fetches != 1 {
		t.Errorf("dataset.New() fetched %d pages want 1", fc.fetches)
	}
}

func TestQueryErrors(t *testing.T) {
	cases := []struct {
		states []types.QueryExecutionState
		state  string
	}{
		{
			states: []types.QueryExecutionState{
				types.QueryExecutionStateRunning,
				types.QueryExecutionStateFailed,
			},
			state: "FAILED",
		},
		{
			states: []types.QueryExecutionState{types.QueryExecutionStateCancelled},
			state:  "CANCELLED",
		},
		{
			states: []types.QueryExecutionState{types.QueryExecutionStateRunning},
			state:  "TIMEOUT",
		},
	}

	for _, c := range cases {
		fc := browsersClient()
		fc.states = c.states
		fc.reason = "table not found"

		opts := fastOptions
		opts.MaxWait = 20 * time.Millisecond
		stmt := athena.Prepare(fc, "select * from missing", opts)
		err := stmt.Execute(context.Background())

		var qe *athena.QueryError
		if !errors.As(err, &qe) {
			t.Errorf("Execute(%v) got %v want *QueryError", c.states, err)
			continue
		}
		if qe.State != c.state || qe.QueryExecutionID != "qid-1" {
			t.Errorf("Execute(%v) got %#v want state %s", c.states, qe, c.state)
		}
		if stmt.Executed() {
			t.Errorf("Execute(%v).Executed() got true want false", c.states)
		}
		if fc.fetches != 0 {
			t.Errorf("Execute(%v) fetched %d pages want 0", c.states, fc.fetches)
		}
	}
}

func TestCanceledContext(t *testing.T) {
	fc := browsersClient()
	fc.states = []types.QueryExecutionState{types.QueryExecutionStateRunning}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastOptions
	opts.PollInterval = time.Second
	opts.MaxWait = time.Minute
	err := athena.Prepare(fc, "select 1", opts).Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute(canceled) got %v want %s", err, context.Canceled)
	}
}
