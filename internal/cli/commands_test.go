package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argo-ocean/oceanq/internal/query"
	"github.com/argo-ocean/oceanq/internal/testing/fakedb"
	"github.com/argo-ocean/oceanq/internal/ui"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"load", "query", "demo", "ping", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	var sub []string
	for _, c := range queryCmd.Commands() {
		sub = append(sub, c.Name())
	}
	assert.ElementsMatch(t, []string{"sample", "count", "location", "dates", "summary"}, sub)
}

func TestLoadCmd_ArgsValidation_TooMany(t *testing.T) {
	err := loadCmd.Args(loadCmd, []string{"a.csv", "b.csv"})
	require.Error(t, err)
	assert.Equal(t, oceanq.ExitUsageError, oceanq.ExitCodeForError(err))
}

func TestDatesCmd_ArgsValidation(t *testing.T) {
	err := datesCmd.Args(datesCmd, []string{"2019-01-01"})
	require.Error(t, err)
	assert.Equal(t, oceanq.ExitUsageError, oceanq.ExitCodeForError(err))
	assert.NoError(t, datesCmd.Args(datesCmd, []string{"2019-01-01", "2019-01-31"}))
}

func TestRunLoad_ForceRequiresReplace(t *testing.T) {
	resetLoadFlags()
	t.Cleanup(resetLoadFlags)
	loadFlags.force = true

	err := runLoad(loadCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force requires --replace")
	assert.Equal(t, oceanq.ExitUsageError, oceanq.ExitCodeForError(err))
}

func TestQueryFlags_Defaults(t *testing.T) {
	assert.Equal(t, "5", sampleCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "100", locationCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "100", datesCmd.Flags().Lookup("limit").DefValue)
	assert.Equal(t, "[-90.000000,90.000000]", locationCmd.Flags().Lookup("lat").DefValue)
}

func TestRangeFlag(t *testing.T) {
	r, err := rangeFlag("lat", []float64{60, 80})
	require.NoError(t, err)
	assert.Equal(t, oceanq.NewRange(60, 80), r)

	_, err = rangeFlag("lon", []float64{10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lon")
	assert.Equal(t, oceanq.ExitUsageError, oceanq.ExitCodeForError(err))
}

func TestSelectApprover(t *testing.T) {
	assert.IsType(t, &ui.ForcedApprover{}, selectApprover(true, true, false))
	assert.IsType(t, &ui.ForcedApprover{}, selectApprover(true, false, false))
	assert.IsType(t, &ui.InteractiveApprover{}, selectApprover(false, true, false))
	assert.IsType(t, &ui.DenyingApprover{}, selectApprover(false, false, false))
}

func TestDescribeLoad(t *testing.T) {
	loaded := describeLoad(&oceanq.LoadResult{Table: "argo_data", RowsLoaded: 1234567, Duration: 2500 * time.Millisecond})
	assert.Equal(t, "Loaded 1,234,567 rows into argo_data in 2.5s", loaded)

	skipped := describeLoad(&oceanq.LoadResult{Table: "argo_data", Skipped: true, ExistingRows: 42})
	assert.Contains(t, skipped, "already holds 42 rows")
	assert.Contains(t, skipped, "--replace")
}

func countResult(n int64) fakedb.Result {
	return fakedb.Result{Columns: []string{"count"}, Rows: [][]any{{n}}}
}

func TestEmit_Success(t *testing.T) {
	svc := query.New(fakedb.New().On("SELECT count(*) FROM", countResult(6)))
	var out bytes.Buffer

	err := emit(&out, svc.GetDataCount(context.Background()))

	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "Total records in argo_data: 6", decoded["message"])
	assert.True(t, strings.HasPrefix(out.String(), "{\n  \"success\""), "output must be indented")
}

func TestEmit_FailurePrintsEnvelopeAndReturnsKind(t *testing.T) {
	conn := fakedb.New().On("SELECT count(*) FROM", fakedb.Result{
		Err: &pgconn.PgError{Code: "42P01", Message: `relation "argo_data" does not exist`},
	})
	var out bytes.Buffer

	err := emit(&out, query.New(conn).GetDataCount(context.Background()))

	require.Error(t, err)
	assert.ErrorIs(t, err, oceanq.ErrQueryExecution)
	assert.Equal(t, oceanq.ExitQueryFailed, oceanq.ExitCodeForError(err))
	assert.Contains(t, out.String(), `"success": false`)
	assert.Contains(t, out.String(), `"kind": "query_execution"`)
}

func TestEmit_ValidationFailure(t *testing.T) {
	var out bytes.Buffer

	err := emit(&out, query.New(fakedb.New()).GetSampleData(context.Background(), 0))

	assert.Equal(t, oceanq.ExitValidationFailed, oceanq.ExitCodeForError(err))
	assert.Contains(t, out.String(), `"kind": "validation"`)
}

func demoConn() *fakedb.Conn {
	day := time.Date(2019, 1, 29, 6, 0, 0, 0, time.UTC)
	return fakedb.New().
		On("SELECT * FROM", fakedb.Result{
			Columns: []string{"datetime", "lat", "lon", "mld"},
			Rows:    [][]any{{day, 65.5, -3.25, 42.0}},
		}).
		On("SELECT count(*) FROM", countResult(1)).
		On("information_schema.columns", fakedb.Result{
			Columns: []string{"column_name", "data_type"},
			Rows: [][]any{
				{"datetime", "timestamp without time zone"},
				{"lat", "double precision"},
				{"lon", "double precision"},
				{"mld", "double precision"},
			},
		}).
		On("count(DISTINCT", fakedb.Result{
			Rows: [][]any{{int64(1), int64(1), day, day, 65.5, 65.5, -3.25, -3.25, 42.0, 42.0, 42.0, int64(1)}},
		}).
		On("extract(year", fakedb.Result{Rows: [][]any{{2019, 1, int64(1)}}})
}

func TestRunDemo(t *testing.T) {
	conn := demoConn()
	var out bytes.Buffer

	err := runDemo(context.Background(), &out, query.New(conn))

	require.NoError(t, err)
	text := out.String()
	for _, title := range []string{"1. Sample data", "2. Record count", "3. Dataset summary", "4. Location", "5. Date range"} {
		assert.Contains(t, text, title)
	}
	assert.Equal(t, 5, strings.Count(text, `"success": true`))
	assert.Contains(t, text, "Retrieved 1 sample records")
	assert.Contains(t, text, "Retrieved 1 records for date range 2019-01-29 to 2019-01-30")

	var located []any
	for _, st := range conn.Statements() {
		if strings.Contains(st.SQL, "BETWEEN") {
			located = st.Args
		}
	}
	assert.Equal(t, []any{-10.0, 10.0, 60.0, 80.0, 5}, located, "lat -10..10, lon 60..80")
}

func TestRunDemo_ContinuesAfterFailure(t *testing.T) {
	conn := fakedb.New().
		On("SELECT count(*) FROM", countResult(0)).
		On("SELECT * FROM", fakedb.Result{Err: &pgconn.PgError{Code: "42P01", Message: "missing"}}).
		On("information_schema.columns", fakedb.Result{Err: &pgconn.PgError{Code: "42P01", Message: "missing"}})
	var out bytes.Buffer

	err := runDemo(context.Background(), &out, query.New(conn))

	require.Error(t, err)
	assert.ErrorIs(t, err, oceanq.ErrQueryExecution)
	text := out.String()
	assert.Contains(t, text, "5. Date range")
	assert.Equal(t, 1, strings.Count(text, `"success": true`), "only the count succeeds")
	assert.Equal(t, 4, strings.Count(text, `"success": false`))
}

func TestQueryServerInfo(t *testing.T) {
	conn := fakedb.New().On("server_version", fakedb.Result{
		Columns: []string{"server_version", "current_database", "current_user"},
		Rows:    [][]any{{"17.2", "argo", "oceanq"}},
	})

	info, err := queryServerInfo(context.Background(), conn)

	require.NoError(t, err)
	assert.Equal(t, &serverInfo{Version: "17.2", Database: "argo", User: "oceanq"}, info)
}

func TestQueryServerInfo_ConnectionLost(t *testing.T) {
	conn := fakedb.New().On("server_version", fakedb.Result{
		Err: &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"},
	})

	_, err := queryServerInfo(context.Background(), conn)

	assert.ErrorIs(t, err, oceanq.ErrConnection)
}
