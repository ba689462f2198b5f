package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nf-analysis/stateless-trace/internal/testutil"
	"github.com/nf-analysis/stateless-trace/sim"
	"github.com/nf-analysis/stateless-trace/sim/cache"
)

func TestSQLiteRecorder_RecordFlushRead(t *testing.T) {
	// GIVEN a recorder on a fresh database
	path := filepath.Join(t.TempDir(), "results.sqlite3")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NotEmpty(t, rec.RunID())

	// WHEN two rows are recorded and the recorder is closed
	require.NoError(t, rec.Record(Row{Trace: "b.tracelog", Instructions: 5, MemoryAccesses: 2, Hits: 1, Misses: 1}))
	require.NoError(t, rec.Record(Row{Trace: "a.tracelog", Instructions: 10, MemoryAccesses: 5, Hits: 2, Misses: 3, CollapsedCalls: 4}))
	require.NoError(t, rec.Close())

	// THEN both rows are stored under the recorder's run ID
	rows, err := ReadRows(path, rec.RunID())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{RunID: rec.RunID(), Trace: "a.tracelog", Instructions: 10, MemoryAccesses: 5, Hits: 2, Misses: 3, CollapsedCalls: 4}, rows[0])
	assert.Equal(t, "b.tracelog", rows[1].Trace)
}

func TestSQLiteRecorder_RunsShareDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.sqlite3")

	first, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(Row{Trace: "x"}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, second.Record(Row{Trace: "y"}))
	require.NoError(t, second.Close())

	assert.NotEqual(t, first.RunID(), second.RunID())
	all, err := ReadRows(path, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	only, err := ReadRows(path, second.RunID())
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "y", only[0].Trace)
}

func TestSQLiteRecorder_FlushesFullBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.sqlite3")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer func() { _ = rec.Close() }()
	rec.batchSize = 2

	require.NoError(t, rec.Record(Row{Trace: "a"}))
	require.NoError(t, rec.Record(Row{Trace: "b"}))

	rows, err := ReadRows(path, rec.RunID())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSQLiteRecorder_LargeCountsStoredAsSignedIntegers(t *testing.T) {
	// GIVEN a recorder
	path := filepath.Join(t.TempDir(), "results.sqlite3")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)

	// WHEN counts at the top of the signed range are recorded
	big := Row{Trace: "big", MemoryAccesses: math.MaxInt64, Hits: math.MaxInt64 - 1, Misses: 1}
	require.NoError(t, rec.Record(big))

	// AND a count past it is offered
	err = rec.Record(Row{Trace: "overflow", Hits: math.MaxInt64 + 1})

	// THEN the overflow is refused up front and the valid row survives the flush
	assert.Error(t, err)
	require.NoError(t, rec.Close())
	rows, err := ReadRows(path, rec.RunID())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	big.RunID = rec.RunID()
	assert.Equal(t, big, rows[0])
}

func TestRowFromResult(t *testing.T) {
	r := &sim.Result{
		Trace:   "t.tracelog",
		Cache:   cache.Result{Hits: 2, Misses: 3},
		Metrics: sim.Metrics{InstructionCount: 10, MemoryAccesses: 5, CollapsedCalls: 4},
	}
	assert.Equal(t, Row{Trace: "t.tracelog", Instructions: 10, MemoryAccesses: 5, Hits: 2, Misses: 3, CollapsedCalls: 4},
		RowFromResult(r))
}

func TestAggregate(t *testing.T) {
	// GIVEN metric files for two traces and an unrelated file
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "nat.llvm_metrics", "llvm instruction count,10\nllvm memory instructions,5\n")
	testutil.WriteFile(t, dir, "bridge.llvm_metrics", "llvm instruction count,7\n\n")
	testutil.WriteFile(t, dir, "nat.cache_stats", "Hits: 2\nMisses: 3\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "lb"), 0755))
	testutil.WriteFile(t, filepath.Join(dir, "lb"), "lb.llvm_metrics", "llvm instruction count,1\n")

	// WHEN aggregated
	var buf bytes.Buffer
	n, err := Aggregate(dir, ".llvm_metrics", &buf)

	// THEN every line is prefixed with its trace name, files in lexical order
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, strings.Join([]string{
		"bridge,llvm instruction count,7",
		"lb/lb,llvm instruction count,1",
		"nat,llvm instruction count,10",
		"nat,llvm memory instructions,5",
	}, "\n")+"\n", buf.String())
}

func TestAggregate_Errors(t *testing.T) {
	var buf bytes.Buffer
	_, err := Aggregate(t.TempDir(), "", &buf)
	assert.Error(t, err)

	_, err = Aggregate(filepath.Join(t.TempDir(), "missing"), ".x", &buf)
	assert.Error(t, err)

	n, err := Aggregate(t.TempDir(), ".x", &buf)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
