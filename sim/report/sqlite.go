// Package report persists per-trace results and collects metric files from
// earlier runs.
package report

import (
	"database/sql"
	"fmt"
	"math"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/nf-analysis/stateless-trace/sim"
)

// Row is one trace's entry in the trace_results table.
type Row struct {
	RunID          string
	Trace          string
	Instructions   int
	MemoryAccesses uint64
	Hits           uint64
	Misses         uint64
	CollapsedCalls int
}

// RowFromResult extracts the recorded columns from a pipeline result.
func RowFromResult(r *sim.Result) Row {
	return Row{
		Trace:          r.Trace,
		Instructions:   r.Metrics.InstructionCount,
		MemoryAccesses: r.Metrics.MemoryAccesses,
		Hits:           r.Cache.Hits,
		Misses:         r.Cache.Misses,
		CollapsedCalls: r.Metrics.CollapsedCalls,
	}
}

// args returns the insert parameters. SQLite integers are signed 64-bit, so
// the unsigned counters are converted explicitly.
func (row Row) args() ([]any, error) {
	counts := [3]int64{}
	for i, v := range [3]uint64{row.MemoryAccesses, row.Hits, row.Misses} {
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("count %d does not fit a SQLite integer", v)
		}
		counts[i] = int64(v)
	}
	return []any{
		row.RunID,
		row.Trace,
		int64(row.Instructions),
		counts[0],
		counts[1],
		counts[2],
		int64(row.CollapsedCalls),
	}, nil
}

// SQLiteRecorder buffers rows and writes them to a SQLite database in
// batches, one transaction per batch. Every recorder tags its rows with a
// fresh run ID, so several runs can share a database. It is safe for
// concurrent use.
type SQLiteRecorder struct {
	*sql.DB
	statement *sql.Stmt

	mu        sync.Mutex
	path      string
	runID     string
	pending   []Row
	batchSize int
}

// NewSQLiteRecorder opens (or creates) the database at path. Buffered rows
// are flushed when the program exits through atexit.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results database %s: %w", path, err)
	}
	r := &SQLiteRecorder{
		DB:        db,
		path:      path,
		runID:     xid.New().String(),
		batchSize: 1000,
	}
	if err := r.createTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := r.prepareStatement(); err != nil {
		_ = db.Close()
		return nil, err
	}

	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			logrus.Errorf("flushing results to %s: %v", path, err)
		}
	})

	logrus.Infof("recording results in %s (run %s)", path, r.runID)
	return r, nil
}

// RunID identifies the rows written by this recorder.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

// Record buffers a row, flushing once a full batch is pending.
func (r *SQLiteRecorder) Record(row Row) error {
	if _, err := row.args(); err != nil {
		return fmt.Errorf("record %s: %w", row.Trace, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row.RunID = r.runID
	r.pending = append(r.pending, row)
	if len(r.pending) >= r.batchSize {
		return r.flushLocked()
	}
	return nil
}

// Flush writes all the buffered rows to the database.
func (r *SQLiteRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *SQLiteRecorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt := tx.Stmt(r.statement)
	for _, row := range r.pending {
		args, err := row.args()
		if err == nil {
			_, err = stmt.Exec(args...)
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert result for %s: %w", row.Trace, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}

	logrus.Debugf("flushed %d results to %s", len(r.pending), r.path)
	r.pending = nil
	return nil
}

// Close flushes pending rows and closes the database.
func (r *SQLiteRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	if err := r.statement.Close(); err != nil {
		return err
	}
	return r.DB.Close()
}

func (r *SQLiteRecorder) createTable() error {
	_, err := r.Exec(`
		CREATE TABLE IF NOT EXISTS trace_results
		(
			run_id          VARCHAR(20)  NOT NULL,
			trace           VARCHAR(400) NOT NULL,
			instructions    INTEGER      NOT NULL,
			memory_accesses INTEGER      NOT NULL,
			hits            INTEGER      NOT NULL,
			misses          INTEGER      NOT NULL,
			collapsed_calls INTEGER      NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create trace_results table: %w", err)
	}
	_, err = r.Exec(`
		CREATE INDEX IF NOT EXISTS trace_results_run_id_index
			ON trace_results (run_id);
	`)
	if err != nil {
		return fmt.Errorf("create trace_results index: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) prepareStatement() error {
	sqlStr := `INSERT INTO trace_results
		(run_id, trace, instructions, memory_accesses, hits, misses, collapsed_calls)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.Prepare(sqlStr)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	r.statement = stmt
	return nil
}

// ReadRows returns the rows recorded under runID in the database at path,
// ordered by trace name. An empty runID returns every row.
func ReadRows(path, runID string) ([]Row, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results database %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	sqlStr := `
		SELECT run_id, trace, instructions, memory_accesses, hits, misses, collapsed_calls
		FROM trace_results
		WHERE ? = '' OR run_id = ?
		ORDER BY trace`
	rows, err := db.Query(sqlStr, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("query trace_results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var row Row
		err := rows.Scan(
			&row.RunID,
			&row.Trace,
			&row.Instructions,
			&row.MemoryAccesses,
			&row.Hits,
			&row.Misses,
			&row.CollapsedCalls,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trace_results: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
