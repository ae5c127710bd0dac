package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	plog "mazeforge.ai/internal/persistence/log"
	"mazeforge.ai/internal/program"
)

// SQLiteIndex is a queryable index of solve results. The JSONL records stay
// the source of truth; the index can be rebuilt from them.
type SQLiteIndex struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db, now: time.Now}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			seed INTEGER NOT NULL,
			config_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS programs (
			digest TEXT PRIMARY KEY,
			blocks INTEGER NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solves (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			level_id TEXT NOT NULL,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT,
			solver TEXT,
			strategy TEXT,
			warnings TEXT NOT NULL,
			actions INTEGER NOT NULL,
			trace TEXT NOT NULL,
			blocks INTEGER NOT NULL,
			max_blocks INTEGER NOT NULL,
			logical_lines INTEGER NOT NULL,
			buggy INTEGER NOT NULL,
			program_digest TEXT REFERENCES programs(digest),
			elapsed_ms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, level_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_solves_level ON solves(level_id, recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_solves_status ON solves(run_id, status);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteIndex) stamp() string { return s.now().UTC().Format(time.RFC3339Nano) }

// BeginRun registers a batch run. cfg is stored as JSON for provenance.
func (s *SQLiteIndex) BeginRun(ctx context.Context, runID string, seed int64, cfg any) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,started_at,seed,config_json) VALUES(?,?,?,?)`,
		runID, s.stamp(), seed, string(b))
	return err
}

func (s *SQLiteIndex) FinishRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at=? WHERE run_id=?`, s.stamp(), runID)
	return err
}

// Digest is the content address of a program's JSON form.
func Digest(p *program.Program) (string, []byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), b, nil
}

// RecordSolve stores one record and, when present, its program. Identical
// programs are stored once.
func (s *SQLiteIndex) RecordSolve(ctx context.Context, rec plog.SolveRecord, p *program.Program) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var digest sql.NullString
	if p != nil {
		d, b, err := Digest(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO programs(digest,blocks,json) VALUES(?,?,?)`,
			d, program.Count(p), string(b)); err != nil {
			return err
		}
		digest = sql.NullString{String: d, Valid: true}
	}
	buggy := 0
	if rec.Buggy {
		buggy = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO solves(
			run_id,level_id,source,status,detail,solver,strategy,warnings,actions,trace,
			blocks,max_blocks,logical_lines,buggy,program_digest,elapsed_ms,recorded_at
		) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.LevelID, rec.Source, rec.Status, rec.Detail, rec.Solver, rec.Strategy,
		strings.Join(rec.Warnings, ","), rec.Actions, rec.Trace,
		rec.Blocks, rec.MaxBlocks, rec.LogicalLines, buggy, digest, rec.ElapsedMS, s.stamp(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// LevelSolution is the latest indexed outcome for a level.
type LevelSolution struct {
	RunID      string
	Status     string
	Blocks     int
	MaxBlocks  int
	Trace      string
	Program    *program.Program
	RecordedAt string
}

// Latest returns the most recent solve of levelID. ok is false when the level
// was never indexed.
func (s *SQLiteIndex) Latest(ctx context.Context, levelID string) (sol LevelSolution, ok bool, err error) {
	var progJSON sql.NullString
	row := s.db.QueryRowContext(ctx, `
		SELECT s.run_id, s.status, s.blocks, s.max_blocks, s.trace, p.json, s.recorded_at
		FROM solves s LEFT JOIN programs p ON p.digest = s.program_digest
		WHERE s.level_id = ?
		ORDER BY s.recorded_at DESC LIMIT 1`, levelID)
	if err := row.Scan(&sol.RunID, &sol.Status, &sol.Blocks, &sol.MaxBlocks, &sol.Trace, &progJSON, &sol.RecordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LevelSolution{}, false, nil
		}
		return LevelSolution{}, false, err
	}
	if progJSON.Valid {
		sol.Program = &program.Program{}
		if err := json.Unmarshal([]byte(progJSON.String), sol.Program); err != nil {
			return LevelSolution{}, false, fmt.Errorf("level %s: stored program: %w", levelID, err)
		}
	}
	return sol, true, nil
}

// StatusCounts tallies a run's results by status code.
func (s *SQLiteIndex) StatusCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM solves WHERE run_id=? GROUP BY status`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
