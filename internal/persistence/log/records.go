package log

import (
	"encoding/json"
	"path/filepath"
	"sort"

	"mazeforge.ai/internal/sim/encoding"
	"mazeforge.ai/internal/solve"
)

// SolveRecord is one JSONL entry per solved (or rejected) level.
type SolveRecord struct {
	RunID    string   `json:"run_id"`
	LevelID  string   `json:"level_id"`
	Source   string   `json:"source,omitempty"`
	Status   string   `json:"status"`
	Detail   string   `json:"detail,omitempty"`
	Solver   string   `json:"solver,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Actions int `json:"actions"`
	// Trace is the raw action trace packed by encoding.EncodeTrace.
	Trace        string `json:"trace,omitempty"`
	Blocks       int    `json:"blocks"`
	MaxBlocks    int    `json:"max_blocks"`
	LogicalLines int    `json:"logical_lines"`
	Buggy        bool   `json:"buggy,omitempty"`

	Expanded    int   `json:"expanded,omitempty"`
	CacheHits   int   `json:"cache_hits,omitempty"`
	CacheMisses int   `json:"cache_misses,omitempty"`
	ElapsedMS   int64 `json:"elapsed_ms"`
}

// NewSolveRecord flattens a solve result.
func NewSolveRecord(runID, source string, r solve.Result, elapsedMS int64) (SolveRecord, error) {
	trace, err := encoding.EncodeTrace(r.Actions)
	if err != nil {
		return SolveRecord{}, err
	}
	rec := SolveRecord{
		RunID:        runID,
		LevelID:      r.LevelID,
		Source:       source,
		Status:       r.Status,
		Detail:       r.Detail,
		Solver:       r.Solver,
		Strategy:     string(r.Strategy),
		Actions:      len(r.Actions),
		Trace:        trace,
		Blocks:       r.Blocks,
		MaxBlocks:    r.MaxBlocks,
		LogicalLines: r.LogicalLines,
		Buggy:        r.Buggy,
		Expanded:     r.Expanded,
		CacheHits:    r.CacheHits,
		CacheMisses:  r.CacheMisses,
		ElapsedMS:    elapsedMS,
	}
	for _, w := range r.Warnings {
		rec.Warnings = append(rec.Warnings, string(w))
	}
	return rec, nil
}

// RecordLogger writes solve records (compressed).
type RecordLogger struct{ w *JSONLZstdWriter }

func NewRecordLogger(dir string) *RecordLogger {
	return &RecordLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "solves"), "solves")}
}

func (l *RecordLogger) WriteRecord(r SolveRecord) error { return l.w.Write(r) }
func (l *RecordLogger) Close() error                    { return l.w.Close() }

// ReadRecords loads every record under dir in file name order.
func ReadRecords(dir string) ([]SolveRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "solves", "solves-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var out []SolveRecord
	for _, p := range paths {
		err := ReadJSONL(p, func(line []byte) error {
			var r SolveRecord
			if err := json.Unmarshal(line, &r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
