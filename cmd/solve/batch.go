package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mazeforge.ai/internal/config"
	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/persistence/indexdb"
	plog "mazeforge.ai/internal/persistence/log"
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/solve"
)

type batchConfig struct {
	RunID  string
	Config config.Config
	OutDir string
	Print  bool
	Stdout io.Writer
	Logger *log.Logger
}

type summary struct {
	Total      int
	OK         int
	Unsolvable int
	Malformed  int
	Budget     int
}

func (s *summary) add(status string) {
	s.Total++
	switch status {
	case solve.StatusOK:
		s.OK++
	case solve.StatusUnsolvable:
		s.Unsolvable++
	case solve.StatusMalformed:
		s.Malformed++
	case solve.StatusBudget:
		s.Budget++
	}
}

// batch solves levels one after another. A level that cannot be solved is
// recorded and does not stop the run; only I/O failures do.
type batch struct {
	runID  string
	opts   solve.Options
	outDir string
	print  bool
	stdout io.Writer
	logger *log.Logger

	records *plog.RecordLogger
	index   *indexdb.SQLiteIndex
}

func newBatch(ctx context.Context, bc batchConfig) (*batch, error) {
	opts, err := bc.Config.SolveOptions(bc.Logger)
	if err != nil {
		return nil, err
	}
	b := &batch{
		runID:  bc.RunID,
		opts:   opts,
		outDir: bc.OutDir,
		print:  bc.Print,
		stdout: bc.Stdout,
		logger: bc.Logger,
	}
	if b.stdout == nil {
		b.stdout = io.Discard
	}
	if bc.Config.RecordsDir != "" {
		b.records = plog.NewRecordLogger(bc.Config.RecordsDir)
	}
	if bc.Config.IndexDB != "" {
		idx, err := indexdb.OpenSQLite(bc.Config.IndexDB)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		if err := idx.BeginRun(ctx, b.runID, bc.Config.Seed, bc.Config); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("begin run: %w", err)
		}
		b.index = idx
	}
	if b.outDir != "" {
		if err := os.MkdirAll(b.outDir, 0o755); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *batch) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

func (b *batch) run(ctx context.Context, paths []string) (summary, error) {
	var sum summary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := b.solveOne(ctx, path)
		sum.add(res.Status)
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (b *batch) solveOne(ctx context.Context, path string) (solve.Result, error) {
	start := time.Now()
	lv, err := level.Load(path)
	var res solve.Result
	switch {
	case errors.Is(err, level.ErrMalformed):
		res = solve.Result{LevelID: trimExt(filepath.Base(path)), Status: solve.StatusMalformed, Detail: err.Error()}
	case err != nil:
		return solve.Result{}, err
	default:
		res, err = solve.Solve(ctx, lv, b.opts)
		if err != nil {
			if ctx.Err() != nil {
				return res, err
			}
			if res.Status == solve.StatusOK {
				res.Status = solve.StatusUnsolvable
			}
			res.Detail = err.Error()
		}
	}
	elapsed := time.Since(start).Milliseconds()
	b.logf("level=%s status=%s blocks=%d/%d actions=%d strategy=%s %s",
		res.LevelID, res.Status, res.Blocks, res.MaxBlocks, len(res.Actions), res.Strategy, res.Detail)

	if b.print && res.Program != nil {
		fmt.Fprintf(b.stdout, "# %s\n%s\n", res.LevelID, program.Format(res.Program))
	}
	if b.outDir != "" {
		if err := writeDocument(filepath.Join(b.outDir, res.LevelID+".solution.json"), res.Document()); err != nil {
			return res, err
		}
	}
	if b.records == nil && b.index == nil {
		return res, nil
	}
	rec, err := plog.NewSolveRecord(b.runID, path, res, elapsed)
	if err != nil {
		return res, err
	}
	if b.records != nil {
		if err := b.records.WriteRecord(rec); err != nil {
			return res, fmt.Errorf("write record: %w", err)
		}
	}
	if b.index != nil {
		if err := b.index.RecordSolve(ctx, rec, res.Program); err != nil {
			return res, fmt.Errorf("index %s: %w", res.LevelID, err)
		}
	}
	return res, nil
}

func (b *batch) close(ctx context.Context) error {
	var errs []error
	if b.records != nil {
		errs = append(errs, b.records.Close())
	}
	if b.index != nil {
		errs = append(errs, b.index.FinishRun(ctx, b.runID), b.index.Close())
	}
	return errors.Join(errs...)
}

func writeDocument(path string, doc solve.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func listLevels(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".solution.json") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

func trimExt(name string) string { return strings.TrimSuffix(name, filepath.Ext(name)) }
