package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mazeforge.ai/internal/config"
	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/persistence/indexdb"
	plog "mazeforge.ai/internal/persistence/log"
	"mazeforge.ai/internal/replay"
	"mazeforge.ai/internal/sim/encoding"
	"mazeforge.ai/internal/sim/world"
	"mazeforge.ai/internal/solve"
	"mazeforge.ai/internal/synth"
)

func main() {
	var (
		recordsDir = flag.String("records", "", "solve records dir (required)")
		configPath = flag.String("config", "./configs/solver.yaml", "solver config used for the run")
		runID      = flag.String("run", "", "only verify records of this run (optional)")
		dbPath     = flag.String("db", "", "sqlite index; also replay the stored programs (optional)")
	)
	flag.Parse()

	if *recordsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -records")
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}
	opts, err := cfg.SolveOptions(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	recs, err := plog.ReadRecords(*recordsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read records:", err)
		os.Exit(1)
	}

	var idx *indexdb.SQLiteIndex
	if *dbPath != "" {
		idx, err = indexdb.OpenSQLite(*dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open index:", err)
			os.Exit(1)
		}
		defer idx.Close()
	}

	v := verifier{opts: opts, index: idx}
	var checked, skipped int
	var failures []string
	for _, rec := range recs {
		if *runID != "" && rec.RunID != *runID {
			continue
		}
		if rec.Status != solve.StatusOK || rec.Source == "" {
			skipped++
			continue
		}
		checked++
		if err := v.verify(context.Background(), rec); err != nil {
			failures = append(failures, fmt.Sprintf("%s (run %s): %v", rec.LevelID, rec.RunID, err))
		}
	}
	for _, f := range failures {
		fmt.Fprintln(os.Stderr, "mismatch:", f)
	}
	if len(failures) > 0 {
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d skipped=%d\n", checked, skipped)
}

type verifier struct {
	opts  solve.Options
	index *indexdb.SQLiteIndex
}

// verify replays the recorded trace against the level file and, when the
// index holds the record's program, checks that the program expands to the
// same trace.
func (v verifier) verify(ctx context.Context, rec plog.SolveRecord) error {
	lv, err := level.Load(rec.Source)
	if err != nil {
		return err
	}
	w, err := world.New(lv, world.Options{Terrain: v.opts.Terrain, ItemGoals: solve.ResolveItemGoals(lv)})
	if err != nil {
		return err
	}
	actions, err := encoding.DecodeTrace(rec.Trace, replay.MaxActions)
	if err != nil {
		return fmt.Errorf("decode trace: %w", err)
	}
	if len(actions) != rec.Actions {
		return fmt.Errorf("trace has %d actions, record says %d", len(actions), rec.Actions)
	}
	// Template levels skip search; their trace is the program's, not a path.
	if rec.Solver != solve.SolverTemplate {
		if err := replay.Verify(w, actions); err != nil {
			return err
		}
	}

	if v.index == nil || rec.Buggy || synth.UsesTemplate(w) {
		return nil
	}
	sol, ok, err := v.index.Latest(ctx, rec.LevelID)
	if err != nil || !ok || sol.RunID != rec.RunID || sol.Program == nil {
		return err
	}
	expanded, err := replay.Expand(sol.Program, nil)
	if err != nil {
		return fmt.Errorf("expand stored program: %w", err)
	}
	if got, want := encoding.FormatRuns(expanded), encoding.FormatRuns(actions); got != want {
		return fmt.Errorf("stored program diverges from trace: got=%s want=%s", truncate(got), truncate(want))
	}
	return nil
}

func truncate(s string) string {
	const n = 80
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
