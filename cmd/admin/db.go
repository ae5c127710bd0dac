package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"mazeforge.ai/internal/persistence/indexdb"
	plog "mazeforge.ai/internal/persistence/log"
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/encoding"
)

func openIndex(path string) *indexdb.SQLiteIndex {
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return idx
}

func latestCmd(args []string) {
	fs := flag.NewFlagSet("latest", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite index path (required)")
	levelID := fs.String("level", "", "level id (required)")
	asJSON := fs.Bool("json", false, "print the stored program as JSON")
	_ = fs.Parse(args)

	idx := openIndex(requireFlag("db", *dbPath))
	defer idx.Close()

	sol, ok, err := idx.Latest(context.Background(), requireFlag("level", *levelID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "no solve recorded for", *levelID)
		os.Exit(1)
	}
	fmt.Printf("run=%s status=%s blocks=%d max_blocks=%d recorded_at=%s\n",
		sol.RunID, sol.Status, sol.Blocks, sol.MaxBlocks, sol.RecordedAt)
	if actions, err := encoding.DecodeTrace(sol.Trace, 0); err == nil && len(actions) > 0 {
		fmt.Println("trace:", encoding.FormatRuns(actions))
	}
	if sol.Program == nil {
		return
	}
	if *asJSON {
		b, _ := json.MarshalIndent(sol.Program, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Println(program.Format(sol.Program))
}

func countsCmd(args []string) {
	fs := flag.NewFlagSet("counts", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite index path (required)")
	runID := fs.String("run", "", "run id (required)")
	_ = fs.Parse(args)

	idx := openIndex(requireFlag("db", *dbPath))
	defer idx.Close()

	counts, err := idx.StatusCounts(context.Background(), requireFlag("run", *runID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	printCounts(counts)
}

// recordsCmd tallies the JSONL records directly, for runs that were not
// indexed.
func recordsCmd(args []string) {
	fs := flag.NewFlagSet("records", flag.ExitOnError)
	dir := fs.String("dir", "", "solve records dir (required)")
	runID := fs.String("run", "", "run id filter (optional)")
	_ = fs.Parse(args)

	recs, err := plog.ReadRecords(requireFlag("dir", *dir))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	counts := map[string]int{}
	for _, r := range recs {
		if *runID != "" && r.RunID != *runID {
			continue
		}
		counts[r.Status]++
	}
	printCounts(counts)
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := 0
	for _, k := range keys {
		fmt.Printf("%-14s %d\n", k, counts[k])
		total += counts[k]
	}
	fmt.Printf("%-14s %d\n", "total", total)
}
