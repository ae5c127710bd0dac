package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mazeforge.ai/internal/config"
	plog "mazeforge.ai/internal/persistence/log"
	"mazeforge.ai/internal/solve"
)

// levelJSON builds an eastward corridor of n ground tiles with the finish on
// the last one. A gap at position gap leaves the finish unreachable.
func levelJSON(id string, n, gap int) string {
	var blocks []string
	for x := 0; x < n; x++ {
		if x == gap {
			continue
		}
		blocks = append(blocks, fmt.Sprintf(`{"position":{"x":%d,"y":-1,"z":0},"modelKey":"ground.normal"}`, x))
	}
	return fmt.Sprintf(`{
  "id": %q,
  "gameConfig": {
    "blocks": [%s],
    "players": [{"id":"p1","start":{"x":0,"y":0,"z":0,"direction":1}}],
    "finish": {"x":%d,"y":0,"z":0}
  },
  "blocklyConfig": {"toolbox": {"kind":"flyoutToolbox","contents":[
    {"kind":"block","type":"maze_moveForward"},
    {"kind":"block","type":"maze_repeat"}
  ]}}
}`, id, strings.Join(blocks, ","), n-1)
}

func writeLevels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a-corridor.json":          levelJSON("a-corridor", 6, -1),
		"b-gap.json":               levelJSON("b-gap", 6, 3),
		"c-broken.json":            `{"gameConfig": {"players": []}}`,
		"a-corridor.solution.json": `{"ignored": true}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestBatch_RunRecordsEveryLevel(t *testing.T) {
	ctx := context.Background()
	levels := writeLevels(t)
	work := t.TempDir()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.RecordsDir = filepath.Join(work, "records")
	cfg.IndexDB = filepath.Join(work, "index.sqlite")

	var stdout bytes.Buffer
	b, err := newBatch(ctx, batchConfig{
		RunID:  "run-1",
		Config: cfg,
		OutDir: filepath.Join(work, "out"),
		Print:  true,
		Stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("newBatch: %v", err)
	}
	paths, err := listLevels(levels)
	if err != nil {
		t.Fatalf("listLevels: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected solution documents to be skipped, got %v", paths)
	}

	sum, err := b.run(ctx, paths)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := b.close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sum.Total != 3 || sum.OK != 1 || sum.Unsolvable != 1 || sum.Malformed != 1 {
		t.Fatalf("summary: %+v", sum)
	}
	if !strings.Contains(stdout.String(), "# a-corridor") {
		t.Fatalf("expected printed program, got %q", stdout.String())
	}

	raw, err := os.ReadFile(filepath.Join(work, "out", "a-corridor.solution.json"))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var doc solve.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Status != solve.StatusOK || len(doc.RawActions) != 5 || doc.MaxBlocks != doc.OptimalBlocks+solve.BlockSlack {
		t.Fatalf("document: %+v", doc)
	}

	raw, err = os.ReadFile(filepath.Join(work, "out", "b-gap.solution.json"))
	if err != nil {
		t.Fatalf("read unsolved document: %v", err)
	}
	doc = solve.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode unsolved document: %v", err)
	}
	if doc.Status != solve.StatusUnsolvable || doc.MaxBlocks != solve.UnsolvedMaxBlocks {
		t.Fatalf("unsolved document: %+v", doc)
	}

	recs, err := plog.ReadRecords(cfg.RecordsDir)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(recs) != 3 || recs[2].LevelID != "c-broken" || recs[2].Status != solve.StatusMalformed {
		t.Fatalf("records: %+v", recs)
	}
}

func TestBatch_CancelledStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg, _ := config.Load("")
	b, err := newBatch(ctx, batchConfig{RunID: "run", Config: cfg})
	if err != nil {
		t.Fatalf("newBatch: %v", err)
	}
	sum, err := b.run(ctx, []string{filepath.Join(writeLevels(t), "a-corridor.json")})
	if err == nil || sum.Total != 0 {
		t.Fatalf("expected cancellation before any level, got sum=%+v err=%v", sum, err)
	}
}
