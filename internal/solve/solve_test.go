package solve

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/replay"
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/world"
	"mazeforge.ai/internal/sim/worldtest"
	"mazeforge.ai/internal/solve/tour"
	"mazeforge.ai/internal/synth"
)

func TestSolve_Corridor(t *testing.T) {
	lv := worldtest.Corridor(5).Level()
	res, err := Solve(context.Background(), lv, Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Solved() || res.Solver != SolverAStar {
		t.Fatalf("status %s solver %s", res.Status, res.Solver)
	}
	want := []action.Action{action.MoveForward, action.MoveForward, action.MoveForward, action.MoveForward, action.MoveForward}
	if diff := cmp.Diff(want, res.Actions); diff != "" {
		t.Fatalf("actions (-want +got):\n%s", diff)
	}
	wantMain := []program.Block{program.Repeat{Times: 5, Body: []program.Block{program.Move{}}}}
	if diff := cmp.Diff(wantMain, res.Program.Main); diff != "" {
		t.Fatalf("program (-want +got):\n%s", diff)
	}
	if res.Blocks != 3 || res.MaxBlocks != 3+BlockSlack {
		t.Fatalf("blocks %d max %d", res.Blocks, res.MaxBlocks)
	}
}

func TestSolve_MultiGoalUsesTour(t *testing.T) {
	b := worldtest.New().Floor(0, 4, 0, 2).Start(0, 0, 0, 1).Finish(4, 0, 2).AllBlocks().
		Collectible("c1", "crystal", 2, 0, 0).
		Collectible("c2", "crystal", 0, 0, 2).
		Collectible("c3", "crystal", 4, 0, 1).
		GoalAll("crystal")
	lv := b.Level()
	res, err := Solve(context.Background(), lv, Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Solved() || res.Solver != tour.StrategyBruteForce {
		t.Fatalf("status %s solver %s", res.Status, res.Solver)
	}
	w, err := world.New(lv, world.Options{ItemGoals: ResolveItemGoals(lv)})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	st, _, err := replay.RunProgram(w, res.Program)
	if err != nil {
		t.Fatalf("RunProgram: %v", err)
	}
	if st.Pos != w.Finish || !st.GoalsMet(w, w.Goal) {
		t.Fatalf("program does not solve the level: %+v", st)
	}
}

func TestSolve_MultiGoalWithoutCollectBlock(t *testing.T) {
	lv := worldtest.New().Floor(0, 2, 0, 4).Start(0, 0, 0, 1).Finish(2, 0, 4).
		Collectible("c1", "crystal", 2, 0, 0).Collectible("c2", "crystal", 2, 0, 2).
		GoalAll("crystal").Toolbox(action.BlockMoveForward, action.BlockTurn).Level()
	res, err := Solve(context.Background(), lv, Options{})
	if err != nil {
		t.Fatalf("unsolvable is a result, got error %v", err)
	}
	if res.Status != StatusUnsolvable || len(res.Actions) != 0 || res.Program != nil {
		t.Fatalf("expected unsolvable without maze_collect, got %s %v", res.Status, res.Actions)
	}
}

func TestSolve_Unsolvable(t *testing.T) {
	// Finish sits on an island.
	lv := worldtest.New().Floor(0, 2, 0, 0).Block(5, -1, 0, "ground.normal").
		Start(0, 0, 0, 1).Finish(5, 0, 0).AllBlocks().Level()
	res, err := Solve(context.Background(), lv, Options{})
	if err != nil {
		t.Fatalf("unsolvable is a result, got error %v", err)
	}
	if res.Status != StatusUnsolvable || res.Solved() {
		t.Fatalf("status: %s", res.Status)
	}
	if d := res.Document(); d.MaxBlocks != UnsolvedMaxBlocks || d.OptimalBlocks != 0 {
		t.Fatalf("document: %+v", d)
	}
}

func TestSolve_Malformed(t *testing.T) {
	lv := worldtest.Corridor(2).Level()
	lv.GameConfig.Finish = nil
	res, err := Solve(context.Background(), lv, Options{})
	if !errors.Is(err, level.ErrMalformed) || res.Status != StatusMalformed {
		t.Fatalf("expected malformed, got %s / %v", res.Status, err)
	}

	lv = worldtest.Corridor(2).Toolbox(action.BlockRepeat).Level()
	res, err = Solve(context.Background(), lv, Options{})
	if !errors.Is(err, world.ErrNoActions) || !errors.Is(err, level.ErrMalformed) || res.Status != StatusMalformed {
		t.Fatalf("expected no actions, got %s / %v", res.Status, err)
	}
}

func TestSolve_Budget(t *testing.T) {
	lv := worldtest.New().Floor(0, 20, 0, 20).Start(0, 0, 0, 1).Finish(20, 0, 20).AllBlocks().Level()
	res, err := Solve(context.Background(), lv, Options{MaxExpansions: 10})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != StatusBudget {
		t.Fatalf("status: %s", res.Status)
	}
}

func TestSolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Unreachable finish forces a full exploration.
	lv := worldtest.New().Floor(0, 29, 0, 29).Start(0, 0, 0, 1).Finish(50, 0, 50).AllBlocks().Level()
	if _, err := Solve(ctx, lv, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSolve_TemplateSkipsSearch(t *testing.T) {
	lv := worldtest.Corridor(3).Solution(func(s *level.SolutionConfig) {
		s.LogicType = synth.LogicAdvancedAlgorithm
		s.AlgorithmTemplate = &level.AlgorithmTemplate{Name: synth.TemplateFibonacci}
	}).Level()
	// Unreachable finish does not matter: no search runs.
	lv.GameConfig.Finish = &level.Pos{X: 40}
	res, err := Solve(context.Background(), lv, Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Solved() || res.Solver != SolverTemplate || res.Strategy != synth.StrategyFibonacci || len(res.Actions) != 0 {
		t.Fatalf("result: %+v", res)
	}
}

func TestSolve_UnsupportedLogicTypeWarns(t *testing.T) {
	lv := worldtest.Corridor(3).Solution(func(s *level.SolutionConfig) { s.LogicType = "mystery_mode" }).Level()
	res, err := Solve(context.Background(), lv, Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if diff := cmp.Diff([]synth.Warning{synth.WarnUnsupportedLogicType}, res.Warnings); diff != "" {
		t.Fatalf("warnings (-want +got):\n%s", diff)
	}
	if d := res.Document(); len(d.Warnings) != 1 || d.Warnings[0] != "W_UNSUPPORTED_LOGIC_TYPE" {
		t.Fatalf("document warnings: %v", d.Warnings)
	}
}

func TestResolveItemGoals(t *testing.T) {
	lv := worldtest.New().
		Collectible("c1", "crystal", 1, 0, 0).Collectible("c2", "crystal", 2, 0, 0).
		Collectible("k1", "key", 3, 0, 0).
		Switch("s1", 1, 0, 1, false).Switch("s2", 2, 0, 1, true).
		GoalAll("crystal").GoalAll("switch").Goal("key", 1).GoalAll("gem").
		Level()
	want := map[string]int{"crystal": 2, "switch": 2, "key": 1, "gem": 0}
	if diff := cmp.Diff(want, ResolveItemGoals(lv)); diff != "" {
		t.Fatalf("goals (-want +got):\n%s", diff)
	}
}
