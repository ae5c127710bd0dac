package world

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/sim/action"
)

func sampleLevel() *level.Level {
	return &level.Level{
		ID: "sample",
		GameConfig: level.GameConfig{
			Blocks: []level.Block{
				{Position: level.Pos{X: 0, Y: -1, Z: 0}, ModelKey: "ground.normal"},
				{Position: level.Pos{X: 1, Y: -1, Z: 0}, ModelKey: "ground.normal"},
				{Position: level.Pos{X: 2, Y: -1, Z: 0}, ModelKey: "lava.lava01"},
			},
			Players: []level.Player{{ID: "p1", Start: &level.Start{X: 0, Y: 0, Z: 0, Direction: 1}}},
			Finish:  &level.Pos{X: 1, Y: 0, Z: 0},
			Collectibles: []level.Collectible{
				{ID: "c1", Type: "crystal", Position: level.Pos{X: 1, Y: 0, Z: 0}},
				{ID: "c2", Type: "key", Position: level.Pos{X: 0, Y: 0, Z: 0}},
			},
			Obstacles: []level.Obstacle{{Position: level.Pos{X: 2, Y: -1, Z: 0}}},
			Interactibles: []level.Interactible{
				{ID: "s1", Type: "switch", Position: level.Pos{X: 0, Y: 0, Z: 0}, InitialState: "on"},
				{ID: "s2", Type: "switch", Position: level.Pos{X: 1, Y: 0, Z: 0}},
				{ID: "pa", Type: "portal", Position: level.Pos{X: 3, Y: 0, Z: 0}, TargetID: "pb"},
				{ID: "pb", Type: "portal", Position: level.Pos{X: 5, Y: 0, Z: 0}, TargetID: "pa"},
				{ID: "px", Type: "portal", Position: level.Pos{X: 7, Y: 0, Z: 0}, TargetID: "missing"},
			},
		},
		BlocklyConfig: level.BlocklyConfig{Toolbox: level.ToolboxItem{
			Kind: "categoryToolbox",
			Contents: []level.ToolboxItem{
				{Kind: "category", Name: "Moves", Contents: []level.ToolboxItem{
					{Kind: "block", Type: action.BlockMoveForward},
					{Kind: "category", Contents: []level.ToolboxItem{{Kind: "block", Type: action.BlockTurn}}},
				}},
				{Kind: "category", Name: "Functions", Custom: action.ProcedureMarker},
			},
		}},
		Solution: level.SolutionConfig{ItemGoals: map[string]level.GoalCount{"crystal": level.Count(1)}},
	}
}

func TestNew_ClassifiesLevel(t *testing.T) {
	w, err := New(sampleLevel(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Start.Pos != (Vec3i{}) || w.Start.Facing != 1 {
		t.Fatalf("start: %+v", w.Start)
	}
	if !w.WalkableAt(Vec3i{X: 1, Y: -1}) {
		t.Fatalf("expected walkable ground at 1,-1,0")
	}
	// The obstacle without a model key replaced the lava block.
	if m, _ := w.ModelAt(Vec3i{X: 2, Y: -1}); m != "wall.brick01" {
		t.Fatalf("obstacle model: got %q", m)
	}
	if w.DeadlyAt(Vec3i{X: 2, Y: -1}) {
		t.Fatalf("overwritten lava still deadly")
	}
	if c, ok := w.CollectibleAt(Vec3i{X: 1}); !ok || c.ID != "c1" {
		t.Fatalf("collectible at 1,0,0: %+v %v", c, ok)
	}
	if s, ok := w.SwitchByID("s1"); !ok || !s.InitialOn {
		t.Fatalf("switch s1: %+v %v", s, ok)
	}
	if s, _ := w.SwitchByID("s2"); s.InitialOn {
		t.Fatalf("switch s2 should default to off")
	}
	if p, ok := w.PortalAt(Vec3i{X: 3}); !ok || p.Target != (Vec3i{X: 5}) {
		t.Fatalf("portal pa: %+v %v", p, ok)
	}
	if _, ok := w.PortalAt(Vec3i{X: 7}); ok {
		t.Fatalf("unresolved portal kept")
	}
	if w.RequiredSubGoals() != 1 || w.Goal.Type != GoalReachTarget {
		t.Fatalf("goal: %+v", w.Goal)
	}
}

func TestToolbox_Whitelist(t *testing.T) {
	w, err := New(sampleLevel(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []action.Action{action.MoveForward, action.TurnLeft, action.TurnRight}
	if diff := cmp.Diff(want, w.Toolbox.Actions()); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
	if !w.Toolbox.CanDefineProcedures() || w.Toolbox.CanRepeat() {
		t.Fatalf("blocks: %v", w.Toolbox.Blocks())
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_EmptyToolbox(t *testing.T) {
	lv := sampleLevel()
	lv.BlocklyConfig.Toolbox = level.ToolboxItem{}
	w, err := New(lv, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = w.Validate()
	if !errors.Is(err, ErrNoActions) || !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrNoActions wrapping ErrMalformed, got %v", err)
	}
}

func TestNew_MissingFinish(t *testing.T) {
	lv := sampleLevel()
	lv.GameConfig.Finish = nil
	if _, err := New(lv, Options{}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	lv = sampleLevel()
	lv.GameConfig.Players = nil
	if _, err := New(lv, Options{}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for no players, got %v", err)
	}
}

func TestNew_UnresolvedAll(t *testing.T) {
	lv := sampleLevel()
	lv.Solution.ItemGoals["crystal"] = level.AllOf()
	if _, err := New(lv, Options{}); !errors.Is(err, ErrUnresolvedGoal) {
		t.Fatalf("expected ErrUnresolvedGoal, got %v", err)
	}
	w, err := New(lv, Options{ItemGoals: map[string]int{"crystal": 1}})
	if err != nil {
		t.Fatalf("New with resolved goals: %v", err)
	}
	if w.Goal.Required("crystal") != 1 {
		t.Fatalf("goal: %+v", w.Goal)
	}
}

func TestOverride(t *testing.T) {
	w, err := New(sampleLevel(), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dst := Vec3i{X: 9}
	o := Override{Finish: &dst, ReachOnly: true}
	if w.FinishFor(o) != dst || w.FinishFor(Override{}) != w.Finish {
		t.Fatalf("finish override")
	}
	if len(w.GoalFor(o).ItemGoals) != 0 || w.GoalFor(Override{}).Required("crystal") != 1 {
		t.Fatalf("goal override")
	}
}

func TestFacing(t *testing.T) {
	if Facing(0).Left() != 3 || Facing(3).Right() != 0 {
		t.Fatalf("turn wrap")
	}
	if Facing(1).Forward() != (Vec3i{X: 1}) || Facing(0).Forward() != (Vec3i{Z: -1}) {
		t.Fatalf("forward vectors")
	}
}
