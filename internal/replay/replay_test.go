package replay

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/worldtest"
	"mazeforge.ai/internal/solve/pathfind"
	"mazeforge.ai/internal/synth"
)

func TestExpand_Loops(t *testing.T) {
	p := &program.Program{
		Procedures: []program.Procedure{{Name: "hop", Body: []program.Block{program.Jump{}, program.Move{}}}},
		Main: []program.Block{
			program.SetVar{Var: "n", Value: program.Num{V: 2}},
			program.RepeatVar{Var: "n", Body: []program.Block{program.Call{Name: "hop"}}},
			program.SetVar{Var: "a", Value: program.Num{V: 7}},
			program.SetVar{Var: "b", Value: program.Num{V: 2}},
			program.RepeatExpr{
				Expr: program.Arith{Op: program.OpDivide, A: program.VarRef{Name: "a"}, B: program.VarRef{Name: "b"}},
				Body: []program.Block{program.Collect{}},
			},
			program.RepeatExpr{
				Expr: program.Arith{Op: program.OpSubtract, A: program.VarRef{Name: "b"}, B: program.VarRef{Name: "a"}},
				Body: []program.Block{program.Toggle{}},
			},
			program.Repeat{Times: 2, Body: []program.Block{program.Turn{Dir: action.TurnRight}}},
		},
	}
	got, err := Expand(p, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []action.Action{
		action.Jump, action.MoveForward, action.Jump, action.MoveForward,
		action.Collect, action.Collect, action.Collect,
		action.TurnRight, action.TurnRight,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("actions (-want +got):\n%s", diff)
	}
}

func TestExpand_FibonacciUpdatesVariables(t *testing.T) {
	a, b, tmp := program.VarRef{Name: "a"}, program.VarRef{Name: "b"}, program.VarRef{Name: "temp"}
	p := &program.Program{Main: []program.Block{
		program.SetVar{Var: "a", Value: program.Num{V: 0}},
		program.SetVar{Var: "b", Value: program.Num{V: 1}},
		program.Repeat{Times: 6, Body: []program.Block{
			program.SetVar{Var: "temp", Value: a},
			program.SetVar{Var: "a", Value: b},
			program.SetVar{Var: "b", Value: program.Arith{Op: program.OpAdd, A: tmp, B: b}},
		}},
	}}
	env := Env{}
	if _, err := Expand(p, env); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if env["a"] != 8 || env["b"] != 13 {
		t.Fatalf("env: %v", env)
	}
}

func TestExpand_KeywordVariableNames(t *testing.T) {
	p := &program.Program{Main: []program.Block{
		program.SetVar{Var: "not", Value: program.Num{V: 2}},
		program.SetVar{Var: "nil", Value: program.Num{V: 1}},
		program.RepeatExpr{
			Expr: program.Arith{Op: program.OpAdd, A: program.VarRef{Name: "not"}, B: program.VarRef{Name: "nil"}},
			Body: []program.Block{program.Move{}},
		},
		program.RepeatExpr{
			Expr: program.Arith{Op: program.OpSubtract, A: program.VarRef{Name: "not"}, B: program.Num{V: 1}},
			Body: []program.Block{program.Jump{}},
		},
	}}
	got, err := Expand(p, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []action.Action{action.MoveForward, action.MoveForward, action.MoveForward, action.Jump}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("expanded (-want +got):\n%s", diff)
	}
}

func TestExpand_Errors(t *testing.T) {
	cases := []struct {
		name string
		p    *program.Program
		want error
	}{
		{"undefined", &program.Program{Main: []program.Block{
			program.RepeatExpr{Expr: program.Arith{Op: program.OpAdd, A: program.VarRef{Name: "x"}, B: program.Num{V: 1}}},
		}}, ErrUndefinedVar},
		{"undefined counter", &program.Program{Main: []program.Block{program.RepeatVar{Var: "steps"}}}, ErrUndefinedVar},
		{"division by zero", &program.Program{Main: []program.Block{
			program.SetVar{Var: "z", Value: program.Num{V: 0}},
			program.SetVar{Var: "q", Value: program.Arith{Op: program.OpDivide, A: program.Num{V: 4}, B: program.VarRef{Name: "z"}}},
		}}, ErrDivisionByZero},
		{"unknown call", &program.Program{Main: []program.Block{program.Call{Name: "nope"}}}, ErrUnknownProc},
		{"recursion", &program.Program{
			Procedures: []program.Procedure{{Name: "loop", Body: []program.Block{program.Call{Name: "loop"}}}},
			Main:       []program.Block{program.Call{Name: "loop"}},
		}, ErrCallDepth},
	}
	for _, c := range cases {
		if _, err := Expand(c.p, nil); !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}
}

func TestRun_InvalidStep(t *testing.T) {
	w := worldtest.Corridor(2).World(t)
	_, err := Run(w, []action.Action{action.MoveForward, action.MoveForward, action.MoveForward})
	if !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	w := worldtest.Corridor(2).Collectible("c1", "crystal", 1, 0, 0).Goal("crystal", 1).World(t)
	walk := []action.Action{action.MoveForward, action.MoveForward}
	if err := Verify(w, walk); !errors.Is(err, ErrGoalNotMet) {
		t.Fatalf("expected ErrGoalNotMet without the crystal, got %v", err)
	}
	if err := Verify(w, walk[:1]); !errors.Is(err, ErrGoalNotMet) {
		t.Fatalf("expected ErrGoalNotMet short of the finish, got %v", err)
	}
	if err := Verify(w, []action.Action{action.MoveForward, action.Collect, action.MoveForward}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

// chunky builds sequences with plenty of immediate and scattered repeats.
func chunky(rng *rand.Rand) []action.Action {
	alphabet := []action.Action{action.MoveForward, action.TurnLeft, action.TurnRight, action.Jump, action.Collect}
	var out []action.Action
	for parts := rng.Intn(5); parts >= 0; parts-- {
		chunk := make([]action.Action, 1+rng.Intn(4))
		for i := range chunk {
			chunk[i] = alphabet[rng.Intn(len(alphabet))]
		}
		for r := 1 + rng.Intn(4); r > 0; r-- {
			out = append(out, chunk...)
		}
	}
	return out
}

func TestRoundTrip_ExpandRecoversTrace(t *testing.T) {
	logics := []func(s *level.SolutionConfig){
		func(s *level.SolutionConfig) {},
		func(s *level.SolutionConfig) { s.ForceFunction = true },
		func(s *level.SolutionConfig) { s.LogicType = synth.LogicVariableLoop },
		func(s *level.SolutionConfig) {
			s.LogicType = synth.LogicVariableLoop
			s.LoopStructure = synth.LoopNested
		},
		func(s *level.SolutionConfig) { s.LogicType = synth.LogicMathExpressionLoop },
	}
	rng := rand.New(rand.NewSource(3))
	for li, edit := range logics {
		w := worldtest.Corridor(1).Solution(edit).World(t)
		for trial := 0; trial < 40; trial++ {
			as := chunky(rng)
			res, err := synth.Synthesize(as, w, synth.Config{}, rand.New(rand.NewSource(int64(trial))))
			if err != nil {
				t.Fatalf("logic %d trial %d: %v", li, trial, err)
			}
			got, err := Expand(res.Program, nil)
			if err != nil {
				t.Fatalf("logic %d trial %d: Expand: %v\n%s", li, trial, err, program.Format(res.Program))
			}
			if len(as) == 0 && len(got) == 0 {
				continue
			}
			if diff := cmp.Diff(as, got); diff != "" {
				t.Fatalf("logic %d trial %d (-trace +expanded):\n%s\n%s", li, trial, diff, program.Format(res.Program))
			}
		}
	}
}

func TestRoundTrip_FinalStateMatches(t *testing.T) {
	w := worldtest.New().Floor(0, 5, 0, 3).Start(0, 0, 0, 1).Finish(5, 0, 3).
		Collectible("c1", "crystal", 3, 0, 0).Collectible("c2", "crystal", 5, 0, 2).
		Goal("crystal", 2).AllBlocks().World(t)
	path, err := pathfind.Search(context.Background(), w, pathfind.Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want, err := Run(w, path.Actions)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res, err := synth.Synthesize(path.Actions, w, synth.Config{}, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	got, _, err := RunProgram(w, res.Program)
	if err != nil {
		t.Fatalf("RunProgram: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("final state (-trace +program):\n%s", diff)
	}
	if !got.GoalsMet(w, w.Goal) || got.Pos != w.Finish {
		t.Fatalf("program does not solve the level: %+v", got)
	}
}

func TestRoundTrip_BuggyProgramDiverges(t *testing.T) {
	w := worldtest.Corridor(6).Solution(func(s *level.SolutionConfig) {
		s.LogicType = synth.LogicMathExpressionLoop
		s.BugType = synth.BugIncorrectMathExpression
	}).World(t)
	as := []action.Action{action.MoveForward, action.MoveForward, action.MoveForward,
		action.MoveForward, action.MoveForward, action.MoveForward}
	res, err := synth.Synthesize(as, w, synth.Config{}, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !res.Buggy {
		t.Fatalf("expected a buggy program")
	}
	got, err := Expand(res.Program, nil)
	if err == nil && len(got) == len(as) {
		t.Fatalf("buggy program reproduced the trace:\n%s", program.Format(res.Program))
	}
}
