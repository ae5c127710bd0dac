// Package replay runs primitive traces and structured programs against a
// grid world.
package replay

import (
	"errors"
	"fmt"

	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/state"
	"mazeforge.ai/internal/sim/world"
	"mazeforge.ai/internal/solve/pathfind"
)

const (
	maxCallDepth = 64

	// MaxActions bounds expansion of runaway loop counts.
	MaxActions = 1 << 20
)

var (
	ErrInvalidStep    = errors.New("invalid step")
	ErrUnknownProc    = errors.New("unknown procedure")
	ErrCallDepth      = errors.New("call depth exceeded")
	ErrTooManyActions = errors.New("expansion exceeds action limit")
	ErrGoalNotMet     = errors.New("level goal not met")
)

type expander struct {
	p   *program.Program
	env Env
	ev  *evaluator
	out []action.Action
}

// Expand flattens p into primitive actions. Variables live in env, which is
// shared by main and every procedure; nil starts empty.
func Expand(p *program.Program, env Env) ([]action.Action, error) {
	if env == nil {
		env = Env{}
	}
	x := &expander{p: p, env: env, ev: newEvaluator()}
	if err := x.blocks(p.Main, 0); err != nil {
		return nil, err
	}
	return x.out, nil
}

func (x *expander) loop(times int, body []program.Block, depth int) error {
	for i := 0; i < times; i++ {
		if err := x.blocks(body, depth); err != nil {
			return err
		}
	}
	return nil
}

func (x *expander) blocks(bs []program.Block, depth int) error {
	for _, b := range bs {
		if a, ok := program.Primitive(b); ok {
			if len(x.out) >= MaxActions {
				return ErrTooManyActions
			}
			x.out = append(x.out, a)
			continue
		}
		switch v := b.(type) {
		case program.Repeat:
			if err := x.loop(v.Times, v.Body, depth); err != nil {
				return err
			}
		case program.RepeatVar:
			n, ok := x.env[v.Var]
			if !ok {
				return fmt.Errorf("repeat with variable: %w: %s", ErrUndefinedVar, v.Var)
			}
			if err := x.loop(n, v.Body, depth); err != nil {
				return err
			}
		case program.RepeatExpr:
			n, err := x.ev.eval(v.Expr, x.env)
			if err != nil {
				return fmt.Errorf("repeat with expression: %w", err)
			}
			if err := x.loop(n, v.Body, depth); err != nil {
				return err
			}
		case program.SetVar:
			n, err := x.ev.eval(v.Value, x.env)
			if err != nil {
				return fmt.Errorf("set %s: %w", v.Var, err)
			}
			x.env[v.Var] = n
		case program.Call:
			body, ok := x.p.Procedure(v.Name)
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownProc, v.Name)
			}
			if depth >= maxCallDepth {
				return fmt.Errorf("%w: %s", ErrCallDepth, v.Name)
			}
			if err := x.blocks(body, depth+1); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %T", program.ErrBadBlock, b)
		}
	}
	return nil
}

// Run replays actions from the world's initial state.
func Run(w *world.GridWorld, actions []action.Action) (state.State, error) {
	st := state.Initial(w)
	for i, a := range actions {
		next, _, ok := pathfind.Step(w, st, a)
		if !ok {
			return st, fmt.Errorf("step %d (%s) from %s: %w", i, a, st.PosKey(), ErrInvalidStep)
		}
		st = next
	}
	return st, nil
}

// Verify replays actions and checks that they end on the finish with every
// item goal met.
func Verify(w *world.GridWorld, actions []action.Action) error {
	st, err := Run(w, actions)
	if err != nil {
		return err
	}
	if st.Pos != w.Finish {
		return fmt.Errorf("%w: ended at %s, finish is %s", ErrGoalNotMet, st.PosKey(), w.Finish)
	}
	if !st.GoalsMet(w, w.Goal) {
		return fmt.Errorf("%w: collected=%s switches=%s", ErrGoalNotMet, st.CollectedSignature(), st.SwitchSignature())
	}
	return nil
}

// RunProgram expands p and replays it, returning the final state and the
// expanded trace.
func RunProgram(w *world.GridWorld, p *program.Program) (state.State, []action.Action, error) {
	actions, err := Expand(p, nil)
	if err != nil {
		return state.State{}, nil, fmt.Errorf("expand: %w", err)
	}
	st, err := Run(w, actions)
	return st, actions, err
}
