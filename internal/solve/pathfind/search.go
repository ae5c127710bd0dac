// Package pathfind is the single-goal best-first search over search states.
package pathfind

import (
	"container/heap"
	"context"
	"errors"

	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/state"
	"mazeforge.ai/internal/sim/world"
)

var (
	// ErrNoPath means the reachable state space holds no goal state. It is an
	// expected outcome, not a failure of the search.
	ErrNoPath = errors.New("no path")
	ErrBudget = errors.New("expansion budget exceeded")
)

// ctxCheckEvery bounds how many expansions run between cancellation checks.
const ctxCheckEvery = 256

type Options struct {
	// Start replaces the world's initial state.
	Start    *state.State
	Override world.Override
	// MaxExpansions stops the search with ErrBudget; <= 0 means unlimited.
	MaxExpansions int
	// Actions restricts the vocabulary further; nil uses the toolbox.
	Actions []action.Action
}

type Path struct {
	Actions  []action.Action
	Cost     float64
	Expanded int
	Final    state.State
}

type node struct {
	st     state.State
	parent *node
	act    action.Action
	g      float64
	f      float64
	seq    int
}

// openSet orders by f, then by insertion sequence.
type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)   { *o = append(*o, x.(*node)) }
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	return n
}

// Search runs weighted best-first search from the start state to the first
// popped state that is at finish with every item goal met.
func Search(ctx context.Context, w *world.GridWorld, opts Options) (Path, error) {
	actions := opts.Actions
	if actions == nil {
		actions = w.Toolbox.Actions()
	}
	if len(actions) == 0 {
		return Path{}, ErrNoPath
	}

	var start state.State
	if opts.Start != nil {
		start = opts.Start.Clone()
	} else {
		start = state.Initial(w)
	}
	if opts.Override.Start != nil {
		start.Pos = *opts.Override.Start
	}
	finish := w.FinishFor(opts.Override)
	goal := w.GoalFor(opts.Override)
	reachOnly := opts.Override.ReachOnly

	h := func(st state.State) float64 {
		return float64(Heuristic(w, st, goal, finish, reachOnly))
	}
	done := func(st state.State) bool {
		return st.Pos == finish && (reachOnly || st.GoalsMet(w, goal))
	}

	open := &openSet{}
	seq := 0
	heap.Push(open, &node{st: start, f: h(start), seq: seq})
	visited := map[string]struct{}{}
	expanded := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		key := cur.st.Key()
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		if done(cur.st) {
			return Path{Actions: reconstruct(cur), Cost: cur.g, Expanded: expanded, Final: cur.st}, nil
		}

		expanded++
		if opts.MaxExpansions > 0 && expanded > opts.MaxExpansions {
			return Path{Expanded: expanded}, ErrBudget
		}
		if expanded%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Path{Expanded: expanded}, err
			}
		}

		for _, act := range actions {
			next, cost, ok := Step(w, cur.st, act)
			if !ok {
				continue
			}
			if _, seen := visited[next.Key()]; seen {
				continue
			}
			seq++
			g := cur.g + cost
			heap.Push(open, &node{st: next, parent: cur, act: act, g: g, f: g + h(next), seq: seq})
		}
	}
	return Path{Expanded: expanded}, ErrNoPath
}

func reconstruct(n *node) []action.Action {
	var out []action.Action
	for ; n.parent != nil; n = n.parent {
		out = append(out, n.act)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Movement is the subset of actions that can change position or facing.
func Movement(all []action.Action) []action.Action {
	var out []action.Action
	for _, a := range all {
		switch a {
		case action.MoveForward, action.TurnLeft, action.TurnRight, action.Jump:
			out = append(out, a)
		}
	}
	return out
}
