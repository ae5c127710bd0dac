package pathfind

import (
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/state"
	"mazeforge.ai/internal/sim/world"
)

const (
	moveCost       = 1.0
	stationaryCost = 1.1
)

// Step applies one action. ok is false when the action is not valid from st;
// st itself is never mutated.
func Step(w *world.GridWorld, st state.State, act action.Action) (next state.State, cost float64, ok bool) {
	switch act {
	case action.MoveForward:
		dst := st.Pos.Add(st.Facing.Forward())
		if !w.WalkableAt(dst.Up(-1)) || w.Occupied(dst) {
			return st, 0, false
		}
		next = st.Clone()
		next.Pos = dst

	case action.Jump:
		ahead := st.Pos.Add(st.Facing.Forward())
		switch {
		case w.JumpableAt(ahead) && !w.Occupied(ahead.Up(1)):
			next = st.Clone()
			next.Pos = ahead.Up(1)
		case w.WalkableAt(ahead.Up(-2)) && !w.Occupied(ahead.Up(-1)):
			next = st.Clone()
			next.Pos = ahead.Up(-1)
		default:
			return st, 0, false
		}

	case action.TurnLeft, action.TurnRight:
		f := st.Facing.Left()
		if act == action.TurnRight {
			f = st.Facing.Right()
		}
		if f == st.Facing.Norm() {
			return st, 0, false
		}
		next = st.Clone()
		next.Facing = f

	case action.Collect:
		c, found := w.CollectibleAt(st.Pos)
		if !found || st.Has(c.ID) {
			return st, 0, false
		}
		next = st.Clone()
		next.Collected[c.ID] = struct{}{}

	case action.ToggleSwitch:
		sw, found := w.SwitchAt(st.Pos)
		if !found {
			return st, 0, false
		}
		next = st.Clone()
		next.Switches[sw.ID] = !st.On(sw.ID)

	default:
		return st, 0, false
	}

	if next.Pos == st.Pos {
		return next, stationaryCost, true
	}
	return next, moveCost, true
}

// Heuristic estimates remaining cost toward finish. S is the set of unmet
// sub-goals: uncollected collectibles, plus switches still off when the goal
// requires switches. It is not admissible when sub-goals cluster.
func Heuristic(w *world.GridWorld, st state.State, g world.Goal, finish world.Vec3i, reachOnly bool) int {
	var subs []world.Vec3i
	if !reachOnly {
		for _, c := range w.Collectibles() {
			if !st.Has(c.ID) {
				subs = append(subs, c.Pos)
			}
		}
		if g.RequiresSwitches() {
			for _, sw := range w.Switches() {
				if !st.On(sw.ID) {
					subs = append(subs, sw.Pos)
				}
			}
		}
	}
	if len(subs) == 0 {
		return world.Manhattan(st.Pos, finish)
	}
	farFromHere, farFromFinish := 0, 0
	for _, p := range subs {
		if d := world.Manhattan(st.Pos, p); d > farFromHere {
			farFromHere = d
		}
		if d := world.Manhattan(p, finish); d > farFromFinish {
			farFromFinish = d
		}
	}
	return farFromHere + farFromFinish + 5*len(subs)
}
