// Package state holds the search-state snapshot and its canonical key.
package state

import (
	"fmt"
	"sort"
	"strings"

	"mazeforge.ai/internal/sim/world"
)

// State is immutable by convention: transitions Clone before mutating.
type State struct {
	Pos       world.Vec3i
	Facing    world.Facing
	Collected map[string]struct{}
	// Switches maps switch id to on.
	Switches map[string]bool
}

// Initial returns the start pose with an empty inventory and switches at
// their initial state.
func Initial(w *world.GridWorld) State {
	st := State{
		Pos:       w.Start.Pos,
		Facing:    w.Start.Facing,
		Collected: map[string]struct{}{},
		Switches:  make(map[string]bool, len(w.Switches())),
	}
	for _, sw := range w.Switches() {
		st.Switches[sw.ID] = sw.InitialOn
	}
	return st
}

func (s State) Clone() State {
	out := State{
		Pos:       s.Pos,
		Facing:    s.Facing,
		Collected: make(map[string]struct{}, len(s.Collected)),
		Switches:  make(map[string]bool, len(s.Switches)),
	}
	for id := range s.Collected {
		out.Collected[id] = struct{}{}
	}
	for id, on := range s.Switches {
		out.Switches[id] = on
	}
	return out
}

func (s State) Has(id string) bool {
	_, ok := s.Collected[id]
	return ok
}

// On reports whether the switch is on. Unknown switches are off.
func (s State) On(id string) bool { return s.Switches[id] }

// OnCount counts switches that are on.
func (s State) OnCount() int {
	n := 0
	for _, on := range s.Switches {
		if on {
			n++
		}
	}
	return n
}

// PosKey is the position-and-facing part of the key.
func (s State) PosKey() string {
	return fmt.Sprintf("%d,%d,%d,%d", s.Pos.X, s.Pos.Y, s.Pos.Z, s.Facing.Norm())
}

// CollectedSignature lists collected ids in sorted order.
func (s State) CollectedSignature() string {
	ids := make([]string, 0, len(s.Collected))
	for id := range s.Collected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// SwitchSignature lists id:on|off pairs sorted by id.
func (s State) SwitchSignature() string {
	ids := make([]string, 0, len(s.Switches))
	for id := range s.Switches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id)
		if s.Switches[id] {
			b.WriteString(":on")
		} else {
			b.WriteString(":off")
		}
	}
	return b.String()
}

// Key is the canonical identity of a state. Two states are equal iff their
// keys are equal.
func (s State) Key() string {
	return s.PosKey() + "|i:" + s.CollectedSignature() + "|s:" + s.SwitchSignature()
}

// CountCollected counts collected items of the given type.
func (s State) CountCollected(w *world.GridWorld, typ string) int {
	n := 0
	for id := range s.Collected {
		if c, ok := w.CollectibleByID(id); ok && c.Type == typ {
			n++
		}
	}
	return n
}

// GoalsMet evaluates every item goal against the state.
func (s State) GoalsMet(w *world.GridWorld, g world.Goal) bool {
	for kind, need := range g.ItemGoals {
		switch kind {
		case world.GoalKindObstacle:
			continue
		case world.GoalKindSwitch:
			if s.OnCount() < need {
				return false
			}
		default:
			if s.CountCollected(w, kind) < need {
				return false
			}
		}
	}
	return true
}
