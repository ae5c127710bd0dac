package world

import (
	"errors"
	"fmt"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/sim/terrain"
)

var (
	ErrMalformed = level.ErrMalformed
	// ErrNoActions is reported when the toolbox unlocks no primitive action.
	ErrNoActions = fmt.Errorf("%w: toolbox permits no actions", level.ErrMalformed)
	// ErrUnresolvedGoal is reported when an item goal is still "all".
	ErrUnresolvedGoal = errors.New("item goal not resolved to a count")
)

// GridWorld is the classified, read-only view of one level.
type GridWorld struct {
	ID string

	blocks  map[Vec3i]string
	terrain terrain.Table

	Start  Pose
	Finish Vec3i
	Goal   Goal

	Toolbox  Toolbox
	Solution level.SolutionConfig

	collectibles      []Collectible
	collectiblesByID  map[string]Collectible
	collectiblesByPos map[Vec3i]Collectible

	switches      []Switch
	switchesByID  map[string]Switch
	switchesByPos map[Vec3i]Switch

	portals map[Vec3i]Portal
}

// Options configure world construction.
type Options struct {
	Terrain terrain.Table
	// ItemGoals replaces the level's item goals; required when the level
	// uses "all".
	ItemGoals map[string]int
}

func pos(p level.Pos) Vec3i { return Vec3i{X: p.X, Y: p.Y, Z: p.Z} }

// New builds the world model. Missing start or finish is ErrMalformed.
func New(lv *level.Level, opts Options) (*GridWorld, error) {
	if lv == nil {
		return nil, fmt.Errorf("%w: nil level", ErrMalformed)
	}
	gc := lv.GameConfig
	if len(gc.Players) == 0 || gc.Players[0].Start == nil {
		return nil, fmt.Errorf("%w: missing player start", ErrMalformed)
	}
	if gc.Finish == nil {
		return nil, fmt.Errorf("%w: missing finish", ErrMalformed)
	}
	st := gc.Players[0].Start
	if st.Direction < 0 || st.Direction > 3 {
		return nil, fmt.Errorf("%w: start direction %d out of range", ErrMalformed, st.Direction)
	}

	w := &GridWorld{
		ID:                lv.ID,
		blocks:            make(map[Vec3i]string, len(gc.Blocks)+len(gc.Obstacles)),
		terrain:           opts.Terrain,
		Start:             Pose{Pos: Vec3i{X: st.X, Y: st.Y, Z: st.Z}, Facing: Facing(st.Direction)},
		Finish:            pos(*gc.Finish),
		Toolbox:           ToolboxFrom(lv.BlocklyConfig.Toolbox),
		Solution:          lv.Solution,
		collectiblesByID:  map[string]Collectible{},
		collectiblesByPos: map[Vec3i]Collectible{},
		switchesByID:      map[string]Switch{},
		switchesByPos:     map[Vec3i]Switch{},
		portals:           map[Vec3i]Portal{},
	}
	if len(w.terrain.Models()) == 0 {
		w.terrain = terrain.Default()
	}

	for _, b := range gc.Blocks {
		w.blocks[pos(b.Position)] = b.ModelKey
	}
	// Obstacles overwrite whatever the block list placed there.
	for _, o := range gc.Obstacles {
		model := o.ModelKey
		if model == "" {
			model = terrain.DefaultModel
		}
		w.blocks[pos(o.Position)] = model
	}

	for _, c := range gc.Collectibles {
		if _, dup := w.collectiblesByID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate collectible id %q", ErrMalformed, c.ID)
		}
		col := Collectible{ID: c.ID, Type: c.Type, Pos: pos(c.Position)}
		w.collectibles = append(w.collectibles, col)
		w.collectiblesByID[c.ID] = col
		w.collectiblesByPos[col.Pos] = col
	}

	byID := make(map[string]level.Interactible, len(gc.Interactibles))
	for _, it := range gc.Interactibles {
		byID[it.ID] = it
	}
	for _, it := range gc.Interactibles {
		p := pos(it.Position)
		switch it.Type {
		case "switch":
			if _, dup := w.switchesByID[it.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate switch id %q", ErrMalformed, it.ID)
			}
			sw := Switch{ID: it.ID, Pos: p, InitialOn: it.InitialState == "on"}
			w.switches = append(w.switches, sw)
			w.switchesByID[sw.ID] = sw
			w.switchesByPos[p] = sw
		case "portal":
			target, ok := byID[it.TargetID]
			if !ok {
				continue
			}
			w.portals[p] = Portal{ID: it.ID, Pos: p, Target: pos(target.Position)}
		}
	}

	goals := opts.ItemGoals
	if goals == nil {
		goals = make(map[string]int, len(lv.Solution.ItemGoals))
		for k, g := range lv.Solution.ItemGoals {
			if g.All {
				return nil, fmt.Errorf("item goal %q: %w", k, ErrUnresolvedGoal)
			}
			goals[k] = g.N
		}
	}
	typ := lv.Solution.Type
	if typ == "" {
		typ = GoalReachTarget
	}
	w.Goal = Goal{Type: typ, ItemGoals: copyGoals(goals)}
	return w, nil
}

func copyGoals(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Validate reports conditions that make the level unsolvable by
// construction rather than by search.
func (w *GridWorld) Validate() error {
	if len(w.Toolbox.Actions()) == 0 {
		return ErrNoActions
	}
	return nil
}

func (w *GridWorld) Terrain() terrain.Table { return w.terrain }

// ModelAt returns the terrain model occupying p.
func (w *GridWorld) ModelAt(p Vec3i) (string, bool) {
	m, ok := w.blocks[p]
	return m, ok
}

func (w *GridWorld) Occupied(p Vec3i) bool {
	_, ok := w.blocks[p]
	return ok
}

// WalkableAt reports whether p holds walkable ground.
func (w *GridWorld) WalkableAt(p Vec3i) bool {
	m, ok := w.blocks[p]
	return ok && w.terrain.IsWalkable(m)
}

// JumpableAt reports whether p holds a block one can jump onto.
func (w *GridWorld) JumpableAt(p Vec3i) bool {
	m, ok := w.blocks[p]
	return ok && w.terrain.IsJumpable(m)
}

func (w *GridWorld) DeadlyAt(p Vec3i) bool {
	m, ok := w.blocks[p]
	return ok && w.terrain.IsDeadly(m)
}

// Collectibles returns collectibles in level order.
func (w *GridWorld) Collectibles() []Collectible { return w.collectibles }

func (w *GridWorld) CollectibleAt(p Vec3i) (Collectible, bool) {
	c, ok := w.collectiblesByPos[p]
	return c, ok
}

func (w *GridWorld) CollectibleByID(id string) (Collectible, bool) {
	c, ok := w.collectiblesByID[id]
	return c, ok
}

// CountOfType counts collectibles of the given type.
func (w *GridWorld) CountOfType(typ string) int {
	n := 0
	for _, c := range w.collectibles {
		if c.Type == typ {
			n++
		}
	}
	return n
}

// Switches returns switches in level order.
func (w *GridWorld) Switches() []Switch { return w.switches }

func (w *GridWorld) SwitchAt(p Vec3i) (Switch, bool) {
	s, ok := w.switchesByPos[p]
	return s, ok
}

func (w *GridWorld) SwitchByID(id string) (Switch, bool) {
	s, ok := w.switchesByID[id]
	return s, ok
}

func (w *GridWorld) PortalAt(p Vec3i) (Portal, bool) {
	pt, ok := w.portals[p]
	return pt, ok
}

// StartFor applies an override to the start position.
func (w *GridWorld) StartFor(o Override) Vec3i {
	if o.Start != nil {
		return *o.Start
	}
	return w.Start.Pos
}

// FinishFor applies an override to the finish position.
func (w *GridWorld) FinishFor(o Override) Vec3i {
	if o.Finish != nil {
		return *o.Finish
	}
	return w.Finish
}

// GoalFor applies an override to the goal.
func (w *GridWorld) GoalFor(o Override) Goal {
	if o.ReachOnly {
		return Goal{Type: GoalReachTarget, ItemGoals: map[string]int{}}
	}
	return w.Goal
}

// RequiredSubGoals sums the required counts of every item goal.
func (w *GridWorld) RequiredSubGoals() int {
	n := 0
	for _, k := range w.Goal.Kinds() {
		if k == GoalKindObstacle {
			continue
		}
		n += w.Goal.ItemGoals[k]
	}
	return n
}
