// Package worldtest builds small maze levels for tests in other packages.
package worldtest

import (
	"testing"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/terrain"
	"mazeforge.ai/internal/sim/world"
)

// Builder assembles a level through exported types only.
type Builder struct {
	lv level.Level
}

func New() *Builder {
	return &Builder{lv: level.Level{
		ID: "test",
		GameConfig: level.GameConfig{
			Players: []level.Player{{ID: "p1", Start: &level.Start{Direction: 1}}},
			Finish:  &level.Pos{},
		},
		Solution: level.SolutionConfig{ItemGoals: map[string]level.GoalCount{}},
	}}
}

func p(x, y, z int) level.Pos { return level.Pos{X: x, Y: y, Z: z} }

// Floor lays walkable ground at y=-1 over [x0,x1] x [z0,z1].
func (b *Builder) Floor(x0, x1, z0, z1 int) *Builder {
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			b.Block(x, -1, z, "ground.normal")
		}
	}
	return b
}

func (b *Builder) Block(x, y, z int, model string) *Builder {
	b.lv.GameConfig.Blocks = append(b.lv.GameConfig.Blocks, level.Block{Position: p(x, y, z), ModelKey: model})
	return b
}

func (b *Builder) Obstacle(x, y, z int, model string) *Builder {
	b.lv.GameConfig.Obstacles = append(b.lv.GameConfig.Obstacles, level.Obstacle{Position: p(x, y, z), ModelKey: model})
	return b
}

func (b *Builder) Start(x, y, z, facing int) *Builder {
	b.lv.GameConfig.Players[0].Start = &level.Start{X: x, Y: y, Z: z, Direction: facing}
	return b
}

func (b *Builder) Finish(x, y, z int) *Builder {
	f := p(x, y, z)
	b.lv.GameConfig.Finish = &f
	return b
}

func (b *Builder) Collectible(id, typ string, x, y, z int) *Builder {
	b.lv.GameConfig.Collectibles = append(b.lv.GameConfig.Collectibles, level.Collectible{ID: id, Type: typ, Position: p(x, y, z)})
	return b
}

func (b *Builder) Switch(id string, x, y, z int, on bool) *Builder {
	st := "off"
	if on {
		st = "on"
	}
	b.lv.GameConfig.Interactibles = append(b.lv.GameConfig.Interactibles,
		level.Interactible{ID: id, Type: "switch", Position: p(x, y, z), InitialState: st})
	return b
}

func (b *Builder) Goal(kind string, n int) *Builder {
	b.lv.Solution.ItemGoals[kind] = level.Count(n)
	return b
}

func (b *Builder) GoalAll(kind string) *Builder {
	b.lv.Solution.ItemGoals[kind] = level.AllOf()
	return b
}

// Toolbox replaces the toolbox with one category holding the given blocks.
// action.ProcedureMarker adds a procedure category.
func (b *Builder) Toolbox(blocks ...string) *Builder {
	cat := level.ToolboxItem{Kind: "category", Name: "Blocks"}
	root := level.ToolboxItem{Kind: "categoryToolbox"}
	for _, id := range blocks {
		if id == action.ProcedureMarker {
			root.Contents = append(root.Contents, level.ToolboxItem{Kind: "category", Name: "Functions", Custom: id})
			continue
		}
		cat.Contents = append(cat.Contents, level.ToolboxItem{Kind: "block", Type: id})
	}
	root.Contents = append([]level.ToolboxItem{cat}, root.Contents...)
	b.lv.BlocklyConfig.Toolbox = root
	return b
}

// AllBlocks permits every primitive, fixed and variable loops, and procedures.
func (b *Builder) AllBlocks() *Builder {
	return b.Toolbox(action.BlockMoveForward, action.BlockTurn, action.BlockJump, action.BlockCollect,
		action.BlockToggleSwitch, action.BlockRepeat, action.BlockRepeatVariable, action.ProcedureMarker)
}

// Solution edits the solution config in place.
func (b *Builder) Solution(fn func(s *level.SolutionConfig)) *Builder {
	fn(&b.lv.Solution)
	return b
}

func (b *Builder) Level() *level.Level {
	lv := b.lv
	return &lv
}

// World builds the grid world with the default terrain table and fails the
// test on error. Goals left as "all" are resolved by counting.
func (b *Builder) World(t testing.TB) *world.GridWorld {
	t.Helper()
	goals := map[string]int{}
	for k, g := range b.lv.Solution.ItemGoals {
		if !g.All {
			goals[k] = g.N
			continue
		}
		n := 0
		for _, c := range b.lv.GameConfig.Collectibles {
			if c.Type == k {
				n++
			}
		}
		for _, it := range b.lv.GameConfig.Interactibles {
			if it.Type == k {
				n++
			}
		}
		goals[k] = n
	}
	w, err := world.New(b.Level(), world.Options{Terrain: terrain.Default(), ItemGoals: goals})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

// Corridor is a straight walkable corridor from (0,0,0) facing +x to (n,0,0).
func Corridor(n int) *Builder {
	return New().Floor(0, n, 0, 0).Start(0, 0, 0, 1).Finish(n, 0, 0).AllBlocks()
}
