package world

import (
	"fmt"
	"sort"
)

type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3i) Up(n int) Vec3i { return Vec3i{X: v.X, Y: v.Y + n, Z: v.Z} }

func (v Vec3i) String() string { return fmt.Sprintf("%d-%d-%d", v.X, v.Y, v.Z) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Manhattan(a, b Vec3i) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

// Facing indexes the four cardinal directions: 0=-z, 1=+x, 2=+z, 3=-x.
type Facing int

var forward = [4]Vec3i{{Z: -1}, {X: 1}, {Z: 1}, {X: -1}}

func (f Facing) Norm() Facing { return ((f % 4) + 4) % 4 }

func (f Facing) Forward() Vec3i { return forward[f.Norm()] }

func (f Facing) Left() Facing { return (f + 3).Norm() }

func (f Facing) Right() Facing { return (f + 1).Norm() }

// Pose is a position plus facing.
type Pose struct {
	Pos    Vec3i
	Facing Facing
}

type Collectible struct {
	ID   string
	Type string
	Pos  Vec3i
}

type Switch struct {
	ID        string
	Pos       Vec3i
	InitialOn bool
}

type Portal struct {
	ID     string
	Pos    Vec3i
	Target Vec3i
}

// Goal is the win condition with every item goal resolved to a count.
type Goal struct {
	Type      string
	ItemGoals map[string]int
}

const (
	GoalReachTarget = "reach_target"
	GoalKindSwitch  = "switch"
	// GoalKindObstacle goals are always treated as met.
	GoalKindObstacle = "obstacle"
)

func (g Goal) Required(kind string) int { return g.ItemGoals[kind] }

func (g Goal) RequiresSwitches() bool { return g.ItemGoals[GoalKindSwitch] > 0 }

// Kinds returns the goal kinds in sorted order.
func (g Goal) Kinds() []string {
	out := make([]string, 0, len(g.ItemGoals))
	for k := range g.ItemGoals {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Override narrows a world for one pathfinder sub-problem without copying it.
type Override struct {
	Start  *Vec3i
	Finish *Vec3i
	// ReachOnly drops all item goals: reaching Finish is enough.
	ReachOnly bool
}
