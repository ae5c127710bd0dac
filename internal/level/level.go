// Package level holds the wire form of a maze level description as produced
// by the map generator, plus decoding and schema validation.
package level

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Level struct {
	ID            string         `json:"id,omitempty"`
	GameConfig    GameConfig     `json:"gameConfig"`
	BlocklyConfig BlocklyConfig  `json:"blocklyConfig"`
	Solution      SolutionConfig `json:"solution"`
}

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type GameConfig struct {
	Blocks        []Block        `json:"blocks,omitempty"`
	Players       []Player       `json:"players"`
	Finish        *Pos           `json:"finish"`
	Collectibles  []Collectible  `json:"collectibles,omitempty"`
	Obstacles     []Obstacle     `json:"obstacles,omitempty"`
	Interactibles []Interactible `json:"interactibles,omitempty"`
}

type Block struct {
	Position Pos    `json:"position"`
	ModelKey string `json:"modelKey"`
}

type Player struct {
	ID    string `json:"id,omitempty"`
	Start *Start `json:"start"`
}

type Start struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	Z         int `json:"z"`
	Direction int `json:"direction"`
}

type Collectible struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Position Pos    `json:"position"`
}

type Obstacle struct {
	Position Pos    `json:"position"`
	ModelKey string `json:"modelKey,omitempty"`
}

// Interactible is a switch or a portal.
type Interactible struct {
	ID           string `json:"id"`
	Type         string `json:"type"` // "switch","portal"
	Position     Pos    `json:"position"`
	InitialState string `json:"initialState,omitempty"`
	TargetID     string `json:"targetId,omitempty"`
}

type BlocklyConfig struct {
	Toolbox ToolboxItem `json:"toolbox"`
}

// ToolboxItem is one node of the toolbox category tree.
type ToolboxItem struct {
	Kind     string        `json:"kind,omitempty"` // "categoryToolbox","category","block"
	Type     string        `json:"type,omitempty"`
	Name     string        `json:"name,omitempty"`
	Custom   string        `json:"custom,omitempty"`
	Contents []ToolboxItem `json:"contents,omitempty"`
}

type SolutionConfig struct {
	Type              string               `json:"type,omitempty"`
	ItemGoals         map[string]GoalCount `json:"itemGoals,omitempty"`
	LogicType         string               `json:"logic_type,omitempty"`
	ForceFunction     bool                 `json:"force_function,omitempty"`
	FunctionNames     []string             `json:"function_names,omitempty"`
	LoopStructure     string               `json:"loop_structure,omitempty"`
	AlgorithmTemplate *AlgorithmTemplate   `json:"algorithm_template,omitempty"`
	BugType           string               `json:"bug_type,omitempty"`
	Params            SolutionParams       `json:"params,omitempty"`
}

type SolutionParams struct {
	BugType string `json:"bug_type,omitempty"`
}

type AlgorithmTemplate struct {
	Name      string   `json:"name"`
	Variables []string `json:"variables,omitempty"`
}

// EffectiveBugType prefers the top-level bug type over params.bug_type.
func (s SolutionConfig) EffectiveBugType() string {
	if s.BugType != "" {
		return s.BugType
	}
	return s.Params.BugType
}

// GoalCount is either a concrete count or "all".
type GoalCount struct {
	N   int
	All bool
}

func Count(n int) GoalCount { return GoalCount{N: n} }

func AllOf() GoalCount { return GoalCount{All: true} }

func (g GoalCount) MarshalJSON() ([]byte, error) {
	if g.All {
		return []byte(`"all"`), nil
	}
	return json.Marshal(g.N)
}

func (g *GoalCount) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*g = GoalCount{N: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("goal count: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		*g = GoalCount{All: true}
		return nil
	}
	return fmt.Errorf("goal count: unsupported value %q", s)
}
