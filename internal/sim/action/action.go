package action

import "fmt"

// Action is one primitive step of a maze program.
type Action string

const (
	MoveForward  Action = "moveForward"
	TurnLeft     Action = "turnLeft"
	TurnRight    Action = "turnRight"
	Jump         Action = "jump"
	Collect      Action = "collect"
	ToggleSwitch Action = "toggleSwitch"
)

// Toolbox block identifiers.
const (
	BlockMoveForward    = "maze_moveForward"
	BlockTurn           = "maze_turn"
	BlockJump           = "maze_jump"
	BlockCollect        = "maze_collect"
	BlockToggleSwitch   = "maze_toggle_switch"
	BlockRepeat         = "maze_repeat"
	BlockRepeatVariable = "maze_repeat_variable"

	// ProcedureMarker is recorded when the toolbox has a PROCEDURE category.
	ProcedureMarker = "PROCEDURE"
)

// All lists the vocabulary in the fixed order the pathfinder expands it.
var All = []Action{MoveForward, TurnLeft, TurnRight, Jump, Collect, ToggleSwitch}

func (a Action) Valid() bool {
	switch a {
	case MoveForward, TurnLeft, TurnRight, Jump, Collect, ToggleSwitch:
		return true
	}
	return false
}

func (a Action) IsTurn() bool { return a == TurnLeft || a == TurnRight }

func Parse(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// FromBlocks maps permitted toolbox block ids to the actions they unlock,
// in vocabulary order.
func FromBlocks(has func(block string) bool) []Action {
	var out []Action
	if has(BlockMoveForward) {
		out = append(out, MoveForward)
	}
	if has(BlockTurn) {
		out = append(out, TurnLeft, TurnRight)
	}
	if has(BlockJump) {
		out = append(out, Jump)
	}
	if has(BlockCollect) {
		out = append(out, Collect)
	}
	if has(BlockToggleSwitch) {
		out = append(out, ToggleSwitch)
	}
	return out
}

// Strings converts a sequence for logging and encoding.
func Strings(as []Action) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = string(a)
	}
	return out
}
