package world

import (
	"sort"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/sim/action"
)

// Toolbox is the whitelist of block ids a level permits.
type Toolbox struct {
	blocks map[string]struct{}
}

// ToolboxFrom walks the toolbox category tree and collects every leaf block
// type, plus action.ProcedureMarker for PROCEDURE categories.
func ToolboxFrom(root level.ToolboxItem) Toolbox {
	tb := Toolbox{blocks: map[string]struct{}{}}
	var walk func(items []level.ToolboxItem)
	walk = func(items []level.ToolboxItem) {
		for _, it := range items {
			switch it.Kind {
			case "block":
				if it.Type != "" {
					tb.blocks[it.Type] = struct{}{}
				}
			case "category":
				if it.Custom == action.ProcedureMarker {
					tb.blocks[action.ProcedureMarker] = struct{}{}
				}
				walk(it.Contents)
			}
		}
	}
	walk(root.Contents)
	return tb
}

// NewToolbox builds a whitelist directly from block ids.
func NewToolbox(blocks ...string) Toolbox {
	tb := Toolbox{blocks: make(map[string]struct{}, len(blocks))}
	for _, b := range blocks {
		tb.blocks[b] = struct{}{}
	}
	return tb
}

func (t Toolbox) Has(block string) bool {
	_, ok := t.blocks[block]
	return ok
}

// Actions returns the primitive actions the pathfinder may use.
func (t Toolbox) Actions() []action.Action { return action.FromBlocks(t.Has) }

func (t Toolbox) CanRepeat() bool           { return t.Has(action.BlockRepeat) }
func (t Toolbox) CanRepeatVariable() bool   { return t.Has(action.BlockRepeatVariable) }
func (t Toolbox) CanDefineProcedures() bool { return t.Has(action.ProcedureMarker) }

func (t Toolbox) Blocks() []string {
	out := make([]string, 0, len(t.blocks))
	for b := range t.blocks {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}
