package solve

import (
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
)

// Document is the solution block written next to a solved level.
type Document struct {
	LevelID            string           `json:"id"`
	Status             string           `json:"status"`
	Detail             string           `json:"detail,omitempty"`
	Solver             string           `json:"solver,omitempty"`
	Strategy           string           `json:"strategy,omitempty"`
	Warnings           []string         `json:"warnings,omitempty"`
	OptimalBlocks      int              `json:"optimalBlocks"`
	MaxBlocks          int              `json:"maxBlocks"`
	OptimalLines       int              `json:"optimalLines"`
	RawActions         []string         `json:"rawActions"`
	StructuredSolution *program.Program `json:"structuredSolution,omitempty"`
	JavaScript         string           `json:"javascript,omitempty"`
	// FixBug is set when the program deliberately fails the level.
	FixBug bool `json:"fixBug,omitempty"`
}

// Document renders r for output. Unsolved results keep the editor's
// fallback block limit.
func (r Result) Document() Document {
	d := Document{
		LevelID:       r.LevelID,
		Status:        r.Status,
		Detail:        r.Detail,
		Solver:        r.Solver,
		Strategy:      string(r.Strategy),
		OptimalBlocks: r.Blocks,
		MaxBlocks:     r.MaxBlocks,
		OptimalLines:  r.LogicalLines,
		RawActions:    action.Strings(r.Actions),
		FixBug:        r.Buggy,
	}
	for _, w := range r.Warnings {
		d.Warnings = append(d.Warnings, string(w))
	}
	if r.Program != nil {
		d.StructuredSolution = r.Program
		d.JavaScript = program.JavaScript(r.Program)
	}
	if !r.Solved() {
		d.MaxBlocks = UnsolvedMaxBlocks
	}
	return d
}

// UnsolvedMaxBlocks is the block limit given to levels without a solution.
const UnsolvedMaxBlocks = 99
