// Package solve turns one level description into a raw action trace, a
// structured program and its block budget.
package solve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"mazeforge.ai/internal/level"
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/terrain"
	"mazeforge.ai/internal/sim/world"
	"mazeforge.ai/internal/solve/pathfind"
	"mazeforge.ai/internal/solve/tour"
	"mazeforge.ai/internal/synth"
)

// Status codes.
const (
	StatusOK         = "OK"
	StatusUnsolvable = "E_UNSOLVABLE"
	StatusMalformed  = "E_MALFORMED"
	StatusBudget     = "E_BUDGET"
)

// Solver names reported in Result.Solver.
const (
	SolverAStar    = "astar"
	SolverTemplate = "template"
)

// BlockSlack is added to the canonical block count to form the editor's
// block limit.
const BlockSlack = 5

type Options struct {
	Terrain         terrain.Table
	MaxExpansions   int
	BruteForceMax   int
	MaxPermutations int
	Synth           synth.Config
	// Seed feeds a fresh source for each solve so results do not depend on
	// batch order.
	Seed   int64
	Logger *log.Logger
}

type Result struct {
	LevelID string
	Status  string
	Detail  string
	Solver  string

	Actions  []action.Action
	Program  *program.Program
	Strategy synth.Strategy
	Warnings []synth.Warning
	Buggy    bool

	Blocks       int
	MaxBlocks    int
	LogicalLines int

	Expanded    int
	CacheHits   int
	CacheMisses int
}

func (r Result) Solved() bool { return r.Status == StatusOK }

// ResolveItemGoals turns every "all" goal into the number of collectibles
// and interactibles of that type on the map.
func ResolveItemGoals(lv *level.Level) map[string]int {
	out := make(map[string]int, len(lv.Solution.ItemGoals))
	for kind, g := range lv.Solution.ItemGoals {
		if !g.All {
			out[kind] = g.N
			continue
		}
		n := 0
		for _, c := range lv.GameConfig.Collectibles {
			if c.Type == kind {
				n++
			}
		}
		for _, it := range lv.GameConfig.Interactibles {
			if it.Type == kind {
				n++
			}
		}
		out[kind] = n
	}
	return out
}

type solver struct {
	opts Options
}

func (s *solver) logf(format string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}

// Solve runs the whole pipeline for one level. Unsolvable and over-budget
// levels are reported through Result.Status with a nil error; malformed
// levels return an error wrapping level.ErrMalformed, and cancellation
// returns the context error.
func Solve(ctx context.Context, lv *level.Level, opts Options) (Result, error) {
	s := &solver{opts: opts}
	res := Result{Status: StatusMalformed}
	if lv == nil {
		return res, fmt.Errorf("%w: nil level", level.ErrMalformed)
	}
	res.LevelID = lv.ID

	w, err := world.New(lv, world.Options{Terrain: opts.Terrain, ItemGoals: ResolveItemGoals(lv)})
	if err != nil {
		res.Detail = err.Error()
		return res, fmt.Errorf("level %s: %w", lv.ID, err)
	}
	if err := w.Validate(); err != nil {
		res.Detail = err.Error()
		return res, fmt.Errorf("level %s: %w", lv.ID, err)
	}
	res.Status = StatusOK

	if synth.UsesTemplate(w) {
		res.Solver = SolverTemplate
		s.logf("level %s: template %s, skipping search", lv.ID, w.Solution.AlgorithmTemplate.Name)
	} else if err := s.search(ctx, w, &res); err != nil {
		return res, err
	}
	if res.Status == StatusUnsolvable || res.Status == StatusBudget {
		s.logf("level %s: %s (%s)", lv.ID, res.Status, res.Detail)
		return res, nil
	}

	sr, err := synth.Synthesize(res.Actions, w, opts.Synth, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return res, fmt.Errorf("level %s: synthesize: %w", lv.ID, err)
	}
	res.Program = sr.Program
	res.Strategy = sr.Strategy
	res.Warnings = sr.Warnings
	res.Buggy = sr.Buggy
	res.Blocks = program.Count(sr.Program)
	res.MaxBlocks = res.Blocks + BlockSlack
	res.LogicalLines = program.LogicalLines(sr.Program)
	if len(sr.Warnings) > 0 {
		s.logf("level %s: synthesis warnings %s", lv.ID, joinWarnings(sr.Warnings))
	}
	s.logf("level %s: %d actions, %d blocks via %s/%s", lv.ID, len(res.Actions), res.Blocks, res.Solver, res.Strategy)
	return res, nil
}

// search fills res with the trace. Only cancellation is returned as an error.
func (s *solver) search(ctx context.Context, w *world.GridWorld, res *Result) error {
	if w.RequiredSubGoals() > 1 {
		plan, err := tour.NewSolver(tour.Options{
			BruteForceMax:   s.opts.BruteForceMax,
			MaxPermutations: s.opts.MaxPermutations,
			MaxExpansions:   s.opts.MaxExpansions,
			Logger:          s.opts.Logger,
		}).Solve(ctx, w)
		res.Solver = plan.Strategy
		res.CacheHits, res.CacheMisses = plan.CacheHits, plan.CacheMisses
		if err != nil {
			return classify(ctx, err, res)
		}
		res.Actions = plan.Actions
		return nil
	}

	path, err := pathfind.Search(ctx, w, pathfind.Options{MaxExpansions: s.opts.MaxExpansions})
	res.Solver = SolverAStar
	res.Expanded = path.Expanded
	if err != nil {
		return classify(ctx, err, res)
	}
	res.Actions = path.Actions
	return nil
}

func classify(ctx context.Context, err error, res *Result) error {
	res.Detail = err.Error()
	switch {
	case ctx.Err() != nil:
		res.Status = StatusBudget
		return ctx.Err()
	case errors.Is(err, pathfind.ErrBudget):
		res.Status = StatusBudget
	case errors.Is(err, pathfind.ErrNoPath), errors.Is(err, tour.ErrNoTour):
		res.Status = StatusUnsolvable
	default:
		res.Status = StatusUnsolvable
		return err
	}
	return nil
}

func joinWarnings(ws []synth.Warning) string {
	ss := make([]string, len(ws))
	for i, w := range ws {
		ss[i] = string(w)
	}
	return strings.Join(ss, ",")
}
