// Package tour chooses the order in which a level's sub-goals are visited and
// stitches single-goal paths into one action sequence.
package tour

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/state"
	"mazeforge.ai/internal/sim/world"
	"mazeforge.ai/internal/solve/pathfind"
)

const (
	DefaultBruteForceMax   = 7
	DefaultMaxPermutations = 5040

	StrategyBruteForce      = "brute_force"
	StrategyNearestNeighbor = "nearest_neighbor"
)

var ErrNoTour = errors.New("no tour visits every sub-goal")

type Options struct {
	// BruteForceMax is the largest goal count solved by trying every order.
	BruteForceMax int
	// MaxPermutations caps the orders tried; the best complete order found so
	// far is kept when the cap is hit.
	MaxPermutations int
	// MaxExpansions is passed to every leg search.
	MaxExpansions int
	Logger        *log.Logger
}

func (o Options) normalized() Options {
	if o.BruteForceMax <= 0 {
		o.BruteForceMax = DefaultBruteForceMax
	}
	if o.MaxPermutations <= 0 {
		o.MaxPermutations = DefaultMaxPermutations
	}
	return o
}

type Solver struct {
	opts Options
}

func NewSolver(opts Options) *Solver { return &Solver{opts: opts.normalized()} }

// Plan is a complete tour.
type Plan struct {
	Actions     []action.Action
	Order       []world.Vec3i
	Cost        int
	CacheHits   int
	CacheMisses int
	Strategy    string
	// Permutations counts orders evaluated by brute force.
	Permutations int
}

type goalKind uint8

const (
	goalCollect goalKind = iota
	goalToggle
)

type goal struct {
	id   string
	kind goalKind
	pos  world.Vec3i
}

func (g goal) act() action.Action {
	if g.kind == goalToggle {
		return action.ToggleSwitch
	}
	return action.Collect
}

// apply mirrors the goal action on st without stepping the world.
func (g goal) apply(st *state.State) {
	if g.kind == goalToggle {
		st.Switches[g.id] = !st.Switches[g.id]
		return
	}
	st.Collected[g.id] = struct{}{}
}

// Goals lists the visit targets: every collectible, plus every switch that
// starts off when switches are a required goal type.
func goals(w *world.GridWorld) []goal {
	var out []goal
	for _, c := range w.Collectibles() {
		out = append(out, goal{id: c.ID, kind: goalCollect, pos: c.Pos})
	}
	if w.Goal.RequiresSwitches() {
		for _, sw := range w.Switches() {
			if !sw.InitialOn {
				out = append(out, goal{id: sw.ID, kind: goalToggle, pos: sw.Pos})
			}
		}
	}
	return out
}

// requireActions fails when a goal needs an action the toolbox does not
// permit; no order can then satisfy it.
func requireActions(w *world.GridWorld, gs []goal) error {
	allowed := w.Toolbox.Actions()
	for _, g := range gs {
		if !slices.Contains(allowed, g.act()) {
			return fmt.Errorf("%w: %s needs %s, not in toolbox", ErrNoTour, g.id, g.act())
		}
	}
	return nil
}

// split separates goals sitting on the finish tile; those are handled by the
// final leg.
func split(all []goal, finish world.Vec3i) (route, atFinish []goal) {
	for _, g := range all {
		if g.pos == finish {
			atFinish = append(atFinish, g)
			continue
		}
		route = append(route, g)
	}
	return route, atFinish
}

// Solve dispatches on the goal count.
func (s *Solver) Solve(ctx context.Context, w *world.GridWorld) (Plan, error) {
	route, _ := split(goals(w), w.Finish)
	if len(route) > s.opts.BruteForceMax {
		s.logf("tour: %d goals over threshold %d, nearest neighbor", len(route), s.opts.BruteForceMax)
		return s.NearestNeighbor(ctx, w)
	}
	s.logf("tour: %d goals, trying every order", len(route))
	return s.BruteForce(ctx, w)
}

func (s *Solver) logf(format string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}

// run owns the memo cache of one solve.
type run struct {
	ctx     context.Context
	w       *world.GridWorld
	opts    Options
	moves   []action.Action
	cache   map[cacheKey]leg
	hits    int
	misses  int
	initial state.State
}

type cacheKey struct {
	pos       string
	collected string
	switches  string
	dest      world.Vec3i
}

type leg struct {
	actions []action.Action
	final   state.State
	err     error
}

func newRun(ctx context.Context, w *world.GridWorld, opts Options) *run {
	return &run{
		ctx:     ctx,
		w:       w,
		opts:    opts,
		moves:   pathfind.Movement(w.Toolbox.Actions()),
		cache:   map[cacheKey]leg{},
		initial: state.Initial(w),
	}
}

// path finds a reach-only path from st to dest. Unreachable results are
// cached; budget and cancellation errors are not.
func (r *run) path(st state.State, dest world.Vec3i) leg {
	key := cacheKey{pos: st.PosKey(), collected: st.CollectedSignature(), switches: st.SwitchSignature(), dest: dest}
	if l, ok := r.cache[key]; ok {
		r.hits++
		return l
	}
	r.misses++
	if st.Pos == dest {
		l := leg{final: st}
		r.cache[key] = l
		return l
	}
	p, err := pathfind.Search(r.ctx, r.w, pathfind.Options{
		Start:         &st,
		Override:      world.Override{Finish: &dest, ReachOnly: true},
		MaxExpansions: r.opts.MaxExpansions,
		Actions:       r.moves,
	})
	l := leg{actions: p.Actions, final: p.Final, err: err}
	if err == nil || errors.Is(err, pathfind.ErrNoPath) {
		r.cache[key] = l
	}
	return l
}

// tour walks one complete order and returns its cost and assembled actions.
// ok is false when a leg is unreachable or the running cost reaches bound.
func (r *run) tour(order []goal, atFinish []goal, bound int) (cost int, actions []action.Action, ok bool, err error) {
	st := r.initial.Clone()
	for _, g := range order {
		l := r.path(st, g.pos)
		if l.err != nil {
			if errors.Is(l.err, pathfind.ErrNoPath) {
				return 0, nil, false, nil
			}
			return 0, nil, false, l.err
		}
		cost += len(l.actions)
		if bound >= 0 && cost >= bound {
			return 0, nil, false, nil
		}
		actions = append(actions, l.actions...)
		actions = append(actions, g.act())
		st = l.final.Clone()
		g.apply(&st)
	}
	l := r.path(st, r.w.Finish)
	if l.err != nil {
		if errors.Is(l.err, pathfind.ErrNoPath) {
			return 0, nil, false, nil
		}
		return 0, nil, false, l.err
	}
	cost += len(l.actions)
	if bound >= 0 && cost >= bound {
		return 0, nil, false, nil
	}
	actions = append(actions, l.actions...)
	for _, g := range atFinish {
		actions = append(actions, g.act())
	}
	return cost, actions, true, nil
}

func (r *run) plan(strategy string, order []goal, atFinish []goal, cost int, actions []action.Action) (Plan, error) {
	p := Plan{
		Actions:     actions,
		Cost:        cost,
		CacheHits:   r.hits,
		CacheMisses: r.misses,
		Strategy:    strategy,
	}
	for _, g := range order {
		p.Order = append(p.Order, g.pos)
	}
	if len(atFinish) > 0 {
		p.Order = append(p.Order, r.w.Finish)
	}
	if err := r.verify(actions); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// verify replays the assembled actions against the whitelist and checks the
// full goal predicate.
func (r *run) verify(actions []action.Action) error {
	allowed := r.w.Toolbox.Actions()
	st := r.initial
	for i, a := range actions {
		if !slices.Contains(allowed, a) {
			return fmt.Errorf("%w: action %d (%s) not in toolbox", ErrNoTour, i, a)
		}
		next, _, ok := pathfind.Step(r.w, st, a)
		if !ok {
			return fmt.Errorf("%w: action %d (%s) invalid on replay", ErrNoTour, i, a)
		}
		st = next
	}
	if st.Pos != r.w.Finish || !st.GoalsMet(r.w, r.w.Goal) {
		return fmt.Errorf("%w: item goals unmet after visiting every sub-goal", ErrNoTour)
	}
	return nil
}

// BruteForce tries every order of the goals and keeps the first one with the
// strictly smallest total leg length.
func (s *Solver) BruteForce(ctx context.Context, w *world.GridWorld) (Plan, error) {
	r := newRun(ctx, w, s.opts)
	all := goals(w)
	if err := requireActions(w, all); err != nil {
		return Plan{}, err
	}
	route, atFinish := split(all, w.Finish)

	best := -1
	var bestOrder []goal
	var bestActions []action.Action
	tried := 0
	var stopErr error
	permute(route, func(order []goal) bool {
		if tried >= s.opts.MaxPermutations {
			s.logf("tour: permutation cap %d reached", s.opts.MaxPermutations)
			return false
		}
		if err := ctx.Err(); err != nil {
			stopErr = err
			return false
		}
		tried++
		cost, actions, ok, err := r.tour(order, atFinish, best)
		if err != nil {
			stopErr = err
			return false
		}
		if ok && (best < 0 || cost < best) {
			best = cost
			bestOrder = append(bestOrder[:0], order...)
			bestActions = actions
		}
		return true
	})
	if stopErr != nil {
		return Plan{}, stopErr
	}
	if best < 0 {
		return Plan{}, ErrNoTour
	}
	p, err := r.plan(StrategyBruteForce, bestOrder, atFinish, best, bestActions)
	p.Permutations = tried
	return p, err
}

// NearestNeighbor repeatedly visits the goal with the shortest leg from the
// current state.
func (s *Solver) NearestNeighbor(ctx context.Context, w *world.GridWorld) (Plan, error) {
	r := newRun(ctx, w, s.opts)
	all := goals(w)
	if err := requireActions(w, all); err != nil {
		return Plan{}, err
	}
	route, atFinish := split(all, w.Finish)

	st := r.initial.Clone()
	visited := make([]bool, len(route))
	var order []goal
	var actions []action.Action
	cost := 0
	for range route {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		pick := -1
		var pickLeg leg
		for i, g := range route {
			if visited[i] {
				continue
			}
			l := r.path(st, g.pos)
			if l.err != nil {
				if errors.Is(l.err, pathfind.ErrNoPath) {
					continue
				}
				return Plan{}, l.err
			}
			if pick < 0 || len(l.actions) < len(pickLeg.actions) {
				pick, pickLeg = i, l
			}
		}
		if pick < 0 {
			return Plan{}, ErrNoTour
		}
		g := route[pick]
		visited[pick] = true
		order = append(order, g)
		cost += len(pickLeg.actions)
		actions = append(actions, pickLeg.actions...)
		actions = append(actions, g.act())
		st = pickLeg.final.Clone()
		g.apply(&st)
	}

	l := r.path(st, w.Finish)
	if l.err != nil {
		if errors.Is(l.err, pathfind.ErrNoPath) {
			return Plan{}, ErrNoTour
		}
		return Plan{}, l.err
	}
	cost += len(l.actions)
	actions = append(actions, l.actions...)
	for _, g := range atFinish {
		actions = append(actions, g.act())
	}
	return r.plan(StrategyNearestNeighbor, order, atFinish, cost, actions)
}
