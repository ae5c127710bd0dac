package synth

import (
	"math/rand"

	"mazeforge.ai/internal/program"
)

const (
	LoopSingle = "single"
	LoopNested = "nested"
	LoopAuto   = "auto"

	BugIncorrectMathExpression = "incorrect_math_expression"

	varSteps = "steps"
	varA     = "a"
	varB     = "b"
)

// factors splits n >= 4 into the most balanced pair outer >= inner >= 2.
func factors(n int) (outer, inner int, ok bool) {
	if n < 4 {
		return 0, 0, false
	}
	for i := 2; i*i <= n; i++ {
		if n%i != 0 {
			continue
		}
		if !ok || n/i-i < outer-inner {
			outer, inner, ok = n/i, i, true
		}
	}
	return outer, inner, ok
}

// variableLoop wraps the segment covering the most tokens in a loop driven by
// a counter variable, nesting a fixed repeat inside when configured to and
// the count factors.
func (s *synthesizer) variableLoop(seq []token) (*program.Program, Strategy) {
	seg, ok := bestSegment(seq, coverage, 0)
	if !ok {
		s.warn(WarnNoRepeatingSegment)
		return &program.Program{Main: compress(seq, s.canRepeat)}, StrategyStructural
	}
	body := compress(seq[seg.start:seg.start+seg.n], s.canRepeat)

	structure := s.w.Solution.LoopStructure
	if structure == "" {
		structure = LoopAuto
	}
	var outer, inner int
	nested := false
	switch structure {
	case LoopNested:
		if outer, inner, nested = factors(seg.reps); !nested {
			s.warn(WarnNestingUnavailable)
		}
	case LoopAuto:
		outer, inner, nested = factors(seg.reps)
	}

	main := compress(seq[:seg.start], s.canRepeat)
	strategy := StrategyVariableLoop
	switch {
	case !s.w.Toolbox.CanRepeatVariable():
		main = append(main, program.Repeat{Times: seg.reps, Body: body})
		strategy = StrategyStructural
	case nested:
		main = append(main,
			program.SetVar{Var: varSteps, Value: program.Num{V: outer}},
			program.RepeatVar{Var: varSteps, Body: []program.Block{program.Repeat{Times: inner, Body: body}}},
		)
		strategy = StrategyNestedVariableLoop
	default:
		main = append(main,
			program.SetVar{Var: varSteps, Value: program.Num{V: seg.reps}},
			program.RepeatVar{Var: varSteps, Body: body},
		)
	}
	main = append(main, compress(seq[seg.end():], s.canRepeat)...)
	return &program.Program{Main: main}, strategy
}

var buggyOps = []program.Op{program.OpSubtract, program.OpMultiply, program.OpDivide}

// expressionLoop splits the best segment's repeat count into a + b and loops
// over the expression. Bug-hunt levels get a wrong operator on purpose.
func (s *synthesizer) expressionLoop(seq []token) (*program.Program, Strategy) {
	seg, ok := bestSegment(seq, savings, -1)
	if !ok {
		s.warn(WarnNoRepeatingSegment)
		return &program.Program{Main: compress(seq, s.canRepeat)}, StrategyStructural
	}
	a := 1 + s.rng.Intn(seg.reps-1)
	b := seg.reps - a
	op := program.OpAdd
	if s.w.Solution.EffectiveBugType() == BugIncorrectMathExpression {
		op = buggyOps[s.rng.Intn(len(buggyOps))]
		s.buggy = true
	}

	main := compress(seq[:seg.start], s.canRepeat)
	main = append(main,
		program.SetVar{Var: varA, Value: program.Num{V: a}},
		program.SetVar{Var: varB, Value: program.Num{V: b}},
		program.RepeatExpr{
			Expr: program.Arith{Op: op, A: program.VarRef{Name: varA}, B: program.VarRef{Name: varB}},
			Body: compress(seq[seg.start:seg.start+seg.n], s.canRepeat),
		},
	)
	main = append(main, compress(seq[seg.end():], s.canRepeat)...)
	return &program.Program{Main: main}, StrategyExpressionLoop
}

// newRand is used when the caller passes no source.
func newRand() *rand.Rand { return rand.New(rand.NewSource(1)) }
