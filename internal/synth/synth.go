// Package synth compresses a raw action trace into a structured program.
package synth

import (
	"fmt"
	"math/rand"

	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
	"mazeforge.ai/internal/sim/world"
)

// Warning codes flag degraded synthesis.
type Warning string

const (
	WarnUnsupportedLogicType Warning = "W_UNSUPPORTED_LOGIC_TYPE"
	WarnStrategyFallback     Warning = "W_STRATEGY_FALLBACK"
	WarnNestingUnavailable   Warning = "W_NESTING_UNAVAILABLE"
	WarnNoRepeatingSegment   Warning = "W_NO_REPEATING_SEGMENT"
)

type Strategy string

const (
	StrategyStructural         Strategy = "structural"
	StrategyFunctions          Strategy = "structural_functions"
	StrategyVariableLoop       Strategy = "variable_loop"
	StrategyNestedVariableLoop Strategy = "nested_variable_loop"
	StrategyExpressionLoop     Strategy = "expression_loop"
	StrategyFibonacci          Strategy = "template_fibonacci"
)

const (
	DefaultFunctionRounds = 3
	DefaultFunctionMinLen = 3
	DefaultFunctionMaxLen = 10
)

type Config struct {
	FunctionRounds int
	FunctionMinLen int
	FunctionMaxLen int
}

func (c Config) normalized() Config {
	if c.FunctionRounds <= 0 {
		c.FunctionRounds = DefaultFunctionRounds
	}
	if c.FunctionMinLen <= 0 {
		c.FunctionMinLen = DefaultFunctionMinLen
	}
	if c.FunctionMaxLen < c.FunctionMinLen {
		c.FunctionMaxLen = max(DefaultFunctionMaxLen, c.FunctionMinLen)
	}
	return c
}

type Result struct {
	Program  *program.Program
	Strategy Strategy
	Warnings []Warning
	// Buggy marks programs that intentionally do not reproduce the trace.
	Buggy bool
}

// Logic types, as written in level solution configs.
const (
	LogicVariableLoop       = "variable_loop"
	LogicVariableCounter    = "variable_counter"
	LogicMathExpressionLoop = "math_expression_loop"
	LogicMathComplex        = "math_complex"
	LogicMathBasic          = "math_basic"
	LogicAdvancedAlgorithm  = "advanced_algorithm"
	LogicConfigDriven       = "config_driven_execution"
	LogicMathPuzzle         = "math_puzzle"
)

// structuralLogic lists the logic types served by the default strategy.
var structuralLogic = map[string]bool{
	"": true, "sequencing": true, "maze": true, "function": true, "for_loop": true, "obstacle": true,
	"for_loop_simple": true, "for_loop_complex": true, "nested_for_loop": true,
	"function_definition": true, "function_decomposition": true, "function_with_params": true,
	"functions_simple": true, "functions_with_return": true, "functions_recursive": true,
	"functions_with_params": true, "function_with_multi_params": true, "advanced_functions": true,
	"variable_update": true, "variable_control_loop": true, "coordinate_math": true,
	"if_else_logic": true, "if_elseif_logic": true, "logical_operators": true, "while_loop": true,
	"algorithm_design": true, "island_tour": true, "zigzag": true,
	"t_shape": true, "h_shape": true, "ef_shape": true, "plus_shape": true, "arrow_shape": true,
	"grid_with_holes": true, "v_shape": true, "star_shape": true, "z_shape": true,
	"staircase_3d": true, "spiral_3d_placer": true, "circle": true, "spiral_path": true, "triangle": true,
	"swift_playground_placer": true,
}

// UsesTemplate reports whether the level's program comes from an algorithm
// template instead of the action trace.
func UsesTemplate(w *world.GridWorld) bool {
	t := w.Solution.AlgorithmTemplate
	return w.Solution.LogicType == LogicAdvancedAlgorithm && t != nil && t.Name == TemplateFibonacci
}

type synthesizer struct {
	w         *world.GridWorld
	cfg       Config
	rng       *rand.Rand
	canRepeat bool
	warnings  []Warning
	buggy     bool
}

func (s *synthesizer) warn(w Warning) { s.warnings = append(s.warnings, w) }

// Synthesize picks a strategy from the level's logic type and builds the
// program. rng drives summand splitting and bug operator choice; nil uses a
// fixed seed.
func Synthesize(actions []action.Action, w *world.GridWorld, cfg Config, rng *rand.Rand) (Result, error) {
	for i, a := range actions {
		if !a.Valid() {
			return Result{}, fmt.Errorf("synth: action %d: unknown action %q", i, a)
		}
	}
	if rng == nil {
		rng = newRand()
	}
	s := &synthesizer{w: w, cfg: cfg.normalized(), rng: rng, canRepeat: w.Toolbox.CanRepeat()}
	p, strategy := s.route(tokens(actions))
	if p.Main == nil {
		p.Main = []program.Block{}
	}
	return Result{Program: p, Strategy: strategy, Warnings: s.warnings, Buggy: s.buggy}, nil
}

func (s *synthesizer) route(seq []token) (*program.Program, Strategy) {
	logic := s.w.Solution.LogicType
	switch logic {
	case LogicAdvancedAlgorithm:
		if UsesTemplate(s.w) {
			return s.fibonacci(), StrategyFibonacci
		}
		s.warn(WarnStrategyFallback)
		return &program.Program{Main: compress(seq, s.canRepeat)}, StrategyStructural
	case LogicConfigDriven, LogicMathPuzzle:
		s.warn(WarnStrategyFallback)
		return &program.Program{Main: compress(seq, s.canRepeat)}, StrategyStructural
	}
	if len(seq) == 0 {
		return &program.Program{}, StrategyStructural
	}
	switch logic {
	case LogicVariableLoop, LogicVariableCounter:
		return s.variableLoop(seq)
	case LogicMathExpressionLoop, LogicMathComplex, LogicMathBasic:
		return s.expressionLoop(seq)
	}
	if !structuralLogic[logic] {
		s.warn(WarnUnsupportedLogicType)
	}
	return s.structural(seq)
}

// structural is the default regime: procedure extraction when permitted,
// then loop compression of what remains.
func (s *synthesizer) structural(seq []token) (*program.Program, Strategy) {
	var procs []program.Procedure
	if s.w.Toolbox.CanDefineProcedures() {
		seq, procs = s.extractFunctions(seq)
	}
	p := &program.Program{Main: compress(seq, s.canRepeat), Procedures: procs}
	if len(procs) > 0 {
		return p, StrategyFunctions
	}
	return p, StrategyStructural
}
