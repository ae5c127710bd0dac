package replay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"mazeforge.ai/internal/program"
)

var (
	ErrUndefinedVar   = errors.New("undefined variable")
	ErrDivisionByZero = errors.New("division by zero")
)

// Env holds the integer variables of a running program.
type Env map[string]int

// evaluator compiles each distinct expression once.
type evaluator struct {
	cache   map[string]*vm.Program
	divZero bool
}

func newEvaluator() *evaluator { return &evaluator{cache: map[string]*vm.Program{}} }

// source renders e for expr-lang. Variables become v0, v1, ... in order of
// first use so names that clash with expr keywords (not, nil, in) still
// compile; names[i] is the variable bound to vi. Division goes through div()
// so the quotient truncates toward zero like the block runtime does.
func source(e program.Expr) (src string, names []string) {
	var sb strings.Builder
	slot := map[string]int{}
	var write func(e program.Expr)
	write = func(e program.Expr) {
		switch v := e.(type) {
		case program.Num:
			sb.WriteString(strconv.Itoa(v.V))
		case program.VarRef:
			i, ok := slot[v.Name]
			if !ok {
				i = len(names)
				slot[v.Name] = i
				names = append(names, v.Name)
			}
			sb.WriteString("v" + strconv.Itoa(i))
		case program.Arith:
			if v.Op == program.OpDivide {
				sb.WriteString("div(")
				write(v.A)
				sb.WriteString(", ")
				write(v.B)
				sb.WriteString(")")
				return
			}
			sb.WriteString("(")
			write(v.A)
			sb.WriteString(" " + v.Op.Symbol() + " ")
			write(v.B)
			sb.WriteString(")")
		}
	}
	write(e)
	return sb.String(), names
}

func (ev *evaluator) div(params ...any) (any, error) {
	a, b := params[0].(int), params[1].(int)
	if b == 0 {
		ev.divZero = true
		return 0, nil
	}
	return a / b, nil
}

func (ev *evaluator) eval(e program.Expr, env Env) (int, error) {
	if n, ok := e.(program.Num); ok {
		return n.V, nil
	}
	src, names := source(e)
	vars := make(map[string]any, len(names))
	for i, name := range names {
		v, ok := env[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUndefinedVar, name)
		}
		vars["v"+strconv.Itoa(i)] = v
	}
	prog, ok := ev.cache[src]
	if !ok {
		var err error
		prog, err = expr.Compile(src,
			expr.Env(vars),
			expr.Function("div", ev.div, new(func(int, int) int)),
		)
		if err != nil {
			return 0, fmt.Errorf("compile %s: %w", e, err)
		}
		ev.cache[src] = prog
	}
	ev.divZero = false
	out, err := expr.Run(prog, vars)
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", e, err)
	}
	if ev.divZero {
		return 0, fmt.Errorf("evaluate %s: %w", e, ErrDivisionByZero)
	}
	switch v := out.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("evaluate %s: non-integer result %T", e, out)
}
