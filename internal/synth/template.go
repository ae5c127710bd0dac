package synth

import "mazeforge.ai/internal/program"

const TemplateFibonacci = "fibonacci"

var defaultFibonacciVars = [3]string{"a", "b", "temp"}

// fibonacci emits the fixed-shape recurrence program. The trip count follows
// the number of interactive items on the map.
func (s *synthesizer) fibonacci() *program.Program {
	loops := len(s.w.Collectibles()) + len(s.w.Switches())
	if loops == 0 {
		loops = 5
	}
	if loops < 3 {
		loops = 3
	}
	vars := defaultFibonacciVars
	if t := s.w.Solution.AlgorithmTemplate; t != nil {
		for i := range vars {
			if i < len(t.Variables) && t.Variables[i] != "" {
				vars[i] = t.Variables[i]
			}
		}
	}
	a, b, tmp := vars[0], vars[1], vars[2]
	return &program.Program{Main: []program.Block{
		program.SetVar{Var: a, Value: program.Num{V: 0}},
		program.SetVar{Var: b, Value: program.Num{V: 1}},
		program.SetVar{Var: tmp, Value: program.Num{V: 0}},
		program.Repeat{Times: loops, Body: []program.Block{
			program.SetVar{Var: tmp, Value: program.VarRef{Name: a}},
			program.SetVar{Var: a, Value: program.VarRef{Name: b}},
			program.SetVar{Var: b, Value: program.Arith{Op: program.OpAdd, A: program.VarRef{Name: tmp}, B: program.VarRef{Name: b}}},
			program.Move{},
			program.Toggle{},
		}},
	}}
}
