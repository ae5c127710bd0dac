package synth

import (
	"fmt"

	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
)

type candidate struct {
	original []token
	freq     int
	hasJump  bool
}

// frequent counts every window of length [minLen, maxLen], grouping windows
// that differ only in turn direction and keeping the first original seen.
// Candidates come back in discovery order.
func frequent(seq []token, minLen, maxLen int) []*candidate {
	type key string
	index := map[key]*candidate{}
	var order []*candidate
	for n := minLen; n <= maxLen; n++ {
		for i := 0; i+n <= len(seq); i++ {
			win := seq[i : i+n]
			k := key(normKey(win))
			c, ok := index[k]
			if !ok {
				c = &candidate{original: win}
				for _, t := range win {
					if t.act == action.Jump {
						c.hasJump = true
					}
				}
				index[k] = c
				order = append(order, c)
			}
			c.freq++
		}
	}
	return order
}

func normKey(win []token) string {
	b := make([]byte, 0, len(win)*8)
	for _, t := range win {
		n := t.norm()
		b = append(b, string(n.act)...)
		b = append(b, '/')
		b = append(b, n.call...)
		b = append(b, ';')
	}
	return string(b)
}

func pick(cands []*candidate, force bool, jumpOnly bool) *candidate {
	var best *candidate
	bestSave := 0
	for _, c := range cands {
		if c.freq < 2 || (jumpOnly && !c.hasJump) {
			continue
		}
		n := len(c.original)
		s := (c.freq-1)*n - (n + c.freq)
		if force {
			s = c.freq
		}
		if s > bestSave {
			best, bestSave = c, s
		}
	}
	return best
}

// replace swaps non-overlapping exact occurrences of body for a call.
func replace(seq, body []token, name string) ([]token, int) {
	out := make([]token, 0, len(seq))
	hits := 0
	for i := 0; i < len(seq); {
		if i+len(body) <= len(seq) && equal(seq[i:i+len(body)], body) {
			out = append(out, token{call: name})
			i += len(body)
			hits++
			continue
		}
		out = append(out, seq[i])
		i++
	}
	return out, hits
}

// extractFunctions runs up to cfg.FunctionRounds rounds of procedure
// extraction over seq.
func (s *synthesizer) extractFunctions(seq []token) ([]token, []program.Procedure) {
	sol := s.w.Solution
	names := append([]string(nil), sol.FunctionNames...)
	var procs []program.Procedure
	used := map[string]bool{}
	for round := 0; round < s.cfg.FunctionRounds; round++ {
		cands := frequent(seq, s.cfg.FunctionMinLen, s.cfg.FunctionMaxLen)
		var c *candidate
		if sol.ForceFunction {
			c = pick(cands, true, true)
		}
		if c == nil {
			c = pick(cands, sol.ForceFunction, false)
		}
		if c == nil {
			break
		}
		name := ""
		for len(names) > 0 && name == "" {
			if n := names[0]; !used[n] {
				name = n
			}
			names = names[1:]
		}
		if name == "" {
			name = fmt.Sprintf("PROCEDURE_%d", round+1)
		}
		body := append([]token(nil), c.original...)
		next, hits := replace(seq, body, name)
		if hits < 2 && !sol.ForceFunction {
			break
		}
		used[name] = true
		procs = append(procs, program.Procedure{Name: name, Body: compress(body, s.canRepeat)})
		seq = next
	}
	return seq, procs
}
