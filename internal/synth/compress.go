package synth

import (
	"mazeforge.ai/internal/program"
	"mazeforge.ai/internal/sim/action"
)

// token is one element of the working sequence: a primitive action or a call
// to an extracted procedure.
type token struct {
	act  action.Action
	call string
}

func tokens(as []action.Action) []token {
	out := make([]token, len(as))
	for i, a := range as {
		out[i] = token{act: a}
	}
	return out
}

func (t token) block() program.Block {
	if t.call != "" {
		return program.Call{Name: t.call}
	}
	return program.FromAction(t.act)
}

// norm treats both turn directions as the same token.
func (t token) norm() token {
	if t.act.IsTurn() {
		return token{act: action.TurnLeft}
	}
	return t
}

func equal(a, b []token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runAt counts immediate repetitions of seq[i:i+n].
func runAt(seq []token, i, n int) int {
	r := 1
	for i+(r+1)*n <= len(seq) && equal(seq[i:i+n], seq[i+r*n:i+(r+1)*n]) {
		r++
	}
	return r
}

// savings is the block count removed by wrapping r copies of an n-long body
// in one loop.
func savings(r, n int) int { return r*n - (1 + n) }

// Compress is the structural strategy: at each position take the immediate
// repeat whose loop saves the most blocks (ties go to the longer body),
// recurse into its body and continue after it. Without maze_repeat every
// token becomes an atomic block.
func Compress(as []action.Action, canRepeat bool) []program.Block {
	return compress(tokens(as), canRepeat)
}

func compress(seq []token, canRepeat bool) []program.Block {
	out := make([]program.Block, 0, len(seq))
	for i := 0; i < len(seq); {
		bestLen, bestReps, bestSave := 0, 0, 0
		if canRepeat {
			for n := 1; i+2*n <= len(seq); n++ {
				r := runAt(seq, i, n)
				if r < 2 {
					continue
				}
				if s := savings(r, n); s > 0 && s >= bestSave {
					bestLen, bestReps, bestSave = n, r, s
				}
			}
		}
		if bestReps > 0 {
			out = append(out, program.Repeat{Times: bestReps, Body: compress(seq[i:i+bestLen], canRepeat)})
			i += bestReps * bestLen
			continue
		}
		out = append(out, seq[i].block())
		i++
	}
	return out
}

type segment struct {
	start, n, reps int
}

func (s segment) end() int { return s.start + s.n*s.reps }

// bestSegment scans every start and body length for the immediate repeat that
// maximizes score; the first maximum wins. ok is false when nothing repeats.
func bestSegment(seq []token, score func(r, n int) int, floor int) (segment, bool) {
	var best segment
	bestScore := floor
	found := false
	for n := 1; n <= len(seq)/2; n++ {
		for i := 0; i+n <= len(seq); i++ {
			r := runAt(seq, i, n)
			if r < 2 {
				continue
			}
			if s := score(r, n); s > bestScore {
				best, bestScore, found = segment{start: i, n: n, reps: r}, s, true
			}
		}
	}
	return best, found
}

func coverage(r, n int) int { return r * n }
