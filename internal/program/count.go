package program

// Count is the canonical block count: one for the main entry header, one per
// procedure definition header and one per block, recursing into every loop
// kind. Expressions are block inputs and are not counted.
func Count(p *Program) int {
	n := 1 + len(p.Procedures)
	WalkProgram(p, func(Block, int) bool {
		n++
		return true
	})
	return n
}

// CountBlocks counts a bare block list without any header.
func CountBlocks(blocks []Block) int {
	n := 0
	Walk(blocks, func(Block, int) bool {
		n++
		return true
	})
	return n
}

// LogicalLines is the logical-lines-of-code metric of the JavaScript form:
// one per statement and loop header, one per procedure header, plus one for
// the first declaration of each variable. Procedures are counted first and
// share the declared-variable set with main.
func LogicalLines(p *Program) int {
	declared := map[string]bool{}
	n := len(p.Procedures)
	WalkProgram(p, func(b Block, _ int) bool {
		if sv, ok := b.(SetVar); ok && !declared[sv.Var] {
			declared[sv.Var] = true
			n++
		}
		n++
		return true
	})
	return n
}
