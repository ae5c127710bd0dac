package program

// Visitor is called for every block in pre-order with its loop depth.
// Returning false skips the block's children.
type Visitor func(b Block, depth int) bool

// Walk visits blocks and recurses into every loop kind.
func Walk(blocks []Block, v Visitor) {
	walk(blocks, 0, v)
}

func walk(blocks []Block, depth int, v Visitor) {
	for _, b := range blocks {
		if !v(b, depth) {
			continue
		}
		if body := Body(b); len(body) > 0 {
			walk(body, depth+1, v)
		}
	}
}

// WalkProgram visits each procedure body, then main.
func WalkProgram(p *Program, v Visitor) {
	for _, pr := range p.Procedures {
		Walk(pr.Body, v)
	}
	Walk(p.Main, v)
}

// Transform rebuilds blocks bottom-up: loop bodies are transformed first,
// then fn maps each block to its replacement. A nil result drops the block.
func Transform(blocks []Block, fn func(Block) []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if body := Body(b); body != nil {
			b = WithBody(b, Transform(body, fn))
		}
		out = append(out, fn(b)...)
	}
	return out
}

// TransformProgram applies Transform to every body of p in place.
func TransformProgram(p *Program, fn func(Block) []Block) {
	for i := range p.Procedures {
		p.Procedures[i].Body = Transform(p.Procedures[i].Body, fn)
	}
	p.Main = Transform(p.Main, fn)
}
