// Package program is the structured, loop- and procedure-aware form of a maze
// solution.
package program

import "mazeforge.ai/internal/sim/action"

// Block is one node of a program tree. The set of implementations is closed.
type Block interface {
	block()
}

type (
	Move    struct{}
	Jump    struct{}
	Collect struct{}
	Toggle  struct{}

	// Turn is one parametrized kind for both directions.
	Turn struct {
		Dir action.Action
	}

	Repeat struct {
		Times int
		Body  []Block
	}

	RepeatVar struct {
		Var  string
		Body []Block
	}

	RepeatExpr struct {
		Expr Expr
		Body []Block
	}

	SetVar struct {
		Var   string
		Value Expr
	}

	Call struct {
		Name string
	}
)

func (Move) block()       {}
func (Jump) block()       {}
func (Collect) block()    {}
func (Toggle) block()     {}
func (Turn) block()       {}
func (Repeat) block()     {}
func (RepeatVar) block()  {}
func (RepeatExpr) block() {}
func (SetVar) block()     {}
func (Call) block()       {}

// Body returns the children of loop blocks and nil for everything else.
func Body(b Block) []Block {
	switch v := b.(type) {
	case Repeat:
		return v.Body
	case RepeatVar:
		return v.Body
	case RepeatExpr:
		return v.Body
	}
	return nil
}

// WithBody returns a copy of a loop block with its body replaced. Non-loop
// blocks are returned unchanged.
func WithBody(b Block, body []Block) Block {
	switch v := b.(type) {
	case Repeat:
		v.Body = body
		return v
	case RepeatVar:
		v.Body = body
		return v
	case RepeatExpr:
		v.Body = body
		return v
	}
	return b
}

// FromAction maps a primitive action to its atomic block.
func FromAction(a action.Action) Block {
	switch a {
	case action.MoveForward:
		return Move{}
	case action.Jump:
		return Jump{}
	case action.Collect:
		return Collect{}
	case action.ToggleSwitch:
		return Toggle{}
	case action.TurnLeft, action.TurnRight:
		return Turn{Dir: a}
	}
	return nil
}

// Primitive maps an atomic block back to its action.
func Primitive(b Block) (action.Action, bool) {
	switch v := b.(type) {
	case Move:
		return action.MoveForward, true
	case Jump:
		return action.Jump, true
	case Collect:
		return action.Collect, true
	case Toggle:
		return action.ToggleSwitch, true
	case Turn:
		return v.Dir, true
	}
	return "", false
}

// Atoms turns a flat action list into atomic blocks.
func Atoms(as []action.Action) []Block {
	out := make([]Block, 0, len(as))
	for _, a := range as {
		out = append(out, FromAction(a))
	}
	return out
}

type Procedure struct {
	Name string
	Body []Block
}

// Program is the main entry plus procedures in definition order.
type Program struct {
	Main       []Block
	Procedures []Procedure
}

func (p *Program) Procedure(name string) ([]Block, bool) {
	for _, pr := range p.Procedures {
		if pr.Name == name {
			return pr.Body, true
		}
	}
	return nil, false
}
