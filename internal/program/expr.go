package program

import (
	"fmt"
	"strconv"
)

// Expr is a numeric value node: a literal, a variable read or arithmetic.
type Expr interface {
	expr()
	String() string
}

type Op string

const (
	OpAdd      Op = "ADD"
	OpSubtract Op = "SUBTRACT"
	OpMultiply Op = "MULTIPLY"
	OpDivide   Op = "DIVIDE"
)

func (o Op) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	}
	return "?"
}

func ParseOp(s string) (Op, error) {
	switch o := Op(s); o {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return o, nil
	}
	return "", fmt.Errorf("unknown arithmetic op %q", s)
}

type (
	Num struct {
		V int
	}
	VarRef struct {
		Name string
	}
	Arith struct {
		Op   Op
		A, B Expr
	}
)

func (Num) expr()    {}
func (VarRef) expr() {}
func (Arith) expr()  {}

func (n Num) String() string    { return strconv.Itoa(n.V) }
func (v VarRef) String() string { return v.Name }

func (a Arith) String() string {
	return fmt.Sprintf("%s %s %s", operand(a.A), a.Op.Symbol(), operand(a.B))
}

func operand(e Expr) string {
	if _, ok := e.(Arith); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Vars lists the variable names an expression reads, in first-use order.
func Vars(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case VarRef:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case Arith:
			walk(v.A)
			walk(v.B)
		}
	}
	walk(e)
	return out
}
