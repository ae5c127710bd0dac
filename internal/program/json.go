package program

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"mazeforge.ai/internal/sim/action"
)

// Block type identifiers used by the JSON form.
const (
	TypeRepeatExpression = "maze_repeat_expression"
	TypeVariablesSet     = "variables_set"
	TypeVariablesGet     = "variables_get"
	TypeMathArithmetic   = "math_arithmetic"
	TypeCall             = "CALL"
)

var ErrBadBlock = errors.New("bad program block")

// TypeID returns the JSON type identifier of a block.
func TypeID(b Block) string {
	switch b.(type) {
	case Move:
		return action.BlockMoveForward
	case Jump:
		return action.BlockJump
	case Collect:
		return action.BlockCollect
	case Toggle:
		return action.BlockToggleSwitch
	case Turn:
		return action.BlockTurn
	case Repeat:
		return action.BlockRepeat
	case RepeatVar:
		return action.BlockRepeatVariable
	case RepeatExpr:
		return TypeRepeatExpression
	case SetVar:
		return TypeVariablesSet
	case Call:
		return TypeCall
	}
	return ""
}

type wireBlock struct {
	Type       string          `json:"type"`
	Direction  string          `json:"direction,omitempty"`
	Times      *int            `json:"times,omitempty"`
	Variable   string          `json:"variable,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
	Expression json.RawMessage `json:"expression,omitempty"`
	Name       string          `json:"name,omitempty"`
	Body       []wireBlock     `json:"body,omitempty"`
}

type wireExpr struct {
	Type     string          `json:"type"`
	Variable string          `json:"variable,omitempty"`
	Op       string          `json:"op,omitempty"`
	VarA     json.RawMessage `json:"var_a,omitempty"`
	VarB     json.RawMessage `json:"var_b,omitempty"`
}

// MarshalJSON writes {"main": [...], "procedures": {name: [...]}} with
// procedures in definition order.
func (p Program) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	main, err := json.Marshal(encodeBlocks(p.Main))
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"main":`)
	buf.Write(main)
	buf.WriteString(`,"procedures":{`)
	for i, pr := range p.Procedures {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(pr.Name)
		body, err := json.Marshal(encodeBlocks(pr.Body))
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func (p *Program) UnmarshalJSON(b []byte) error {
	var raw struct {
		Main       []wireBlock     `json:"main"`
		Procedures json.RawMessage `json:"procedures"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	main, err := decodeBlocks(raw.Main)
	if err != nil {
		return err
	}
	procs, err := decodeProcedures(raw.Procedures)
	if err != nil {
		return err
	}
	*p = Program{Main: main, Procedures: procs}
	return nil
}

// decodeProcedures keeps the object's key order as definition order.
func decodeProcedures(raw json.RawMessage) ([]Procedure, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: procedures must be an object", ErrBadBlock)
	}
	var out []Procedure
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)
		var wire []wireBlock
		if err := dec.Decode(&wire); err != nil {
			return nil, fmt.Errorf("procedure %s: %w", name, err)
		}
		body, err := decodeBlocks(wire)
		if err != nil {
			return nil, fmt.Errorf("procedure %s: %w", name, err)
		}
		out = append(out, Procedure{Name: name, Body: body})
	}
	return out, nil
}

func encodeBlocks(blocks []Block) []wireBlock {
	out := make([]wireBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, encodeBlock(b))
	}
	return out
}

func encodeBlock(b Block) wireBlock {
	w := wireBlock{Type: TypeID(b)}
	switch v := b.(type) {
	case Turn:
		w.Direction = string(v.Dir)
	case Repeat:
		n := v.Times
		w.Times = &n
		w.Body = encodeBlocks(v.Body)
	case RepeatVar:
		w.Variable = v.Var
		w.Body = encodeBlocks(v.Body)
	case RepeatExpr:
		w.Expression = encodeExpr(v.Expr)
		w.Body = encodeBlocks(v.Body)
	case SetVar:
		w.Variable = v.Var
		w.Value = encodeExpr(v.Value)
	case Call:
		w.Name = v.Name
	}
	return w
}

// encodeExpr writes literals as numbers and everything else as block objects.
func encodeExpr(e Expr) json.RawMessage {
	var v any
	switch x := e.(type) {
	case Num:
		v = x.V
	case VarRef:
		v = wireExpr{Type: TypeVariablesGet, Variable: x.Name}
	case Arith:
		v = wireExpr{Type: TypeMathArithmetic, Op: string(x.Op), VarA: encodeOperand(x.A), VarB: encodeOperand(x.B)}
	default:
		v = 0
	}
	b, _ := json.Marshal(v)
	return b
}

// encodeOperand writes variable operands by bare name.
func encodeOperand(e Expr) json.RawMessage {
	if v, ok := e.(VarRef); ok {
		b, _ := json.Marshal(v.Name)
		return b
	}
	return encodeExpr(e)
}

func decodeBlocks(ws []wireBlock) ([]Block, error) {
	out := make([]Block, 0, len(ws))
	for i, w := range ws {
		b, err := decodeBlock(w)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func decodeBlock(w wireBlock) (Block, error) {
	body, err := decodeBlocks(w.Body)
	if err != nil {
		return nil, err
	}
	switch w.Type {
	case action.BlockMoveForward:
		return Move{}, nil
	case action.BlockJump:
		return Jump{}, nil
	case action.BlockCollect:
		return Collect{}, nil
	case action.BlockToggleSwitch:
		return Toggle{}, nil
	case action.BlockTurn:
		dir := action.Action(w.Direction)
		if !dir.IsTurn() {
			return nil, fmt.Errorf("%w: turn direction %q", ErrBadBlock, w.Direction)
		}
		return Turn{Dir: dir}, nil
	case action.BlockRepeat:
		if w.Times == nil {
			return nil, fmt.Errorf("%w: repeat without times", ErrBadBlock)
		}
		return Repeat{Times: *w.Times, Body: body}, nil
	case action.BlockRepeatVariable:
		return RepeatVar{Var: w.Variable, Body: body}, nil
	case TypeRepeatExpression:
		e, err := decodeExpr(w.Expression)
		if err != nil {
			return nil, err
		}
		return RepeatExpr{Expr: e, Body: body}, nil
	case TypeVariablesSet:
		e, err := decodeExpr(w.Value)
		if err != nil {
			return nil, err
		}
		return SetVar{Var: w.Variable, Value: e}, nil
	case TypeCall:
		return Call{Name: w.Name}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrBadBlock, w.Type)
}

func decodeExpr(raw json.RawMessage) (Expr, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Num{}, nil
	}
	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		return VarRef{Name: name}, nil
	case '{':
		var w wireExpr
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		switch w.Type {
		case TypeVariablesGet:
			return VarRef{Name: w.Variable}, nil
		case TypeMathArithmetic:
			op, err := ParseOp(w.Op)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadBlock, err)
			}
			a, err := decodeExpr(w.VarA)
			if err != nil {
				return nil, err
			}
			b, err := decodeExpr(w.VarB)
			if err != nil {
				return nil, err
			}
			return Arith{Op: op, A: a, B: b}, nil
		}
		return nil, fmt.Errorf("%w: unknown expression type %q", ErrBadBlock, w.Type)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: expression value %s", ErrBadBlock, raw)
	}
	return Num{V: n}, nil
}
