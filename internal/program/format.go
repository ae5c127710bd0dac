package program

import (
	"fmt"
	"regexp"
	"strings"

	"mazeforge.ai/internal/sim/action"
)

// Lines renders the program as an indented text listing, procedures first.
func Lines(p *Program) []string {
	var out []string
	for _, pr := range p.Procedures {
		out = append(out, "DEFINE "+pr.Name+":")
		out = appendLines(out, pr.Body, 1)
	}
	if len(p.Procedures) > 0 && len(p.Main) > 0 {
		out = append(out, "")
	}
	out = append(out, "MAIN PROGRAM:", "  On start:")
	return appendLines(out, p.Main, 2)
}

// Format joins Lines with newlines.
func Format(p *Program) string {
	return strings.Join(Lines(p), "\n") + "\n"
}

func appendLines(out []string, blocks []Block, indent int) []string {
	prefix := strings.Repeat("  ", indent)
	for _, b := range blocks {
		switch v := b.(type) {
		case Repeat:
			out = append(out, fmt.Sprintf("%srepeat (%d) do:", prefix, v.Times))
			out = appendLines(out, v.Body, indent+1)
		case RepeatVar:
			out = append(out, fmt.Sprintf("%srepeat with variable (%s) do:", prefix, v.Var))
			out = appendLines(out, v.Body, indent+1)
		case RepeatExpr:
			out = append(out, fmt.Sprintf("%srepeat with expression (%s) do:", prefix, v.Expr))
			out = appendLines(out, v.Body, indent+1)
		case SetVar:
			out = append(out, fmt.Sprintf("%sset %s to %s", prefix, v.Var, v.Value))
		case Call:
			out = append(out, prefix+"CALL "+v.Name)
		case Turn:
			out = append(out, prefix+string(v.Dir))
		default:
			out = append(out, prefix+TypeID(b))
		}
	}
	return out
}

var jsIdent = regexp.MustCompile(`[^A-Za-z0-9_$]`)

// jsName maps a procedure name to a JavaScript identifier.
func jsName(name string) string {
	s := jsIdent.ReplaceAllString(name, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	return s
}

var jsCalls = map[action.Action]string{
	action.MoveForward:  "moveForward();",
	action.TurnLeft:     "turnLeft();",
	action.TurnRight:    "turnRight();",
	action.Jump:         "jump();",
	action.Collect:      "collectItem();",
	action.ToggleSwitch: "toggleSwitch();",
}

// JavaScript renders the program as the JavaScript a student would write.
func JavaScript(p *Program) string {
	js := &jsWriter{declared: map[string]bool{}}
	for _, pr := range p.Procedures {
		js.line(0, fmt.Sprintf("function %s() {", jsName(pr.Name)))
		js.blocks(pr.Body, 1)
		js.line(0, "}")
	}
	js.blocks(p.Main, 0)
	return strings.Join(js.out, "\n")
}

type jsWriter struct {
	out      []string
	declared map[string]bool
	loops    int
}

func (j *jsWriter) line(indent int, s string) {
	j.out = append(j.out, strings.Repeat("  ", indent)+s)
}

func (j *jsWriter) loop(indent int, bound string, body []Block) {
	v := fmt.Sprintf("count%d", j.loops)
	j.loops++
	j.line(indent, fmt.Sprintf("for (var %s = 0; %s < %s; %s++) {", v, v, bound, v))
	j.blocks(body, indent+1)
	j.line(indent, "}")
}

func (j *jsWriter) blocks(blocks []Block, indent int) {
	for _, b := range blocks {
		switch v := b.(type) {
		case Repeat:
			j.loop(indent, fmt.Sprint(v.Times), v.Body)
		case RepeatVar:
			j.loop(indent, v.Var, v.Body)
		case RepeatExpr:
			j.loop(indent, v.Expr.String(), v.Body)
		case SetVar:
			if !j.declared[v.Var] {
				j.declared[v.Var] = true
				j.line(indent, "var "+v.Var+";")
			}
			j.line(indent, fmt.Sprintf("%s = %s;", v.Var, v.Value))
		case Call:
			j.line(indent, jsName(v.Name)+"();")
		default:
			if a, ok := Primitive(b); ok {
				j.line(indent, jsCalls[a])
			}
		}
	}
}
