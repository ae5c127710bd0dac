// Package encoding packs raw action traces for logs and index rows.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"mazeforge.ai/internal/sim/action"
)

// Run is a maximal block of identical consecutive actions.
type Run struct {
	Action action.Action
	N      int
}

func (r Run) String() string {
	if r.N == 1 {
		return string(r.Action)
	}
	return string(r.Action) + "*" + strconv.Itoa(r.N)
}

func Runs(as []action.Action) []Run {
	var out []Run
	for i := 0; i < len(as); {
		j := i + 1
		for j < len(as) && as[j] == as[i] {
			j++
		}
		out = append(out, Run{Action: as[i], N: j - i})
		i = j
	}
	return out
}

// FormatRuns renders a trace as space separated runs, e.g.
// "moveForward*3 turnLeft jump".
func FormatRuns(as []action.Action) string {
	runs := Runs(as)
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

func index(a action.Action) (int, bool) {
	for i, v := range action.All {
		if v == a {
			return i, true
		}
	}
	return 0, false
}

// EncodeTrace packs a trace into base64(varint pairs). The pairs are
// (index into action.All, run length) repeated.
func EncodeTrace(as []action.Action) (string, error) {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	for _, r := range Runs(as) {
		idx, ok := index(r.Action)
		if !ok {
			return "", fmt.Errorf("encode trace: unknown action %q", r.Action)
		}
		n := binary.PutUvarint(tmp[:], uint64(idx))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(r.N))
		buf.Write(tmp[:n])
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeTrace reverses EncodeTrace. limit bounds the decoded length; <= 0
// means unlimited.
func DecodeTrace(b64 string, limit int) ([]action.Action, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []action.Action
	for i := 0; i < len(raw); {
		idx, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if idx >= uint64(len(action.All)) {
			return nil, fmt.Errorf("action index out of range: %d", idx)
		}
		if run == 0 {
			return nil, fmt.Errorf("empty run at %d", i)
		}
		if limit > 0 && uint64(len(out))+run > uint64(limit) {
			return nil, fmt.Errorf("trace longer than %d actions", limit)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, action.All[idx])
		}
	}
	return out, nil
}
