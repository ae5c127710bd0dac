package encoding

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mazeforge.ai/internal/sim/action"
)

func TestTrace_RoundTrip(t *testing.T) {
	in := []action.Action{action.MoveForward, action.MoveForward, action.MoveForward, action.TurnLeft, action.Jump, action.Jump}
	for i := 0; i < 50; i++ {
		in = append(in, action.MoveForward)
	}
	in = append(in, action.Collect, action.ToggleSwitch, action.TurnRight)

	enc, err := EncodeTrace(in)
	if err != nil {
		t.Fatalf("EncodeTrace: %v", err)
	}
	out, err := DecodeTrace(enc, 0)
	if err != nil {
		t.Fatalf("DecodeTrace: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if _, err := DecodeTrace(enc, 10); err == nil {
		t.Fatalf("expected length limit error")
	}
}

func TestTrace_Empty(t *testing.T) {
	enc, err := EncodeTrace(nil)
	if err != nil || enc != "" {
		t.Fatalf("empty trace: %q %v", enc, err)
	}
	out, err := DecodeTrace("", 0)
	if err != nil || len(out) != 0 {
		t.Fatalf("decode empty: %v %v", out, err)
	}
}

func TestTrace_Rejects(t *testing.T) {
	if _, err := EncodeTrace([]action.Action{"fly"}); err == nil {
		t.Fatalf("expected unknown action error")
	}
	if _, err := DecodeTrace("!!!", 0); err == nil {
		t.Fatalf("expected base64 error")
	}
	// index 9 is outside the vocabulary.
	if _, err := DecodeTrace("CQE=", 0); err == nil {
		t.Fatalf("expected index error")
	}
}

func TestFormatRuns(t *testing.T) {
	as := []action.Action{action.MoveForward, action.MoveForward, action.TurnLeft, action.Jump, action.Jump, action.Jump}
	if got := FormatRuns(as); got != "moveForward*2 turnLeft jump*3" {
		t.Fatalf("FormatRuns: %q", got)
	}
}
