package terrain

import "testing"

func TestDefaultClassification(t *testing.T) {
	tab := Default()
	if !tab.IsWalkable("ground.normal") || !tab.IsJumpable("ground.normal") {
		t.Fatalf("ground.normal should be walkable and jumpable: %v", tab.Classify("ground.normal"))
	}
	if tab.IsWalkable("lava.lava01") || !tab.IsDeadly("lava.lava01") {
		t.Fatalf("lava should be deadly and not walkable: %v", tab.Classify("lava.lava01"))
	}
	if got := tab.Classify("ice.ice01"); !got.Has(Walkable) || !got.Has(Unjumpable) {
		t.Fatalf("ice should be walkable and unjumpable, got %v", got)
	}
	if got := tab.Classify("unknown.model"); got != 0 {
		t.Fatalf("unknown model should be unclassified, got %v", got)
	}
}

func TestWithOverrides(t *testing.T) {
	tab, err := Default().WithOverrides(map[string][]string{
		"lava.lava01":  {"walkable"},
		"ground.snow":  nil,
		"crate.wood01": {"jumpable", "unjumpable"},
	})
	if err != nil {
		t.Fatalf("WithOverrides: %v", err)
	}
	if got := tab.Classify("lava.lava01"); got != Walkable {
		t.Fatalf("lava override: got %v", got)
	}
	if got := tab.Classify("ground.snow"); got != 0 {
		t.Fatalf("snow should be removed, got %v", got)
	}
	if got := tab.Classify("crate.wood01").String(); got != "jumpable|unjumpable" {
		t.Fatalf("crate classes: got %q", got)
	}
	// The base table is untouched.
	if !Default().IsWalkable("ground.snow") {
		t.Fatalf("default table mutated")
	}
	if _, err := Default().WithOverrides(map[string][]string{"x": {"sticky"}}); err == nil {
		t.Fatalf("expected unknown class rejected")
	}
}
