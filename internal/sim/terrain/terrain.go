package terrain

import (
	"fmt"
	"sort"
	"strings"
)

// Class is a bit set; one model key may carry several classes.
type Class uint8

const (
	Walkable Class = 1 << iota
	Jumpable
	Unjumpable
	Deadly
)

var classNames = []struct {
	c    Class
	name string
}{
	{Walkable, "walkable"},
	{Jumpable, "jumpable"},
	{Unjumpable, "unjumpable"},
	{Deadly, "deadly"},
}

func (c Class) Has(o Class) bool { return c&o == o && o != 0 }

func (c Class) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, cn := range classNames {
		if c.Has(cn.c) {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

func ParseClass(s string) (Class, error) {
	for _, cn := range classNames {
		if cn.name == s {
			return cn.c, nil
		}
	}
	return 0, fmt.Errorf("unknown terrain class %q", s)
}

// Table classifies terrain model keys. The zero value classifies nothing.
type Table struct {
	byModel map[string]Class
}

// DefaultModel is assumed for obstacles that carry no model key.
const DefaultModel = "wall.brick01"

var groundModels = []string{
	"wall.brick01", "wall.brick02", "wall.brick03", "wall.brick04", "wall.brick05", "wall.brick06",
	"ground.checker", "ground.earth", "ground.earthChecker", "ground.mud", "ground.normal", "ground.snow",
	"stone.stone01", "stone.stone02", "stone.stone03", "stone.stone04", "stone.stone05", "stone.stone06", "stone.stone07",
	"ice.ice01",
}

// Default returns the built-in classification table.
func Default() Table {
	m := make(map[string]Class, len(groundModels)+4)
	for _, k := range groundModels {
		m[k] |= Walkable | Jumpable
	}
	for _, k := range []string{"wall.stone01", "lava.lava01", "water.water01", "ice.ice01"} {
		m[k] |= Unjumpable
	}
	m["lava.lava01"] |= Deadly
	return Table{byModel: m}
}

// WithOverrides returns a copy whose listed model keys are replaced by the
// given class names. An empty class list removes the model from the table.
func (t Table) WithOverrides(over map[string][]string) (Table, error) {
	m := make(map[string]Class, len(t.byModel)+len(over))
	for k, c := range t.byModel {
		m[k] = c
	}
	keys := make([]string, 0, len(over))
	for k := range over {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var c Class
		for _, name := range over[k] {
			cc, err := ParseClass(name)
			if err != nil {
				return Table{}, fmt.Errorf("terrain override %s: %w", k, err)
			}
			c |= cc
		}
		if c == 0 {
			delete(m, k)
			continue
		}
		m[k] = c
	}
	return Table{byModel: m}, nil
}

func (t Table) Classify(model string) Class { return t.byModel[model] }

func (t Table) IsWalkable(model string) bool { return t.Classify(model).Has(Walkable) }
func (t Table) IsJumpable(model string) bool { return t.Classify(model).Has(Jumpable) }
func (t Table) IsDeadly(model string) bool   { return t.Classify(model).Has(Deadly) }

// Models returns the classified model keys in sorted order.
func (t Table) Models() []string {
	out := make([]string, 0, len(t.byModel))
	for k := range t.byModel {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
