package data

import (
	"fmt"
	"path/filepath"
)

// Assets is the asset provider consulted by the simulation. Lookups may miss:
// a replicated spawn can name a definition this peer has not loaded, and
// callers skip the entity until it resolves.
type Assets struct {
	units     map[string]*Unit
	anims     map[string]*AnimationSet
	unitAnims map[string]*UnitAnimationSet
	maps      map[string]*Map
}

// NewAssets returns an empty provider.
func NewAssets() *Assets {
	return &Assets{
		units:     make(map[string]*Unit),
		anims:     make(map[string]*AnimationSet),
		unitAnims: make(map[string]*UnitAnimationSet),
		maps:      make(map[string]*Map),
	}
}

// LoadAssets loads units.yaml, animations.yaml, unit_animations.yaml and
// maps/*.yaml from dir.
func LoadAssets(dir string) (*Assets, error) {
	a := NewAssets()

	units, err := LoadUnitTable(filepath.Join(dir, "units.yaml"))
	if err != nil {
		return nil, err
	}
	a.units = units.units

	if a.anims, err = LoadAnimationSets(filepath.Join(dir, "animations.yaml")); err != nil {
		return nil, err
	}
	if a.unitAnims, err = LoadUnitAnimationSets(filepath.Join(dir, "unit_animations.yaml")); err != nil {
		return nil, err
	}
	if a.maps, err = LoadMaps(filepath.Join(dir, "maps")); err != nil {
		return nil, err
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return a, nil
}

// check verifies that every map spawn names loaded definitions.
func (a *Assets) check() error {
	for _, m := range a.maps {
		for _, s := range m.StartSpawns() {
			if a.units[s.Unit] == nil {
				return fmt.Errorf("map %q: unknown unit %q", m.Name, s.Unit)
			}
			if a.anims[s.AnimationSet] == nil {
				return fmt.Errorf("map %q: unknown animation set %q", m.Name, s.AnimationSet)
			}
			if a.unitAnims[s.UnitAnimationSet] == nil {
				return fmt.Errorf("map %q: unknown unit animation set %q", m.Name, s.UnitAnimationSet)
			}
		}
	}
	return nil
}

// AddUnit registers a unit definition.
func (a *Assets) AddUnit(u *Unit) { a.units[u.Name] = u }

// AddAnimationSet registers an animation set.
func (a *Assets) AddAnimationSet(s *AnimationSet) { a.anims[s.Name] = s }

// AddUnitAnimationSet registers a unit animation set.
func (a *Assets) AddUnitAnimationSet(s *UnitAnimationSet) { a.unitAnims[s.Name] = s }

// AddMap registers a map.
func (a *Assets) AddMap(m *Map) { a.maps[m.Name] = m }

// Unit returns a unit definition by handle.
func (a *Assets) Unit(name string) (*Unit, bool) {
	u, ok := a.units[name]
	return u, ok
}

// AnimationSet returns an animation set by handle.
func (a *Assets) AnimationSet(name string) (*AnimationSet, bool) {
	s, ok := a.anims[name]
	return s, ok
}

// UnitAnimationSet returns a unit animation set by handle.
func (a *Assets) UnitAnimationSet(name string) (*UnitAnimationSet, bool) {
	s, ok := a.unitAnims[name]
	return s, ok
}

// Map returns a map by name.
func (a *Assets) Map(name string) (*Map, bool) {
	m, ok := a.maps[name]
	return m, ok
}

// Counts returns the number of loaded units, animation sets, unit animation
// sets and maps, for startup logging.
func (a *Assets) Counts() (units, anims, unitAnims, maps int) {
	return len(a.units), len(a.anims), len(a.unitAnims), len(a.maps)
}
