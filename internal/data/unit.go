package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ChangeCaps/robots-or-smth/internal/unit"
)

// Unit holds the static definition of a unit type loaded from YAML.
// Definitions are shared by pointer and never mutated after loading.
type Unit struct {
	Name             string        `yaml:"name"`
	Size             float32       `yaml:"size"`
	SelectionSize    float32       `yaml:"selection_size"`
	MovementPriority float32       `yaml:"movement_priority"`
	MovementSpeed    MovementSpeed `yaml:"movement_speed"`
	Attack           *Attack       `yaml:"attack,omitempty"` // nil = unit cannot attack
	MaxHealth        float32       `yaml:"max_health"`
}

// Instance creates the runtime state for a freshly spawned unit.
func (u *Unit) Instance() *unit.Instance {
	return unit.New(u.MaxHealth)
}

// MovementSpeed is either a constant speed or a base speed modulated per
// animation frame. FrameMods empty means constant.
type MovementSpeed struct {
	Speed     float32   `yaml:"speed"`
	FrameMods []float32 `yaml:"frame_mods,omitempty"`
}

// At returns the speed in world units per second while the walk animation
// shows frame. Frames past the table wrap around.
func (m MovementSpeed) At(frame int) float32 {
	if len(m.FrameMods) == 0 {
		return m.Speed
	}
	if frame < 0 {
		frame = 0
	}
	return m.Speed * m.FrameMods[frame%len(m.FrameMods)]
}

// FrameWise reports whether speed depends on the animation frame.
func (m MovementSpeed) FrameWise() bool { return len(m.FrameMods) > 0 }

// FrameRange is a closed interval of animation frames.
type FrameRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains reports whether frame lies in [Start, End].
func (r FrameRange) Contains(frame int) bool {
	return frame >= r.Start && frame <= r.End
}

// Attack describes a unit's melee/ranged capability.
type Attack struct {
	Range         float32         `yaml:"range"`
	EngageRange   float32         `yaml:"engage_range"`
	AnimationLock FrameRange      `yaml:"animation_lock"`
	Damage        map[int]float32 `yaml:"damage"` // animation frame → damage dealt when that frame begins
}

// DamageAt returns the damage event registered for frame, if any.
func (a *Attack) DamageAt(frame int) (float32, bool) {
	d, ok := a.Damage[frame]
	return d, ok
}

// UnitTable indexes unit definitions by name.
type UnitTable struct {
	units map[string]*Unit
}

// Get returns a unit definition by name, or nil if not found.
func (t *UnitTable) Get(name string) *Unit {
	return t.units[name]
}

// Count returns the number of loaded definitions.
func (t *UnitTable) Count() int {
	return len(t.units)
}

// --- YAML loading ---

type unitFile struct {
	Units []Unit `yaml:"units"`
}

// LoadUnitTable loads unit definitions from a YAML file.
func LoadUnitTable(path string) (*UnitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("units: read %s: %w", path, err)
	}
	t, err := ParseUnitTable(raw)
	if err != nil {
		return nil, fmt.Errorf("units: parse %s: %w", path, err)
	}
	return t, nil
}

// ParseUnitTable decodes and validates unit definitions.
func ParseUnitTable(raw []byte) (*UnitTable, error) {
	var f unitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	t := &UnitTable{units: make(map[string]*Unit, len(f.Units))}
	for i := range f.Units {
		u := &f.Units[i]
		if err := u.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.units[u.Name]; dup {
			return nil, fmt.Errorf("duplicate unit %q", u.Name)
		}
		t.units[u.Name] = u
	}
	return t, nil
}

func (u *Unit) validate() error {
	switch {
	case u.Name == "":
		return fmt.Errorf("unit without name")
	case u.Size <= 0:
		return fmt.Errorf("unit %q: size must be positive", u.Name)
	case u.MaxHealth <= 0:
		return fmt.Errorf("unit %q: max_health must be positive", u.Name)
	case u.MovementPriority < 0:
		return fmt.Errorf("unit %q: movement_priority must not be negative", u.Name)
	}
	if u.SelectionSize == 0 {
		u.SelectionSize = u.Size
	}
	if a := u.Attack; a != nil {
		if a.Range <= 0 {
			return fmt.Errorf("unit %q: attack range must be positive", u.Name)
		}
		if a.AnimationLock.End < a.AnimationLock.Start {
			return fmt.Errorf("unit %q: animation_lock end before start", u.Name)
		}
		// Engaging from further than the unit can hit would never resolve.
		if a.EngageRange < a.Range {
			a.EngageRange = a.Range
		}
	}
	return nil
}
