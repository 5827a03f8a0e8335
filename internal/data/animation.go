package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Animation is one looping clip: Frames frames shown FrameLength seconds each.
type Animation struct {
	Frames      int     `yaml:"frames"`
	FrameLength float32 `yaml:"frame_length"`
}

// FrameAt returns the frame index shown after playing for t seconds.
func (a *Animation) FrameAt(t float32) int {
	if a.Frames <= 0 || a.FrameLength <= 0 {
		return 0
	}
	return int(t/a.FrameLength) % a.Frames
}

// AnimationSet maps concrete animation names (e.g. "walk_up") to clips.
type AnimationSet struct {
	Name       string               `yaml:"name"`
	Animations map[string]Animation `yaml:"animations"`
}

// Get returns the named clip.
func (s *AnimationSet) Get(name string) (*Animation, bool) {
	a, ok := s.Animations[name]
	if !ok {
		return nil, false
	}
	return &a, true
}

// UnitAnimation names the concrete animation to play for each compass facing.
type UnitAnimation struct {
	Up        string `yaml:"up"`
	UpRight   string `yaml:"up_right"`
	Right     string `yaml:"right"`
	DownRight string `yaml:"down_right"`
	Down      string `yaml:"down"`
	DownLeft  string `yaml:"down_left"`
	Left      string `yaml:"left"`
	UpLeft    string `yaml:"up_left"`
}

// Directions returns the names in compass order starting at Up and turning
// clockwise.
func (u *UnitAnimation) Directions() [8]string {
	return [8]string{u.Up, u.UpRight, u.Right, u.DownRight, u.Down, u.DownLeft, u.Left, u.UpLeft}
}

// UnitAnimationSet maps logical animations ("idle", "walk", "attack") to
// their per-direction concrete names.
type UnitAnimationSet struct {
	Name       string                   `yaml:"name"`
	Animations map[string]UnitAnimation `yaml:"animations"`
}

// Get returns the directional table for a logical animation.
func (s *UnitAnimationSet) Get(name string) (*UnitAnimation, bool) {
	a, ok := s.Animations[name]
	if !ok {
		return nil, false
	}
	return &a, true
}

// --- YAML loading ---

type animationSetFile struct {
	Sets []AnimationSet `yaml:"animation_sets"`
}

type unitAnimationSetFile struct {
	Sets []UnitAnimationSet `yaml:"unit_animation_sets"`
}

// LoadAnimationSets loads animation sets from a YAML file, keyed by name.
func LoadAnimationSets(path string) (map[string]*AnimationSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("animations: read %s: %w", path, err)
	}
	var f animationSetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("animations: parse %s: %w", path, err)
	}
	out := make(map[string]*AnimationSet, len(f.Sets))
	for i := range f.Sets {
		s := &f.Sets[i]
		for name, a := range s.Animations {
			if a.Frames <= 0 || a.FrameLength <= 0 {
				return nil, fmt.Errorf("animations: %s/%s: frames and frame_length must be positive", s.Name, name)
			}
		}
		out[s.Name] = s
	}
	return out, nil
}

// LoadUnitAnimationSets loads unit animation sets from a YAML file, keyed by name.
func LoadUnitAnimationSets(path string) (map[string]*UnitAnimationSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unit animations: read %s: %w", path, err)
	}
	var f unitAnimationSetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unit animations: parse %s: %w", path, err)
	}
	out := make(map[string]*UnitAnimationSet, len(f.Sets))
	for i := range f.Sets {
		out[f.Sets[i].Name] = &f.Sets[i]
	}
	return out, nil
}
