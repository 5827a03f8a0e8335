package data

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// SpawnEntry places one unit when a match starts.
type SpawnEntry struct {
	Unit             string  `yaml:"unit"`
	AnimationSet     string  `yaml:"animation_set"`
	UnitAnimationSet string  `yaml:"unit_animation_set"`
	Owner            uint64  `yaml:"owner"` // 0 in player_spawns = the slot's player
	X                float32 `yaml:"x"`
	Y                float32 `yaml:"y"`
	Z                float32 `yaml:"z"`
}

// Position returns the spawn point.
func (s SpawnEntry) Position() mgl32.Vec3 { return mgl32.Vec3{s.X, s.Y, s.Z} }

// Map is a match layout: the player slots it accepts and what to spawn once
// every slot is connected.
type Map struct {
	Name         string                  `yaml:"name"`
	Players      []uint64                `yaml:"players"`
	Spawns       []SpawnEntry            `yaml:"spawns"`
	PlayerSpawns map[uint64][]SpawnEntry `yaml:"player_spawns"`
}

// StartSpawns returns every spawn of the match in deterministic order:
// neutral spawns first, then each slot's spawns in slot order. Player spawns
// without an explicit owner are owned by their slot.
func (m *Map) StartSpawns() []SpawnEntry {
	out := make([]SpawnEntry, 0, len(m.Spawns))
	out = append(out, m.Spawns...)
	for _, slot := range m.Players {
		for _, s := range m.PlayerSpawns[slot] {
			if s.Owner == 0 {
				s.Owner = slot
			}
			out = append(out, s)
		}
	}
	return out
}

func (m *Map) validate() error {
	if m.Name == "" {
		return fmt.Errorf("map without name")
	}
	if len(m.Players) == 0 {
		return fmt.Errorf("map %q: no player slots", m.Name)
	}
	seen := make(map[uint64]bool, len(m.Players))
	for _, p := range m.Players {
		if p == 0 {
			return fmt.Errorf("map %q: player slot 0 is reserved for neutral units", m.Name)
		}
		if seen[p] {
			return fmt.Errorf("map %q: duplicate player slot %d", m.Name, p)
		}
		seen[p] = true
	}
	for slot := range m.PlayerSpawns {
		if !seen[slot] {
			return fmt.Errorf("map %q: spawns for unknown slot %d", m.Name, slot)
		}
	}
	return nil
}

// ParseMap decodes and validates one map.
func ParseMap(raw []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadMaps loads every *.yaml map in dir, keyed by map name.
func LoadMaps(dir string) (map[string]*Map, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("maps: glob %s: %w", dir, err)
	}
	slices.Sort(paths)

	out := make(map[string]*Map, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("maps: read %s: %w", p, err)
		}
		m, err := ParseMap(raw)
		if err != nil {
			return nil, fmt.Errorf("maps: parse %s: %w", filepath.Base(p), err)
		}
		if _, dup := out[m.Name]; dup {
			return nil, fmt.Errorf("maps: duplicate map %q in %s", m.Name, strings.TrimSuffix(filepath.Base(p), ".yaml"))
		}
		out[m.Name] = m
	}
	return out, nil
}
