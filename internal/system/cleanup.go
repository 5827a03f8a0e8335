package system

import (
	"time"

	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end
// and advances the world tick counter. Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.ECS.FlushDestroyQueue()
	s.world.Tick++
}
