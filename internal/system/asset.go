package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// AssetSystem retries units whose definition was not loaded when they
// spawned. Phase 1 (PreUpdate), so a unit resolved here takes part in the
// same tick.
type AssetSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewAssetSystem(ws *world.State, log *zap.Logger) *AssetSystem {
	return &AssetSystem{world: ws, log: log}
}

func (s *AssetSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *AssetSystem) Update(_ time.Duration) {
	if n := s.world.ResolveDefinitions(); n > 0 {
		s.log.Debug("unit definitions resolved",
			zap.Int("units", n),
			zap.Int("waiting", s.world.Unresolved()),
		)
	}
}
