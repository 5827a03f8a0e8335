package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// ChecksumSystem logs the world digest every interval ticks. Phase 5
// (Persist).
type ChecksumSystem struct {
	world    *world.State
	interval uint64
	log      *zap.Logger

	Last world.Digest
}

func NewChecksumSystem(ws *world.State, interval int, log *zap.Logger) *ChecksumSystem {
	return &ChecksumSystem{world: ws, interval: uint64(max(interval, 0)), log: log}
}

func (s *ChecksumSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *ChecksumSystem) Update(_ time.Duration) {
	if s.interval == 0 || !s.world.Started || s.world.Tick%s.interval != 0 {
		return
	}
	s.Last = s.world.Checksum()
	s.log.Info("world checksum",
		zap.Uint64("tick", s.world.Tick),
		zap.Stringer("digest", s.Last),
		zap.Int("units", s.world.NetEntities.Len()),
		zap.Int("entities", s.world.ECS.Live()),
		zap.Int("unresolved", s.world.Unresolved()),
	)
}
