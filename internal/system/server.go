package system

import (
	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/core/parallel"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// ServerSetup carries what the authoritative tick needs.
type ServerSetup struct {
	World             *world.State
	Source            SessionSource // nil: sessions are added to Sessions directly
	Registry          *packet.Registry
	Sessions          *net.SessionStore
	Bus               *event.Bus
	Pool              *parallel.Pool
	Hook              DamageHook  // nil: base damage
	Journal           JournalSink // nil: no journal
	MaxPacketsPerTick int
	ChecksumInterval  int
	SnapshotInterval  int
	Seed              uint64
	Log               *zap.Logger
}

// NewServerRunner registers the server systems in tick order.
func NewServerRunner(c ServerSetup) *coresys.Runner {
	r := coresys.NewRunner()

	r.Register(NewInputSystem(c.Source, c.Registry, c.Sessions, c.MaxPacketsPerTick, c.World, c.Log))

	r.Register(NewEventDispatchSystem(c.Bus))
	r.Register(NewAssetSystem(c.World, c.Log))
	r.Register(NewAnimatorSystem(c.World))

	r.Register(NewIdleSystem(c.World, c.Pool, c.Sessions, c.Bus, c.Log))
	r.Register(NewCommandSystem(c.World, c.Pool, c.Log))
	r.Register(NewBehaviourSystem(c.World, c.Pool, c.Hook, c.Log))
	r.Register(NewHealthSystem(c.World, c.Sessions, c.Bus, c.Log))

	r.Register(NewCollisionSystem(c.World, c.Seed))
	r.Register(NewUnitAnimationSystem(c.World))

	r.Register(NewReplicationSystem(c.World, c.Sessions, c.SnapshotInterval))

	if c.Journal != nil {
		r.Register(NewJournalSystem(c.Bus, c.Journal))
	}
	r.Register(NewChecksumSystem(c.World, c.ChecksumInterval, c.Log))

	r.Register(NewCleanupSystem(c.World))
	return r
}
