package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session queues, apply handshake and command ops
	PhasePreUpdate               // 1: advance animators, dispatch last tick's events
	PhaseUpdate                  // 2: idle targeting, command resolution, behaviours, health
	PhasePostUpdate              // 3: collision, unit animation selection
	PhaseOutput                  // 4: build + send replication messages
	PhasePersist                 // 5: journal hand-off, checksums
	PhaseCleanup                 // 6: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
