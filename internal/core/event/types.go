package event

import (
	"github.com/ChangeCaps/robots-or-smth/internal/core/ecs"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
)

// Each event carries the simulation tick it happened on. The bus delivers
// events one tick later, so subscribers must not read the world's tick.

// UnitSpawned is emitted after a spawn descriptor produced a live unit.
type UnitSpawned struct {
	Tick      uint64
	Entity    ecs.EntityID
	NetEntity netentity.ID
	Unit      string
	Owner     uint64
	X, Y, Z   float32
}

// UnitDied is emitted when a unit's health reached zero and it was queued
// for destruction.
type UnitDied struct {
	Tick      uint64
	Entity    ecs.EntityID
	NetEntity netentity.ID
}

// HealthChanged is emitted once per applied unit-instance operation.
type HealthChanged struct {
	Tick      uint64
	NetEntity netentity.ID
	Op        string
	Amount    float32
	Health    float32
}

// CommandApplied is emitted for every command queue operation accepted from
// a player or issued by the idle system.
type CommandApplied struct {
	Tick      uint64
	NetEntity netentity.ID
	Op        string
	Player    uint64 // 0 when issued by the server
}

// CommandRejected is emitted when a command operation failed authorization.
type CommandRejected struct {
	Tick      uint64
	NetEntity netentity.ID
	SessionID uint64
	Reason    string
}
