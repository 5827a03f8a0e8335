package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_EventsAreReadableNextTick(t *testing.T) {
	b := NewBus()
	var got []UnitDied
	Subscribe(b, func(e UnitDied) { got = append(got, e) })

	Emit(b, UnitDied{NetEntity: 3})
	b.DispatchAll()
	assert.Empty(t, got, "events emitted this tick are not visible until the swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []UnitDied{{NetEntity: 3}}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "front buffer is cleared by the next swap")
}

func TestBus_DispatchesByType(t *testing.T) {
	b := NewBus()
	var died, spawned int
	Subscribe(b, func(UnitDied) { died++ })
	Subscribe(b, func(UnitSpawned) { spawned++ })

	Emit(b, UnitSpawned{NetEntity: 1})
	Emit(b, UnitSpawned{NetEntity: 2})
	Emit(b, UnitDied{NetEntity: 1})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, 1, died)
	assert.Equal(t, 2, spawned)
}
