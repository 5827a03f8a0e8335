package command

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagged(n int) *Move {
	return &Move{Target: PositionTarget(mgl32.Vec2{float32(n), 0})}
}

func tagOf(c Command) int {
	return int(c.(*Move).Target.Position.X())
}

// refQueue is a deliberately naive model of the queue state machine.
type refQueue struct {
	items    []int
	locked   bool
	awaiting int // 0 = none
}

func (r *refQueue) add(n int) { r.items = append(r.items, n) }

func (r *refQueue) set(n int) {
	if r.locked {
		r.awaiting = n
		return
	}
	r.items = []int{n}
}

func (r *refQueue) clear() { *r = refQueue{} }

func (r *refQueue) unlock() {
	r.locked = false
	if r.awaiting != 0 {
		r.items = []int{r.awaiting}
		r.awaiting = 0
	}
}

func (r *refQueue) complete() {
	if len(r.items) > 0 {
		r.items = r.items[:len(r.items)-1]
	}
	r.unlock()
}

func TestQueue_MatchesReferenceModel(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		var q Queue
		var ref refQueue
		next := 1

		for step := 0; step < 300; step++ {
			switch rng.IntN(6) {
			case 0:
				q.Apply(Add(tagged(next)))
				ref.add(next)
				next++
			case 1:
				q.Apply(Set(tagged(next)))
				ref.set(next)
				next++
			case 2:
				q.Apply(Clear())
				ref.clear()
			case 3:
				q.Lock()
				ref.locked = true
			case 4:
				q.Unlock()
				ref.unlock()
			case 5:
				q.Complete()
				ref.complete()
			}

			got := make([]int, 0, q.Len())
			for _, c := range q.Commands() {
				got = append(got, tagOf(c))
			}
			if len(ref.items) == 0 {
				require.Empty(t, got, "seed %d step %d", seed, step)
			} else {
				require.Equal(t, ref.items, got, "seed %d step %d", seed, step)
			}
			require.Equal(t, ref.locked, q.Locked(), "seed %d step %d", seed, step)
			require.Equal(t, ref.awaiting != 0, q.RequestCancel(), "seed %d step %d", seed, step)
			if ref.awaiting != 0 {
				require.Equal(t, ref.awaiting, tagOf(q.Awaiting()))
			}
		}
	}
}

func TestQueue_AddCommandStacks(t *testing.T) {
	var q Queue
	q.AddCommand(tagged(1))
	q.AddCommand(tagged(2))
	assert.Equal(t, 2, tagOf(q.Active()))

	q.Complete()
	assert.Equal(t, 1, tagOf(q.Active()), "interrupted command resumes")
}

func TestQueue_SetWhileLockedIsBuffered(t *testing.T) {
	var q Queue
	q.AddCommand(tagged(1))
	q.AddCommand(tagged(2))
	q.Lock()

	q.SetCommand(tagged(3))
	q.SetCommand(tagged(4))
	assert.Equal(t, 2, q.Len(), "queue untouched while locked")
	assert.Equal(t, 2, tagOf(q.Active()))
	assert.True(t, q.RequestCancel())
	assert.Equal(t, 4, tagOf(q.Awaiting()), "newest buffered command wins")

	assert.True(t, q.Unlock())
	require.Equal(t, 1, q.Len())
	assert.Equal(t, 4, tagOf(q.Active()))
	assert.False(t, q.RequestCancel())
	assert.False(t, q.Unlock(), "nothing left to flush")
}

func TestQueue_CompleteFlushesAwaiting(t *testing.T) {
	var q Queue
	q.AddCommand(tagged(1))
	q.AddCommand(tagged(2))
	q.Lock()
	q.SetCommand(tagged(3))

	q.Complete()
	assert.False(t, q.Locked())
	assert.Equal(t, []Command{q.Active()}, q.Commands())
	assert.Equal(t, 3, tagOf(q.Active()))
}

func TestQueue_ClearDiscardsAwaiting(t *testing.T) {
	var q Queue
	q.AddCommand(tagged(1))
	q.Lock()
	q.SetCommand(tagged(2))

	q.ClearCommands()
	assert.True(t, q.Empty())
	assert.False(t, q.Locked())
	assert.False(t, q.RequestCancel())
	assert.Nil(t, q.Active())
}

func TestAttack_CloneIsDeep(t *testing.T) {
	a := AttackMove(mgl32.Vec2{1, 2})
	c := a.Clone().(*Attack)
	*c.TargetPosition = mgl32.Vec2{9, 9}
	assert.Equal(t, mgl32.Vec2{1, 2}, *a.TargetPosition)
}
