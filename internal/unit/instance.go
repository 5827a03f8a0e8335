// Package unit holds the mutable per-unit runtime state.
//
// Health is never assigned directly. Every change is an Operation pushed onto
// the instance's log and applied by Drain, in push order, on every peer. The
// server broadcasts each applied operation so observers replay the identical
// sequence.
package unit

import "fmt"

// OpKind tags an Operation.
type OpKind uint8

const (
	OpSetHealth OpKind = iota + 1
	OpSubtractHealth
)

func (k OpKind) String() string {
	switch k {
	case OpSetHealth:
		return "set_health"
	case OpSubtractHealth:
		return "subtract_health"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// Operation is one logged health mutation.
type Operation struct {
	Kind   OpKind
	Amount float32
}

// SetHealth builds a SetHealth operation.
func SetHealth(v float32) Operation { return Operation{Kind: OpSetHealth, Amount: v} }

// SubtractHealth builds a SubtractHealth operation.
func SubtractHealth(v float32) Operation { return Operation{Kind: OpSubtractHealth, Amount: v} }

// Apply returns the health after op is applied to h.
func (op Operation) Apply(h float32) float32 {
	switch op.Kind {
	case OpSetHealth:
		return op.Amount
	case OpSubtractHealth:
		return h - op.Amount
	default:
		return h
	}
}

// Instance is the runtime state of one unit.
type Instance struct {
	Health  float32
	pending []Operation
}

// New returns an instance at full health.
func New(maxHealth float32) *Instance {
	return &Instance{Health: maxHealth}
}

// SubtractHealth queues a damage operation.
func (i *Instance) SubtractHealth(v float32) { i.Push(SubtractHealth(v)) }

// SetHealth queues an absolute health operation.
func (i *Instance) SetHealth(v float32) { i.Push(SetHealth(v)) }

// Push queues an operation received from elsewhere, e.g. the network.
func (i *Instance) Push(op Operation) { i.pending = append(i.pending, op) }

// Pending returns the number of queued operations.
func (i *Instance) Pending() int { return len(i.pending) }

// Drain applies queued operations in FIFO order and returns them, each paired
// with the health it produced. The log is empty afterwards.
func (i *Instance) Drain() []Applied {
	if len(i.pending) == 0 {
		return nil
	}
	out := make([]Applied, 0, len(i.pending))
	for _, op := range i.pending {
		i.Health = op.Apply(i.Health)
		out = append(out, Applied{Op: op, Health: i.Health})
	}
	i.pending = i.pending[:0]
	return out
}

// Dead reports whether health has reached zero.
func (i *Instance) Dead() bool { return i.Health <= 0 }

// Applied is an operation together with the health it left behind.
type Applied struct {
	Op     Operation
	Health float32
}
