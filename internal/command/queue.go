package command

import "fmt"

// OpKind tags an Operation.
type OpKind uint8

const (
	OpAddCommand OpKind = iota + 1
	OpSetCommand
	OpClearCommands
)

func (k OpKind) String() string {
	switch k {
	case OpAddCommand:
		return "add_command"
	case OpSetCommand:
		return "set_command"
	case OpClearCommands:
		return "clear_commands"
	default:
		return fmt.Sprintf("op(%d)", uint8(k))
	}
}

// Operation is a queue mutation as sent over the network. Command is nil for
// OpClearCommands.
type Operation struct {
	Kind    OpKind
	Command Command
}

// Add returns an AddCommand operation.
func Add(c Command) Operation { return Operation{Kind: OpAddCommand, Command: c} }

// Set returns a SetCommand operation.
func Set(c Command) Operation { return Operation{Kind: OpSetCommand, Command: c} }

// Clear returns a ClearCommands operation.
func Clear() Operation { return Operation{Kind: OpClearCommands} }

// Queue is a unit's pending orders. The last element is the active command.
//
// While locked, SetCommand is buffered in a single awaiting slot and only
// takes effect on the next Unlock.
type Queue struct {
	commands []Command
	locked   bool
	awaiting Command
}

// Apply performs a network operation.
func (q *Queue) Apply(op Operation) {
	switch op.Kind {
	case OpAddCommand:
		q.AddCommand(op.Command)
	case OpSetCommand:
		q.SetCommand(op.Command)
	case OpClearCommands:
		q.ClearCommands()
	}
}

// AddCommand pushes c as the active command, keeping the rest of the queue
// to resume once c completes.
func (q *Queue) AddCommand(c Command) {
	q.commands = append(q.commands, c)
}

// SetCommand replaces the queue with c, or buffers c while locked. A newer
// buffered command replaces an older one.
func (q *Queue) SetCommand(c Command) {
	if q.locked {
		q.awaiting = c
		return
	}
	clear(q.commands)
	q.commands = append(q.commands[:0], c)
}

// ClearCommands empties the queue, unlocks it and discards any buffered
// command.
func (q *Queue) ClearCommands() {
	clear(q.commands)
	q.commands = q.commands[:0]
	q.locked = false
	q.awaiting = nil
}

// Lock defers SetCommand until Unlock.
func (q *Queue) Lock() { q.locked = true }

// Unlock clears the lock. A buffered command becomes the sole command; the
// return value reports whether that happened.
func (q *Queue) Unlock() bool {
	q.locked = false
	if q.awaiting == nil {
		return false
	}
	clear(q.commands)
	q.commands = append(q.commands[:0], q.awaiting)
	q.awaiting = nil
	return true
}

// Complete pops the active command, then unlocks.
func (q *Queue) Complete() {
	if n := len(q.commands); n > 0 {
		q.commands[n-1] = nil
		q.commands = q.commands[:n-1]
	}
	q.Unlock()
}

// Active returns the current command, or nil when the queue is empty.
func (q *Queue) Active() Command {
	if len(q.commands) == 0 {
		return nil
	}
	return q.commands[len(q.commands)-1]
}

// RequestCancel reports whether a replacement is waiting for the lock to
// lift.
func (q *Queue) RequestCancel() bool { return q.awaiting != nil }

// Locked reports whether SetCommand is currently deferred.
func (q *Queue) Locked() bool { return q.locked }

// Awaiting returns the buffered replacement, if any.
func (q *Queue) Awaiting() Command { return q.awaiting }

// Len returns the number of queued commands.
func (q *Queue) Len() int { return len(q.commands) }

// Empty reports whether the unit has nothing to do.
func (q *Queue) Empty() bool { return len(q.commands) == 0 }

// Commands returns the queue from oldest to active.
func (q *Queue) Commands() []Command {
	out := make([]Command, len(q.commands))
	copy(out, q.commands)
	return out
}
