package protocol

import (
	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
)

// CommandOp is a command queue operation for one unit.
type CommandOp struct {
	Entity netentity.ID
	Op     command.Operation
}

func (CommandOp) Channel() Channel { return ChannelCommand }
func (CommandOp) Kind() byte       { return KindCommandOp }

const (
	tagMove   byte = 1
	tagAttack byte = 2
)

// Attack field flags.
const (
	attackHasPosition byte = 1 << iota
	attackHasUnit
	attackPersue
)

func (m CommandOp) write(w *packet.Writer) {
	w.WriteQ(uint64(m.Entity))
	w.WriteC(byte(m.Op.Kind))
	if m.Op.Kind == command.OpClearCommands {
		return
	}
	writeCommand(w, m.Op.Command)
}

func writeCommand(w *packet.Writer, c command.Command) {
	switch c := c.(type) {
	case *command.Move:
		w.WriteC(tagMove)
		w.WriteBool(c.Target.IsUnit)
		if c.Target.IsUnit {
			w.WriteQ(uint64(c.Target.Unit))
		} else {
			writeVec2(w, c.Target.Position)
		}
		w.WriteBool(c.Precise)
	case *command.Attack:
		w.WriteC(tagAttack)
		var flags byte
		if c.TargetPosition != nil {
			flags |= attackHasPosition
		}
		if c.TargetUnit != nil {
			flags |= attackHasUnit
		}
		if c.Persue {
			flags |= attackPersue
		}
		w.WriteC(flags)
		if c.TargetPosition != nil {
			writeVec2(w, *c.TargetPosition)
		}
		if c.TargetUnit != nil {
			w.WriteQ(uint64(*c.TargetUnit))
		}
	}
}

func readCommandOp(r *packet.Reader) (Message, error) {
	m := CommandOp{Entity: readEntity(r)}
	m.Op.Kind = command.OpKind(r.ReadC())
	switch m.Op.Kind {
	case command.OpClearCommands:
		return m, nil
	case command.OpAddCommand, command.OpSetCommand:
	default:
		return nil, malformed("command op kind %d", m.Op.Kind)
	}
	c, err := readCommand(r)
	if err != nil {
		return nil, err
	}
	m.Op.Command = c
	return m, nil
}

func readCommand(r *packet.Reader) (command.Command, error) {
	switch tag := r.ReadC(); tag {
	case tagMove:
		m := &command.Move{}
		if r.ReadBool() {
			m.Target = command.UnitTarget(readEntity(r))
		} else {
			p, err := readVec2(r)
			if err != nil {
				return nil, err
			}
			m.Target = command.PositionTarget(p)
		}
		m.Precise = r.ReadBool()
		return m, nil
	case tagAttack:
		flags := r.ReadC()
		if flags&^(attackHasPosition|attackHasUnit|attackPersue) != 0 {
			return nil, malformed("attack flags %#x", flags)
		}
		a := &command.Attack{Persue: flags&attackPersue != 0}
		if flags&attackHasPosition != 0 {
			p, err := readVec2(r)
			if err != nil {
				return nil, err
			}
			a.TargetPosition = &p
		}
		if flags&attackHasUnit != 0 {
			id := readEntity(r)
			a.TargetUnit = &id
		}
		return a, nil
	default:
		return nil, malformed("command tag %d", tag)
	}
}

func readEntity(r *packet.Reader) netentity.ID {
	return netentity.ID(r.ReadQ())
}
