package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/behaviour"
	"github.com/ChangeCaps/robots-or-smth/internal/core/ecs"
	"github.com/ChangeCaps/robots-or-smth/internal/core/parallel"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/scripting"
	"github.com/ChangeCaps/robots-or-smth/internal/unit"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// DamageHook may rescale a hit before it is applied. scripting.Engine
// implements it.
type DamageHook interface {
	CalcAttackDamage(ctx scripting.AttackContext) float32
}

// BehaviourSystem executes every unit's behaviour in parallel, then applies
// the resulting hits in unit order. Phase 2 (Update).
type BehaviourSystem struct {
	world *world.State
	pool  *parallel.Pool
	hook  DamageHook // nil: base damage
	log   *zap.Logger
}

func NewBehaviourSystem(ws *world.State, pool *parallel.Pool, hook DamageHook, log *zap.Logger) *BehaviourSystem {
	return &BehaviourSystem{world: ws, pool: pool, hook: hook, log: log}
}

func (s *BehaviourSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BehaviourSystem) Update(dt time.Duration) {
	ws := s.world
	secs := float32(dt.Seconds())

	parts, err := parallel.Map(context.Background(), s.pool, ws.UnitsByID(),
		func(_ context.Context, u world.Unit) ([]behaviour.Hit, error) {
			beh, ok := ws.Behaviours.Get(u.Entity)
			if !ok {
				return nil, nil
			}
			ref, ok := ws.Units.Get(u.Entity)
			if !ok || ref.Def == nil {
				return nil, nil
			}
			pos, ok := ws.Positions.Get(u.Entity)
			if !ok {
				return nil, nil
			}
			a, ok := ws.Animators.Get(u.Entity)
			if !ok {
				return nil, nil
			}
			ua, ok := ws.UnitAnimators.Get(u.Entity)
			if !ok {
				return nil, nil
			}
			hit, ok := behaviour.Execute(beh.Current, behaviour.Actor{
				ID:           u.ID,
				Def:          ref.Def,
				Position:     &pos.Vec3,
				Animator:     a,
				UnitAnimator: ua,
			}, secs)
			if !ok {
				return nil, nil
			}
			return []behaviour.Hit{hit}, nil
		})
	if err != nil {
		s.log.Error("behaviour stage failed", zap.Error(err))
	}

	for _, hit := range parallel.Flatten(parts) {
		s.apply(hit)
	}
}

func (s *BehaviourSystem) apply(hit behaviour.Hit) {
	ws := s.world
	target, ok := ws.Resolve(hit.Target)
	if !ok {
		countStale("hit")
		s.log.Debug("hit on unknown unit",
			zap.Stringer("attacker", hit.Attacker),
			zap.Stringer("target", hit.Target),
		)
		return
	}
	amount := hit.Amount
	if s.hook != nil {
		amount = s.hook.CalcAttackDamage(s.attackContext(hit, target))
	}
	ws.PushUnitOp(target, unit.SubtractHealth(amount))
}

func (s *BehaviourSystem) attackContext(hit behaviour.Hit, target ecs.EntityID) scripting.AttackContext {
	ws := s.world
	ctx := scripting.AttackContext{Frame: hit.Frame, BaseDamage: hit.Amount}
	if e, ok := ws.Resolve(hit.Attacker); ok {
		if ref, ok := ws.Units.Get(e); ok {
			ctx.AttackerUnit = ref.Name
		}
		if o, ok := ws.OwnerOf(e); ok {
			ctx.AttackerOwner = uint64(o)
		}
		if inst, ok := ws.Instances.Get(e); ok {
			ctx.AttackerHealth = inst.Health
		}
	}
	if ref, ok := ws.Units.Get(target); ok {
		ctx.TargetUnit = ref.Name
	}
	if o, ok := ws.OwnerOf(target); ok {
		ctx.TargetOwner = uint64(o)
	}
	if inst, ok := ws.Instances.Get(target); ok {
		ctx.TargetHealth = inst.Health
	}
	return ctx
}
