package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for game rule hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	missingLogged map[string]bool
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. Missing directories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, missingLogged: make(map[string]bool)}

	// core first so combat scripts can use its helpers
	for _, sub := range []string{"core", "combat"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// AttackContext describes one damage event before it is applied.
type AttackContext struct {
	AttackerUnit   string
	AttackerOwner  uint64
	AttackerHealth float32
	TargetUnit     string
	TargetOwner    uint64
	TargetHealth   float32
	Frame          int
	BaseDamage     float32
}

// CalcAttackDamage calls the Lua calc_attack_damage function. Without the
// function, or when it fails, the base damage stands.
func (e *Engine) CalcAttackDamage(ctx AttackContext) float32 {
	fn := e.lookup("calc_attack_damage")
	if fn == lua.LNil {
		return ctx.BaseDamage
	}

	t := e.vm.NewTable()

	atk := e.vm.NewTable()
	atk.RawSetString("unit", lua.LString(ctx.AttackerUnit))
	atk.RawSetString("owner", lua.LNumber(ctx.AttackerOwner))
	atk.RawSetString("health", lua.LNumber(ctx.AttackerHealth))
	t.RawSetString("attacker", atk)

	tgt := e.vm.NewTable()
	tgt.RawSetString("unit", lua.LString(ctx.TargetUnit))
	tgt.RawSetString("owner", lua.LNumber(ctx.TargetOwner))
	tgt.RawSetString("health", lua.LNumber(ctx.TargetHealth))
	t.RawSetString("target", tgt)

	t.RawSetString("frame", lua.LNumber(ctx.Frame))
	t.RawSetString("damage", lua.LNumber(ctx.BaseDamage))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_attack_damage error", zap.Error(err))
		return ctx.BaseDamage
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_attack_damage returned non-number", zap.String("type", result.Type().String()))
		return ctx.BaseDamage
	}
	return max(float32(n), 0)
}

// lookup returns a global function or LNil, logging a missing hook once.
func (e *Engine) lookup(name string) lua.LValue {
	fn := e.vm.GetGlobal(name)
	if _, ok := fn.(*lua.LFunction); ok {
		return fn
	}
	if !e.missingLogged[name] {
		e.missingLogged[name] = true
		e.log.Debug("lua hook not defined", zap.String("function", name))
	}
	return lua.LNil
}

func (e *Engine) Close() {
	e.vm.Close()
}
