package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// builtin is loaded when no formulas file is configured.
const builtin = `
function calc_hit(ctx)
  local dmg = ctx.attacker.power - ctx.target.armor
  if dmg < 1 then dmg = 1 end
  local crit = (ctx.tick % 5) == 0
  if crit then dmg = dmg * 2 end
  return { damage = dmg, critical = crit }
end

function death_anim_frames(max_hp)
  if max_hp >= 200 then return 8 end
  return 5
end
`

// Engine wraps a single gopher-lua VM holding combat formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads formulas from path, or the built-in formulas when path is
// empty. A nil logger disables logging.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	if path == "" {
		return load("builtin", log, func(vm *lua.LState) error { return vm.DoString(builtin) })
	}
	return load(path, log, func(vm *lua.LState) error { return vm.DoFile(path) })
}

// NewEngineFromString is NewEngine for inline scripts.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	return load("inline", log, func(vm *lua.LState) error { return vm.DoString(src) })
}

func load(source string, log *zap.Logger, run func(*lua.LState) error) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	if err := run(vm); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load formulas %q: %w", source, err)
	}
	for _, fn := range []string{"calc_hit", "death_anim_frames"} {
		if vm.GetGlobal(fn) == lua.LNil {
			vm.Close()
			return nil, fmt.Errorf("load formulas %q: function %s not defined", source, fn)
		}
	}
	log.Debug("loaded lua formulas", zap.String("source", source))
	return &Engine{vm: vm, log: log}, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// HitContext holds pre-packed data for one damage calculation.
type HitContext struct {
	Tick          uint64
	AttackerPower int
	TargetArmor   int
	TargetHP      int
}

// HitResult is returned by the Lua calc_hit function.
type HitResult struct {
	Damage   int
	Critical bool
}

// CalcHit calls the Lua calc_hit function.
func (e *Engine) CalcHit(ctx HitContext) (HitResult, error) {
	t := e.vm.NewTable()
	t.RawSetString("tick", lua.LNumber(ctx.Tick))

	atk := e.vm.NewTable()
	atk.RawSetString("power", lua.LNumber(ctx.AttackerPower))
	t.RawSetString("attacker", atk)

	tgt := e.vm.NewTable()
	tgt.RawSetString("armor", lua.LNumber(ctx.TargetArmor))
	tgt.RawSetString("hp", lua.LNumber(ctx.TargetHP))
	t.RawSetString("target", tgt)

	ret, err := e.call("calc_hit", t)
	if err != nil {
		return HitResult{}, err
	}
	rt, ok := ret.(*lua.LTable)
	if !ok {
		return HitResult{}, fmt.Errorf("lua calc_hit returned %s, want table", ret.Type())
	}
	return HitResult{
		Damage:   int(lua.LVAsNumber(rt.RawGetString("damage"))),
		Critical: rt.RawGetString("critical") == lua.LTrue,
	}, nil
}

// DeathAnimFrames calls the Lua death_anim_frames function.
func (e *Engine) DeathAnimFrames(maxHP int) (int, error) {
	ret, err := e.call("death_anim_frames", lua.LNumber(maxHP))
	if err != nil {
		return 0, err
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("lua death_anim_frames returned %s, want number", ret.Type())
	}
	return int(n), nil
}

func (e *Engine) call(name string, args ...lua.LValue) (lua.LValue, error) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil, fmt.Errorf("lua function %s not found", name)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call failed", zap.String("fn", name), zap.Error(err))
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, nil
}
