package scripting

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
)

// placeFunc is the global a placement script must define:
//
//	function place_star(group) return x, y, z end
//
// group carries name, center {x,y,z}, radius, shape, arms, arm_twist,
// arm_spread, thickness. random() and normal() draw from the engine's
// seeded generator, so scripted placement stays reproducible.
const placeFunc = "place_star"

// Engine wraps a single gopher-lua VM running a placement script.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	rng      *rand.Rand
	fallback galaxy.Placer
	groups   map[*galaxy.Group]*lua.LTable
}

// NewEngine loads the placement script at path.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoFile(path); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := e.checkEntry(); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.log.Debug("loaded lua placement script", zap.String("file", path))
	return e, nil
}

// NewEngineFromString loads a placement script from source.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	if err := e.checkEntry(); err != nil {
		e.vm.Close()
		return nil, err
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:       vm,
		log:      log,
		fallback: galaxy.Shapes{},
		groups:   make(map[*galaxy.Group]*lua.LTable),
	}
	vm.SetGlobal("random", vm.NewFunction(e.luaRandom))
	vm.SetGlobal("normal", vm.NewFunction(e.luaNormal))
	return e
}

func (e *Engine) checkEntry() error {
	if e.vm.GetGlobal(placeFunc).Type() != lua.LTFunction {
		return fmt.Errorf("lua function %s not defined", placeFunc)
	}
	return nil
}

func (e *Engine) luaRandom(L *lua.LState) int {
	if e.rng == nil {
		L.RaiseError("random() called outside place_star")
		return 0
	}
	L.Push(lua.LNumber(e.rng.Float64()))
	return 1
}

func (e *Engine) luaNormal(L *lua.LState) int {
	if e.rng == nil {
		L.RaiseError("normal() called outside place_star")
		return 0
	}
	L.Push(lua.LNumber(e.rng.NormFloat64()))
	return 1
}

// Place calls the script's place_star. Script errors are logged and the
// built-in shape placer is used for that star.
func (e *Engine) Place(g *galaxy.Group, rng *rand.Rand) mgl64.Vec3 {
	e.rng = rng
	defer func() { e.rng = nil }()

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.GetGlobal(placeFunc),
		NRet:    3,
		Protect: true,
	}, e.groupTable(g)); err != nil {
		e.log.Error("lua place_star error", zap.String("group", g.Name), zap.Error(err))
		return e.fallback.Place(g, rng)
	}

	x, y, z := e.vm.Get(-3), e.vm.Get(-2), e.vm.Get(-1)
	e.vm.Pop(3)
	for _, v := range []lua.LValue{x, y, z} {
		if v.Type() != lua.LTNumber {
			e.log.Error("lua place_star returned non-number", zap.String("group", g.Name), zap.String("type", v.Type().String()))
			return e.fallback.Place(g, rng)
		}
	}
	return mgl64.Vec3{
		float64(lua.LVAsNumber(x)),
		float64(lua.LVAsNumber(y)),
		float64(lua.LVAsNumber(z)),
	}
}

// groupTable builds the Lua view of g once and caches it.
func (e *Engine) groupTable(g *galaxy.Group) *lua.LTable {
	if t, ok := e.groups[g]; ok {
		return t
	}
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(g.Name))
	t.RawSetString("radius", lua.LNumber(g.Radius))
	t.RawSetString("shape", lua.LString(g.Shape))
	t.RawSetString("arms", lua.LNumber(g.Arms))
	t.RawSetString("arm_twist", lua.LNumber(g.ArmTwist))
	t.RawSetString("arm_spread", lua.LNumber(g.ArmSpread))
	t.RawSetString("thickness", lua.LNumber(g.Thickness))

	c := e.vm.NewTable()
	c.RawSetString("x", lua.LNumber(g.Center[0]))
	c.RawSetString("y", lua.LNumber(g.Center[1]))
	c.RawSetString("z", lua.LNumber(g.Center[2]))
	t.RawSetString("center", c)

	e.groups[g] = t
	return t
}

func (e *Engine) Close() {
	e.vm.Close()
}
