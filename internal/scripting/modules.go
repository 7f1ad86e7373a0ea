package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// CreatureInfo is the creature state visible to condition scripts as the
// global table `creature`.
type CreatureInfo struct {
	Species    string
	Level      int
	Friendship int
	XP         int
	HP         int
	MaxHP      int
	Gender     string
	Shiny      bool
	Defeated   int
	Types      []string
	Moves      []string
}

// RegisterModules installs the `engine` table (log, roll) and the `creature`
// table into L.
//
// Precondition: L must belong to a Sandbox.
func (e *Evaluator) RegisterModules(L *lua.LState, info CreatureInfo) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(e.luaLog))
	L.SetField(engine, "roll", L.NewFunction(e.luaRoll))
	L.SetGlobal("engine", engine)
	L.SetGlobal("creature", creatureTable(L, info))
}

func creatureTable(L *lua.LState, info CreatureInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("species", lua.LString(info.Species))
	t.RawSetString("level", lua.LNumber(info.Level))
	t.RawSetString("friendship", lua.LNumber(info.Friendship))
	t.RawSetString("xp", lua.LNumber(info.XP))
	t.RawSetString("hp", lua.LNumber(info.HP))
	t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
	t.RawSetString("gender", lua.LString(info.Gender))
	t.RawSetString("shiny", lua.LBool(info.Shiny))
	t.RawSetString("defeated", lua.LNumber(info.Defeated))
	t.RawSetString("types", stringList(L, info.Types))
	t.RawSetString("moves", stringList(L, info.Moves))
	return t
}

func stringList(L *lua.LState, items []string) *lua.LTable {
	t := L.NewTable()
	for _, s := range items {
		t.Append(lua.LString(s))
	}
	return t
}

// engine.log(level, msg)
func (e *Evaluator) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	switch level {
	case "debug":
		e.logger.Debug(msg, zap.String("source", "lua"))
	case "warn":
		e.logger.Warn(msg, zap.String("source", "lua"))
	case "error":
		e.logger.Error(msg, zap.String("source", "lua"))
	default:
		e.logger.Info(msg, zap.String("source", "lua"))
	}
	return 0
}

// engine.roll(expr) -> total
func (e *Evaluator) luaRoll(L *lua.LState) int {
	res, err := e.roller.RollExpr(L.CheckString(1))
	if err != nil {
		L.RaiseError("engine.roll: %v", err)
		return 0
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}
