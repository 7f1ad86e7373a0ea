// Package scripting evaluates sandboxed GopherLua condition scripts. It has no
// dependency on the battle engines; callers pass creature state in as a
// CreatureInfo snapshot.
package scripting

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one evaluation when no
// override is configured.
const DefaultInstructionLimit = 100_000

// removedGlobals are base-library functions a condition must not reach.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "print"}

// budget is the context handed to the Lua VM. The VM polls Done once per
// opcode, so counting the polls gives an exact instruction limit.
type budget struct {
	context.Context
	cancel context.CancelFunc
	limit  int
	used   int
}

func (b *budget) Done() <-chan struct{} {
	b.used++
	if b.used >= b.limit {
		b.cancel()
	}
	return b.Context.Done()
}

// Sandbox is a Lua state with only the base, table, string and math libraries
// and a fixed opcode budget. A Sandbox serves one evaluation and is not safe
// for concurrent use.
type Sandbox struct {
	L      *lua.LState
	budget *budget
}

// NewSandbox creates a Sandbox allowed instLimit opcodes (0 uses DefaultInstructionLimit).
//
// Postcondition: the caller must call Close.
func NewSandbox(instLimit int) *Sandbox {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel, limit: instLimit}
	L.SetContext(b)
	return &Sandbox{L: L, budget: b}
}

// Used reports how many opcodes have run so far.
func (s *Sandbox) Used() int {
	return s.budget.used
}

// Close releases the Lua state.
func (s *Sandbox) Close() {
	s.budget.cancel()
	s.L.Close()
}
