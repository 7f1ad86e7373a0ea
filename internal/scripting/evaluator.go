package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/dice"
)

// Evaluator runs condition scripts, each in a fresh sandbox.
//
// Evaluator is safe for concurrent use.
type Evaluator struct {
	mu        sync.Mutex
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger
	compiled  map[string]*lua.FunctionProto
}

// NewEvaluator creates an Evaluator.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0 (0 = default).
func NewEvaluator(roller *dice.Roller, logger *zap.Logger, instLimit int) *Evaluator {
	return &Evaluator{
		instLimit: instLimit,
		roller:    roller,
		logger:    logger,
		compiled:  make(map[string]*lua.FunctionProto),
	}
}

// Evaluate runs script against info and reports whether it returned true.
// A script may be a bare expression ("creature.level >= 30") or a chunk with
// an explicit return.
//
// Postcondition: returns an error for syntax errors, runtime errors and
// instruction-limit overruns; any non-boolean result is false.
func (e *Evaluator) Evaluate(script string, info CreatureInfo) (bool, error) {
	proto, err := e.compile(script)
	if err != nil {
		return false, err
	}

	sb := NewSandbox(e.instLimit)
	defer sb.Close()
	L := sb.L
	e.RegisterModules(L, info)

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 1, nil); err != nil {
		return false, fmt.Errorf("scripting: evaluating condition: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	e.logger.Debug("condition evaluated",
		zap.String("species", info.Species),
		zap.Bool("result", ret == lua.LTrue),
		zap.Int("opcodes", sb.Used()),
	)
	return ret == lua.LTrue, nil
}

func (e *Evaluator) compile(script string) (*lua.FunctionProto, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.compiled[script]; ok {
		return p, nil
	}
	p, err := compileChunk("return " + script)
	if err != nil {
		p, err = compileChunk(script)
		if err != nil {
			return nil, fmt.Errorf("scripting: compiling condition: %w", err)
		}
	}
	e.compiled[script] = p
	return p, nil
}
