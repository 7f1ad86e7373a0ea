package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturebattle/internal/game/battle"
	"github.com/cory-johannsen/creaturebattle/internal/game/command"
	"github.com/cory-johannsen/creaturebattle/internal/game/encounter"
	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
	"github.com/cory-johannsen/creaturebattle/internal/observability"
	"github.com/cory-johannsen/creaturebattle/internal/storage/postgres"
)

// host drives a battle.State from line commands. It runs as a server.Service:
// Start consumes the input, Stop saves progress.
type host struct {
	ctx      context.Context
	engine   *battle.Engine
	state    *battle.State
	store    store
	commands *command.Registry
	playerID string
	logger   *zap.Logger
	in       io.Reader
	out      io.Writer
	levelCap bool

	mu         sync.Mutex
	stopped    bool
	encounters int
}

// Start runs the command loop until the input ends, quit is entered, or Stop is called.
func (h *host) Start() error {
	h.mu.Lock()
	err := h.startEncounter()
	h.mu.Unlock()
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		quit, err := h.step(scanner.Text())
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}

// Stop saves progress once; later commands are ignored.
func (h *host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	if err := h.persist(); err != nil {
		h.logger.Error("saving progress", zap.Error(err))
	}
}

func (h *host) step(text string) (quit bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return true, nil
	}
	line := command.Parse(text)
	if line.Command == "" {
		return false, nil
	}
	quit, err = h.handle(line)
	if err != nil {
		if !recoverable(err) {
			return false, err
		}
		h.println("error:", err)
		return false, nil
	}
	if quit {
		return true, nil
	}
	return false, h.afterCommand()
}

// recoverable reports whether err only rejects one command.
func recoverable(err error) bool {
	for _, target := range []error{
		battle.ErrPendingDecisionRequired,
		battle.ErrNoEncounter,
		battle.ErrNoPendingDecision,
		battle.ErrInvalidChoice,
		battle.ErrUnknownOutcome,
		encounter.ErrEncounterExhausted,
		errUsage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var errUsage = errors.New("usage")

func (h *host) handle(line command.Line) (quit bool, err error) {
	cmd, ok := h.commands.Resolve(line.Command)
	if !ok {
		return false, fmt.Errorf("%w: unknown command %q, try help", errUsage, line.Command)
	}
	switch cmd.Handler {
	case command.HandlerQuit:
		return true, nil
	case command.HandlerHelp:
		h.println(h.commands.Help())
	case command.HandlerStatus:
		h.printStatus()
	case command.HandlerCollection:
		return false, h.printCollection()
	case command.HandlerCatch:
		r, err := h.engine.Catch(h.state)
		if err != nil {
			return false, err
		}
		h.printLines(r.Messages)
		return false, h.saveCaught(r)
	case command.HandlerDefeat:
		r, err := h.engine.Defeat(h.state)
		if err != nil {
			return false, err
		}
		h.printLines(r.Messages)
	case command.HandlerKeep:
		return false, h.decide(h.engine.ResolveMoveReplacement(h.state, progression.KeepMoves))
	case command.HandlerReplace:
		if len(line.Args) != 1 {
			return false, fmt.Errorf("%w: %s %s", errUsage, cmd.Name, cmd.Usage)
		}
		slot, err := strconv.Atoi(line.Args[0])
		if err != nil {
			return false, fmt.Errorf("%w: slot must be a number", errUsage)
		}
		return false, h.decide(h.engine.ResolveMoveReplacement(h.state, slot))
	case command.HandlerEvolve:
		return false, h.decide(h.engine.ResolveEvolution(h.state, true))
	case command.HandlerCancel:
		return false, h.decide(h.engine.ResolveEvolution(h.state, false))
	case command.HandlerDismiss:
		h.printLines(h.engine.DismissDecisions(h.state))
	case command.HandlerUseItem:
		if line.Rest == "" {
			return false, fmt.Errorf("%w: %s %s", errUsage, cmd.Name, cmd.Usage)
		}
		if !h.engine.UseItem(h.state, line.Rest) {
			h.println("It had no effect.")
		}
	case command.HandlerTrade:
		if !h.engine.Trade(h.state) {
			h.println("Nothing happened.")
		}
	case command.HandlerReview:
		return false, h.review(cmd.Name, line.Rest)
	}
	return false, nil
}

func (h *host) review(name, move string) error {
	outcome, err := battle.ParseOutcome(name)
	if err != nil {
		return err
	}
	if !h.state.Active() && len(h.state.Pending()) == 0 {
		if err := h.nextEncounter(); err != nil {
			return err
		}
	}
	res, err := h.engine.ProcessRound(h.state, battle.RoundInput{Outcome: outcome, Move: move})
	if err != nil {
		return err
	}
	h.printLines(res.LogLines)
	if r := res.Resolution; r != nil && r.Kind == battle.Caught {
		return h.saveCaught(r)
	}
	if res.FaintedSide == battle.SideWild && res.Resolution == nil {
		h.println("The wild creature fainted: catch or defeat?")
	}
	return nil
}

func (h *host) saveCaught(r *battle.Resolution) error {
	if r.Repeat || r.Creature == nil {
		return nil
	}
	_, err := h.store.SaveCaught(h.ctx, h.playerID, r.Creature)
	return err
}

func (h *host) decide(msgs []string, err error) error {
	if err != nil {
		return err
	}
	h.printLines(msgs)
	return nil
}

// afterCommand prompts for pending decisions, and once the encounter is over
// and nothing is pending, saves progress and starts the next encounter.
func (h *host) afterCommand() error {
	if pending := h.state.Pending(); len(pending) > 0 {
		h.println("decision:", pending[0].String())
		return nil
	}
	if h.state.Active() {
		return nil
	}
	if err := h.persist(); err != nil {
		return err
	}
	return h.startEncounter()
}

// startEncounter reports a failed encounter generation without stopping the host.
func (h *host) startEncounter() error {
	err := h.nextEncounter()
	if err != nil && recoverable(err) {
		h.println("error:", err)
		return nil
	}
	return err
}

func (h *host) nextEncounter() error {
	msgs, err := h.engine.NewEncounter(h.state)
	if err != nil {
		return err
	}
	h.encounters++
	observability.EncounterLogger(h.logger, fmt.Sprintf("%s-%d", h.playerID, h.encounters), h.state.Player.Species, h.state.Wild.Species).
		Debug("encounter ready", zap.Int("total_reviews", h.state.TotalReviews))
	h.printLines(msgs)
	return nil
}

func (h *host) persist() error {
	if err := h.store.SaveMain(h.ctx, h.playerID, h.state.Player); err != nil {
		return err
	}
	return h.store.SaveTrainer(h.ctx, h.playerID, postgres.TrainerProgress{
		Trainer:      h.state.Trainer,
		TotalReviews: h.state.TotalReviews,
	})
}

func (h *host) printStatus() {
	snap := h.state.Snapshot(h.levelCap)
	p := snap.Player
	h.println(fmt.Sprintf("%s Lv%d HP %d/%d XP %d/%d status=%s moves=%s trainer=Lv%d",
		p.Name, p.Level, p.CurrentHP, p.MaxHP, p.XP, p.NextLevelXP, p.Status, strings.Join(p.Moves, ","), h.state.Trainer.Level()))
	if w := snap.Wild; w != nil {
		h.println(fmt.Sprintf("wild %s Lv%d HP %d/%d status=%s", w.Name, w.Level, w.CurrentHP, w.MaxHP, w.Status))
	}
	for _, d := range snap.Pending {
		h.println("pending:", d.String())
	}
}

func (h *host) printCollection() error {
	caught, err := h.store.ListCaught(h.ctx, h.playerID)
	if err != nil {
		return err
	}
	if len(caught) == 0 {
		h.println("No creatures caught yet.")
		return nil
	}
	for i, c := range caught {
		h.println(fmt.Sprintf("%d. %s Lv%d", i+1, c.DisplayName(), c.Level))
	}
	return nil
}

func (h *host) printLines(lines []string) {
	for _, l := range lines {
		h.println(l)
	}
}

func (h *host) println(a ...any) {
	fmt.Fprintln(h.out, a...)
}
