package battle

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
)

const (
	eventWin  = "win"
	eventLose = "lose"
	eventFlee = "flee"
)

var phaseEvents = map[Phase]string{
	PhaseVictory: eventWin,
	PhaseDefeat:  eventLose,
	PhaseFled:    eventFlee,
}

// newPhaseMachine 战斗阶段状态机：in_progress → {victory, defeat, fled}，终态不可再转移
func newPhaseMachine(current Phase) *fsm.FSM {
	src := []string{string(PhaseInProgress)}
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{Name: eventWin, Src: src, Dst: string(PhaseVictory)},
			{Name: eventLose, Src: src, Dst: string(PhaseDefeat)},
			{Name: eventFlee, Src: src, Dst: string(PhaseFled)},
		},
		fsm.Callbacks{},
	)
}

// CanTransition 当前阶段能否转移到 to
func CanTransition(from, to Phase) bool {
	event, ok := phaseEvents[to]
	if !ok {
		return false
	}
	return newPhaseMachine(from).Can(event)
}

// TransitionTo 将战斗转移到终态并记录结束时间
func (s *BattleState) TransitionTo(ctx context.Context, to Phase, now time.Time) error {
	event, ok := phaseEvents[to]
	if !ok {
		return fmt.Errorf("battle %s: unknown target phase %q", s.BattleID, to)
	}
	machine := newPhaseMachine(s.Phase)
	if err := machine.Event(ctx, event); err != nil {
		return fmt.Errorf("battle %s: %s -> %s: %w", s.BattleID, s.Phase, to, err)
	}
	s.Phase = Phase(machine.Current())
	ended := now
	s.EndedAt = &ended
	s.PendingActions = map[string]BattleAction{}
	return nil
}
