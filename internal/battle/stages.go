package battle

import (
	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// --- 10: Initial validation ---

// initialValidation erases the attempt when the user cannot act or the target
// slot is empty. A fainted target is allowed through.
type initialValidation struct{}

func (initialValidation) Name() string  { return "InitialValidation" }
func (initialValidation) Priority() int { return PriorityInitialValidation }

func (initialValidation) Run(ec *ExecutionContext) StageResult {
	if ec.Move == nil || ec.Move.Def == nil {
		return Stop
	}
	user := ec.UserSlot()
	if user == nil || !user.Active() {
		return Stop
	}
	target := ec.TargetSlot()
	if target == nil || target.Empty() {
		return Stop
	}
	return Continue
}

// --- 20: Cancel conflicting states ---

type cancelConflicts struct{}

func (cancelConflicts) Name() string  { return "CancelConflictingStates" }
func (cancelConflicts) Priority() int { return PriorityCancelConflicts }

func (cancelConflicts) Run(ec *ExecutionContext) StageResult {
	cancelConflictingStates(ec.UserSlot(), ec.MoveDef())
	return Continue
}

// --- 30: Before-move triggers ---

type beforeMove struct{}

func (beforeMove) Name() string  { return "BeforeMove" }
func (beforeMove) Priority() int { return PriorityBeforeMove }

func (beforeMove) Run(ec *ExecutionContext) StageResult {
	for _, t := range triggersOf(ec.UserSlot().Combatant) {
		if t.BeforeMove != nil && t.BeforeMove(ec) {
			return Stop
		}
	}
	return Continue
}

// --- 40: Execution validation ---

type executionValidation struct {
	src rng.Source
}

func (executionValidation) Name() string  { return "ExecutionValidation" }
func (executionValidation) Priority() int { return PriorityExecutionValidation }

func (s executionValidation) Run(ec *ExecutionContext) StageResult {
	if !validateExecution(ec, s.src) {
		return Stop
	}
	return Continue
}

// --- 50: Special behavior (charge, focus, counter target) ---

type specialBehavior struct{}

func (specialBehavior) Name() string  { return "SpecialBehavior" }
func (specialBehavior) Priority() int { return PrioritySpecialBehavior }

func (specialBehavior) Run(ec *ExecutionContext) StageResult {
	retargetCounter(ec)
	if ec.MultiTurn && beginCharge(ec) {
		return Stop
	}
	if ec.Focus && focusLost(ec) {
		return Stop
	}
	return Continue
}

// --- 60: PP consumption ---

type ppConsumption struct{}

func (ppConsumption) Name() string  { return "PPConsumption" }
func (ppConsumption) Priority() int { return PriorityPPConsumption }

func (ppConsumption) Run(ec *ExecutionContext) StageResult {
	if ec.PPConsumed {
		return Continue
	}
	ec.Move.PP--
	ec.PPConsumed = true
	ec.Message(log.MsgMoveUsed, ec.UserName(), ec.MoveDef().Name)
	return Continue
}

// --- 70: Protection ---

type protectionCheck struct{}

func (protectionCheck) Name() string  { return "ProtectionCheck" }
func (protectionCheck) Priority() int { return PriorityProtectionCheck }

func (protectionCheck) Run(ec *ExecutionContext) StageResult {
	if isProtected(ec.Field, ec.User, ec.Target, ec.MoveDef()) {
		ec.Message(log.MsgProtected, ec.TargetName())
		return Stop
	}
	return Continue
}

// --- 80: Semi-invulnerable ---

type semiInvulnerableCheck struct{}

func (semiInvulnerableCheck) Name() string  { return "SemiInvulnerableCheck" }
func (semiInvulnerableCheck) Priority() int { return PrioritySemiInvulnerable }

func (semiInvulnerableCheck) Run(ec *ExecutionContext) StageResult {
	if isOutOfReach(ec.Field, ec.User, ec.Target, ec.MoveDef()) {
		ec.Message(log.MsgEvaded, ec.TargetName())
		failureCleanup(ec.UserSlot())
		return Stop
	}
	return Continue
}

// --- 90: Accuracy ---

type accuracyCheck struct {
	eval   *AccuracyEvaluator
	logger *zap.Logger
}

func (accuracyCheck) Name() string  { return "AccuracyCheck" }
func (accuracyCheck) Priority() int { return PriorityAccuracyCheck }

func (s accuracyCheck) Run(ec *ExecutionContext) StageResult {
	target := ec.TargetSlot()
	if !target.Active() || ec.User == ec.Target {
		return Continue
	}
	hit, err := s.eval.CheckHit(ec.UserSlot().Combatant, target.Combatant, ec.MoveDef(), ec.Field, nil)
	if err != nil {
		s.logger.Error("accuracy check", zap.Error(err))
		return Stop
	}
	if !hit {
		ec.Message(log.MsgMissed, ec.UserName())
		failureCleanup(ec.UserSlot())
		return Stop
	}
	return Continue
}

// --- 100: Effect processing ---

type effectProcessing struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func (effectProcessing) Name() string  { return "EffectProcessing" }
func (effectProcessing) Priority() int { return PriorityEffectProcessing }

func (s effectProcessing) Run(ec *ExecutionContext) StageResult {
	m := ec.MoveDef()
	if !ec.TargetSlot().Active() {
		// Committed against a fainted target: nothing to resolve.
		return Continue
	}
	for _, e := range m.AllEffects() {
		out, ok := s.dispatcher.Dispatch(EffectRequest{
			Effect:      e,
			User:        ec.User,
			Target:      ec.Target,
			Move:        m,
			Field:       ec.Field,
			DamageDealt: ec.DamageDealt,
		})
		if !ok {
			s.logger.Debug("unhandled effect", zap.String("move", m.Name), zap.Stringer("kind", e.Kind()))
			continue
		}
		ec.Emit(out.Actions...)
		ec.DamageDealt += out.Damage
		if out.Stop {
			return Stop
		}
	}
	if m.Recharge && ec.DamageDealt > 0 {
		ec.Emit(
			NewVolatileAction(ec.User.Ref(), ec.User, VolatileRecharge, ec.UserName()),
			NewMessage(ec.User.Ref(), log.MsgRecharging, ec.UserName()),
		)
	}
	return Continue
}

// --- 110: After-move triggers ---

type afterMove struct{}

func (afterMove) Name() string  { return "AfterMove" }
func (afterMove) Priority() int { return PriorityAfterMove }

func (afterMove) Run(ec *ExecutionContext) StageResult {
	for _, t := range triggersOf(ec.UserSlot().Combatant) {
		if t.AfterMove != nil {
			t.AfterMove(ec)
		}
	}
	if ec.User != ec.Target {
		for _, t := range triggersOf(ec.TargetSlot().Combatant) {
			if t.OnHit != nil {
				t.OnHit(ec, ec.Target)
			}
		}
	}
	return Continue
}
