package battle

import (
	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// Handlers are narrow checks and mutations, each used by a single stage.

// isProtected reports whether the target's protection blocks the move.
func isProtected(f *Field, user, target SlotRef, m *MoveDef) bool {
	if user == target || m.BypassProtect {
		return false
	}
	slot := f.Slot(target)
	return slot != nil && slot.Has(VolatileProtected)
}

// isOutOfReach reports whether the target's dodge state puts it beyond the move.
func isOutOfReach(f *Field, user, target SlotRef, m *MoveDef) bool {
	if user == target {
		return false
	}
	slot := f.Slot(target)
	return slot != nil && !m.Reaches(slot.Dodge)
}

// cancelConflictingStates drops charge state left behind by a different move.
func cancelConflictingStates(slot *Slot, m *MoveDef) {
	if slot.Charging != nil && slot.Charging != m {
		slot.Charging = nil
		slot.Dodge = DodgeNone
	}
	if slot.Focusing && !m.Focus {
		slot.Focusing = false
		slot.FocusBroken = false
	}
}

// failureCleanup resets multi-turn state after a move fails to land.
func failureCleanup(slot *Slot) {
	if slot == nil {
		return
	}
	slot.Charging = nil
	slot.Dodge = DodgeNone
}

// validateExecution checks PP and forced inaction. It returns false with the
// failure message already emitted when the user cannot act. Sleep and freeze
// counters advance here.
func validateExecution(ec *ExecutionContext, src rng.Source) bool {
	slot := ec.UserSlot()
	c := slot.Combatant
	name := c.Name

	if ec.Move.PP <= 0 {
		ec.Message(log.MsgNoPP, name, ec.Move.Def.Name)
		return false
	}

	if slot.Has(VolatileRecharge) {
		slot.Remove(VolatileRecharge)
		ec.Message(log.MsgMustRecharge, name)
		return false
	}

	switch c.Status {
	case StatusSleep:
		if c.SleepTurns > 0 {
			c.SleepTurns--
			ec.Message(log.MsgFastAsleep, name)
			failureCleanup(slot)
			return false
		}
		c.Status = StatusNone
		ec.Message(log.MsgWokeUp, name)
	case StatusFreeze:
		if src.Intn(100) >= 20 {
			ec.Message(log.MsgFrozen, name)
			failureCleanup(slot)
			return false
		}
		c.Status = StatusNone
		ec.Message(log.MsgThawed, name)
	case StatusParalysis:
		if src.Intn(100) < 25 {
			ec.Message(log.MsgFullyParalyzed, name)
			failureCleanup(slot)
			return false
		}
	}

	if slot.Has(VolatileFlinch) {
		ec.Message(log.MsgFlinched, name)
		failureCleanup(slot)
		return false
	}

	return true
}

// beginCharge handles the first turn of a two-turn move. It returns true when
// this attempt is only the charge turn.
func beginCharge(ec *ExecutionContext) bool {
	m := ec.MoveDef()
	slot := ec.UserSlot()
	if slot.Charging == m {
		// Release turn.
		slot.Charging = nil
		slot.Dodge = DodgeNone
		return false
	}
	if m.Charge.SkipIn != WeatherNone && ec.Field.Weather == m.Charge.SkipIn {
		return false
	}
	slot.Charging = m
	slot.Dodge = m.Charge.Dodge
	ec.Message(log.MsgCharging, ec.UserName(), m.Charge.Message)
	return true
}

// focusLost reports whether damage this turn broke a focus move's concentration.
func focusLost(ec *ExecutionContext) bool {
	slot := ec.UserSlot()
	if !slot.FocusBroken {
		return false
	}
	slot.Focusing = false
	slot.FocusBroken = false
	ec.Message(log.MsgLostFocus, ec.UserName())
	return true
}
