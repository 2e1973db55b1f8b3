package battle

import "github.com/peterkuimelis/monbattle/internal/log"

// Trigger is a passive ability or held item that reacts to move resolution.
// Any hook may be nil.
type Trigger struct {
	Name string

	// BeforeMove runs for the user's triggers before the move commits.
	// Returning true blocks the move.
	BeforeMove func(ec *ExecutionContext) bool

	// AfterMove runs for the user's triggers once the move has resolved.
	AfterMove func(ec *ExecutionContext)

	// OnHit runs for the target's triggers after it was hit by a move.
	// holder is the slot carrying the trigger.
	OnHit func(ec *ExecutionContext, holder SlotRef)
}

// TriggerRegistry maps ability and item names to their trigger constructors.
var TriggerRegistry = map[string]func() *Trigger{
	"Truant":     Truant,
	"Shell Bell": ShellBell,
	"Life Orb":   LifeOrb,
	"Rough Skin": RoughSkin,
}

// LookupTrigger returns the trigger for an ability or item name, or nil.
func LookupTrigger(name string) *Trigger {
	if name == "" {
		return nil
	}
	ctor, ok := TriggerRegistry[name]
	if !ok {
		return nil
	}
	return ctor()
}

// triggersOf returns the combatant's ability trigger then item trigger.
func triggersOf(c *Combatant) []*Trigger {
	if c == nil {
		return nil
	}
	var out []*Trigger
	if t := LookupTrigger(c.Ability); t != nil {
		out = append(out, t)
	}
	if t := LookupTrigger(c.Item); t != nil {
		out = append(out, t)
	}
	return out
}

// Truant loafs on every other move attempt.
func Truant() *Trigger {
	return &Trigger{
		Name: "Truant",
		BeforeMove: func(ec *ExecutionContext) bool {
			slot := ec.UserSlot()
			if slot.InactiveTurn {
				slot.InactiveTurn = false
				ec.Message(log.MsgLoafing, ec.UserName())
				return true
			}
			slot.InactiveTurn = true
			return false
		},
	}
}

// ShellBell restores 1/8 of the damage the holder dealt.
func ShellBell() *Trigger {
	return &Trigger{
		Name: "Shell Bell",
		AfterMove: func(ec *ExecutionContext) {
			c := ec.UserSlot().Combatant
			if ec.DamageDealt <= 0 || c.HP >= c.MaxHP {
				return
			}
			ec.Emit(
				NewHealAction(ec.User.Ref(), ec.User, fractionOf(ec.DamageDealt, 8), c.Name),
				NewMessage(ec.User.Ref(), log.MsgRestoredByItem, c.Name, "Shell Bell"),
			)
		},
	}
}

// LifeOrb costs the holder 1/10 of its max HP after each damaging move.
// The damage boost lives in StandardDamage.
func LifeOrb() *Trigger {
	return &Trigger{
		Name: "Life Orb",
		AfterMove: func(ec *ExecutionContext) {
			if ec.DamageDealt <= 0 || ec.MoveDef().Category == CategoryStatus {
				return
			}
			c := ec.UserSlot().Combatant
			ec.Emit(
				NewDamageAction(ec.User.Ref(), ec.User, fractionOf(c.MaxHP, 10), CategoryStatus, c.Name),
				NewMessage(ec.User.Ref(), log.MsgHurtByItem, c.Name, "Life Orb"),
			)
		},
	}
}

// RoughSkin damages contact attackers by 1/8 of their max HP.
func RoughSkin() *Trigger {
	return &Trigger{
		Name: "Rough Skin",
		OnHit: func(ec *ExecutionContext, holder SlotRef) {
			if ec.DamageDealt <= 0 || !ec.MoveDef().Contact {
				return
			}
			attacker := ec.UserSlot().Combatant
			ec.Emit(
				NewDamageAction(holder.Ref(), ec.User, fractionOf(attacker.MaxHP, 8), CategoryStatus, attacker.Name),
				NewMessage(holder.Ref(), log.MsgHurtByAbility, attacker.Name, ec.Field.nameAt(holder), "Rough Skin"),
			)
		},
	}
}
