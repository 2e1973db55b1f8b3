package battle

import (
	"math"
	"testing"

	"github.com/peterkuimelis/monbattle/internal/log"
)

func dispatch(t *testing.T, d *Dispatcher, f *Field, e Effect, m *MoveDef, dealt int) Outcome {
	t.Helper()
	out, ok := d.Dispatch(EffectRequest{Effect: e, User: p1Slot, Target: p2Slot, Move: m, Field: f, DamageDealt: dealt})
	if !ok {
		t.Fatalf("no processor for %s", e.Kind())
	}
	return out
}

func TestRecoil(t *testing.T) {
	f := singlesField(mon("User", 50), mon("Target", 50))
	d := NewDispatcher(&fixedSource{}, nil)

	tests := []struct {
		dealt, percent, want int
	}{
		{0, 25, 0},
		{1, 25, 1},
		{100, 33, 33},
		{120, 25, 30},
	}
	for _, tt := range tests {
		out := dispatch(t, d, f, RecoilEffect{Percent: tt.percent}, tackle(), tt.dealt)
		dmg := actionsOf[*DamageAction](out.Actions)
		if tt.want == 0 {
			if len(out.Actions) != 0 {
				t.Errorf("dealt %d: expected no recoil, got %d actions", tt.dealt, len(out.Actions))
			}
			continue
		}
		if len(dmg) != 1 || dmg[0].Amount != tt.want || dmg[0].Target != p1Slot {
			t.Errorf("dealt %d at %d%%: recoil = %+v, want %d to the user", tt.dealt, tt.percent, dmg, tt.want)
		}
		if out.Damage != 0 {
			t.Errorf("recoil should not count as damage dealt, got %d", out.Damage)
		}
	}
}

func TestDrain(t *testing.T) {
	f := singlesField(mon("User", 50), mon("Target", 50))
	d := NewDispatcher(&fixedSource{}, nil)

	out := dispatch(t, d, f, DrainEffect{Percent: 50}, tackle(), 0)
	if len(out.Actions) != 0 {
		t.Errorf("drain with no damage produced %d actions", len(out.Actions))
	}
	out = dispatch(t, d, f, DrainEffect{Percent: 50}, tackle(), 45)
	heals := actionsOf[*HealAction](out.Actions)
	if len(heals) != 1 || heals[0].Amount != 22 || heals[0].Target != p1Slot {
		t.Errorf("drain = %+v, want 22 to the user", heals)
	}
}

func TestDamageProcessorClampsToHP(t *testing.T) {
	target := mon("Target", 50)
	target.HP = 7
	f := singlesField(mon("User", 50), target)
	d := NewDispatcher(&fixedSource{}, fixedDamage(50))

	out := dispatch(t, d, f, DamageEffect{}, tackle(), 0)
	if out.Damage != 7 {
		t.Errorf("Damage = %d, want 7", out.Damage)
	}
	dmg := actionsOf[*DamageAction](out.Actions)
	if len(dmg) != 1 || dmg[0].Amount != 7 || dmg[0].Category != CategoryPhysical {
		t.Errorf("damage actions = %+v", dmg)
	}
}

func TestProtectChance(t *testing.T) {
	want := []float64{1, 1, 0.5, 0.25, 0.125}
	for count, w := range want {
		if got := ProtectChance(count); math.Abs(got-w) > 1e-9 {
			t.Errorf("ProtectChance(%d) = %v, want %v", count, got, w)
		}
	}
}

func TestProtectCounterGrowsOnFailure(t *testing.T) {
	f := singlesField(mon("User", 50), mon("Target", 50))
	// First use always succeeds; 0.6 fails the second (chance 0.5); 0.1 passes
	// the third (chance 0.25).
	src := &fixedSource{floats: []float64{0.0, 0.6, 0.1}}
	d := NewDispatcher(src, nil)
	slot := f.Slot(p1Slot)
	m := protectMove()

	out := dispatch(t, d, f, ProtectEffect{}, m, 0)
	if out.Stop || len(actionsOf[*VolatileAction](out.Actions)) != 1 {
		t.Fatalf("first protect failed: %v", messageKeys(out.Actions))
	}
	if slot.ProtectCount != 1 {
		t.Errorf("ProtectCount = %d, want 1", slot.ProtectCount)
	}

	out = dispatch(t, d, f, ProtectEffect{}, m, 0)
	if !out.Stop || !hasKey(messageKeys(out.Actions), log.MsgMoveFailed) {
		t.Errorf("second protect should fail: %v", messageKeys(out.Actions))
	}
	if slot.ProtectCount != 2 {
		t.Errorf("ProtectCount after failure = %d, want 2", slot.ProtectCount)
	}

	out = dispatch(t, d, f, ProtectEffect{}, m, 0)
	if out.Stop {
		t.Error("third protect should succeed with roll 0.1 < 0.25")
	}
	if slot.ProtectCount != 3 {
		t.Errorf("ProtectCount = %d, want 3", slot.ProtectCount)
	}
}

func TestProtectCountResetsAfterTurnWithoutProtect(t *testing.T) {
	f := singlesField(mon("User", 50), mon("Target", 50))
	d := NewDispatcher(&fixedSource{}, nil)
	slot := f.Slot(p1Slot)

	dispatch(t, d, f, ProtectEffect{}, protectMove(), 0)
	slot.endTurn()
	if slot.ProtectCount != 1 {
		t.Fatalf("ProtectCount = %d after a protected turn, want 1", slot.ProtectCount)
	}
	slot.endTurn()
	if slot.ProtectCount != 0 {
		t.Errorf("ProtectCount = %d after a turn without protect, want 0", slot.ProtectCount)
	}
}

func TestCounter(t *testing.T) {
	d := NewDispatcher(&fixedSource{}, nil)

	t.Run("no damage taken", func(t *testing.T) {
		f := singlesField(mon("User", 50), mon("Target", 50))
		out := dispatch(t, d, f, CounterEffect{Category: CategoryPhysical}, counterMove(), 0)
		if len(out.Actions) != 0 || out.Damage != 0 {
			t.Errorf("expected nothing, got %d actions", len(out.Actions))
		}
	})

	t.Run("doubles physical damage", func(t *testing.T) {
		f := singlesField(mon("User", 50), mon("Target", 50))
		f.Slot(p1Slot).recordHit(CategoryPhysical, 30, p2Slot.Ref())
		out := dispatch(t, d, f, CounterEffect{Category: CategoryPhysical}, counterMove(), 0)
		dmg := actionsOf[*DamageAction](out.Actions)
		if len(dmg) != 1 || dmg[0].Amount != 60 || dmg[0].Target != p2Slot {
			t.Fatalf("counter damage = %+v, want 60 to the attacker", dmg)
		}
		if out.Damage != 60 {
			t.Errorf("Damage = %d, want 60", out.Damage)
		}
		if !hasKey(messageKeys(out.Actions), log.MsgCountered) {
			t.Errorf("messages = %v", messageKeys(out.Actions))
		}
	})

	t.Run("wrong category", func(t *testing.T) {
		f := singlesField(mon("User", 50), mon("Target", 50))
		f.Slot(p1Slot).recordHit(CategorySpecial, 30, p2Slot.Ref())
		out := dispatch(t, d, f, CounterEffect{Category: CategoryPhysical}, counterMove(), 0)
		if len(out.Actions) != 0 {
			t.Errorf("physical counter answered special damage: %d actions", len(out.Actions))
		}
	})

	t.Run("clamped to attacker HP", func(t *testing.T) {
		attacker := mon("Target", 50)
		attacker.HP = 25
		f := singlesField(mon("User", 50), attacker)
		f.Slot(p1Slot).recordHit(CategoryPhysical, 30, p2Slot.Ref())
		out := dispatch(t, d, f, CounterEffect{Category: CategoryPhysical}, counterMove(), 0)
		if out.Damage != 25 {
			t.Errorf("Damage = %d, want 25", out.Damage)
		}
	})

	t.Run("attacker gone", func(t *testing.T) {
		attacker := mon("Target", 50)
		f := singlesField(mon("User", 50), attacker)
		f.Slot(p1Slot).recordHit(CategoryPhysical, 30, p2Slot.Ref())
		attacker.HP = 0
		out := dispatch(t, d, f, CounterEffect{Category: CategoryPhysical}, counterMove(), 0)
		if !hasKey(messageKeys(out.Actions), log.MsgMoveFailed) || out.Damage != 0 {
			t.Errorf("expected failure message, got %v", messageKeys(out.Actions))
		}
	})
}

func TestStatusEffect(t *testing.T) {
	wave := &MoveDef{Name: "Thunder Wave", Category: CategoryStatus, PP: 20}

	t.Run("applies", func(t *testing.T) {
		f := singlesField(mon("User", 50), mon("Target", 50))
		out := dispatch(t, failingDispatcher(), f, StatusEffect{Status: StatusParalysis}, wave, 0)
		st := actionsOf[*StatusAction](out.Actions)
		if len(st) != 1 || st[0].Status != StatusParalysis || st[0].Target != p2Slot {
			t.Errorf("status actions = %+v", st)
		}
	})

	t.Run("already has status", func(t *testing.T) {
		target := mon("Target", 50)
		target.Status = StatusBurn
		f := singlesField(mon("User", 50), target)
		out := dispatch(t, failingDispatcher(), f, StatusEffect{Status: StatusParalysis}, wave, 0)
		if len(actionsOf[*StatusAction](out.Actions)) != 0 {
			t.Error("status overwritten")
		}
		if !hasKey(messageKeys(out.Actions), log.MsgAlreadyHasStatus) {
			t.Errorf("messages = %v", messageKeys(out.Actions))
		}
	})

	t.Run("secondary chance", func(t *testing.T) {
		f := singlesField(mon("User", 50), mon("Target", 50))
		// 9 < 10 succeeds
		src := &fixedSource{ints: []int{9}}
		out := dispatch(t, NewDispatcher(src, nil), f, StatusEffect{Status: StatusBurn, Chance: 10}, wave, 0)
		if len(actionsOf[*StatusAction](out.Actions)) != 1 {
			t.Error("10% burn with roll 9 should apply")
		}
		// default roll 99 fails
		out = dispatch(t, failingDispatcher(), f, StatusEffect{Status: StatusBurn, Chance: 10}, wave, 0)
		if len(out.Actions) != 0 {
			t.Errorf("10%% burn with roll 99 applied: %d actions", len(out.Actions))
		}
	})

	t.Run("secondary skipped on knockout", func(t *testing.T) {
		target := mon("Target", 50)
		target.HP = 20
		f := singlesField(mon("User", 50), target)
		out := dispatch(t, failingDispatcher(), f, StatusEffect{Status: StatusBurn}, wave, 20)
		if len(out.Actions) != 0 {
			t.Errorf("status applied to a target about to faint")
		}
	})

	t.Run("sleep duration", func(t *testing.T) {
		f := singlesField(mon("User", 50), mon("Target", 50))
		src := &fixedSource{ints: []int{1}}
		out := dispatch(t, NewDispatcher(src, nil), f, StatusEffect{Status: StatusSleep}, wave, 0)
		st := actionsOf[*StatusAction](out.Actions)
		if len(st) != 1 || st[0].SleepTurns != 2 {
			t.Errorf("sleep actions = %+v, want 2 turns", st)
		}
	})
}

// failingDispatcher returns a dispatcher whose chance rolls always fail.
func failingDispatcher() *Dispatcher {
	return NewDispatcher(&fixedSource{}, nil)
}

func TestStatChangeLimit(t *testing.T) {
	user := mon("User", 50)
	f := singlesField(user, mon("Target", 50))
	dance := StatChangeEffect{Stat: StatAttack, Stages: 2, Self: true}
	m := &MoveDef{Name: "Swords Dance", Category: CategoryStatus, PP: 20, SelfTarget: true}

	out := dispatch(t, failingDispatcher(), f, dance, m, 0)
	sc := actionsOf[*StatChangeAction](out.Actions)
	if len(sc) != 1 || sc[0].Target != p1Slot || sc[0].Stages != 2 {
		t.Fatalf("stat change = %+v", sc)
	}

	user.Stages[StatAttack] = MaxStage
	out = dispatch(t, failingDispatcher(), f, dance, m, 0)
	if len(actionsOf[*StatChangeAction](out.Actions)) != 0 {
		t.Error("stat raised past the limit")
	}
	if !hasKey(messageKeys(out.Actions), log.MsgStatWontGo) {
		t.Errorf("messages = %v", messageKeys(out.Actions))
	}
}

func TestStatChangeActionClamps(t *testing.T) {
	user := mon("User", 50)
	user.Stages[StatSpeed] = 5
	f := singlesField(user, mon("Target", 50))
	NewStatChangeAction(nil, p1Slot, StatSpeed, 2, user.Name).Logic(f)
	if user.Stages[StatSpeed] != MaxStage {
		t.Errorf("speed stage = %d, want %d", user.Stages[StatSpeed], MaxStage)
	}
}

func TestHeal(t *testing.T) {
	user := mon("User", 50)
	f := singlesField(user, mon("Target", 50))

	out := dispatch(t, failingDispatcher(), f, HealEffect{Percent: 50}, &MoveDef{Name: "Recover", PP: 5}, 0)
	heals := actionsOf[*HealAction](out.Actions)
	if len(heals) != 1 || heals[0].Amount != 80 {
		t.Fatalf("heal = %+v, want 80", heals)
	}

	user.HP = 150
	heals[0].Logic(f)
	if user.HP != user.MaxHP {
		t.Errorf("HP = %d, healing should cap at %d", user.HP, user.MaxHP)
	}
}

func TestWeatherEffect(t *testing.T) {
	f := singlesField(mon("User", 50), mon("Target", 50))
	dance := &MoveDef{Name: "Rain Dance", Category: CategoryStatus, PP: 5, SelfTarget: true}

	out := dispatch(t, failingDispatcher(), f, WeatherEffect{Weather: WeatherRain}, dance, 0)
	w := actionsOf[*WeatherAction](out.Actions)
	if len(w) != 1 || w[0].Turns != DefaultFieldTurns {
		t.Fatalf("weather actions = %+v", w)
	}
	w[0].Logic(f)
	if f.Weather != WeatherRain || f.WeatherTurns != DefaultFieldTurns {
		t.Errorf("weather = %s (%d turns)", f.Weather, f.WeatherTurns)
	}

	out = dispatch(t, failingDispatcher(), f, WeatherEffect{Weather: WeatherRain}, dance, 0)
	if !hasKey(messageKeys(out.Actions), log.MsgMoveFailed) {
		t.Errorf("repeating active weather should fail, got %v", messageKeys(out.Actions))
	}
}

func TestDispatchUnregistered(t *testing.T) {
	disp := failingDispatcher()
	disp.Register(EffectHeal, nil)
	f := singlesField(mon("User", 50), mon("Target", 50))

	if _, ok := disp.Dispatch(EffectRequest{Effect: HealEffect{Percent: 50}, User: p1Slot, Target: p1Slot, Field: f}); ok {
		t.Error("Dispatch reported a handler for an unregistered kind")
	}
	if _, ok := disp.Dispatch(EffectRequest{Field: f}); ok {
		t.Error("Dispatch of a nil effect reported a handler")
	}
}

func TestDispatchCustomProcessor(t *testing.T) {
	disp := failingDispatcher()
	calls := 0
	disp.Register(EffectHeal, ProcessorFunc(func(req EffectRequest) Outcome {
		calls++
		return Outcome{Stop: true}
	}))
	f := singlesField(mon("User", 50), mon("Target", 50))
	out, ok := disp.Dispatch(EffectRequest{Effect: HealEffect{}, User: p1Slot, Target: p1Slot, Field: f})
	if !ok || !out.Stop || calls != 1 {
		t.Errorf("custom processor: ok=%v stop=%v calls=%d", ok, out.Stop, calls)
	}
}

func TestDamageActionFaintsAndRecordsHit(t *testing.T) {
	user := mon("User", 50)
	target := mon("Target", 50)
	target.HP = 10
	f := singlesField(user, target)

	reactions := NewDamageAction(p1Slot.Ref(), p2Slot, 25, CategoryPhysical, target.Name).Logic(f)
	if target.HP != 0 {
		t.Errorf("HP = %d, want 0", target.HP)
	}
	if len(actionsOf[*FaintAction](reactions)) != 1 {
		t.Errorf("expected a faint reaction, got %d actions", len(reactions))
	}
	slot := f.Slot(p2Slot)
	if slot.PhysicalDamageTaken != 10 || slot.LastPhysicalFrom == nil || *slot.LastPhysicalFrom != p1Slot {
		t.Errorf("hit not recorded: taken=%d from=%v", slot.PhysicalDamageTaken, slot.LastPhysicalFrom)
	}
}

func TestStandardDamage(t *testing.T) {
	a := mon("Attacker", 50)
	def := mon("Defender", 50)
	m := tackle()

	// (22*40*105/105)/50 + 2 = 19.6 before the spread
	if got := (StandardDamage{}).Damage(DamageContext{Attacker: a, Defender: def, Move: m, Rand: &fixedSource{}}); got != 19 {
		t.Errorf("max roll = %d, want 19", got)
	}
	if got := (StandardDamage{}).Damage(DamageContext{Attacker: a, Defender: def, Move: m, Rand: &fixedSource{ints: []int{0}}}); got != 16 {
		t.Errorf("min roll = %d, want 16", got)
	}

	a.Status = StatusBurn
	if got := (StandardDamage{}).Damage(DamageContext{Attacker: a, Defender: def, Move: m, Rand: &fixedSource{}}); got != 9 {
		t.Errorf("burned = %d, want 9", got)
	}

	status := &MoveDef{Name: "Growl", Category: CategoryStatus}
	if got := (StandardDamage{}).Damage(DamageContext{Attacker: a, Defender: def, Move: status, Rand: &fixedSource{}}); got != 0 {
		t.Errorf("status move dealt %d", got)
	}
}

func TestStandardDamageWeather(t *testing.T) {
	a := mon("Attacker", 50)
	def := mon("Defender", 50)
	surf := &MoveDef{Name: "Surf", Type: "Water", Category: CategorySpecial, Power: 40, Accuracy: 100, PP: 15}
	f := singlesField(a, def)
	f.Weather = WeatherRain

	// 19.6 * 1.5 = 29.4
	if got := (StandardDamage{}).Damage(DamageContext{Attacker: a, Defender: def, Move: surf, Field: f, Rand: &fixedSource{}}); got != 29 {
		t.Errorf("rain-boosted = %d, want 29", got)
	}
	f.Weather = WeatherSun
	if got := (StandardDamage{}).Damage(DamageContext{Attacker: a, Defender: def, Move: surf, Field: f, Rand: &fixedSource{}}); got != 9 {
		t.Errorf("sun-weakened = %d, want 9", got)
	}
}
